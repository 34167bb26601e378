package policy

import (
	"encoding/json"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"gamesage/internal/answer"
	"gamesage/internal/answer/compose"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestEnforceEndingQuestion(t *testing.T) {
	draft := answer.Record{
		NoSpoilers: "The hero defeats the final boss and dies.",
	}

	got := Enforce(draft, "Explain the ending of Elden Ring")

	want := answer.Record{
		Topic:        answer.TopicSpoilers,
		Spoilers:     "The hero defeats the final boss and dies.",
		Warning:      MajorSpoilerWarning,
		CanBeSpoiler: true,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Enforce() mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Contains major spoilers", got.Warning)
}

func TestEnforceAppendsLeakToExistingSpoilers(t *testing.T) {
	draft := answer.Record{
		Topic:      answer.TopicCharacters,
		Spoilers:   "Ranni becomes a god.",
		NoSpoilers: "Radahn dies at the festival.",
		Warning:    "Late game",
	}

	got := Enforce(draft, "who is ranni")

	assert.Equal(t, "Ranni becomes a god.\nRadahn dies at the festival.", got.Spoilers)
	assert.Empty(t, got.NoSpoilers)
	assert.Equal(t, "Late game", got.Warning, "an existing warning is kept")
	assert.True(t, got.CanBeSpoiler)
}

func TestEnforceReleaseQuestion(t *testing.T) {
	draft := answer.Record{MetadataLine: "Released: 2020"}

	got := Enforce(draft, "When was Hades released?")

	assert.Equal(t, answer.TopicMetadata, got.Topic)
	assert.False(t, got.CanBeSpoiler)
	assert.Equal(t, "Released: 2020", compose.Compose(got))
}

func TestEnforceEmptyGameplayDraft(t *testing.T) {
	got := Enforce(answer.Record{Topic: answer.TopicGameplay}, "How does combat work?")

	assert.Equal(t, answer.TopicGameplay, got.Topic)
	assert.Empty(t, compose.Compose(got))
}

func TestEnforceDropsUnknownFields(t *testing.T) {
	var draft answer.Record
	require.NoError(t, json.Unmarshal([]byte(`{"topic":"lore","lore":"Old gods.","debug_trace":"x"}`), &draft))
	require.Contains(t, draft.FieldNames(), "debug_trace")

	got := Enforce(draft, "tell me the lore")

	assert.Equal(t, answer.SchemaFields, got.FieldNames())
	encoded, err := json.Marshal(got)
	require.NoError(t, err)
	assert.NotContains(t, string(encoded), "debug_trace")
	assert.NotNil(t, draft.Extra, "the draft itself is left alone")
}

func TestEnforceReplacesBlankWarning(t *testing.T) {
	got := Enforce(answer.Record{Spoilers: "x", Warning: "   "}, "explain the ending")

	assert.Equal(t, MajorSpoilerWarning, got.Warning)
	assert.Equal(t, "**Contains major spoilers**\n\n**Full Plot:**\nx", compose.Compose(got))
}

func TestEnforceRefiltersPlot(t *testing.T) {
	noSpoilers := "Elena wakes in a ruined keep. She meets a wandering knight. " +
		"The knight offers to guide her north. They cross the frozen pass. " +
		"A merchant joins the party. Elena learns to forge blades."

	got := Enforce(answer.Record{Topic: answer.TopicPlot, NoSpoilers: noSpoilers}, "what is the story")

	// 6 sentences -> 4 -> 2, where extraction stops changing the text. A
	// single pass would have kept four.
	assert.Equal(t, "Elena wakes in a ruined keep. She meets a wandering knight", got.NoSpoilers)
	assert.Empty(t, got.Spoilers)
	assert.Empty(t, got.Warning)
	assert.True(t, got.CanBeSpoiler)
}

func TestEnforceLeavesShortPlotAlone(t *testing.T) {
	got := Enforce(answer.Record{Topic: answer.TopicPlot, NoSpoilers: "A hero sets out. A city waits."}, "")
	assert.Equal(t, "A hero sets out. A city waits.", got.NoSpoilers)
}

func TestEnforceCatchesTriggerJoinedByCleaning(t *testing.T) {
	draft := answer.Record{
		Topic:      answer.TopicPlot,
		NoSpoilers: "The knight ki[3]lls nobody. The city sleeps.",
	}

	got := Enforce(draft, "story please")

	assert.Empty(t, got.NoSpoilers)
	assert.Equal(t, "The knight kills nobody. The city sleeps.", got.Spoilers)
	assert.Equal(t, MajorSpoilerWarning, got.Warning)
}

func TestEnforceDoesNotReclassifyKnownTopic(t *testing.T) {
	got := Enforce(answer.Record{Topic: answer.TopicTips}, "When was it released?")
	assert.Equal(t, answer.TopicTips, got.Topic)
}

func TestEnforceInjectedTriggers(t *testing.T) {
	terms := answer.DefaultTerms()
	terms.SpoilerTriggers = []string{"secret"}
	e := New(terms)

	got := e.Enforce(answer.Record{Topic: answer.TopicLore, NoSpoilers: "The hero dies. A secret door opens."}, "")
	assert.Empty(t, got.NoSpoilers)

	got = e.Enforce(answer.Record{Topic: answer.TopicLore, NoSpoilers: "The hero dies."}, "")
	assert.Equal(t, "The hero dies.", got.NoSpoilers)
}

// propertyCases covers a spread of drafts and queries for the properties
// every corrected record must hold.
var propertyCases = []struct {
	draft answer.Record
	query string
}{
	{answer.Record{}, ""},
	{answer.Record{}, "Hello there"},
	{answer.Record{Topic: answer.TopicSummary}, "how long is it"},
	{answer.Record{Topic: "nonsense", Summary: "x"}, "tips for the puzzle"},
	{answer.Record{Spoilers: "   "}, "the plot"},
	{answer.Record{NoSpoilers: "Then comes the TWIST."}, "story"},
	{answer.Record{Topic: answer.TopicPlot, NoSpoilers: strings.Repeat("A calm sentence here. ", 40)}, ""},
	{answer.Record{Topic: answer.TopicPlot, NoSpoilers: "One (a). Two [1]. Three.\tFour.  Five! Six? Seven. Eight."}, ""},
	{answer.Record{Topic: answer.TopicPlot, NoSpoilers: "Start.\t\tMiddle (short). ki[1]lls. A. B. C. D. E."}, ""},
	{answer.Record{Topic: answer.TopicPlot, NoSpoilers: "Dawn rises. Night falls. A king betrays. A queen reveals all. Quiet returns. The end."}, ""},
	{answer.Record{Topic: answer.TopicDLC, Warning: "w", Spoilers: "s", Extra: map[string]json.RawMessage{"x": json.RawMessage(`1`)}}, "dlc"},
	{answer.Record{MetadataLine: "m", LengthLine: "l", WikiExcerpt: "w"}, "what engine"},
	{answer.Record{Spoilers: "x", Warning: "   "}, "the ending"},
	{answer.Record{Topic: answer.TopicPlot, NoSpoilers: "The king dies.", Warning: "\t\n"}, "story"},
}

func TestEnforceProperties(t *testing.T) {
	terms := answer.DefaultTerms()
	triggers := answer.Lowered(terms.SpoilerTriggers)

	for i, tc := range propertyCases {
		got := Enforce(tc.draft, tc.query)

		assert.False(t, answer.ContainsAny(got.NoSpoilers, triggers), "case %d: spoiler-free text leaks a trigger", i)
		if got.Spoilers != "" {
			assert.NotEmpty(t, strings.TrimSpace(got.Warning), "case %d: spoilers without a visible warning", i)
		}
		assert.Equal(t, answer.SchemaFields, got.FieldNames(), "case %d: extra fields survive", i)
		assert.True(t, got.Topic.Known(), "case %d: topic %q is not routable", i, got.Topic)

		again := Enforce(got, tc.query)
		if diff := cmp.Diff(got, again); diff != "" {
			t.Errorf("case %d: enforcing twice changed the record (-once +twice):\n%s", i, diff)
		}
	}
}

func FuzzEnforce(f *testing.F) {
	for _, tc := range propertyCases {
		f.Add(string(tc.draft.Topic), tc.draft.NoSpoilers, tc.draft.Spoilers, tc.query)
	}

	triggers := answer.Lowered(answer.DefaultTerms().SpoilerTriggers)
	f.Fuzz(func(t *testing.T, topicTag, noSpoilers, spoilers, query string) {
		draft := answer.Record{Topic: answer.Topic(topicTag), NoSpoilers: noSpoilers, Spoilers: spoilers}
		got := Enforce(draft, query)

		if answer.ContainsAny(got.NoSpoilers, triggers) {
			t.Fatalf("spoiler-free text leaks a trigger: %q", got.NoSpoilers)
		}
		if got.Spoilers != "" && strings.TrimSpace(got.Warning) == "" {
			t.Fatal("spoilers without warning")
		}
		if !got.Topic.Known() {
			t.Fatalf("topic %q is not routable", got.Topic)
		}
		if again := Enforce(got, query); !cmp.Equal(got, again) {
			t.Fatalf("not idempotent: %s", cmp.Diff(got, again))
		}
	})
}

func TestEnforceConcurrentUse(t *testing.T) {
	e := New(answer.DefaultTerms())
	draft := answer.Record{Topic: answer.TopicPlot, NoSpoilers: strings.Repeat("A quiet road. ", 12)}
	want := e.Enforce(draft, "")

	var wg sync.WaitGroup
	results := make([]answer.Record, 16)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = e.Enforce(draft, "")
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}
