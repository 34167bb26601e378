// Package answer holds the drafted answer record that flows from the language
// model step through policy enforcement into composition, together with the
// term tables that drive classification and spoiler detection.
package answer

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ErrNotObject means a draft was valid JSON but not an object, e.g. null.
var ErrNotObject = errors.New("draft is not a JSON object")

const (
	fieldSummary      = "summary"
	fieldSpoilers     = "spoilers"
	fieldNoSpoilers   = "no_spoilers"
	fieldGameTips     = "game_tips"
	fieldLore         = "lore"
	fieldWarning      = "warning"
	fieldMetadataLine = "metadata_line"
	fieldLengthLine   = "length_line"
	fieldWikiExcerpt  = "wiki_excerpt"
	fieldCanBeSpoiler = "can_be_spoiler"
	fieldTopic        = "topic"
)

// SchemaFields lists the declared record keys in encoding order.
var SchemaFields = []string{
	fieldSummary,
	fieldSpoilers,
	fieldNoSpoilers,
	fieldGameTips,
	fieldLore,
	fieldWarning,
	fieldMetadataLine,
	fieldLengthLine,
	fieldWikiExcerpt,
	fieldCanBeSpoiler,
	fieldTopic,
}

// Older drafts used provider-named keys. They fill the canonical field only
// when the draft did not set it. Order matters when two aliases share a target.
var legacyAliases = []struct {
	alias     string
	canonical string
}{
	{"rawg_data", fieldMetadataLine},
	{"igdb_data", fieldMetadataLine},
	{"game_length", fieldLengthLine},
	{"wiki_data", fieldWikiExcerpt},
}

// Record is one drafted answer. Every field is optional; an empty string
// means "no content".
type Record struct {
	Summary      string `json:"summary"`
	Spoilers     string `json:"spoilers"`
	NoSpoilers   string `json:"no_spoilers"`
	GameTips     string `json:"game_tips"`
	Lore         string `json:"lore"`
	Warning      string `json:"warning"`
	MetadataLine string `json:"metadata_line"`
	LengthLine   string `json:"length_line"`
	WikiExcerpt  string `json:"wiki_excerpt"`
	CanBeSpoiler bool   `json:"can_be_spoiler"`
	Topic        Topic  `json:"topic"`

	// Extra keeps keys outside the schema that were present in the decoded
	// draft. The policy enforcer clears it.
	Extra map[string]json.RawMessage `json:"-"`
}

// recordJSON has Record's fields without its methods.
type recordJSON Record

func (r *Record) text(name string) *string {
	switch name {
	case fieldSummary:
		return &r.Summary
	case fieldSpoilers:
		return &r.Spoilers
	case fieldNoSpoilers:
		return &r.NoSpoilers
	case fieldGameTips:
		return &r.GameTips
	case fieldLore:
		return &r.Lore
	case fieldWarning:
		return &r.Warning
	case fieldMetadataLine:
		return &r.MetadataLine
	case fieldLengthLine:
		return &r.LengthLine
	case fieldWikiExcerpt:
		return &r.WikiExcerpt
	}
	return nil
}

// UnmarshalJSON decodes a draft. Null values read as empty, legacy keys are
// folded into their canonical fields and anything else unknown lands in Extra.
func (r *Record) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return ErrNotObject
	}

	var rec Record
	aliased := make(map[string]bool, len(legacyAliases))
	for _, a := range legacyAliases {
		aliased[a.alias] = true
	}

	for key, val := range raw {
		switch {
		case key == fieldCanBeSpoiler:
			if err := decodeBool(val, &rec.CanBeSpoiler); err != nil {
				return fmt.Errorf("field %s: %w", key, err)
			}
		case key == fieldTopic:
			var s string
			if err := decodeString(val, &s); err != nil {
				return fmt.Errorf("field %s: %w", key, err)
			}
			rec.Topic = ParseTopic(s)
		case rec.text(key) != nil:
			if err := decodeString(val, rec.text(key)); err != nil {
				return fmt.Errorf("field %s: %w", key, err)
			}
		case aliased[key]:
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]json.RawMessage)
			}
			rec.Extra[key] = val
		}
	}

	for _, a := range legacyAliases {
		val, ok := raw[a.alias]
		if !ok {
			continue
		}
		target := rec.text(a.canonical)
		if *target != "" {
			continue
		}
		if err := decodeString(val, target); err != nil {
			return fmt.Errorf("field %s: %w", a.alias, err)
		}
	}

	*r = rec
	return nil
}

// MarshalJSON encodes the schema fields followed by any extra keys.
func (r Record) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(recordJSON(r))
	if err != nil {
		return nil, err
	}
	if len(r.Extra) == 0 {
		return base, nil
	}

	merged := make(map[string]json.RawMessage, len(SchemaFields)+len(r.Extra))
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, exists := merged[k]; !exists {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// FieldNames returns the keys this record encodes: the schema in order,
// then any extra keys sorted.
func (r Record) FieldNames() []string {
	names := make([]string, 0, len(SchemaFields)+len(r.Extra))
	names = append(names, SchemaFields...)

	extras := make([]string, 0, len(r.Extra))
	for k := range r.Extra {
		if r.text(k) == nil && k != fieldTopic && k != fieldCanBeSpoiler {
			extras = append(extras, k)
		}
	}
	sort.Strings(extras)
	return append(names, extras...)
}

func decodeString(raw json.RawMessage, dst *string) error {
	if string(raw) == "null" {
		*dst = ""
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// decodeBool accepts a JSON bool or its quoted form ("true", "False").
func decodeBool(raw json.RawMessage, dst *bool) error {
	if string(raw) == "null" {
		*dst = false
		return nil
	}
	if err := json.Unmarshal(raw, dst); err == nil {
		return nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return fmt.Errorf("want a bool, got %s", raw)
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("want a bool, got %q", s)
	}
	*dst = b
	return nil
}
