package assistant

const DefaultHistorySize = 6

// History keeps the last few exchanges of a conversation for prompting.
type History struct {
	exchanges []string
	maxSize   int
}

func NewHistory(maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &History{
		exchanges: make([]string, 0, maxSize),
		maxSize:   maxSize,
	}
}

func (h *History) AddUser(query string) {
	h.add("User: " + query)
}

func (h *History) AddAssistant(response string) {
	h.add("Assistant: " + response)
}

func (h *History) AddError(err error) {
	h.add("Error: " + err.Error())
}

func (h *History) add(entry string) {
	h.exchanges = append(h.exchanges, entry)

	if len(h.exchanges) > h.maxSize {
		h.exchanges = h.exchanges[len(h.exchanges)-h.maxSize:]
	}
}

func (h *History) Entries() []string {
	result := make([]string, len(h.exchanges))
	copy(result, h.exchanges)
	return result
}

func (h *History) Reset() {
	h.exchanges = h.exchanges[:0]
}
