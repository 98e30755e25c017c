package schema

// Turn is one conversational exchange entry.
type Turn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// History is a bounded ring buffer of conversation turns, passed by value
// into routing and synthesis. Oldest turns are dropped once full.
type History struct {
	turns []Turn
	max   int
}

// NewHistory creates a history bounded to max turns.
func NewHistory(max int) History {
	if max <= 0 {
		max = 20
	}
	return History{max: max}
}

// Append adds a turn, evicting the oldest when the buffer is full.
func (h History) Append(role, content string) History {
	h.turns = append(h.turns, Turn{Role: role, Content: content})
	if len(h.turns) > h.max {
		h.turns = h.turns[len(h.turns)-h.max:]
	}
	return h
}

// Turns returns the buffered turns, oldest first.
func (h History) Turns() []Turn { return h.turns }

// Len reports the number of buffered turns.
func (h History) Len() int { return len(h.turns) }

// LastExchange returns the most recent user turn and the assistant turn
// that answered it, if both exist.
func (h History) LastExchange() (user, assistant Turn, ok bool) {
	for i := len(h.turns) - 1; i >= 0; i-- {
		t := h.turns[i]
		if t.Role == "assistant" && assistant.Content == "" {
			assistant = t
		}
		if t.Role == "user" {
			user = t
			break
		}
	}
	return user, assistant, user.Content != ""
}
