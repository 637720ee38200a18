// internal/models/dialogue.go
package models

import "time"

// Conversation stages.
const (
	StageIntroduction = "introduction"
	StageCollecting   = "collecting_info"
	StageSearching    = "searching"
	StagePresenting   = "presenting_results"
)

// Message is one rendered chat entry, user or assistant side.
type Message struct {
	ID        string    `json:"id"`
	Sender    string    `json:"sender"` // "user" or "bot"
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// ContextTurn is one exchange as fed back to the oracle. Kept separate from
// Message because context is trimmed more aggressively than the transcript.
type ContextTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// QuickOption is a tappable reply suggestion. Value is what gets submitted as
// the user's message when the option is chosen.
type QuickOption struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// DialogueState is the full per-session conversation state. It is owned by
// exactly one conversation task at a time and persisted between turns.
type DialogueState struct {
	SessionID     string        `json:"sessionId"`
	Stage         string        `json:"stage"`
	Messages      []Message     `json:"messages"`
	Context       []ContextTurn `json:"context"`
	Filters       FilterSet     `json:"collectedInfo"`
	QuestionCount int           `json:"questionCount"`
	QuickOptions  []QuickOption `json:"quickOptions,omitempty"`
	MultiSelect   bool          `json:"allowMultiSelect,omitempty"`
	LastUpdated   time.Time     `json:"lastUpdated"`
}

// NewDialogueState returns a fresh conversation in the introduction stage.
func NewDialogueState(sessionID string) *DialogueState {
	return &DialogueState{
		SessionID:   sessionID,
		Stage:       StageIntroduction,
		LastUpdated: time.Now().UTC(),
	}
}

// AddMessage appends a transcript entry.
func (d *DialogueState) AddMessage(id, sender, content string) {
	d.Messages = append(d.Messages, Message{
		ID:        id,
		Sender:    sender,
		Content:   content,
		Timestamp: time.Now().UTC(),
	})
	d.LastUpdated = time.Now().UTC()
}

// AddContext appends an oracle context turn.
func (d *DialogueState) AddContext(role, content string) {
	d.Context = append(d.Context, ContextTurn{Role: role, Content: content})
}

// RecentContext returns at most n of the latest context turns.
func (d *DialogueState) RecentContext(n int) []ContextTurn {
	if len(d.Context) <= n {
		return d.Context
	}
	return d.Context[len(d.Context)-n:]
}
