// Package conversation implements the Conversation Store (C9): per-
// conversation message history, slot progress, and summary, persisted by
// the Data tool server (spec.md §4.6, §3). Adapted from
// HendryAvila-Hoofy/internal/changes's Store-interface shape and
// internal/memory's sqlite lifecycle (open, pragma, migrate, Close).
package conversation

import (
	"fmt"
	"time"
)

// Sender identifies who authored a Message.
type Sender string

const (
	SenderUser      Sender = "user"
	SenderAssistant Sender = "assistant"
	SenderSystem    Sender = "system"
)

// Status is a Conversation's lifecycle state.
type Status string

const (
	StatusActive   Status = "active"
	StatusArchived Status = "archived"
)

// Message is one linearly-ordered entry in a conversation's history
// (spec.md §3).
type Message struct {
	ID        string
	Sender    Sender
	Content   string
	Metadata  map[string]any
	CreatedAt time.Time
}

// Progress is a conversation's single slot-filling state record (spec.md
// §3). The invariant `awaiting_slots ⊆ required_attributes` and
// `filled_slots ∩ awaiting_slots = ∅` is enforced by NewProgress and every
// mutating method below, never left to caller discipline.
type Progress struct {
	RequiredAttributes []string          `json:"required_attributes"`
	OptionalAttributes []string          `json:"optional_attributes"`
	FilledSlots        map[string]string `json:"filled_slots"`
	AwaitingSlots      []string          `json:"awaiting_slots"`
	TargetAction       string            `json:"target_action"` // empty string means "none"
}

// NewProgress builds a zero-value Progress: no attributes declared, nothing
// filled, nothing awaited, no target. CLASSIFY_TARGET is the only place
// that later assigns RequiredAttributes/OptionalAttributes/TargetAction.
func NewProgress() Progress {
	return Progress{FilledSlots: map[string]string{}}
}

// WithTarget declares the target action and its attribute lists, and
// recomputes AwaitingSlots as required minus already-filled, preserving the
// core invariant.
func (p Progress) WithTarget(target string, required, optional []string) Progress {
	p.TargetAction = target
	p.RequiredAttributes = required
	p.OptionalAttributes = optional
	p.AwaitingSlots = missing(required, p.FilledSlots)
	return p
}

// Fill records a slot value and removes it from AwaitingSlots, preserving
// filled/awaiting disjointness.
func (p Progress) Fill(name, canonicalValue string) Progress {
	filled := make(map[string]string, len(p.FilledSlots)+1)
	for k, v := range p.FilledSlots {
		filled[k] = v
	}
	filled[name] = canonicalValue
	p.FilledSlots = filled
	p.AwaitingSlots = missing(p.RequiredAttributes, filled)
	return p
}

// Validate re-checks the core invariant; SaveProgress calls it defensively
// before writing, in case a caller constructed a Progress by hand.
func (p Progress) Validate() error {
	required := toSet(p.RequiredAttributes)
	for _, s := range p.AwaitingSlots {
		if !required[s] {
			return fmt.Errorf("conversation: awaiting slot %q is not a required attribute", s)
		}
		if _, filled := p.FilledSlots[s]; filled {
			return fmt.Errorf("conversation: slot %q is both filled and awaiting", s)
		}
	}
	return nil
}

func missing(required []string, filled map[string]string) []string {
	var out []string
	for _, r := range required {
		if _, ok := filled[r]; !ok {
			out = append(out, r)
		}
	}
	return out
}

func toSet(vals []string) map[string]bool {
	out := make(map[string]bool, len(vals))
	for _, v := range vals {
		out[v] = true
	}
	return out
}

// Conversation is the aggregate root: identity, status, and its owned
// message history / progress / summary.
type Conversation struct {
	ID        string
	UserID    string
	Title     string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
	Summary   string
}

// StoredProgress wraps Progress with the optimistic-concurrency version
// field spec.md §5 requires ("guarded by an optimistic version field").
type StoredProgress struct {
	Progress  Progress
	Version   int
	UpdatedAt time.Time
}

// ErrVersionConflict is returned by Store.SaveProgress when the caller's
// version does not match the current row, per spec.md §5's single-writer
// optimistic-concurrency rule.
var ErrVersionConflict = fmt.Errorf("conversation: progress version conflict, caller must re-read")
