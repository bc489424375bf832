// Package rotation implements the panel rotation engine: positional grid
// allocation, the dual-pane aspect split, rotation clocks and the state
// machine that walks actions and their items.
//
// Nothing in this package performs I/O. The Machine is not safe for
// concurrent use; callers serialize Tick and Replace themselves.
package rotation

import (
	"encoding/json"
	"time"
)

// Item is a single displayable unit: an image of an action or a product on
// a price board.
type Item struct {
	ID string `json:"id"`
	// Ordinal is the requested 1-based grid position; 0 means any slot.
	Ordinal  int             `json:"ordinal,omitempty"`
	Title    string          `json:"title,omitempty"`
	MediaRef string          `json:"mediaRef,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
}

// Action is a named, time-bounded collection of items shown together.
// StartsAt and EndsAt are informational; date filtering happens upstream.
type Action struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	StartsAt time.Time `json:"startsAt,omitempty"`
	EndsAt   time.Time `json:"endsAt,omitempty"`
	Bordered bool      `json:"bordered,omitempty"`
	Items    []Item    `json:"items"`
}

// PanelConfig carries per-panel settings supplied by the data source.
// Zero values mean "keep the configured default".
type PanelConfig struct {
	PollingInterval  time.Duration `json:"pollingInterval,omitempty"`
	RotationInterval time.Duration `json:"rotationInterval,omitempty"`
	Title            string        `json:"title,omitempty"`
	FooterText       string        `json:"footerText,omitempty"`
}

// Content is one fetch result from a data source
type Content struct {
	Actions []Action     `json:"actions"`
	Config  *PanelConfig `json:"config,omitempty"`
}

// Items returns the number of items across all actions
func (c Content) Items() int {
	n := 0
	for _, a := range c.Actions {
		n += len(a.Items)
	}
	return n
}

// MediaRefs returns the distinct non-empty media refs in content order
func (c Content) MediaRefs() []string {
	seen := make(map[string]bool)
	var refs []string
	for _, a := range c.Actions {
		for _, it := range a.Items {
			if it.MediaRef == "" || seen[it.MediaRef] {
				continue
			}
			seen[it.MediaRef] = true
			refs = append(refs, it.MediaRef)
		}
	}
	return refs
}

// TickKind names a rotation dimension
type TickKind int

const (
	// TickAction advances to the next non-empty action
	TickAction TickKind = iota
	// TickImage advances the single-pane image index
	TickImage
	// TickPane slides the dual-pane window
	TickPane
	// TickPage advances the price-board page
	TickPage
)

func (k TickKind) String() string {
	switch k {
	case TickAction:
		return "action"
	case TickImage:
		return "image"
	case TickPane:
		return "pane"
	case TickPage:
		return "page"
	}
	return "unknown"
}

// FailureChecker reports whether a media ref is known to fail loading
type FailureChecker interface {
	IsFailed(mediaRef string) bool
}
