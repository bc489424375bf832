package v1alpha1

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// PanelLayout selects how a panel presents its content
type PanelLayout string

const (
	// PanelLayoutCarousel shows one image at a time from the current action
	PanelLayoutCarousel PanelLayout = "carousel"
	// PanelLayoutDual shows two images side by side with an aspect-based split
	PanelLayoutDual PanelLayout = "dual"
	// PanelLayoutGrid places items into a fixed positional grid
	PanelLayoutGrid PanelLayout = "grid"
	// PanelLayoutPagedGrid pages sorted items through a fixed-size board
	PanelLayoutPagedGrid PanelLayout = "paged_grid"
)

// ParsePanelLayout accepts canonical layout names as well as the backend's
// layout_1/layout_2 identifiers. An empty string selects the carousel.
func ParsePanelLayout(s string) (PanelLayout, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "carousel", "layout_1", "single":
		return PanelLayoutCarousel, nil
	case "dual", "layout_2":
		return PanelLayoutDual, nil
	case "grid":
		return PanelLayoutGrid, nil
	case "paged_grid", "paged-grid", "board":
		return PanelLayoutPagedGrid, nil
	}
	return "", fmt.Errorf("unknown panel layout %q", s)
}

// Panel describes a configured panel and its runtime status
type Panel struct {
	// TypeMeta describes the versioning of this object
	TypeMeta `json:",inline"`
	// ObjectMeta provides metadata about the panel
	ObjectMeta `json:"metadata"`

	// Spec holds the configured behavior of this panel
	Spec PanelSpec `json:"spec"`
	// Status holds the observed state of this panel
	Status PanelStatus `json:"status"`
}

// PanelSpec is the effective configuration of a panel
type PanelSpec struct {
	Layout           PanelLayout `json:"layout"`
	Source           string      `json:"source"`
	RotationInterval Duration    `json:"rotationInterval"`
	ActionInterval   Duration    `json:"actionInterval,omitempty"`
	PollingInterval  Duration    `json:"pollingInterval"`
	GridSize         int         `json:"gridSize,omitempty"`
	PageSize         int         `json:"pageSize,omitempty"`
}

// PanelStatus reports what the engine is currently doing
type PanelStatus struct {
	// Version increments on every visible state change
	Version uint64 `json:"version"`
	// Actions is the number of actions in the current content
	Actions int `json:"actions"`
	// Items is the number of items across all actions
	Items int `json:"items"`
	// FailedMedia is the number of media refs currently marked failed
	FailedMedia int `json:"failedMedia"`
	// Empty is true when there is nothing to display
	Empty bool `json:"empty"`
	// LastRefresh is when content was last applied
	LastRefresh *time.Time `json:"lastRefresh,omitempty"`
	// LastError captures the most recent refresh failure, if any
	LastError string `json:"lastError,omitempty"`
}

// PanelList is a list of panels
type PanelList struct {
	TypeMeta `json:",inline"`
	Items    []Panel `json:"items"`
}

// PanelState is the render state pushed to display clients
type PanelState struct {
	TypeMeta `json:",inline"`

	PanelID    string      `json:"panelId"`
	Layout     PanelLayout `json:"layout"`
	Version    uint64      `json:"version"`
	Title      string      `json:"title,omitempty"`
	FooterText string      `json:"footerText,omitempty"`

	ActionIndex int        `json:"actionIndex"`
	ImageIndex  int        `json:"imageIndex"`
	Action      *ActionRef `json:"action,omitempty"`

	// Current is set for the carousel layout
	Current *DisplayItem `json:"current,omitempty"`

	// Left, Right and Split are set for the dual layout
	Left  *DisplayItem `json:"left,omitempty"`
	Right *DisplayItem `json:"right,omitempty"`
	Split *PaneSplit   `json:"split,omitempty"`

	// Slots is set for grid layouts and always has one entry per slot
	Slots     []GridSlot `json:"slots,omitempty"`
	Dropped   int        `json:"dropped,omitempty"`
	Page      int        `json:"page,omitempty"`
	PageCount int        `json:"pageCount,omitempty"`

	// Empty tells the renderer to show its placeholder
	Empty     bool      `json:"empty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ActionRef identifies the action whose items are on screen
type ActionRef struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Bordered bool   `json:"bordered,omitempty"`
}

// DisplayItem is a single rendered item
type DisplayItem struct {
	ID       string          `json:"id"`
	Title    string          `json:"title,omitempty"`
	Ordinal  int             `json:"ordinal,omitempty"`
	MediaRef string          `json:"mediaRef,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	Failed   bool            `json:"failed,omitempty"`
}

// PaneSplit gives the width percentages of the dual layout panes
type PaneSplit struct {
	LeftPercent  float64 `json:"leftPercent"`
	RightPercent float64 `json:"rightPercent"`
}

// GridSlot is one cell of a grid layout; Item is nil for an empty slot
type GridSlot struct {
	Index int          `json:"index"`
	Item  *DisplayItem `json:"item"`
}

// RefreshResult is returned by the manual refresh endpoint
type RefreshResult struct {
	PanelID string `json:"panelId"`
	Changed bool   `json:"changed"`
	Version uint64 `json:"version"`
}

// Duration marshals as a Go duration string ("5s")
type Duration time.Duration

// MarshalJSON implements json.Marshaler
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// UnmarshalJSON accepts either a duration string or integer milliseconds
func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := time.ParseDuration(s)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", s, err)
		}
		*d = Duration(v)
		return nil
	}
	var ms int64
	if err := json.Unmarshal(b, &ms); err != nil {
		return fmt.Errorf("invalid duration %s", string(b))
	}
	*d = Duration(time.Duration(ms) * time.Millisecond)
	return nil
}
