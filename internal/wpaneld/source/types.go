// Package source adapts the backend's panels, actions and products into
// rotation content. Content can come from the backend's REST API or straight
// from its database, optionally through a Redis snapshot cache.
package source

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
)

// Fetcher produces the current content of one panel
type Fetcher interface {
	Fetch(ctx context.Context) (rotation.Content, error)
}

// FetcherFunc adapts a function to Fetcher
type FetcherFunc func(ctx context.Context) (rotation.Content, error)

// Fetch implements Fetcher
func (f FetcherFunc) Fetch(ctx context.Context) (rotation.Content, error) {
	return f(ctx)
}

// PlayResponse is returned by the play and player endpoints
type PlayResponse struct {
	Active  bool          `json:"active"`
	Message string        `json:"message,omitempty"`
	Panel   *BackendPanel `json:"panel,omitempty"`
	Actions []Action      `json:"actions,omitempty"`
}

// BackendPanel identifies an action panel
type BackendPanel struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LayoutType string `json:"layout_type"`
	FixedURL   string `json:"fixed_url"`
}

// Action is an active action with its images
type Action struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	StartDate string  `json:"start_date"`
	EndDate   string  `json:"end_date"`
	HasBorder bool    `json:"has_border"`
	Images    []Image `json:"images"`
}

// Image is one uploaded action image. URL is relative to the backend.
type Image struct {
	ID       string `json:"id"`
	Filename string `json:"filename"`
	URL      string `json:"url"`
}

// PanelView is returned by the department panel view endpoint
type PanelView struct {
	Panel      ViewPanel  `json:"panel"`
	Department Department `json:"department"`
	Products   []Product  `json:"products"`
	Config     ViewConfig `json:"config"`
}

// ViewPanel is a department price board
type ViewPanel struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	DepartmentID string `json:"department_id"`
	Active       bool   `json:"active"`
}

// Department groups price boards
type Department struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Code     string   `json:"code"`
	Keywords Keywords `json:"keywords"`
}

// Product is a priced item on a price board. Posicao already has the
// panel's position override applied.
type Product struct {
	ID      string `json:"id"`
	Codigo  string `json:"codigo"`
	Nome    string `json:"nome"`
	Preco   Price  `json:"preco"`
	Posicao int    `json:"posicao"`
	Ativo   bool   `json:"ativo"`
}

// ViewConfig carries the board's display settings
type ViewConfig struct {
	// PollingInterval is in seconds
	PollingInterval int    `json:"polling_interval"`
	Title           string `json:"title"`
	Subtitle        string `json:"subtitle"`
	FooterText      string `json:"footer_text"`
}

// Price accepts a JSON number or a numeric string
type Price float64

// UnmarshalJSON implements json.Unmarshaler
func (p *Price) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*p = 0
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return err
	}
	*p = Price(f)
	return nil
}

// Keywords accepts a JSON array or a comma separated string
type Keywords []string

// UnmarshalJSON implements json.Unmarshaler
func (k *Keywords) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		out := make(Keywords, 0, len(list))
		for _, s := range list {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		*k = out
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*k = ParseKeywords(raw)
	return nil
}

// backend timestamps are naive ISO 8601
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseTime(s string) time.Time {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
