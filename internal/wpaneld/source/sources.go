package source

import (
	"context"
	"net/url"

	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
)

// ActionReader returns the active actions of an action panel
type ActionReader interface {
	Play(ctx context.Context, panelID string) (*PlayResponse, error)
}

// ViewReader returns a department price board
type ViewReader interface {
	View(ctx context.Context, departmentID, panelID string) (*PanelView, error)
}

// NewActionsSource fetches an action panel by id. Media refs resolve
// against mediaBase.
func NewActionsSource(r ActionReader, panelID string, mediaBase *url.URL) Fetcher {
	return FetcherFunc(func(ctx context.Context) (rotation.Content, error) {
		resp, err := r.Play(ctx, panelID)
		if err != nil {
			return rotation.Content{}, err
		}
		return ActionsContent(resp, mediaBase), nil
	})
}

// NewPlayerSource fetches an action panel by its fixed URL
func NewPlayerSource(c *Client, fixedURL string) Fetcher {
	return FetcherFunc(func(ctx context.Context) (rotation.Content, error) {
		resp, err := c.Player(ctx, fixedURL)
		if err != nil {
			return rotation.Content{}, err
		}
		return ActionsContent(resp, c.base), nil
	})
}

// ProductsOptions controls price board conversion
type ProductsOptions struct {
	// FilterKeywords keeps only products matching the department keywords
	FilterKeywords bool
	// ExactMatch requires whole-name keyword matches
	ExactMatch bool
}

// NewProductsSource fetches a department price board
func NewProductsSource(r ViewReader, departmentID, panelID string, opts ProductsOptions) Fetcher {
	return FetcherFunc(func(ctx context.Context) (rotation.Content, error) {
		view, err := r.View(ctx, departmentID, panelID)
		if err != nil {
			return rotation.Content{}, err
		}
		var filter *KeywordFilter
		if opts.FilterKeywords {
			filter = NewKeywordFilter(view.Department.Keywords, opts.ExactMatch)
		}
		return ProductsContent(view, filter), nil
	})
}
