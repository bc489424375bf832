package source

import (
	"fmt"
	"net/url"

	"github.com/wrale/wrale-panels/internal/wpaneld/config"
	werrors "github.com/wrale/wrale-panels/internal/wpaneld/errors"
)

// Builder chooses the adapter for each configured panel
type Builder struct {
	client *Client
	repo   *Repository
	cache  *SnapshotCache
}

// BuilderOption configures a Builder
type BuilderOption func(*Builder)

// WithRepository enables the postgres source kinds
func WithRepository(repo *Repository) BuilderOption {
	return func(b *Builder) {
		b.repo = repo
	}
}

// WithSnapshotCache enables snapshot caching for sources that ask for it
func WithSnapshotCache(cache *SnapshotCache) BuilderOption {
	return func(b *Builder) {
		b.cache = cache
	}
}

// NewBuilder creates a builder around a backend client
func NewBuilder(client *Client, opts ...BuilderOption) *Builder {
	b := &Builder{client: client}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build returns the fetcher for a panel
func (b *Builder) Build(pc config.PanelConfig) (Fetcher, error) {
	const op = "source.Builder.Build"

	sc := pc.Source
	panelID := sc.PanelID
	if panelID == "" {
		panelID = pc.ID
	}

	var f Fetcher
	switch sc.Kind {
	case config.SourcePlay, "":
		if b.client == nil {
			return nil, missing(op, "backend client", pc.ID)
		}
		f = NewActionsSource(b.client, panelID, b.client.base)
	case config.SourcePlayer:
		if b.client == nil {
			return nil, missing(op, "backend client", pc.ID)
		}
		f = NewPlayerSource(b.client, sc.FixedURL)
	case config.SourceView:
		if b.client == nil {
			return nil, missing(op, "backend client", pc.ID)
		}
		f = NewProductsSource(b.client, sc.DepartmentID, panelID, productsOptions(sc))
	case config.SourcePostgresActions:
		if b.repo == nil {
			return nil, missing(op, "database", pc.ID)
		}
		f = NewActionsSource(b.repo, panelID, b.mediaBase())
	case config.SourcePostgresProducts:
		if b.repo == nil {
			return nil, missing(op, "database", pc.ID)
		}
		f = NewProductsSource(b.repo, sc.DepartmentID, panelID, productsOptions(sc))
	default:
		return nil, werrors.NewError(
			"INVALID_INPUT",
			fmt.Sprintf("panel %s: unknown source kind %q", pc.ID, sc.Kind),
			op,
			werrors.ErrInvalidInput,
		)
	}

	if sc.Cache {
		if b.cache == nil {
			return nil, missing(op, "redis", pc.ID)
		}
		f = b.cache.Wrap(b.cache.Key(Describe(pc)), f)
	}
	return f, nil
}

func (b *Builder) mediaBase() *url.URL {
	if b.client == nil {
		return nil
	}
	return b.client.base
}

// Describe names a panel's source, e.g. "play:42" or
// "postgres-products:acg/7"
func Describe(pc config.PanelConfig) string {
	sc := pc.Source
	panelID := sc.PanelID
	if panelID == "" {
		panelID = pc.ID
	}
	kind := sc.Kind
	if kind == "" {
		kind = config.SourcePlay
	}

	switch kind {
	case config.SourcePlayer:
		return kind + ":" + sc.FixedURL
	case config.SourceView, config.SourcePostgresProducts:
		return kind + ":" + sc.DepartmentID + "/" + panelID
	}
	return kind + ":" + panelID
}

func productsOptions(sc config.SourceConfig) ProductsOptions {
	return ProductsOptions{
		FilterKeywords: sc.Keywords.Enabled,
		ExactMatch:     sc.Keywords.Exact,
	}
}

func missing(op, what, panelID string) error {
	return werrors.NewError(
		"INVALID_INPUT",
		fmt.Sprintf("panel %s: source needs a %s", panelID, what),
		op,
		werrors.ErrInvalidInput,
	)
}
