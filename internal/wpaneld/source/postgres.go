package source

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/wrale/wrale-panels/internal/wpaneld/database"
)

// Repository reads panels straight from the backend's database. It returns
// the same shapes as the REST API so both feed the same converters.
type Repository struct {
	db     *sql.DB
	logger *slog.Logger
	// loc is the zone the backend stores its naive action dates in
	loc *time.Location
	now func() time.Time
}

// RepositoryOption configures a Repository
type RepositoryOption func(*Repository)

// WithLocation sets the zone used to compare action dates
func WithLocation(loc *time.Location) RepositoryOption {
	return func(r *Repository) {
		if loc != nil {
			r.loc = loc
		}
	}
}

// WithRepositoryLogger sets the logger
func WithRepositoryLogger(logger *slog.Logger) RepositoryOption {
	return func(r *Repository) {
		r.logger = logger
	}
}

// NewRepository creates a repository over db
func NewRepository(db *sql.DB, opts ...RepositoryOption) *Repository {
	r := &Repository{
		db:     db,
		logger: slog.Default(),
		loc:    time.Local,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Play returns the actions of panelID whose date window contains now,
// ordered by start date. Actions without images are left out.
func (r *Repository) Play(ctx context.Context, panelID string) (*PlayResponse, error) {
	const op = "source.Repository.Play"

	// naive wall clock in the backend's zone, compared against TIMESTAMP columns
	now := r.now().In(r.loc)
	wall := time.Date(now.Year(), now.Month(), now.Day(), now.Hour(), now.Minute(), now.Second(), now.Nanosecond(), time.UTC)

	resp := &PlayResponse{}
	err := database.RunInTx(ctx, r.db, &database.TxOptions{ReadOnly: true}, func(tx *database.Tx) error {
		var panel BackendPanel
		err := tx.QueryRowContext(ctx, `
			SELECT id, name, layout_type, fixed_url
			FROM panel
			WHERE id = $1
		`, panelID).Scan(&panel.ID, &panel.Name, &panel.LayoutType, &panel.FixedURL)
		if err != nil {
			return err
		}
		resp.Panel = &panel

		rows, err := tx.QueryContext(ctx, `
			SELECT a.id, a.name, a.start_date, a.end_date, COALESCE(a.has_border, FALSE)
			FROM action a
			JOIN action_panel ap ON ap.action_id = a.id
			WHERE ap.panel_id = $1
				AND a.start_date <= $2
				AND a.end_date >= $2
			ORDER BY a.start_date, a.id
		`, panelID, wall)
		if err != nil {
			return err
		}
		defer rows.Close()

		var ids []string
		byID := make(map[string]int)
		for rows.Next() {
			var a Action
			var start, end time.Time
			if err := rows.Scan(&a.ID, &a.Name, &start, &end, &a.HasBorder); err != nil {
				return err
			}
			a.StartDate = start.Format("2006-01-02T15:04:05")
			a.EndDate = end.Format("2006-01-02T15:04:05")
			byID[a.ID] = len(resp.Actions)
			ids = append(ids, a.ID)
			resp.Actions = append(resp.Actions, a)
		}
		if err := rows.Err(); err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		imgRows, err := tx.QueryContext(ctx, `
			SELECT id, action_id, filename
			FROM action_image
			WHERE action_id = ANY($1)
			ORDER BY created_at, id
		`, pq.Array(ids))
		if err != nil {
			return err
		}
		defer imgRows.Close()

		for imgRows.Next() {
			var img Image
			var actionID string
			if err := imgRows.Scan(&img.ID, &actionID, &img.Filename); err != nil {
				return err
			}
			img.URL = mediaPath + img.Filename
			i := byID[actionID]
			resp.Actions[i].Images = append(resp.Actions[i].Images, img)
		}
		return imgRows.Err()
	})
	if err != nil {
		return nil, database.MapError(err, op)
	}

	kept := resp.Actions[:0]
	for _, a := range resp.Actions {
		if len(a.Images) > 0 {
			kept = append(kept, a)
		}
	}
	resp.Actions = kept
	resp.Active = len(kept) > 0
	return resp, nil
}

// View returns an active department price board with its products in
// panel position order
func (r *Repository) View(ctx context.Context, departmentID, panelID string) (*PanelView, error) {
	const op = "source.Repository.View"

	view := &PanelView{}
	err := database.RunInTx(ctx, r.db, &database.TxOptions{ReadOnly: true}, func(tx *database.Tx) error {
		var (
			title, subtitle, footer sql.NullString
			polling                 sql.NullInt64
			keywords                sql.NullString
		)
		err := tx.QueryRowContext(ctx, `
			SELECT p.id, p.name, p.department_id, p.title, p.subtitle, p.footer_text,
				p.polling_interval, d.id, d.name, d.code, d.keywords
			FROM department_panel p
			JOIN department d ON d.id = p.department_id
			WHERE p.id = $1 AND p.department_id = $2 AND p.active = TRUE
		`, panelID, departmentID).Scan(
			&view.Panel.ID,
			&view.Panel.Name,
			&view.Panel.DepartmentID,
			&title,
			&subtitle,
			&footer,
			&polling,
			&view.Department.ID,
			&view.Department.Name,
			&view.Department.Code,
			&keywords,
		)
		if err != nil {
			return err
		}
		view.Panel.Active = true
		view.Department.Keywords = ParseKeywords(keywords.String)
		view.Config = ViewConfig{
			PollingInterval: int(polling.Int64),
			Title:           title.String,
			Subtitle:        subtitle.String,
			FooterText:      footer.String,
		}
		if view.Config.Title == "" {
			view.Config.Title = strings.ToUpper(view.Department.Name)
		}

		rows, err := tx.QueryContext(ctx, `
			SELECT bp.id, bp.codigo, bp.nome, bp.preco,
				COALESCE(NULLIF(a.position_override, 0), bp.posicao) AS posicao
			FROM product_panel_association a
			JOIN butcher_product bp ON bp.id = a.product_id
			WHERE a.panel_id = $1
				AND a.active_in_panel = TRUE
				AND bp.ativo = TRUE
			ORDER BY posicao, bp.nome
		`, panelID)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var p Product
			var price float64
			if err := rows.Scan(&p.ID, &p.Codigo, &p.Nome, &price, &p.Posicao); err != nil {
				return err
			}
			p.Preco = Price(price)
			p.Ativo = true
			view.Products = append(view.Products, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, database.MapError(err, op)
	}

	r.logger.Debug("loaded price board",
		"panelId", panelID,
		"departmentId", departmentID,
		"products", len(view.Products),
	)
	return view, nil
}
