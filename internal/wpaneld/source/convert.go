package source

import (
	"encoding/json"
	"net/url"
	"time"

	"github.com/wrale/wrale-panels/internal/wpaneld/rotation"
)

// Item id prefixes keep image and product ids apart when a panel mixes
// sources
const (
	imageIDPrefix   = "image:"
	productIDPrefix = "product:"
)

// mediaPath is where the backend serves uploaded files
const mediaPath = "/api/media/"

// ActionsContent converts a play response. An inactive response or one
// without actions is empty content; actions without images are skipped.
func ActionsContent(resp *PlayResponse, mediaBase *url.URL) rotation.Content {
	content := rotation.Content{Actions: []rotation.Action{}}
	if resp == nil || !resp.Active {
		return content
	}

	for _, a := range resp.Actions {
		if len(a.Images) == 0 {
			continue
		}
		action := rotation.Action{
			ID:       a.ID,
			Name:     a.Name,
			StartsAt: parseTime(a.StartDate),
			EndsAt:   parseTime(a.EndDate),
			Bordered: a.HasBorder,
			Items:    make([]rotation.Item, 0, len(a.Images)),
		}
		for _, img := range a.Images {
			ref := img.URL
			if ref == "" {
				ref = mediaPath + url.PathEscape(img.Filename)
			}
			action.Items = append(action.Items, rotation.Item{
				ID:       imageIDPrefix + img.ID,
				Title:    img.Filename,
				MediaRef: resolveRef(mediaBase, ref),
			})
		}
		content.Actions = append(content.Actions, action)
	}
	return content
}

// productPayload is what a price board renders for one product
type productPayload struct {
	Code  string  `json:"code"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// ProductsContent converts a price board view into a single action holding
// one item per active product, positioned by its ordinal.
func ProductsContent(view *PanelView, filter *KeywordFilter) rotation.Content {
	content := rotation.Content{Actions: []rotation.Action{}}
	if view == nil {
		return content
	}

	content.Config = &rotation.PanelConfig{
		Title:      view.Config.Title,
		FooterText: view.Config.FooterText,
	}
	if view.Config.PollingInterval > 0 {
		content.Config.PollingInterval = time.Duration(view.Config.PollingInterval) * time.Second
	}

	products := make([]Product, 0, len(view.Products))
	for _, p := range view.Products {
		if p.Ativo {
			products = append(products, p)
		}
	}
	if filter != nil {
		products = filter.Apply(products)
	}
	if len(products) == 0 {
		return content
	}

	action := rotation.Action{
		ID:    view.Panel.ID,
		Name:  view.Panel.Name,
		Items: make([]rotation.Item, 0, len(products)),
	}
	for _, p := range products {
		payload, err := json.Marshal(productPayload{
			Code:  p.Codigo,
			Name:  p.Nome,
			Price: float64(p.Preco),
		})
		if err != nil {
			continue
		}
		action.Items = append(action.Items, rotation.Item{
			ID:      productIDPrefix + p.ID,
			Ordinal: p.Posicao,
			Title:   p.Nome,
			Payload: payload,
		})
	}
	content.Actions = append(content.Actions, action)
	return content
}

// resolveRef makes ref absolute against base. Unparseable refs and a nil
// base leave ref unchanged.
func resolveRef(base *url.URL, ref string) string {
	if base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return base.ResolveReference(u).String()
}
