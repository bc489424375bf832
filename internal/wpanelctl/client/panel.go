package client

import (
	"context"
	"net/http"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
)

const panelsPath = "api/v1alpha1/panels"

// ListPanels returns every panel on the daemon
func (c *Client) ListPanels(ctx context.Context) ([]v1alpha1.Panel, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, nil, panelsPath)
	if err != nil {
		return nil, err
	}
	var list v1alpha1.PanelList
	if err := decodeResponse(resp, &list); err != nil {
		return nil, err
	}
	return list.Items, nil
}

// GetPanel returns one panel with its status
func (c *Client) GetPanel(ctx context.Context, id string) (*v1alpha1.Panel, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, nil, panelsPath, id)
	if err != nil {
		return nil, err
	}
	var p v1alpha1.Panel
	if err := decodeResponse(resp, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// GetPanelState returns the current render state of a panel
func (c *Client) GetPanelState(ctx context.Context, id string) (*v1alpha1.PanelState, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, nil, panelsPath, id, "state")
	if err != nil {
		return nil, err
	}
	var st v1alpha1.PanelState
	if err := decodeResponse(resp, &st); err != nil {
		return nil, err
	}
	return &st, nil
}

// RefreshPanel asks the daemon to fetch a panel's content now
func (c *Client) RefreshPanel(ctx context.Context, id string) (*v1alpha1.RefreshResult, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, nil, panelsPath, id, "refresh")
	if err != nil {
		return nil, err
	}
	var res v1alpha1.RefreshResult
	if err := decodeResponse(resp, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// ReportMedia submits a media load result as a display would
func (c *Client) ReportMedia(ctx context.Context, id string, status v1alpha1.MediaStatus) error {
	resp, err := c.doRequest(ctx, http.MethodPost, status, panelsPath, id, "media")
	if err != nil {
		return err
	}
	return decodeResponse(resp, nil)
}
