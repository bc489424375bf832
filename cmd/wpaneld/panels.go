package main

import (
	"fmt"
	"log/slog"

	"github.com/wrale/wrale-panels/api/types/v1alpha1"
	"github.com/wrale/wrale-panels/internal/wpaneld/config"
	"github.com/wrale/wrale-panels/internal/wpaneld/media"
	"github.com/wrale/wrale-panels/internal/wpaneld/panel"
	"github.com/wrale/wrale-panels/internal/wpaneld/source"
)

// buildRegistry creates one engine per configured panel
func buildRegistry(cfg *config.Config, builder *source.Builder, publisher panel.Publisher, logger *slog.Logger) (*panel.Registry, error) {
	registry := panel.NewRegistry(logger)

	var prober panel.Prober
	if cfg.Engine.ProbeAspects {
		prober = media.NewProber(nil)
	}

	for _, pc := range cfg.Panels {
		fetcher, err := builder.Build(pc)
		if err != nil {
			return nil, err
		}

		ec, err := engineConfig(cfg.Engine, pc)
		if err != nil {
			return nil, err
		}

		opts := []panel.Option{
			panel.WithPublisher(publisher),
			panel.WithLogger(logger),
		}
		if prober != nil {
			opts = append(opts, panel.WithProber(prober))
		}

		engine, err := panel.NewEngine(ec, fetcher, opts...)
		if err != nil {
			return nil, fmt.Errorf("panel %s: %w", pc.ID, err)
		}
		if err := registry.Add(engine); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// engineConfig merges a validated panel entry with the engine section
func engineConfig(ec config.EngineConfig, pc config.PanelConfig) (panel.Config, error) {
	layout, err := v1alpha1.ParsePanelLayout(pc.Layout)
	if err != nil {
		return panel.Config{}, fmt.Errorf("panel %s: %w", pc.ID, err)
	}
	return panel.Config{
		ID:               pc.ID,
		Name:             pc.Name,
		Layout:           layout,
		Source:           source.Describe(pc),
		RotationInterval: pc.RotationInterval,
		ActionInterval:   pc.ActionInterval,
		PollingInterval:  pc.PollingInterval,
		PageInterval:     pc.PageInterval,
		FetchTimeout:     ec.FetchTimeout,
		GridSize:         pc.GridSize,
		PageSize:         pc.PageSize,
		Title:            pc.Title,
		FooterText:       pc.FooterText,
		AspectCacheSize:  ec.AspectCacheSize,
		ProbeParallelism: ec.ProbeParallelism,
	}, nil
}
