// Package bootstrap provides startup-time wiring shared by the binaries:
// assembling the dispatch engine and its collaborators from configuration.
package bootstrap

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/craftfair/dispatch/internal/attachstore"
	"github.com/craftfair/dispatch/internal/brand"
	"github.com/craftfair/dispatch/internal/config"
	"github.com/craftfair/dispatch/internal/engine"
	"github.com/craftfair/dispatch/internal/preference"
	"github.com/craftfair/dispatch/internal/provider"
	"github.com/craftfair/dispatch/internal/queue"
	"github.com/craftfair/dispatch/internal/record"
	"github.com/craftfair/dispatch/internal/render"
	"github.com/craftfair/dispatch/internal/storage"
	"github.com/craftfair/dispatch/internal/template"
)

// Components holds the assembled application components shared by the
// worker and API server binaries.
type Components struct {
	Records     record.Store
	Preferences preference.Store
	Templates   template.Source
	Engine      *engine.Engine
	Tokens      *preference.TokenIssuer
}

// TemplateSource builds the static template source from configuration.
func TemplateSource(cfg *config.Config) *template.StaticSource {
	defs := make([]template.Definition, 0, len(cfg.Templates))
	for _, t := range cfg.Templates {
		defs = append(defs, template.Definition{
			Key:        t.Key,
			Enabled:    t.Enabled,
			Subject:    t.Subject,
			Body:       t.Body,
			LinkParams: t.LinkParams,
		})
	}
	return template.NewStaticSource(defs)
}

// Build assembles the engine and its collaborators. The enqueuer comes from
// the caller because the worker also needs the dequeuer side of the queue.
func Build(cfg *config.Config, db *storage.DB, enqueuer queue.Enqueuer, log zerolog.Logger) (*Components, error) {
	records := record.NewPostgresStore(db.Pool)
	prefs := preference.NewPostgresStore(db.Pool)
	templates := TemplateSource(cfg)
	renderer := render.NewRenderer(nil, nil, log)

	httpClient := provider.NewHTTPClient(cfg.Provider.Timeout)
	defaultProvider, err := provider.New(cfg.Provider, httpClient)
	if err != nil {
		return nil, fmt.Errorf("create default provider: %w", err)
	}
	gateways := provider.NewPostgresGatewayStore(db.Pool)
	resolver := provider.NewResolver(gateways, defaultProvider, httpClient, log)

	attachments, err := attachstore.New(cfg.Attachments.StoreConfig(), log)
	if err != nil {
		return nil, fmt.Errorf("create attachment store: %w", err)
	}

	fallbackBrand := brand.Brand{
		FromName:    cfg.Brand.FromName,
		FromEmail:   cfg.Brand.FromEmail,
		ReplyTo:     cfg.Brand.ReplyTo,
		LogoURL:     cfg.Brand.LogoURL,
		AccentColor: cfg.Brand.AccentColor,
		FooterText:  cfg.Brand.FooterText,
	}
	brands := brand.NewStoreResolver(brand.NewPostgresStore(db.Pool), fallbackBrand, log)

	var tokens *preference.TokenIssuer
	if cfg.Unsubscribe.SigningKey != "" {
		tokens = preference.NewTokenIssuer(cfg.Unsubscribe.SigningKey, cfg.Unsubscribe.BaseURL, cfg.Unsubscribe.TokenTTL)
	}

	eng := engine.New(engine.Deps{
		Records:     records,
		Preferences: prefs,
		Templates:   templates,
		Renderer:    renderer,
		Brands:      brands,
		Providers:   resolver,
		Attachments: attachments,
		Enqueuer:    enqueuer,
		Tokens:      tokens,
	}, log)

	return &Components{
		Records:     records,
		Preferences: prefs,
		Templates:   templates,
		Engine:      eng,
		Tokens:      tokens,
	}, nil
}
