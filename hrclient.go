// Package hrclient bundles the HR record client: a remote document gateway, a
// TTL response cache, metadata-driven form controllers and link search. The
// root package re-exports the common types and offers one-call entry points;
// the pkg subpackages remain the full API.
package hrclient

import (
	"context"
	"log/slog"

	"github.com/hrkit/hrclient/pkg/cache"
	"github.com/hrkit/hrclient/pkg/doctype"
	"github.com/hrkit/hrclient/pkg/form"
	"github.com/hrkit/hrclient/pkg/gateway"
	"github.com/hrkit/hrclient/pkg/linksearch"
	"github.com/hrkit/hrclient/pkg/notify"
	"github.com/hrkit/hrclient/pkg/renderers/tui"
)

// Document is a generic record payload.
type Document = doctype.Document

// FieldDescriptor is server-declared field metadata.
type FieldDescriptor = doctype.FieldDescriptor

// RecordTypeSchema is the descriptor set for one record type.
type RecordTypeSchema = doctype.RecordTypeSchema

// Candidate is one link-search result row.
type Candidate = gateway.Candidate

// Warning is a structured degradation notice.
type Warning = notify.Warning

// Config assembles a client. BaseURL is required; everything else has
// sensible defaults (in-memory cache, terminal notifier, default logger).
type Config struct {
	BaseURL string
	// UserID enables employee prefill on forms when set.
	UserID string

	Logger     *slog.Logger
	CacheStore cache.Store
	Notifier   notify.Notifier
	Warnings   notify.WarningSink
}

// Client bundles the configured components.
type Client struct {
	Gateway *gateway.Client
	Cache   *cache.Cache

	userID   string
	notifier notify.Notifier
	warnings notify.WarningSink
	log      *slog.Logger
}

// New builds a client from the config. Gateway options pass through so
// callers can override the backend method names.
func New(cfg Config, options ...gateway.Option) (*Client, error) {
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	gw, err := gateway.New(gateway.Config{BaseURL: cfg.BaseURL, Logger: log}, options...)
	if err != nil {
		return nil, err
	}

	store := cfg.CacheStore
	if store == nil {
		store = cache.NewMemoryStore()
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NewTerminal()
	}

	return &Client{
		Gateway:  gw,
		Cache:    cache.New(store, "hrclient", cache.WithLogger(log)),
		userID:   cfg.UserID,
		notifier: notifier,
		warnings: cfg.Warnings,
		log:      log,
	}, nil
}

// NewForm builds a form controller wired to the client's gateway and cache.
// The controller still needs Open before use.
func (c *Client) NewForm() (*form.Controller, error) {
	return form.NewController(form.Config{
		Gateway:  c.Gateway,
		Cache:    c.Cache,
		Notifier: c.notifier,
		Warnings: c.warnings,
		Logger:   c.log,
		UserID:   c.userID,
	})
}

// RunForm opens a record form and drives it through the terminal renderer to
// completion. It is the simplest entry point for callers that just want a
// record created.
func (c *Client) RunForm(ctx context.Context, recordType string) (Document, error) {
	ctrl, err := c.NewForm()
	if err != nil {
		return nil, err
	}
	defer ctrl.Close()

	if err := ctrl.Open(ctx, form.OpenOptions{RecordType: recordType}); err != nil {
		return nil, err
	}

	renderer := tui.New(tui.WithSearch(func(ctx context.Context, query, targetType string) []gateway.Candidate {
		return c.Gateway.SearchLink(ctx, query, targetType, gateway.SearchOptions{ReferenceType: recordType})
	}))
	return renderer.Run(ctx, ctrl)
}

// NewSearchAssistant builds a debounced link-search assistant resolving
// against the given target record type.
func (c *Client) NewSearchAssistant(targetType string, onResults linksearch.ResultsFunc, options ...linksearch.Option) *linksearch.Assistant {
	return linksearch.New(func(ctx context.Context, query string) []gateway.Candidate {
		return c.Gateway.SearchLink(ctx, query, targetType, gateway.SearchOptions{})
	}, onResults, options...)
}
