// Package tui renders record forms as interactive terminal sessions. Field
// dispatch follows the widget registry; interaction goes through the
// PromptDriver interface so logic is testable without a terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/hrkit/hrclient/pkg/doctype"
	"github.com/hrkit/hrclient/pkg/form"
	"github.com/hrkit/hrclient/pkg/gateway"
	"github.com/hrkit/hrclient/pkg/linksearch"
	"github.com/hrkit/hrclient/pkg/widgets"
)

const dateLayout = "2006-01-02"

// rowHeight is the synthetic per-field vertical spacing recorded as layout
// offsets so scroll-to-error resolves to a position.
const rowHeight = 48.0

// Renderer drives a form controller session over a prompt driver.
type Renderer struct {
	driver  PromptDriver
	search  SearchFunc
	widgets *widgets.Registry
}

// New constructs a renderer with defaults (survey driver, built-in widget
// dispatch).
func New(options ...Option) *Renderer {
	r := &Renderer{
		driver:  newSurveyDriver(),
		widgets: widgets.NewRegistry(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(r)
	}
	return r
}

// Run prompts for every renderable field and table row, then submits. Local
// validation failures re-prompt the flagged fields; gateway failures return
// after the controller has reported them.
func (r *Renderer) Run(ctx context.Context, ctrl *form.Controller) (doctype.Document, error) {
	fields := ctrl.Fields()
	for i, field := range fields {
		ctrl.RecordOffset(field.Name, float64(i)*rowHeight)
		if err := r.promptField(ctx, ctrl, field); err != nil {
			return nil, err
		}
	}

	for _, table := range ctrl.Tables() {
		if err := r.promptTable(ctx, ctrl, table); err != nil {
			return nil, err
		}
	}

	for {
		saved, err := ctrl.Submit(ctx)
		if err == nil {
			return saved, nil
		}

		var missing *form.MissingFieldsError
		if !errors.As(err, &missing) {
			return nil, err
		}

		_ = r.driver.Info(ctx, fmt.Sprintf("Required: %s", strings.Join(missing.Fields, ", ")))
		for _, name := range missing.Fields {
			field, ok := fieldByName(fields, name)
			if !ok {
				continue
			}
			if err := r.promptField(ctx, ctrl, field); err != nil {
				return nil, err
			}
		}
	}
}

func (r *Renderer) promptField(ctx context.Context, ctrl *form.Controller, field doctype.FieldDescriptor) error {
	widget, ok := r.widgets.Resolve(field)
	if !ok {
		return nil
	}

	switch widget {
	case widgets.WidgetToggle:
		return r.promptToggle(ctx, ctrl, field)
	case widgets.WidgetChoice:
		return r.promptChoice(ctx, ctrl, field)
	case widgets.WidgetDate:
		return r.promptDate(ctx, ctrl, field)
	case widgets.WidgetLinkSearch:
		return r.promptLink(ctx, ctrl, field)
	case widgets.WidgetTextArea:
		return r.promptTextArea(ctx, ctrl, field)
	case widgets.WidgetTable:
		// Tables are prompted separately, row by row.
		return nil
	default:
		// textbox and numeric: numeric kinds request numeric entry but the
		// raw string is stored either way.
		return r.promptText(ctx, ctrl, field)
	}
}

func (r *Renderer) promptToggle(ctx context.Context, ctrl *form.Controller, field doctype.FieldDescriptor) error {
	current, _ := ctrl.Value(field.Name).(bool)
	value, err := r.driver.Confirm(ctx, ConfirmConfig{
		Message: field.DisplayLabel(),
		Default: current,
	})
	if err != nil {
		return err
	}
	ctrl.SetValue(ctx, field.Name, value)
	return nil
}

func (r *Renderer) promptChoice(ctx context.Context, ctrl *form.Controller, field doctype.FieldDescriptor) error {
	choices := field.SelectChoices()
	if len(choices) == 0 {
		return nil
	}
	current, _ := ctrl.Value(field.Name).(string)
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message:      field.DisplayLabel(),
		Options:      choices,
		DefaultIndex: indexOf(choices, current),
	})
	if err != nil {
		return err
	}
	if idx >= 0 && idx < len(choices) {
		ctrl.SetValue(ctx, field.Name, choices[idx])
	}
	return nil
}

func (r *Renderer) promptDate(ctx context.Context, ctrl *form.Controller, field doctype.FieldDescriptor) error {
	current, _ := ctrl.Value(field.Name).(string)
	input, err := r.driver.Input(ctx, InputConfig{
		Message: field.DisplayLabel(),
		Default: current,
		Help:    "YYYY-MM-DD",
	})
	if err != nil {
		return err
	}
	ctrl.SetValue(ctx, field.Name, normalizeDate(input))
	return nil
}

// normalizeDate always yields an ISO date string; anything unparseable falls
// back to today rather than propagating an invalid date.
func normalizeDate(input string) string {
	trimmed := strings.TrimSpace(input)
	if parsed, err := time.Parse(dateLayout, trimmed); err == nil {
		return parsed.Format(dateLayout)
	}
	return time.Now().Format(dateLayout)
}

func (r *Renderer) promptLink(ctx context.Context, ctrl *form.Controller, field doctype.FieldDescriptor) error {
	if r.search == nil {
		return r.promptText(ctx, ctrl, field)
	}

	target := field.LinkTarget()
	assistant := linksearch.New(func(ctx context.Context, query string) []gateway.Candidate {
		return r.search(ctx, query, target)
	}, nil)
	defer assistant.Close()

	current, _ := ctrl.Value(field.Name).(string)
	query, err := r.driver.Input(ctx, InputConfig{
		Message: field.DisplayLabel(),
		Default: current,
		Help:    fmt.Sprintf("search %s", target),
	})
	if err != nil {
		return err
	}

	candidates := assistant.SearchNow(ctx, query)
	if len(candidates) == 0 {
		ctrl.SetValue(ctx, field.Name, strings.TrimSpace(query))
		return nil
	}

	labels := make([]string, len(candidates))
	for i, candidate := range candidates {
		labels[i] = candidate.DisplayLabel()
	}
	idx, err := r.driver.Select(ctx, SelectConfig{
		Message: field.DisplayLabel(),
		Options: labels,
	})
	if err != nil {
		return err
	}
	if idx < 0 || idx >= len(candidates) {
		ctrl.SetValue(ctx, field.Name, strings.TrimSpace(query))
		return nil
	}
	ctrl.SetValue(ctx, field.Name, assistant.Select(candidates[idx]))
	return nil
}

func (r *Renderer) promptTextArea(ctx context.Context, ctrl *form.Controller, field doctype.FieldDescriptor) error {
	current, _ := ctrl.Value(field.Name).(string)
	value, err := r.driver.TextArea(ctx, TextAreaConfig{
		Message: field.DisplayLabel(),
		Default: current,
	})
	if err != nil {
		return err
	}
	ctrl.SetValue(ctx, field.Name, value)
	return nil
}

func (r *Renderer) promptText(ctx context.Context, ctrl *form.Controller, field doctype.FieldDescriptor) error {
	current, _ := ctrl.Value(field.Name).(string)
	help := ""
	if field.Kind.Numeric() {
		help = "numeric"
	}
	value, err := r.driver.Input(ctx, InputConfig{
		Message: field.DisplayLabel(),
		Default: current,
		Help:    help,
	})
	if err != nil {
		return err
	}
	ctrl.SetValue(ctx, field.Name, value)
	return nil
}

func (r *Renderer) promptTable(ctx context.Context, ctrl *form.Controller, table doctype.FieldDescriptor) error {
	child, ok := ctrl.ChildSchema(table.Name)
	if !ok {
		return nil
	}
	kept, _ := form.Renderable(child, nil, nil)
	if len(kept) == 0 {
		return nil
	}

	for {
		add, err := r.driver.Confirm(ctx, ConfirmConfig{
			Message: fmt.Sprintf("Add %s row?", table.DisplayLabel()),
			Default: false,
		})
		if err != nil {
			return err
		}
		if !add {
			return nil
		}

		row := make(doctype.Document, len(kept))
		for _, field := range kept {
			value, err := r.promptRowValue(ctx, field)
			if err != nil {
				return err
			}
			row[field.Name] = value
		}
		ctrl.AddRow(table.Name, row)
	}
}

func (r *Renderer) promptRowValue(ctx context.Context, field doctype.FieldDescriptor) (any, error) {
	widget, ok := r.widgets.Resolve(field)
	if !ok {
		return "", nil
	}
	switch widget {
	case widgets.WidgetToggle:
		return r.driver.Confirm(ctx, ConfirmConfig{Message: field.DisplayLabel()})
	case widgets.WidgetChoice:
		choices := field.SelectChoices()
		if len(choices) == 0 {
			return "", nil
		}
		idx, err := r.driver.Select(ctx, SelectConfig{
			Message: field.DisplayLabel(),
			Options: choices,
		})
		if err != nil {
			return nil, err
		}
		if idx >= 0 && idx < len(choices) {
			return choices[idx], nil
		}
		return "", nil
	case widgets.WidgetDate:
		input, err := r.driver.Input(ctx, InputConfig{Message: field.DisplayLabel(), Help: "YYYY-MM-DD"})
		if err != nil {
			return nil, err
		}
		return normalizeDate(input), nil
	case widgets.WidgetTextArea:
		return r.driver.TextArea(ctx, TextAreaConfig{Message: field.DisplayLabel()})
	default:
		return r.driver.Input(ctx, InputConfig{Message: field.DisplayLabel()})
	}
}

func fieldByName(fields []doctype.FieldDescriptor, name string) (doctype.FieldDescriptor, bool) {
	for _, field := range fields {
		if field.Name == name {
			return field, true
		}
	}
	return doctype.FieldDescriptor{}, false
}
