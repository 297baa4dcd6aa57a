// Package form orchestrates record creation against the document backend:
// metadata loading through the response cache, initial-value derivation,
// required-field validation, nested-table row management, and the
// save/submit flow with success and error reporting.
package form

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/hrkit/hrclient/pkg/cache"
	"github.com/hrkit/hrclient/pkg/doctype"
	"github.com/hrkit/hrclient/pkg/gateway"
	"github.com/hrkit/hrclient/pkg/notify"
)

// State is the controller's lifecycle for one form instance.
type State int

const (
	// StateLoading covers schema fetch and prefill.
	StateLoading State = iota
	// StateReady means the form is interactive.
	StateReady
	// StateSubmitting means a save is in flight.
	StateSubmitting
	// StateClosed is terminal: either success or a fatal schema failure.
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	case StateSubmitting:
		return "submitting"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Schema entries have no explicit TTL in the caller-visible contract; they
// live for the cache's lifetime, which for the in-memory store is the
// process session.
const schemaTTL = 24 * time.Hour

// scrollMargin is subtracted from a field's recorded layout offset when
// scrolling to it, so the field lands below the screen edge.
const scrollMargin = 10.0

// Gateway is the slice of the remote document gateway the controller needs.
// *gateway.Client satisfies it; tests supply fakes.
type Gateway interface {
	FetchSchema(ctx context.Context, recordType string) (doctype.RecordTypeSchema, error)
	List(ctx context.Context, recordType string, opts gateway.ListOptions) ([]doctype.Document, error)
	Get(ctx context.Context, recordType, id string) (doctype.Document, error)
	Save(ctx context.Context, payload doctype.Document) (doctype.Document, error)
	Submit(ctx context.Context, saved doctype.Document) error
}

// Config carries the controller's explicit dependencies.
type Config struct {
	Gateway  Gateway
	Cache    *cache.Cache
	Notifier notify.Notifier
	Warnings notify.WarningSink
	Logger   *slog.Logger
	// UserID identifies the signed-in backend user for employee prefill.
	// Empty disables prefill.
	UserID string
	// Clock overrides the time source. Used by tests.
	Clock func() time.Time
}

// OpenOptions configure one form instance.
type OpenOptions struct {
	RecordType string
	// HiddenFields are excluded from the rendered set on top of the
	// server-declared hidden flags.
	HiddenFields []string
	// OnSuccess receives the saved record after a successful save (and
	// workflow submit where required).
	OnSuccess func(saved doctype.Document)
	// Scroller receives the vertical offset to scroll to when local
	// validation fails.
	Scroller func(offset float64)
}

// Controller runs the record form state machine. All methods are safe for
// concurrent use; network calls run without holding the lock.
type Controller struct {
	gw       Gateway
	cache    *cache.Cache
	notifier notify.Notifier
	warnings notify.WarningSink
	log      *slog.Logger
	userID   string
	now      func() time.Time

	mu           sync.Mutex
	state        State
	recordType   string
	hiddenFields []string
	onSuccess    func(doctype.Document)
	scroller     func(float64)

	kept         []doctype.FieldDescriptor
	tables       []doctype.FieldDescriptor
	childSchemas map[string]doctype.RecordTypeSchema
	values       map[string]any
	rows         map[string][]doctype.Document
	fieldErrors  map[string]bool
	offsets      map[string]float64

	openSeq      uint64
	cancelLookup context.CancelFunc
}

// NewController validates the config and builds a Controller.
func NewController(cfg Config) (*Controller, error) {
	if cfg.Gateway == nil {
		return nil, errors.New("form: gateway is required")
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.Discard{}
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	now := cfg.Clock
	if now == nil {
		now = time.Now
	}
	return &Controller{
		gw:       cfg.Gateway,
		cache:    cfg.Cache,
		notifier: notifier,
		warnings: cfg.Warnings,
		log:      log,
		userID:   cfg.UserID,
		now:      now,
		state:    StateClosed,
	}, nil
}

// Open makes the form visible for a record type: it loads the schema (through
// the cache when present), derives the renderable field set, loads child
// schemas best-effort, runs employee prefill, and transitions to Ready. A
// schema failure closes the form and reports an error; the caller is
// responsible for re-opening.
func (c *Controller) Open(ctx context.Context, opts OpenOptions) error {
	if opts.RecordType == "" {
		return errors.New("form: record type is required")
	}

	c.mu.Lock()
	c.openSeq++
	seq := c.openSeq
	c.state = StateLoading
	c.recordType = opts.RecordType
	c.hiddenFields = append([]string(nil), opts.HiddenFields...)
	c.onSuccess = opts.OnSuccess
	c.scroller = opts.Scroller
	c.kept = nil
	c.tables = nil
	c.childSchemas = make(map[string]doctype.RecordTypeSchema)
	c.values = make(map[string]any)
	c.rows = make(map[string][]doctype.Document)
	c.fieldErrors = make(map[string]bool)
	c.offsets = make(map[string]float64)
	c.mu.Unlock()

	schema, err := c.loadSchema(ctx, opts.RecordType)
	if err != nil {
		c.mu.Lock()
		if seq == c.openSeq {
			c.state = StateClosed
		}
		c.mu.Unlock()
		c.notifier.Error(fmt.Sprintf("Unable to load %s form", opts.RecordType))
		return err
	}

	kept, tables := deriveFields(schema, opts.HiddenFields, c.warnings)

	// Child schemas are best-effort: a table whose child schema fails to
	// load is dropped rather than failing the whole form.
	childSchemas := make(map[string]doctype.RecordTypeSchema, len(tables))
	var loadedTables []doctype.FieldDescriptor
	for _, table := range tables {
		child, err := c.loadSchema(ctx, table.ChildType())
		if err != nil {
			notify.Warnf(c.warnings, "form", map[string]any{
				"doctype": opts.RecordType,
				"field":   table.Name,
				"child":   table.ChildType(),
			}, "table %q dropped: child schema load failed", table.Name)
			continue
		}
		childSchemas[table.Name] = child
		loadedTables = append(loadedTables, table)
	}

	// Prefill runs once per open, independent of schema cache hits.
	var profile EmployeeProfile
	if c.userID != "" {
		profile, err = LookupEmployee(ctx, c.gw, c.userID)
		if err != nil {
			c.log.Debug("form: employee prefill skipped", "error", err)
			profile = EmployeeProfile{}
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.openSeq {
		// A newer Open superseded this load; discard its results.
		return nil
	}
	c.kept = kept
	c.tables = loadedTables
	c.childSchemas = childSchemas
	c.values = initialValues(kept, profile, c.now())
	for _, table := range loadedTables {
		c.rows[table.Name] = nil
	}
	c.state = StateReady
	return nil
}

func (c *Controller) loadSchema(ctx context.Context, recordType string) (doctype.RecordTypeSchema, error) {
	key := "schema:" + recordType
	var schema doctype.RecordTypeSchema
	if c.cache.Get(key, &schema) {
		return schema, nil
	}
	schema, err := c.gw.FetchSchema(ctx, recordType)
	if err != nil {
		return doctype.RecordTypeSchema{}, err
	}
	c.cache.Set(key, schema, schemaTTL)
	return schema, nil
}

// CurrentState reports the controller state.
func (c *Controller) CurrentState() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Fields returns the renderable top-level descriptors in schema order.
func (c *Controller) Fields() []doctype.FieldDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]doctype.FieldDescriptor(nil), c.kept...)
}

// Tables returns the table descriptors whose child schemas loaded.
func (c *Controller) Tables() []doctype.FieldDescriptor {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]doctype.FieldDescriptor(nil), c.tables...)
}

// ChildSchema returns the loaded child schema for a table field.
func (c *Controller) ChildSchema(tableField string) (doctype.RecordTypeSchema, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	schema, ok := c.childSchemas[tableField]
	return schema, ok
}

// Value returns the current edited value for a field.
func (c *Controller) Value(name string) any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.values[name]
}

// SetValue records an edit. The field's error flag clears on the change.
// Editing the employee field to three or more characters starts a background
// lookup that fills the companion employee-name field; a newer edit
// supersedes a pending lookup, and failures are silent.
func (c *Controller) SetValue(ctx context.Context, name string, value any) {
	c.mu.Lock()
	if c.state != StateReady {
		c.mu.Unlock()
		return
	}
	c.values[name] = value
	delete(c.fieldErrors, name)

	var lookupID string
	if name == "employee" {
		if c.cancelLookup != nil {
			c.cancelLookup()
			c.cancelLookup = nil
		}
		if id, ok := value.(string); ok && len(id) >= 3 {
			lookupID = id
		}
	}
	if lookupID == "" {
		c.mu.Unlock()
		return
	}

	lookupCtx, cancel := context.WithCancel(ctx)
	c.cancelLookup = cancel
	seq := c.openSeq
	c.mu.Unlock()

	go c.fillEmployeeName(lookupCtx, lookupID, seq)
}

func (c *Controller) fillEmployeeName(ctx context.Context, employeeID string, seq uint64) {
	record, err := c.gw.Get(ctx, "Employee", employeeID)
	if err != nil || ctx.Err() != nil {
		return
	}
	name := record.String("employee_name")
	if name == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if seq != c.openSeq || c.state != StateReady {
		return
	}
	if _, ok := c.values["employee_name"]; ok {
		c.values["employee_name"] = name
	}
}

// FieldHasError reports whether the field is flagged for error display.
func (c *Controller) FieldHasError(name string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fieldErrors[name]
}

// RecordOffset stores a field's vertical layout position for scroll-to-error.
func (c *Controller) RecordOffset(name string, y float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.offsets[name] = y
}

// AddRow appends a row to a table field.
func (c *Controller) AddRow(tableField string, row doctype.Document) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rows[tableField] = append(c.rows[tableField], row)
}

// RemoveRow deletes the row at index from a table field.
func (c *Controller) RemoveRow(tableField string, index int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	rows := c.rows[tableField]
	if index < 0 || index >= len(rows) {
		return
	}
	c.rows[tableField] = append(rows[:index:index], rows[index+1:]...)
}

// Rows returns the current rows for a table field.
func (c *Controller) Rows(tableField string) []doctype.Document {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]doctype.Document(nil), c.rows[tableField]...)
}

// Submit validates required fields and, when they pass, assembles the record
// payload and drives the save (and workflow-submit where the record type
// requires it). Local validation failures abort with zero gateway calls,
// flag the missing fields, and scroll to the first one. On success the
// controller notifies, invokes the success callback with the saved record,
// and closes; on failure it reports the extracted message and returns to
// Ready with values intact.
func (c *Controller) Submit(ctx context.Context) (doctype.Document, error) {
	c.mu.Lock()
	if c.state != StateReady {
		state := c.state
		c.mu.Unlock()
		return nil, fmt.Errorf("form: cannot submit while %s", state)
	}

	missing := missingRequired(c.kept, c.values)
	if len(missing) > 0 {
		for _, name := range missing {
			c.fieldErrors[name] = true
		}
		scroller := c.scroller
		offset, haveOffset := c.offsets[missing[0]]
		c.mu.Unlock()

		if scroller != nil && haveOffset {
			target := offset - scrollMargin
			if target < 0 {
				target = 0
			}
			scroller(target)
		}
		return nil, &MissingFieldsError{Fields: missing}
	}

	c.state = StateSubmitting
	recordType := c.recordType
	payload := buildPayload(recordType, c.values, c.tables, c.rows, c.now())
	c.mu.Unlock()

	saved, err := c.gw.Save(ctx, payload)
	if err != nil {
		c.failSubmit(err)
		return nil, err
	}

	if RequiresSubmit(recordType) {
		if err := c.gw.Submit(ctx, saved); err != nil {
			c.failSubmit(err)
			return nil, err
		}
	}

	c.mu.Lock()
	c.state = StateClosed
	onSuccess := c.onSuccess
	c.mu.Unlock()

	c.notifier.Success(fmt.Sprintf("%s saved", recordType))
	if onSuccess != nil {
		onSuccess(saved)
	}
	return saved, nil
}

// failSubmit reports a save/submit failure and returns the form to Ready
// without losing entered values. Structured server messages are preferred
// over the generic error string.
func (c *Controller) failSubmit(err error) {
	c.mu.Lock()
	c.state = StateReady
	c.mu.Unlock()

	message := "Something went wrong. Please try again."
	var validation *gateway.ValidationError
	if errors.As(err, &validation) && len(validation.Messages) > 0 {
		message = strings.Join(validation.Messages, "\n")
	}
	c.notifier.Error(message)
	c.log.Debug("form: submit failed", "doctype", c.recordType, "error", err)
}

// Close abandons the form, cancelling any pending employee lookup.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.cancelLookup != nil {
		c.cancelLookup()
		c.cancelLookup = nil
	}
	c.openSeq++
	c.state = StateClosed
}
