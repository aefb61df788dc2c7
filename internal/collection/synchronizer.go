package collection

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/pratik-mahalle/darkwatch/internal/pkg/logger"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

var (
	// ErrCanceled is returned when the user declines a delete confirmation
	ErrCanceled = errors.New("operation canceled")
	// ErrClosed is returned when the owner of a loader has already released it
	ErrClosed = errors.New("collection closed")
)

// Fetcher reads the authoritative collection from the backend
type Fetcher[T Entity] interface {
	FetchAll(ctx context.Context) ([]T, error)
}

// Mutator performs remote writes for one resource type
type Mutator[T Entity, C, U any] interface {
	Create(ctx context.Context, input C) (*T, error)
	Update(ctx context.Context, id int64, patch U) (*T, error)
	Delete(ctx context.Context, id int64) error
}

// Resource is a full CRUD backend for one resource type
type Resource[T Entity, C, U any] interface {
	Fetcher[T]
	Mutator[T, C, U]
}

// Confirmer asks the user before a destructive action
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// ConfirmFunc adapts a function to Confirmer
type ConfirmFunc func(ctx context.Context, prompt string) (bool, error)

// Confirm calls f
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) (bool, error) {
	return f(ctx, prompt)
}

// AlwaysConfirm approves every prompt
var AlwaysConfirm Confirmer = ConfirmFunc(func(context.Context, string) (bool, error) { return true, nil })

// Recorder receives collection metrics
type Recorder interface {
	SetStoreItems(resource string, n int)
	StaleState(resource, op string)
	Mutation(resource, op string, err error)
}

// InputValidator checks create/update inputs before any request is sent
type InputValidator interface {
	Check(input interface{}) error
}

type options struct {
	log          *logger.Logger
	recorder     Recorder
	confirmer    Confirmer
	validator    InputValidator
	searchFields []string
}

// Option configures a Loader or Synchronizer
type Option func(*options)

// WithLogger sets the logger used for stale-state and failure reports
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithRecorder sets the metrics recorder
func WithRecorder(r Recorder) Option {
	return func(o *options) { o.recorder = r }
}

// WithConfirmer sets the delete confirmation step
func WithConfirmer(c Confirmer) Option {
	return func(o *options) { o.confirmer = c }
}

// WithValidator validates create and update inputs
func WithValidator(v InputValidator) Option {
	return func(o *options) { o.validator = v }
}

// WithSearchFields sets the JSON fields matched by a free-text search
func WithSearchFields(fields ...string) Option {
	return func(o *options) { o.searchFields = fields }
}

// Loader owns a Store and fills it from a Fetcher. It also runs resource
// actions that reconcile single entities.
type Loader[T Entity] struct {
	name    string
	fetcher Fetcher[T]
	store   *Store[T]
	opts    options
	locks   *keyedMutex
	flight  singleflight.Group
	closed  atomic.Bool
}

// NewLoader creates a loader with an empty store
func NewLoader[T Entity](name string, fetcher Fetcher[T], opts ...Option) *Loader[T] {
	o := options{log: logger.Nop(), confirmer: AlwaysConfirm}
	for _, opt := range opts {
		opt(&o)
	}
	o.log = o.log.WithFields(map[string]interface{}{"component": "collection", "resource": name})

	return &Loader[T]{
		name:    name,
		fetcher: fetcher,
		store:   NewStore[T](),
		opts:    o,
		locks:   newKeyedMutex(),
	}
}

// Name returns the resource name
func (l *Loader[T]) Name() string {
	return l.name
}

// Store returns the underlying store
func (l *Loader[T]) Store() *Store[T] {
	return l.store
}

// Items returns the current entities
func (l *Loader[T]) Items() []T {
	return l.store.Items()
}

// Refetch replaces the collection with the backend's. Concurrent calls share
// one request. On error the previous items are kept and the error recorded.
func (l *Loader[T]) Refetch(ctx context.Context) error {
	if l.closed.Load() {
		return ErrClosed
	}

	_, err, _ := l.flight.Do("fetch", func() (interface{}, error) {
		l.store.BeginLoad()
		items, err := l.fetcher.FetchAll(ctx)
		if l.closed.Load() {
			l.store.EndLoad()
			l.opts.log.Debug("discarding fetch result for closed collection")
			return nil, ErrClosed
		}
		if err != nil {
			l.store.Fail(err)
			l.opts.log.WarnWithErr(err, "fetch failed")
			return nil, err
		}
		if dups := l.store.SetAll(items); dups > 0 {
			l.opts.log.With("duplicates", dups).Warn("fetch returned duplicate ids")
		}
		l.record(func(r Recorder) { r.SetStoreItems(l.name, l.store.Len()) })
		return nil, nil
	})
	if err != nil {
		return fmt.Errorf("fetching %s: %w", l.name, err)
	}
	return nil
}

// Load is the initial fetch; it is the same operation as Refetch
func (l *Loader[T]) Load(ctx context.Context) error {
	return l.Refetch(ctx)
}

// Apply runs a resource action that returns the updated entity and replaces
// the stored copy in place.
func (l *Loader[T]) Apply(ctx context.Context, op string, id int64, action func(ctx context.Context) (*T, error)) (*T, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}
	unlock := l.locks.Lock(id)
	defer unlock()

	l.store.ClearError()
	updated, err := action(ctx)
	l.record(func(r Recorder) { r.Mutation(l.name, op, err) })
	if err != nil {
		l.store.SetError(err)
		return nil, err
	}
	if updated == nil || (*updated).GetID() != id {
		err := fmt.Errorf("%s %s %d: %w: response does not describe the entity", l.name, op, id, client.ErrRemote)
		l.store.SetError(err)
		return nil, err
	}
	if l.closed.Load() {
		return updated, nil
	}
	l.reconcile(op, l.store.Replace(id, *updated))
	return updated, nil
}

// PatchAfter runs a resource action without an entity response and then
// patches the stored entity with fn.
func (l *Loader[T]) PatchAfter(ctx context.Context, op string, id int64, call func(ctx context.Context) error, fn func(*T)) error {
	if l.closed.Load() {
		return ErrClosed
	}
	unlock := l.locks.Lock(id)
	defer unlock()

	l.store.ClearError()
	err := call(ctx)
	l.record(func(r Recorder) { r.Mutation(l.name, op, err) })
	if err != nil {
		l.store.SetError(err)
		return err
	}
	if l.closed.Load() {
		return nil
	}
	l.reconcile(op, l.store.Patch(id, fn))
	return nil
}

// PatchLocal applies fn to the stored entity without a remote call. Used for
// progress reported out of band, such as task status.
func (l *Loader[T]) PatchLocal(op string, id int64, fn func(*T)) {
	if l.closed.Load() {
		return
	}
	l.reconcile(op, l.store.Patch(id, fn))
}

// Add runs an action that creates an entity and appends the result
func (l *Loader[T]) Add(ctx context.Context, op string, action func(ctx context.Context) (*T, error)) (*T, error) {
	if l.closed.Load() {
		return nil, ErrClosed
	}
	l.store.ClearError()
	created, err := action(ctx)
	l.record(func(r Recorder) { r.Mutation(l.name, op, err) })
	if err != nil {
		l.store.SetError(err)
		return nil, err
	}
	if created == nil || (*created).GetID() == 0 {
		err := fmt.Errorf("%s %s: %w: response does not describe the entity", l.name, op, client.ErrRemote)
		l.store.SetError(err)
		return nil, err
	}
	if l.closed.Load() {
		return created, nil
	}
	l.reconcile(op, l.store.Insert(*created))
	return created, nil
}

// Discard asks for confirmation, runs a remote delete and removes the entity.
// A backend 404 or a missing local entry is stale state: logged, not returned.
func (l *Loader[T]) Discard(ctx context.Context, op string, id int64, call func(ctx context.Context) error) error {
	if l.closed.Load() {
		return ErrClosed
	}

	ok, err := l.opts.confirmer.Confirm(ctx, fmt.Sprintf("Delete %s %d?", l.name, id))
	if err != nil {
		return fmt.Errorf("confirmation: %w", err)
	}
	if !ok {
		return ErrCanceled
	}

	unlock := l.locks.Lock(id)
	defer unlock()

	l.store.ClearError()
	err = call(ctx)
	l.record(func(r Recorder) { r.Mutation(l.name, op, err) })
	if err != nil && !errors.Is(err, client.ErrNotFound) {
		l.store.SetError(err)
		return err
	}
	if err != nil {
		l.opts.log.With("id", id).Info("entity already deleted on the backend")
	}
	if l.closed.Load() {
		return nil
	}
	l.reconcile(op, l.store.Remove(id))
	return nil
}

// View returns the derived list for q without touching the store
func (l *Loader[T]) View(q Query) ([]T, error) {
	if len(q.SearchFields) == 0 {
		q.SearchFields = l.opts.searchFields
	}
	return Filter(l.store.Items(), q)
}

// Close detaches the loader: late results are no longer applied
func (l *Loader[T]) Close() {
	l.closed.Store(true)
}

// reconcile logs stale-state outcomes; other errors are logged as failures
func (l *Loader[T]) reconcile(op string, err error) {
	if err == nil {
		l.record(func(r Recorder) { r.SetStoreItems(l.name, l.store.Len()) })
		return
	}
	if errors.Is(err, ErrStaleState) {
		l.record(func(r Recorder) { r.StaleState(l.name, op) })
		l.opts.log.With("op", op).WithError(err).Info("stale state during reconciliation")
		return
	}
	l.opts.log.With("op", op).ErrorWithErr(err, "reconciliation failed")
}

func (l *Loader[T]) record(fn func(Recorder)) {
	if l.opts.recorder != nil {
		fn(l.opts.recorder)
	}
}

// Synchronizer adds create, update and delete with local reconciliation
type Synchronizer[T Entity, C, U any] struct {
	*Loader[T]
	mutator Mutator[T, C, U]
}

// New creates a synchronizer over a CRUD resource
func New[T Entity, C, U any](name string, resource Resource[T, C, U], opts ...Option) *Synchronizer[T, C, U] {
	return &Synchronizer[T, C, U]{
		Loader:  NewLoader[T](name, resource, opts...),
		mutator: resource,
	}
}

// Validate checks input with the configured validator and records a failure
// on the store. It sends nothing.
func (l *Loader[T]) Validate(input interface{}) error {
	if l.opts.validator == nil {
		return nil
	}
	if err := l.opts.validator.Check(input); err != nil {
		l.store.SetError(err)
		return err
	}
	return nil
}

// Create posts input and appends the created entity
func (s *Synchronizer[T, C, U]) Create(ctx context.Context, input C) (*T, error) {
	if err := s.Validate(input); err != nil {
		return nil, err
	}
	return s.Add(ctx, "create", func(ctx context.Context) (*T, error) {
		return s.mutator.Create(ctx, input)
	})
}

// Update sends patch and replaces the stored entity in place. Blank secrets in
// patch are dropped before validation.
func (s *Synchronizer[T, C, U]) Update(ctx context.Context, id int64, patch U) (*T, error) {
	client.DropBlankSecrets(&patch)
	if err := s.Validate(patch); err != nil {
		return nil, err
	}
	return s.Apply(ctx, "update", id, func(ctx context.Context) (*T, error) {
		return s.mutator.Update(ctx, id, patch)
	})
}

// Delete confirms, deletes remotely and removes the entity
func (s *Synchronizer[T, C, U]) Delete(ctx context.Context, id int64) error {
	return s.Discard(ctx, "delete", id, func(ctx context.Context) error {
		return s.mutator.Delete(ctx, id)
	})
}
