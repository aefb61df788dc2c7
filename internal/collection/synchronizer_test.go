package collection

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

type createInput struct {
	Keyword string
}

type updateInput struct {
	Name string
}

// fakeResource is an in-memory backend for one resource type
type fakeResource struct {
	mu      sync.Mutex
	items   []item
	nextID  int64
	deletes []int64

	fetchErr  error
	createErr error
	updateErr error
	deleteErr error

	fetchStarted chan struct{}
	fetchGate    chan struct{}
	fetches      atomic.Int32

	updateGate   chan struct{}
	updating     atomic.Int32
	maxUpdating  atomic.Int32
	updateCalled chan struct{}
}

func newFakeResource(items ...item) *fakeResource {
	f := &fakeResource{items: items, nextID: 100}
	return f
}

func (f *fakeResource) FetchAll(ctx context.Context) ([]item, error) {
	f.fetches.Add(1)
	if f.fetchStarted != nil {
		f.fetchStarted <- struct{}{}
	}
	if f.fetchGate != nil {
		<-f.fetchGate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	out := make([]item, len(f.items))
	copy(out, f.items)
	return out, nil
}

func (f *fakeResource) Create(ctx context.Context, in createInput) (*item, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	it := item{ID: f.nextID, Name: in.Keyword}
	f.nextID++
	f.items = append(f.items, it)
	return &it, nil
}

func (f *fakeResource) Update(ctx context.Context, id int64, in updateInput) (*item, error) {
	n := f.updating.Add(1)
	defer f.updating.Add(-1)
	for {
		m := f.maxUpdating.Load()
		if n <= m || f.maxUpdating.CompareAndSwap(m, n) {
			break
		}
	}
	if f.updateCalled != nil {
		f.updateCalled <- struct{}{}
	}
	if f.updateGate != nil {
		<-f.updateGate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items[i].Name = in.Name
			it := f.items[i]
			return &it, nil
		}
	}
	return nil, &client.APIError{StatusCode: 404, Message: "Not found"}
}

func (f *fakeResource) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deletes = append(f.deletes, id)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i := range f.items {
		if f.items[i].ID == id {
			f.items = append(f.items[:i], f.items[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete %d: %w", id, client.ErrNotFound)
}

type recorder struct {
	mu        sync.Mutex
	stale     []string
	mutations []string
	items     map[string]int
}

func (r *recorder) SetStoreItems(resource string, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.items == nil {
		r.items = map[string]int{}
	}
	r.items[resource] = n
}

func (r *recorder) StaleState(resource, op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stale = append(r.stale, resource+":"+op)
}

func (r *recorder) Mutation(resource, op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.mutations = append(r.mutations, op+":"+outcome)
}

type validatorFunc func(interface{}) error

func (f validatorFunc) Check(input interface{}) error { return f(input) }

func loaded(t *testing.T, f *fakeResource, opts ...Option) *Synchronizer[item, createInput, updateInput] {
	t.Helper()
	s := New[item, createInput, updateInput]("items", f, opts...)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	return s
}

func TestSynchronizer_LoadRoundTrip(t *testing.T) {
	f := newFakeResource(item{ID: 2, Name: "b"}, item{ID: 1, Name: "a"})
	rec := &recorder{}
	s := loaded(t, f, WithRecorder(rec))

	if !reflect.DeepEqual(s.Items(), f.items) {
		t.Errorf("Items() = %v, want %v", s.Items(), f.items)
	}
	if rec.items["items"] != 2 {
		t.Errorf("recorded items = %d, want 2", rec.items["items"])
	}
}

func TestSynchronizer_FetchErrorKeepsState(t *testing.T) {
	f := newFakeResource(item{ID: 1})
	s := loaded(t, f)

	f.fetchErr = fmt.Errorf("%w: 503", client.ErrRemote)
	err := s.Refetch(context.Background())
	if !errors.Is(err, client.ErrRemote) {
		t.Fatalf("Refetch() error = %v, want ErrRemote", err)
	}

	snap := s.Store().Snapshot()
	if len(snap.Items) != 1 || snap.Loading {
		t.Errorf("snapshot after failed fetch = %+v", snap)
	}
	if !errors.Is(snap.Err, client.ErrRemote) {
		t.Errorf("snapshot error = %v, want ErrRemote", snap.Err)
	}
}

func TestSynchronizer_CreateAppends(t *testing.T) {
	f := newFakeResource(item{ID: 1}, item{ID: 2})
	s := loaded(t, f)

	created, err := s.Create(context.Background(), createInput{Keyword: "acme"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	items := s.Items()
	if len(items) != 3 {
		t.Fatalf("len(Items()) = %d, want 3", len(items))
	}
	last := items[len(items)-1]
	if last.Name != "acme" || last.ID != created.ID {
		t.Errorf("last item = %+v, want the created one %+v", last, *created)
	}
}

func TestSynchronizer_CreateFailureLeavesStore(t *testing.T) {
	f := newFakeResource(item{ID: 1})
	s := loaded(t, f)
	before := s.Store().Snapshot().Version

	f.createErr = &client.APIError{StatusCode: 422, Detail: "keyword already monitored"}
	_, err := s.Create(context.Background(), createInput{Keyword: "dup"})
	if !errors.Is(err, client.ErrValidation) {
		t.Fatalf("Create() error = %v, want ErrValidation", err)
	}

	snap := s.Store().Snapshot()
	if len(snap.Items) != 1 {
		t.Errorf("items changed after failed create: %v", snap.Items)
	}
	if snap.Err == nil {
		t.Error("store error not recorded")
	}
	if snap.Version == before {
		t.Error("store version not bumped for the error")
	}
}

func TestSynchronizer_CreateValidation(t *testing.T) {
	f := newFakeResource()
	invalid := fmt.Errorf("%w: keyword is required", client.ErrValidation)
	s := loaded(t, f, WithValidator(validatorFunc(func(in interface{}) error {
		if in.(createInput).Keyword == "" {
			return invalid
		}
		return nil
	})))

	if _, err := s.Create(context.Background(), createInput{}); !errors.Is(err, client.ErrValidation) {
		t.Fatalf("Create() error = %v, want ErrValidation", err)
	}
	if f.nextID != 100 {
		t.Error("invalid input reached the backend")
	}
}

func TestSynchronizer_UpdateReplacesInPlace(t *testing.T) {
	f := newFakeResource(item{ID: 1}, item{ID: 2}, item{ID: 3})
	s := loaded(t, f)

	if _, err := s.Update(context.Background(), 2, updateInput{Name: "renamed"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	want := []item{{ID: 1}, {ID: 2, Name: "renamed"}, {ID: 3}}
	if !reflect.DeepEqual(s.Items(), want) {
		t.Errorf("Items() = %v, want %v", s.Items(), want)
	}
}

func TestSynchronizer_UpdateNotFound(t *testing.T) {
	f := newFakeResource(item{ID: 1})
	s := loaded(t, f)
	f.items = nil

	_, err := s.Update(context.Background(), 1, updateInput{Name: "x"})
	if !errors.Is(err, client.ErrNotFound) {
		t.Fatalf("Update() error = %v, want ErrNotFound", err)
	}
	if got, _ := s.Store().Get(1); got.Name != "" {
		t.Errorf("store changed after failed update: %+v", got)
	}
}

func TestSynchronizer_UpdateStaleLocal(t *testing.T) {
	f := newFakeResource(item{ID: 1})
	rec := &recorder{}
	s := New[item, createInput, updateInput]("items", f, WithRecorder(rec))

	// never loaded: the backend has id 1, the store does not
	if _, err := s.Update(context.Background(), 1, updateInput{Name: "x"}); err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if s.Store().Len() != 0 {
		t.Error("stale update inserted an entity")
	}
	if len(rec.stale) != 1 || rec.stale[0] != "items:update" {
		t.Errorf("stale records = %v", rec.stale)
	}
}

func TestSynchronizer_DeleteMissingIsNotAnError(t *testing.T) {
	f := newFakeResource(item{ID: 1}, item{ID: 2})
	rec := &recorder{}
	s := loaded(t, f, WithRecorder(rec))
	before := s.Items()

	if err := s.Delete(context.Background(), 99); err != nil {
		t.Fatalf("Delete(99) error = %v", err)
	}
	if !reflect.DeepEqual(s.Items(), before) {
		t.Errorf("Items() = %v, want %v", s.Items(), before)
	}
	if len(rec.stale) != 1 {
		t.Errorf("stale records = %v, want one", rec.stale)
	}
}

func TestSynchronizer_DeleteTwice(t *testing.T) {
	f := newFakeResource(item{ID: 1}, item{ID: 2})
	s := loaded(t, f)

	for i := 0; i < 2; i++ {
		if err := s.Delete(context.Background(), 1); err != nil {
			t.Fatalf("Delete() #%d error = %v", i+1, err)
		}
	}
	if got := ids(s.Items()); !reflect.DeepEqual(got, []int64{2}) {
		t.Errorf("ids = %v, want [2]", got)
	}
}

func TestSynchronizer_DeleteDeclined(t *testing.T) {
	f := newFakeResource(item{ID: 1})
	var prompt string
	s := loaded(t, f, WithConfirmer(ConfirmFunc(func(_ context.Context, p string) (bool, error) {
		prompt = p
		return false, nil
	})))

	err := s.Delete(context.Background(), 1)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("Delete() error = %v, want ErrCanceled", err)
	}
	if len(f.deletes) != 0 {
		t.Error("declined delete reached the backend")
	}
	if s.Store().Len() != 1 {
		t.Error("declined delete changed the store")
	}
	if prompt != "Delete items 1?" {
		t.Errorf("prompt = %q", prompt)
	}
}

func TestSynchronizer_DeleteRemoteFailure(t *testing.T) {
	f := newFakeResource(item{ID: 1})
	s := loaded(t, f)
	f.deleteErr = &client.APIError{StatusCode: 403, Message: "forbidden"}

	err := s.Delete(context.Background(), 1)
	if !errors.Is(err, client.ErrPermission) {
		t.Fatalf("Delete() error = %v, want ErrPermission", err)
	}
	if s.Store().Len() != 1 {
		t.Error("failed delete removed the entity")
	}
}

func TestSynchronizer_ApplyAndPatchAfter(t *testing.T) {
	f := newFakeResource(item{ID: 1, Status: "active"})
	s := loaded(t, f)
	ctx := context.Background()

	got, err := s.Apply(ctx, "suspend", 1, func(context.Context) (*item, error) {
		return &item{ID: 1, Status: "suspended"}, nil
	})
	if err != nil || got.Status != "suspended" {
		t.Fatalf("Apply() = %+v, %v", got, err)
	}
	if stored, _ := s.Store().Get(1); stored.Status != "suspended" {
		t.Errorf("stored status = %q, want suspended", stored.Status)
	}

	err = s.PatchAfter(ctx, "scrape", 1, func(context.Context) error { return nil }, func(it *item) {
		it.Status = "PENDING"
	})
	if err != nil {
		t.Fatalf("PatchAfter() error = %v", err)
	}
	if stored, _ := s.Store().Get(1); stored.Status != "PENDING" {
		t.Errorf("stored status = %q, want PENDING", stored.Status)
	}

	boom := errors.New("boom")
	if err := s.PatchAfter(ctx, "scrape", 1, func(context.Context) error { return boom }, func(it *item) {
		it.Status = "never"
	}); !errors.Is(err, boom) {
		t.Errorf("PatchAfter() error = %v, want boom", err)
	}
	if stored, _ := s.Store().Get(1); stored.Status != "PENDING" {
		t.Errorf("failed action patched the store: %q", stored.Status)
	}
}

func TestSynchronizer_ApplyEmptyResponse(t *testing.T) {
	s := loaded(t, newFakeResource(item{ID: 1}))
	_, err := s.Apply(context.Background(), "noop", 1, func(context.Context) (*item, error) { return nil, nil })
	if !errors.Is(err, client.ErrRemote) {
		t.Errorf("Apply() error = %v, want ErrRemote", err)
	}
}

func TestSynchronizer_ApplyBlankOrForeignEntity(t *testing.T) {
	tests := []struct {
		name   string
		result *item
	}{
		{name: "empty body", result: &item{}},
		{name: "other id", result: &item{ID: 2, Name: "Globex"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := loaded(t, newFakeResource(item{ID: 1, Name: "Acme"}, item{ID: 2, Name: "Globex"}))
			_, err := s.Apply(context.Background(), "update", 1, func(context.Context) (*item, error) {
				return tt.result, nil
			})
			if !errors.Is(err, client.ErrRemote) {
				t.Fatalf("Apply() error = %v, want ErrRemote", err)
			}
			if got := s.Store().Items(); !reflect.DeepEqual(got, []item{{ID: 1, Name: "Acme"}, {ID: 2, Name: "Globex"}}) {
				t.Errorf("store = %+v, want it unchanged", got)
			}
			if s.Store().Snapshot().Err == nil {
				t.Error("store error not recorded")
			}
		})
	}
}

func TestSynchronizer_AddBlankEntity(t *testing.T) {
	s := loaded(t, newFakeResource(item{ID: 1}))
	_, err := s.Add(context.Background(), "create", func(context.Context) (*item, error) { return &item{}, nil })
	if !errors.Is(err, client.ErrRemote) {
		t.Fatalf("Add() error = %v, want ErrRemote", err)
	}
	if s.Store().Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Store().Len())
	}
}

func TestSynchronizer_SameIDMutationsAreSerialized(t *testing.T) {
	f := newFakeResource(item{ID: 1})
	s := loaded(t, f)
	f.updateGate = make(chan struct{})
	f.updateCalled = make(chan struct{}, 2)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Update(context.Background(), 1, updateInput{Name: "first"})
	}()
	<-f.updateCalled

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, _ = s.Update(context.Background(), 1, updateInput{Name: "second"})
	}()

	select {
	case <-f.updateCalled:
		t.Fatal("second update started while the first was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(f.updateGate)
	wg.Wait()

	if f.maxUpdating.Load() != 1 {
		t.Errorf("max concurrent updates = %d, want 1", f.maxUpdating.Load())
	}
	if got, _ := s.Store().Get(1); got.Name != "second" {
		t.Errorf("Name = %q, want second", got.Name)
	}
	if s.locks.held() != 0 {
		t.Errorf("held locks = %d, want 0", s.locks.held())
	}
}

func TestSynchronizer_ConcurrentRefetchShareOneRequest(t *testing.T) {
	f := newFakeResource(item{ID: 1})
	f.fetchStarted = make(chan struct{}, 10)
	f.fetchGate = make(chan struct{})
	s := New[item, createInput, updateInput]("items", f)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = s.Refetch(context.Background())
	}()
	<-f.fetchStarted

	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = s.Refetch(context.Background())
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(f.fetchGate)
	wg.Wait()

	if n := f.fetches.Load(); n != 1 {
		t.Errorf("fetches = %d, want 1", n)
	}
	if s.Store().Len() != 1 {
		t.Errorf("Len() = %d, want 1", s.Store().Len())
	}
}

func TestSynchronizer_CloseDiscardsLateFetch(t *testing.T) {
	f := newFakeResource(item{ID: 1})
	f.fetchStarted = make(chan struct{}, 1)
	f.fetchGate = make(chan struct{})
	s := New[item, createInput, updateInput]("items", f)

	done := make(chan error, 1)
	go func() { done <- s.Refetch(context.Background()) }()
	<-f.fetchStarted

	s.Close()
	close(f.fetchGate)

	if err := <-done; !errors.Is(err, ErrClosed) {
		t.Errorf("Refetch() error = %v, want ErrClosed", err)
	}
	if s.Store().Len() != 0 {
		t.Error("closed synchronizer applied a late fetch")
	}
	if s.Store().Snapshot().Loading {
		t.Error("closed store still reports loading")
	}
	if _, err := s.Create(context.Background(), createInput{Keyword: "x"}); !errors.Is(err, ErrClosed) {
		t.Errorf("Create() after Close error = %v, want ErrClosed", err)
	}
}

func TestSynchronizer_ViewUsesSearchFields(t *testing.T) {
	f := newFakeResource(
		item{ID: 1, Name: "Acme Corp", Status: "active"},
		item{ID: 2, Name: "Globex", Status: "suspended"},
	)
	s := loaded(t, f, WithSearchFields("name"))

	got, err := s.View(Query{Search: "acme"})
	if err != nil {
		t.Fatalf("View() error = %v", err)
	}
	if !reflect.DeepEqual(ids(got), []int64{1}) {
		t.Errorf("View() ids = %v, want [1]", ids(got))
	}
	if s.Store().Len() != 2 {
		t.Error("View() modified the store")
	}
}
