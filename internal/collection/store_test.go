package collection

import (
	"errors"
	"reflect"
	"sync"
	"testing"
)

type item struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status"`
}

func (i item) GetID() int64 { return i.ID }

func ids(items []item) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestStore_SetAll(t *testing.T) {
	tests := []struct {
		name     string
		input    []item
		wantIDs  []int64
		wantDups int
	}{
		{
			name:    "empty",
			input:   nil,
			wantIDs: []int64{},
		},
		{
			name:    "keeps order",
			input:   []item{{ID: 3}, {ID: 1}, {ID: 2}},
			wantIDs: []int64{3, 1, 2},
		},
		{
			name:     "collapses duplicate ids",
			input:    []item{{ID: 1, Name: "a"}, {ID: 2}, {ID: 1, Name: "b"}},
			wantIDs:  []int64{1, 2},
			wantDups: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore[item]()
			dups := s.SetAll(tt.input)
			if dups != tt.wantDups {
				t.Errorf("SetAll() dups = %d, want %d", dups, tt.wantDups)
			}
			if got := ids(s.Items()); !reflect.DeepEqual(got, tt.wantIDs) {
				t.Errorf("SetAll() ids = %v, want %v", got, tt.wantIDs)
			}
		})
	}
}

func TestStore_SetAllDuplicateKeepsLastValue(t *testing.T) {
	s := NewStore[item]()
	s.SetAll([]item{{ID: 1, Name: "a"}, {ID: 1, Name: "b"}})

	got, ok := s.Get(1)
	if !ok || got.Name != "b" {
		t.Errorf("Get(1) = %+v, want name b", got)
	}
}

func TestStore_SetAllRoundTrip(t *testing.T) {
	fetched := []item{{ID: 7, Name: "x"}, {ID: 2, Name: "y"}, {ID: 9, Name: "z"}}
	s := NewStore[item]()
	s.SetAll(fetched)

	if !reflect.DeepEqual(s.Items(), fetched) {
		t.Errorf("Items() = %v, want %v", s.Items(), fetched)
	}
}

func TestStore_SetAllClearsStatus(t *testing.T) {
	s := NewStore[item]()
	s.BeginLoad()
	s.Fail(errors.New("boom"))
	s.SetAll([]item{{ID: 1}})

	snap := s.Snapshot()
	if snap.Loading || snap.Err != nil {
		t.Errorf("Snapshot() loading=%v err=%v, want false/nil", snap.Loading, snap.Err)
	}
}

func TestStore_InsertUniqueness(t *testing.T) {
	s := NewStore[item]()
	s.SetAll([]item{{ID: 1}, {ID: 2}})

	if err := s.Insert(item{ID: 3}); err != nil {
		t.Fatalf("Insert() error = %v", err)
	}

	err := s.Insert(item{ID: 2, Name: "again"})
	if !errors.Is(err, ErrStaleState) {
		t.Errorf("Insert() duplicate error = %v, want ErrStaleState", err)
	}

	if got := ids(s.Items()); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Errorf("ids = %v, want [1 2 3]", got)
	}
	if got, _ := s.Get(2); got.Name != "again" {
		t.Errorf("Get(2).Name = %q, want again", got.Name)
	}
}

func TestStore_ReplacePreservesOrder(t *testing.T) {
	s := NewStore[item]()
	s.SetAll([]item{{ID: 1}, {ID: 2}, {ID: 3}})

	if err := s.Replace(2, item{ID: 2, Name: "updated"}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	want := []item{{ID: 1}, {ID: 2, Name: "updated"}, {ID: 3}}
	if !reflect.DeepEqual(s.Items(), want) {
		t.Errorf("Items() = %v, want %v", s.Items(), want)
	}
}

func TestStore_ReplaceMissingIsStale(t *testing.T) {
	s := NewStore[item]()
	s.SetAll([]item{{ID: 1}})
	before := s.Snapshot().Version

	err := s.Replace(42, item{ID: 42})
	if !errors.Is(err, ErrStaleState) {
		t.Errorf("Replace() error = %v, want ErrStaleState", err)
	}
	if s.Len() != 1 || s.Snapshot().Version != before {
		t.Error("Replace() of a missing id changed the store")
	}
}

func TestStore_ReplaceRekeyed(t *testing.T) {
	s := NewStore[item]()
	s.SetAll([]item{{ID: 1}, {ID: 2}, {ID: 3}})

	if err := s.Replace(1, item{ID: 3, Name: "merged"}); err != nil {
		t.Fatalf("Replace() error = %v", err)
	}

	if got := ids(s.Items()); !reflect.DeepEqual(got, []int64{3, 2}) {
		t.Errorf("ids = %v, want [3 2]", got)
	}
	if _, ok := s.Get(1); ok {
		t.Error("Get(1) still present after re-key")
	}
}

func TestStore_RemoveIdempotent(t *testing.T) {
	s := NewStore[item]()
	s.SetAll([]item{{ID: 1}, {ID: 2}, {ID: 3}})

	if err := s.Remove(2); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	once := s.Items()

	if err := s.Remove(2); !errors.Is(err, ErrStaleState) {
		t.Errorf("second Remove() error = %v, want ErrStaleState", err)
	}
	if !reflect.DeepEqual(s.Items(), once) {
		t.Errorf("Items() after second remove = %v, want %v", s.Items(), once)
	}

	// index stays consistent after the shift
	if got, ok := s.Get(3); !ok || got.ID != 3 {
		t.Errorf("Get(3) = %v, %v", got, ok)
	}
}

func TestStore_Patch(t *testing.T) {
	s := NewStore[item]()
	s.SetAll([]item{{ID: 1, Status: "idle"}})

	if err := s.Patch(1, func(it *item) { it.Status = "running" }); err != nil {
		t.Fatalf("Patch() error = %v", err)
	}
	if got, _ := s.Get(1); got.Status != "running" {
		t.Errorf("Status = %q, want running", got.Status)
	}

	if err := s.Patch(1, func(it *item) { it.ID = 5 }); err == nil {
		t.Error("Patch() changing the id should fail")
	}
	if got, ok := s.Get(1); !ok || got.Status != "running" {
		t.Errorf("Patch() that failed left %v, %v", got, ok)
	}

	if err := s.Patch(9, func(*item) {}); !errors.Is(err, ErrStaleState) {
		t.Errorf("Patch() missing error = %v, want ErrStaleState", err)
	}
}

func TestStore_LoadingAndErrors(t *testing.T) {
	s := NewStore[item]()
	s.SetAll([]item{{ID: 1}})

	s.BeginLoad()
	if !s.Snapshot().Loading {
		t.Error("BeginLoad() did not set loading")
	}

	boom := errors.New("boom")
	s.Fail(boom)
	snap := s.Snapshot()
	if snap.Loading || !errors.Is(snap.Err, boom) {
		t.Errorf("after Fail: loading=%v err=%v", snap.Loading, snap.Err)
	}
	if len(snap.Items) != 1 {
		t.Errorf("Fail() dropped items: %v", snap.Items)
	}

	s.ClearError()
	if s.Snapshot().Err != nil {
		t.Error("ClearError() left an error")
	}
}

func TestStore_Subscribe(t *testing.T) {
	s := NewStore[item]()

	var mu sync.Mutex
	var seen []int
	unsubscribe := s.Subscribe(func(snap Snapshot[item]) {
		mu.Lock()
		seen = append(seen, len(snap.Items))
		mu.Unlock()
	})

	s.SetAll([]item{{ID: 1}})
	_ = s.Insert(item{ID: 2})
	_ = s.Remove(1)
	unsubscribe()
	_ = s.Insert(item{ID: 3})

	mu.Lock()
	defer mu.Unlock()
	if !reflect.DeepEqual(seen, []int{1, 2, 1}) {
		t.Errorf("notifications = %v, want [1 2 1]", seen)
	}
}

func TestStore_ItemsIsACopy(t *testing.T) {
	s := NewStore[item]()
	s.SetAll([]item{{ID: 1, Name: "a"}})

	items := s.Items()
	items[0].Name = "changed"

	if got, _ := s.Get(1); got.Name != "a" {
		t.Errorf("store modified through Items(): %q", got.Name)
	}
}

func TestStore_ConcurrentInsertsStayUnique(t *testing.T) {
	s := NewStore[item]()

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := int64(1); id <= 50; id++ {
				_ = s.Insert(item{ID: id})
			}
		}()
	}
	wg.Wait()

	if s.Len() != 50 {
		t.Errorf("Len() = %d, want 50", s.Len())
	}
	seen := map[int64]bool{}
	for _, it := range s.Items() {
		if seen[it.ID] {
			t.Fatalf("duplicate id %d", it.ID)
		}
		seen[it.ID] = true
	}
}
