package collection

import (
	"reflect"
	"testing"
)

type account struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Email    string  `json:"email"`
	Status   string  `json:"status"`
	Severity string  `json:"severity,omitempty"`
	Score    float64 `json:"score"`
	Active   bool    `json:"active"`
}

func (a account) GetID() int64 { return a.ID }

func accountIDs(items []account) []int64 {
	out := make([]int64, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestFilter(t *testing.T) {
	items := []account{
		{ID: 1, Name: "Acme Corp", Email: "ops@acme.io", Status: "active", Severity: "critical", Score: 7.5, Active: true},
		{ID: 2, Name: "Globex", Email: "it@globex.com", Status: "suspended", Severity: "low", Score: 2, Active: false},
		{ID: 3, Name: "Initech", Email: "admin@ACME-partner.net", Status: "active", Severity: "high", Score: 9, Active: true},
	}

	tests := []struct {
		name    string
		query   Query
		want    []int64
		wantErr bool
	}{
		{
			name:  "no query returns everything in order",
			query: Query{},
			want:  []int64{1, 2, 3},
		},
		{
			name:  "status filter",
			query: Query{Filters: map[string]string{"status": "suspended"}},
			want:  []int64{2},
		},
		{
			name:  "all filter value is ignored",
			query: Query{Filters: map[string]string{"status": All}},
			want:  []int64{1, 2, 3},
		},
		{
			name:  "empty filter value is ignored",
			query: Query{Filters: map[string]string{"status": ""}},
			want:  []int64{1, 2, 3},
		},
		{
			name:  "bool and number filters",
			query: Query{Filters: map[string]string{"active": "true", "score": "9"}},
			want:  []int64{3},
		},
		{
			name:  "search is case-insensitive across fields",
			query: Query{Search: "acme", SearchFields: []string{"name", "email"}},
			want:  []int64{1, 3},
		},
		{
			name:  "search ignores fields outside the set",
			query: Query{Search: "acme", SearchFields: []string{"name"}},
			want:  []int64{1},
		},
		{
			name:  "search and filter combine",
			query: Query{Search: "acme", SearchFields: []string{"name", "email"}, Filters: map[string]string{"severity": "high"}},
			want:  []int64{3},
		},
		{
			name:  "search without fields matches nothing",
			query: Query{Search: "acme"},
			want:  []int64{},
		},
		{
			name:  "where expression",
			query: Query{Where: `severity in ["critical", "high"] && score > 8`},
			want:  []int64{3},
		},
		{
			name:  "where on unknown field is false",
			query: Query{Where: `owner == "bob"`},
			want:  []int64{},
		},
		{
			name:    "where must be boolean",
			query:   Query{Where: `1 + 2`},
			wantErr: true,
		},
		{
			name:    "where syntax error",
			query:   Query{Where: `score >`},
			wantErr: true,
		},
		{
			name:  "sort by number descending",
			query: Query{SortBy: "score", Desc: true},
			want:  []int64{3, 1, 2},
		},
		{
			name:  "sort by string ignores case",
			query: Query{SortBy: "email"},
			want:  []int64{3, 2, 1},
		},
		{
			name:  "limit",
			query: Query{SortBy: "score", Limit: 2},
			want:  []int64{2, 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Filter(items, tt.query)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Filter() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if ids := accountIDs(got); !reflect.DeepEqual(ids, tt.want) {
				t.Errorf("Filter() ids = %v, want %v", ids, tt.want)
			}
		})
	}
}

func TestFilter_StatusActive(t *testing.T) {
	items := []account{{ID: 1, Status: "active"}, {ID: 2, Status: "suspended"}}

	got, err := Filter(items, Query{Filters: map[string]string{"status": "active"}})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if !reflect.DeepEqual(got, []account{items[0]}) {
		t.Errorf("Filter() = %v, want [%v]", got, items[0])
	}
}

func TestFilter_DoesNotModifyInput(t *testing.T) {
	items := []account{{ID: 2, Score: 1}, {ID: 1, Score: 5}}
	orig := append([]account(nil), items...)

	if _, err := Filter(items, Query{SortBy: "score", Desc: true}); err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if !reflect.DeepEqual(items, orig) {
		t.Errorf("input modified: %v", items)
	}
}

func TestFilter_StableSort(t *testing.T) {
	items := []account{{ID: 1, Status: "b"}, {ID: 2, Status: "a"}, {ID: 3, Status: "b"}, {ID: 4, Status: "a"}}

	got, err := Filter(items, Query{SortBy: "status"})
	if err != nil {
		t.Fatalf("Filter() error = %v", err)
	}
	if ids := accountIDs(got); !reflect.DeepEqual(ids, []int64{2, 4, 1, 3}) {
		t.Errorf("ids = %v, want [2 4 1 3]", ids)
	}
}
