package testutil

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

// Collection paths served by the fake backend, relative to /api/v1
var Collections = []string{
	"companies",
	"admin/users",
	"billing/invoices",
	"billing/payments",
	"billing/subscriptions",
	"sites",
	"scrapers",
	"telegram-accounts",
	"plans",
	"monitored-resources",
	"alerts",
}

// Request is one request received by the fake backend
type Request struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

// JSON decodes the request body into a map
func (r Request) JSON() map[string]interface{} {
	var m map[string]interface{}
	_ = json.Unmarshal(r.Body, &m)
	return m
}

type failure struct {
	status int
	body   string
}

type table struct {
	items  []map[string]interface{}
	nextID int64
}

// Backend is an in-memory platform API served over httptest. Entities are
// kept as JSON objects so every resource shares the same handlers.
type Backend struct {
	Server *httptest.Server
	Token  string

	mu         sync.Mutex
	tables     map[string]*table
	requests   []Request
	failures   map[string]failure
	taskScript []string
	tasks      map[string][]string
	nextTask   int
	users      map[string]string
	now        func() time.Time
}

// NewBackend starts a fake backend that accepts token as the bearer credential.
// The server is closed when the test ends.
func NewBackend(t *testing.T, token string) *Backend {
	t.Helper()

	b := &Backend{
		Token:      token,
		tables:     make(map[string]*table),
		failures:   make(map[string]failure),
		taskScript: []string{"PENDING", "SUCCESS"},
		tasks:      make(map[string][]string),
		users:      make(map[string]string),
		now:        func() time.Time { return time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC) },
	}
	for _, c := range Collections {
		b.tables[c] = &table{nextID: 1}
	}

	b.Server = httptest.NewServer(b.routes())
	t.Cleanup(b.Server.Close)
	return b
}

// URL returns the server base URL
func (b *Backend) URL() string {
	return b.Server.URL
}

func (b *Backend) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(b.record)
	r.Use(b.inject)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "version": "test"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/login", b.login)

		r.Group(func(r chi.Router) {
			r.Use(b.authenticate)

			r.Get("/auth/me", b.me)
			r.Post("/auth/logout", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })
			r.Get("/settings", b.settings)
			r.Patch("/settings", b.settings)
			r.Post("/settings/password", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) })

			r.Get("/companies/stats", b.stats("companies"))
			r.Get("/billing/stats", b.stats("billing/invoices"))
			r.Get("/sites/stats", b.stats("sites"))

			r.Post("/billing/invoices/{id}/mark-paid", b.setField("billing/invoices", "status", "paid"))
			r.Post("/billing/subscriptions/{id}/cancel", b.setField("billing/subscriptions", "status", "canceled"))
			r.Post("/sites/{id}/scrape", b.scrape)
			r.Get("/tasks/{taskID}", b.taskStatus)
			r.Post("/scrapers/upload", b.upload)

			for _, c := range Collections {
				name := c
				r.Get("/"+name, b.list(name))
				r.Post("/"+name, b.create(name))
				r.Get("/"+name+"/{id}", b.get(name))
				r.Patch("/"+name+"/{id}", b.patch(name))
				r.Put("/"+name+"/{id}", b.patch(name))
				r.Delete("/"+name+"/{id}", b.remove(name))
				r.Patch("/"+name+"/{id}/status", b.status(name))
			}
		})
	})
	return r
}

// Seed stores items (any JSON-encodable values) in collection name
func (b *Backend) Seed(name string, items ...interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()

	tbl := b.tables[name]
	for _, item := range items {
		m := toMap(item)
		if idOf(m) == 0 {
			m["id"] = tbl.nextID
		}
		if id := idOf(m); id >= tbl.nextID {
			tbl.nextID = id + 1
		}
		tbl.items = append(tbl.items, m)
	}
}

// Items returns the stored objects of collection name
func (b *Backend) Items(name string) []map[string]interface{} {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]map[string]interface{}, len(b.tables[name].items))
	copy(out, b.tables[name].items)
	return out
}

// AddUser registers login credentials
func (b *Backend) AddUser(email, password string) {
	b.mu.Lock()
	b.users[email] = password
	b.mu.Unlock()
}

// ScriptTasks sets the states reported, one per poll, by tasks created after
// this call. The last state repeats.
func (b *Backend) ScriptTasks(states ...string) {
	b.mu.Lock()
	b.taskScript = states
	b.mu.Unlock()
}

// Fail makes every request for method and path answer status with body until cleared
func (b *Backend) Fail(method, path string, status int, body string) {
	b.mu.Lock()
	b.failures[method+" "+path] = failure{status: status, body: body}
	b.mu.Unlock()
}

// ClearFailures removes all injected failures
func (b *Backend) ClearFailures() {
	b.mu.Lock()
	b.failures = make(map[string]failure)
	b.mu.Unlock()
}

// Requests returns every request received so far
func (b *Backend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Request, len(b.requests))
	copy(out, b.requests)
	return out
}

// Count returns how many requests matched method and path
func (b *Backend) Count(method, path string) int {
	n := 0
	for _, r := range b.Requests() {
		if r.Method == method && r.Path == path {
			n++
		}
	}
	return n
}

// LastRequest returns the most recent request for method and path
func (b *Backend) LastRequest(method, path string) (Request, bool) {
	reqs := b.Requests()
	for i := len(reqs) - 1; i >= 0; i-- {
		if reqs[i].Method == method && reqs[i].Path == path {
			return reqs[i], true
		}
	}
	return Request{}, false
}

func (b *Backend) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(bytes.NewReader(body))

		b.mu.Lock()
		b.requests = append(b.requests, Request{
			Method: r.Method,
			Path:   r.URL.Path,
			Header: r.Header.Clone(),
			Body:   body,
		})
		b.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (b *Backend) inject(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		f, ok := b.failures[r.Method+" "+r.URL.Path]
		b.mu.Unlock()
		if ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(f.status)
			_, _ = w.Write([]byte(f.body))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		token := b.Token
		b.mu.Unlock()
		if r.Header.Get("Authorization") != "Bearer "+token {
			writeDetail(w, http.StatusUnauthorized, "Could not validate credentials")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (b *Backend) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid body")
		return
	}

	b.mu.Lock()
	want, ok := b.users[req.Email]
	token := b.Token
	b.mu.Unlock()
	if !ok || want != req.Password {
		writeDetail(w, http.StatusUnauthorized, "Incorrect email or password")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"access_token": token,
		"token_type":   "bearer",
		"user":         map[string]interface{}{"id": 1, "email": req.Email, "role": "admin", "status": "active"},
	})
}

func (b *Backend) me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"id": 1, "email": "admin@example.com", "role": "admin", "status": "active"})
}

func (b *Backend) settings(w http.ResponseWriter, r *http.Request) {
	settings := map[string]interface{}{"email": "admin@example.com", "full_name": "Admin", "timezone": "UTC"}
	if r.Method == http.MethodPatch {
		for k, v := range decodeBody(r) {
			settings[k] = v
		}
	}
	writeJSON(w, http.StatusOK, settings)
}

func (b *Backend) list(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		defer b.mu.Unlock()
		items := make([]map[string]interface{}, 0, len(b.tables[name].items))
		items = append(items, b.tables[name].items...)
		writeJSON(w, http.StatusOK, items)
	}
}

func (b *Backend) create(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		m := decodeBody(r)
		if m == nil {
			writeDetail(w, http.StatusUnprocessableEntity, "body must be a JSON object")
			return
		}

		b.mu.Lock()
		defer b.mu.Unlock()
		tbl := b.tables[name]
		m["id"] = tbl.nextID
		tbl.nextID++
		if _, ok := m["status"]; !ok {
			m["status"] = "active"
		}
		stamp(m, b.now())
		tbl.items = append(tbl.items, m)
		writeJSON(w, http.StatusCreated, m)
	}
}

func (b *Backend) get(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.withItem(w, r, name, func(m map[string]interface{}) {
			writeJSON(w, http.StatusOK, m)
		})
	}
}

func (b *Backend) patch(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(r)
		b.withItem(w, r, name, func(m map[string]interface{}) {
			for k, v := range body {
				if k != "id" {
					m[k] = v
				}
			}
			m["updated_at"] = b.now().Format(time.RFC3339)
			writeJSON(w, http.StatusOK, m)
		})
	}
}

func (b *Backend) status(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body := decodeBody(r)
		b.withItem(w, r, name, func(m map[string]interface{}) {
			m["status"] = body["status"]
			writeJSON(w, http.StatusOK, m)
		})
	}
}

func (b *Backend) setField(name, field string, value interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.withItem(w, r, name, func(m map[string]interface{}) {
			m[field] = value
			writeJSON(w, http.StatusOK, m)
		})
	}
}

func (b *Backend) remove(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
			return
		}

		b.mu.Lock()
		tbl := b.tables[name]
		pos := indexOf(tbl.items, id)
		if pos >= 0 {
			tbl.items = append(tbl.items[:pos], tbl.items[pos+1:]...)
		}
		b.mu.Unlock()

		if pos < 0 {
			writeDetail(w, http.StatusNotFound, "Not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (b *Backend) stats(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		counts := map[string]int{}
		for _, m := range b.tables[name].items {
			if s, ok := m["status"].(string); ok {
				counts[s]++
			}
		}
		total := len(b.tables[name].items)
		b.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"total":            total,
			"total_sites":      total,
			"active":           counts["active"],
			"active_sites":     counts["active"],
			"suspended":        counts["suspended"],
			"pending":          counts["pending"],
			"overdue_invoices": counts["overdue"],
		})
	}
}

func (b *Backend) scrape(w http.ResponseWriter, r *http.Request) {
	b.withItem(w, r, "sites", func(m map[string]interface{}) {
		b.nextTask++
		taskID := fmt.Sprintf("task-%d", b.nextTask)
		script := make([]string, len(b.taskScript))
		copy(script, b.taskScript)
		b.tasks[taskID] = script
		writeJSON(w, http.StatusAccepted, map[string]string{"task_id": taskID})
	})
}

func (b *Backend) taskStatus(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskID")

	b.mu.Lock()
	script, ok := b.tasks[taskID]
	var state string
	if ok && len(script) > 0 {
		state = script[0]
		if len(script) > 1 {
			b.tasks[taskID] = script[1:]
		}
	}
	b.mu.Unlock()

	if !ok {
		writeDetail(w, http.StatusNotFound, "Task not found")
		return
	}
	resp := map[string]interface{}{"task_id": taskID, "status": state}
	if state == "FAILURE" {
		resp["error"] = "scraper crashed"
	}
	writeJSON(w, http.StatusOK, resp)
}

func (b *Backend) upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "expected multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "file is required")
		return
	}
	defer file.Close()

	b.mu.Lock()
	tbl := b.tables["scrapers"]
	m := map[string]interface{}{
		"id":       tbl.nextID,
		"name":     r.FormValue("name"),
		"filename": header.Filename,
	}
	tbl.nextID++
	stamp(m, b.now())
	m["uploaded_at"] = m["created_at"]
	tbl.items = append(tbl.items, m)
	b.mu.Unlock()

	writeJSON(w, http.StatusCreated, m)
}

// withItem runs fn on the stored object named by the {id} URL param, under the lock
func (b *Backend) withItem(w http.ResponseWriter, r *http.Request, name string, fn func(map[string]interface{})) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "invalid id")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	tbl := b.tables[name]
	pos := indexOf(tbl.items, id)
	if pos < 0 {
		writeDetail(w, http.StatusNotFound, "Not found")
		return
	}
	fn(tbl.items[pos])
}

func indexOf(items []map[string]interface{}, id int64) int {
	for i, m := range items {
		if idOf(m) == id {
			return i
		}
	}
	return -1
}

func idOf(m map[string]interface{}) int64 {
	switch v := m["id"].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	case json.Number:
		n, _ := v.Int64()
		return n
	default:
		return 0
	}
}

func toMap(item interface{}) map[string]interface{} {
	if m, ok := item.(map[string]interface{}); ok {
		return m
	}
	raw, _ := json.Marshal(item)
	var m map[string]interface{}
	_ = json.Unmarshal(raw, &m)
	return m
}

func decodeBody(r *http.Request) map[string]interface{} {
	var m map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		return nil
	}
	return m
}

func stamp(m map[string]interface{}, now time.Time) {
	ts := now.Format(time.RFC3339)
	if _, ok := m["created_at"]; !ok {
		m["created_at"] = ts
	}
	m["updated_at"] = ts
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

// SortedKeys returns the keys of m in order; handy for payload assertions
func SortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
