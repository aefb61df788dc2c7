package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/darkwatch/internal/collection"
	"github.com/pratik-mahalle/darkwatch/internal/pkg/logger"
	"github.com/pratik-mahalle/darkwatch/internal/testutil"
	"github.com/pratik-mahalle/darkwatch/pkg/client"
)

const watchToken = "watch-token"

// syncBuffer lets concurrent ticks write without racing on the buffer
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func newTestWatcher(t *testing.T) (*alertWatcher, *testutil.Backend, *syncBuffer) {
	t.Helper()
	b := testutil.NewBackend(t, watchToken)
	c := client.NewClient(client.Config{
		BaseURL:     b.URL(),
		Credentials: client.NewStaticCredentials(watchToken),
		Timeout:     5 * time.Second,
	})
	log := logger.New(logger.Config{Level: "error", Format: "json"})
	alerts := collection.NewLoader[client.Alert]("alerts", c.Alerts(), collection.WithLogger(log))
	out := &syncBuffer{}
	return newAlertWatcher(alerts, log, out, "json"), b, out
}

// printedIDs decodes every JSON array written by the watcher
func printedIDs(t *testing.T, raw []byte) []int64 {
	t.Helper()
	var ids []int64
	dec := json.NewDecoder(bytes.NewReader(raw))
	for {
		var batch []client.Alert
		err := dec.Decode(&batch)
		if err == io.EOF {
			return ids
		}
		require.NoError(t, err)
		for _, a := range batch {
			ids = append(ids, a.ID)
		}
	}
}

func TestAlertWatcher_PrintsOnlyNewAlerts(t *testing.T) {
	w, b, out := newTestWatcher(t)
	ctx := context.Background()
	b.Seed("alerts", client.Alert{ID: 1, Title: "Credentials for acme.io", Severity: "high", Status: "open"})

	n, err := w.prime(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	w.tick(ctx)
	assert.Empty(t, out.Bytes())

	b.Seed("alerts",
		client.Alert{ID: 2, Title: "Combo list mentions acme", Severity: "critical", Status: "open"},
		client.Alert{ID: 3, Title: "Paste with acme emails", Severity: "medium", Status: "open"},
	)
	w.tick(ctx)
	w.tick(ctx)

	assert.Equal(t, []int64{2, 3}, printedIDs(t, out.Bytes()))
}

func TestAlertWatcher_RefreshFailureKeepsSeen(t *testing.T) {
	w, b, out := newTestWatcher(t)
	ctx := context.Background()
	b.Seed("alerts", client.Alert{ID: 1, Status: "open"})
	_, err := w.prime(ctx)
	require.NoError(t, err)

	b.Fail("GET", "/api/v1/alerts", 502, `{"detail":"bad gateway"}`)
	w.tick(ctx)
	b.ClearFailures()
	w.tick(ctx)

	assert.Empty(t, out.Bytes())
}

func TestAlertWatcher_ConcurrentTicksPrintEachAlertOnce(t *testing.T) {
	w, b, out := newTestWatcher(t)
	ctx := context.Background()
	_, err := w.prime(ctx)
	require.NoError(t, err)

	b.Seed("alerts",
		client.Alert{ID: 1, Status: "open"},
		client.Alert{ID: 2, Status: "open"},
		client.Alert{ID: 3, Status: "open"},
	)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.tick(ctx)
		}()
	}
	wg.Wait()

	assert.ElementsMatch(t, []int64{1, 2, 3}, printedIDs(t, out.Bytes()))
}

func TestNewWatchScheduler_Schedules(t *testing.T) {
	for _, spec := range []string{"@every 30s", "*/5 * * * *", "@hourly"} {
		_, err := newWatchScheduler(spec, func() {})
		assert.NoError(t, err, spec)
	}
	_, err := newWatchScheduler("every now and then", func() {})
	assert.Error(t, err)
}

func TestNewWatchScheduler_SkipsOverlappingRuns(t *testing.T) {
	var running, maxRunning, runs atomic.Int32
	scheduler, err := newWatchScheduler("@every 1s", func() {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			m := maxRunning.Load()
			if n <= m || maxRunning.CompareAndSwap(m, n) {
				break
			}
		}
		runs.Add(1)
		time.Sleep(1500 * time.Millisecond)
	})
	require.NoError(t, err)

	scheduler.Start()
	time.Sleep(3200 * time.Millisecond)
	<-scheduler.Stop().Done()

	assert.Equal(t, int32(1), maxRunning.Load())
	assert.GreaterOrEqual(t, runs.Load(), int32(1))
}
