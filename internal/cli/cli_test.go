package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pratik-mahalle/darkwatch/internal/pkg/validator"
)

func TestListFlagsQuery(t *testing.T) {
	f := listFlags{
		search:  "acme",
		filters: []string{"status=active", " severity = critical "},
		sort:    "name",
		desc:    true,
	}

	q, err := f.query()
	require.NoError(t, err)
	assert.Equal(t, "acme", q.Search)
	assert.Equal(t, map[string]string{"status": "active", "severity": "critical"}, q.Filters)
	assert.Equal(t, "name", q.SortBy)
	assert.True(t, q.Desc)

	f.filters = []string{"status"}
	_, err = f.query()
	assert.Error(t, err)

	f.filters = []string{"=active"}
	_, err = f.query()
	assert.Error(t, err)
}

func TestParseID(t *testing.T) {
	id, err := parseID("42", "company")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, arg := range []string{"0", "-1", "abc", ""} {
		_, err := parseID(arg, "company")
		assert.Error(t, err, arg)
	}
}

func TestChanged(t *testing.T) {
	var name string
	var active bool
	cmd := &cobra.Command{Use: "x"}
	cmd.Flags().StringVar(&name, "name", "", "")
	cmd.Flags().BoolVar(&active, "active", false, "")
	require.NoError(t, cmd.Flags().Parse([]string{"--active=false"}))

	assert.Nil(t, changed(cmd, "name", name))
	got := changed(cmd, "active", active)
	require.NotNil(t, got)
	assert.False(t, *got)
}

func TestConfirmer(t *testing.T) {
	tests := []struct {
		input string
		yes   bool
		want  bool
	}{
		{"y\n", false, true},
		{"YES\n", false, true},
		{"n\n", false, false},
		{"\n", false, false},
		{"", false, false},
		{"", true, true},
	}

	for _, tt := range tests {
		var out bytes.Buffer
		c := newConfirmer(strings.NewReader(tt.input), &out, tt.yes)
		got, err := c.Confirm(context.Background(), "Delete company 1?")
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
		if !tt.yes {
			assert.Equal(t, "Delete company 1? [y/N]: ", out.String())
		}
	}
}

func TestConfirmerCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := newConfirmer(strings.NewReader("y\n"), &bytes.Buffer{}, false)
	ok, err := c.Confirm(ctx, "Delete?")
	assert.False(t, ok)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Len(t, truncate(strings.Repeat("a", 40), 10), 10)
}

func TestCheckConfigValue(t *testing.T) {
	v := validator.New()

	assert.NoError(t, checkConfigValue(v, "server_url", "https://api.darkwatch.io"))
	assert.NoError(t, checkConfigValue(v, "output", "yaml"))
	assert.NoError(t, checkConfigValue(v, "credential_store", "keyring"))
	assert.NoError(t, checkConfigValue(v, "anything_else", "free text"))

	assert.Error(t, checkConfigValue(v, "server_url", "not a url"))
	assert.Error(t, checkConfigValue(v, "output", "xml"))
	assert.Error(t, checkConfigValue(v, "credential_store", "vault"))
	assert.Error(t, checkConfigValue(v, "log_level", "loud"))
}
