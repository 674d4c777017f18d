package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"ganeo/internal/gtag"
)

var fixedNow = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func openTestJournal(t *testing.T, opts ...JournalOption) *Journal {
	t.Helper()
	path := filepath.Join(t.TempDir(), "journal", "ganeo.db")
	opts = append([]JournalOption{WithJournalClock(func() time.Time { return fixedNow })}, opts...)
	j, err := OpenJournal(path, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournalRecordsCallsInOrder(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	j.Gtag(gtag.CommandJS, fixedNow)
	j.Gtag(gtag.CommandConfig, "G-1", map[string]any{"cookie_update": false})
	j.Gtag(gtag.CommandGet, "G-1", gtag.ClientIDField, gtag.LookupFunc(func(string) {}))
	j.Gtag(gtag.CommandEvent, "page_view")

	entries, err := j.Entries(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	got := make([][]any, len(entries))
	for i, e := range entries {
		got[i] = append([]any{string(e.Command)}, e.Args...)
		assert.Equal(t, int64(i+1), e.Seq)
		assert.True(t, e.CreatedAt.Equal(fixedNow))
	}
	want := [][]any{
		{"js", "2020-01-01T00:00:00Z"},
		{"config", "G-1", map[string]any{"cookie_update": false}},
		{"get", "G-1", "client_id", "<func>"},
		{"event", "page_view"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("journal mismatch (-want +got):\n%s", diff)
	}

	n, err := j.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestJournalEntriesLimitKeepsMostRecent(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for _, name := range []string{"a", "b", "c", "d"} {
		require.NoError(t, j.Append(ctx, gtag.CommandEvent, name))
	}

	entries, err := j.Entries(ctx, 2)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, []any{"c"}, entries[0].Args)
	assert.Equal(t, []any{"d"}, entries[1].Args)
}

func TestJournalReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ganeo.db")
	j, err := OpenJournal(path)
	require.NoError(t, err)
	require.NoError(t, j.Append(context.Background(), gtag.CommandSet, map[string]any{"anonymize_ip": true}))
	require.NoError(t, j.Close())

	j, err = OpenJournal(path)
	require.NoError(t, err)
	defer j.Close()

	entries, err := j.Entries(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, gtag.CommandSet, entries[0].Command)
	assert.Equal(t, path, j.Path())
}

func TestJournalClosed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	j := openTestJournal(t, WithJournalLogger(zap.New(core)))
	require.NoError(t, j.Close())
	require.NoError(t, j.Close())

	assert.ErrorIs(t, j.Append(context.Background(), gtag.CommandEvent, "late"), ErrClosed)

	j.Gtag(gtag.CommandEvent, "late")
	assert.Equal(t, 1, logs.FilterMessage("journal append failed").Len())
}

func TestJournalRejectsUnencodableArgs(t *testing.T) {
	j := openTestJournal(t)
	err := j.Append(context.Background(), gtag.CommandEvent, make(chan int))
	assert.ErrorContains(t, err, "failed to encode args")
}
