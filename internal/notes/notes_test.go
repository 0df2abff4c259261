package notes

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matsen/litbot/internal/storage"
)

func fixedClock() time.Time {
	return time.Date(2025, 3, 7, 14, 5, 9, 0, time.UTC)
}

func newStore(t *testing.T) (*Store, storage.KV) {
	t.Helper()
	kv, err := storage.NewMemoryBackend().Bucket(storage.BucketNotes)
	require.NoError(t, err)
	return New(kv, WithClock(fixedClock)), kv
}

func TestAddNote(t *testing.T) {
	ctx := context.Background()
	s, kv := newStore(t)

	require.NoError(t, s.AddNote(ctx, "c1", "P_2020", "check methodology"))
	require.NoError(t, s.AddNote(ctx, "c1", "P_2020", "  second  "))

	got, err := s.Notes(ctx, "c1", "P_2020")
	require.NoError(t, err)
	require.Len(t, got["P_2020"], 2)
	assert.Equal(t, Note{Timestamp: "2025-03-07 14:05:09", Text: "check methodology"}, got["P_2020"][0])
	assert.Equal(t, "second", got["P_2020"][1].Text)

	// Survives a reload.
	reloaded := New(kv)
	got, err = reloaded.Notes(ctx, "c1", "")
	require.NoError(t, err)
	assert.Len(t, got["P_2020"], 2)
}

func TestAddNote_RejectsEmpty(t *testing.T) {
	s, _ := newStore(t)
	assert.ErrorIs(t, s.AddNote(context.Background(), "c1", "P_2020", "   "), ErrEmptyNote)
}

func TestNotes_SinglePaperAlwaysPresent(t *testing.T) {
	s, _ := newStore(t)
	got, err := s.Notes(context.Background(), "c1", "P_2020")
	require.NoError(t, err)
	assert.Contains(t, got, "P_2020")
	assert.Empty(t, got["P_2020"])
}

func TestDeleteNote(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)
	for _, text := range []string{"a", "b", "c"} {
		require.NoError(t, s.AddNote(ctx, "c1", "K", text))
	}

	require.NoError(t, s.DeleteNote(ctx, "c1", "K", 1))
	got, _ := s.Notes(ctx, "c1", "K")
	require.Len(t, got["K"], 2)
	assert.Equal(t, "a", got["K"][0].Text)
	assert.Equal(t, "c", got["K"][1].Text)

	assert.ErrorIs(t, s.DeleteNote(ctx, "c1", "K", 5), ErrNoteNotFound)
	assert.ErrorIs(t, s.DeleteNote(ctx, "c1", "K", -1), ErrNoteNotFound)
	assert.ErrorIs(t, s.DeleteNote(ctx, "c1", "other", 0), ErrNoteNotFound)
	assert.ErrorIs(t, s.DeleteNote(ctx, "nobody", "K", 0), ErrNoteNotFound)
}

func TestClearNotes(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	assert.ErrorIs(t, s.ClearNotes(ctx, "c1", ""), ErrNoNotes, "unknown conversation")

	require.NoError(t, s.AddNote(ctx, "c1", "K1", "a"))
	require.NoError(t, s.AddNote(ctx, "c1", "K2", "b"))

	assert.ErrorIs(t, s.ClearNotes(ctx, "c1", "K9"), ErrNoNotes)
	require.NoError(t, s.ClearNotes(ctx, "c1", "K1"))
	got, _ := s.Notes(ctx, "c1", "")
	assert.Empty(t, got["K1"])
	assert.Len(t, got["K2"], 1)

	require.NoError(t, s.ClearNotes(ctx, "c1", ""))
	got, _ = s.Notes(ctx, "c1", "")
	assert.Empty(t, got)
}

func TestFormatNotes(t *testing.T) {
	ctx := context.Background()
	s, _ := newStore(t)

	out, err := s.FormatNotes(ctx, "c1", "", nil)
	require.NoError(t, err)
	assert.Equal(t, EmptyMessage, out)

	require.NoError(t, s.AddNote(ctx, "c1", "A_2020", "first"))
	require.NoError(t, s.AddNote(ctx, "c1", "B_2021", "other"))

	titles := map[string]string{"A_2020": "A (2020)"}
	out, err = s.FormatNotes(ctx, "c1", "", titles)
	require.NoError(t, err)
	want := "Research Notes:\n\n" +
		"Paper: A (2020)\n  Note 1 [2025-03-07 14:05:09]:\n  first\n\n" +
		"Paper: Unknown Paper\n  Note 1 [2025-03-07 14:05:09]:\n  other\n\n"
	assert.Equal(t, want, out)

	out, err = s.FormatNotes(ctx, "c1", "C_2022", map[string]string{"C_2022": "C (2022)"})
	require.NoError(t, err)
	assert.Equal(t, "Research Notes:\n\nPaper: C (2022)\n  No notes for this paper.\n\n", out)
}
