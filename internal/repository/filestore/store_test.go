package filestore

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickref/internal/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	return s
}

func TestStore_LoadMissing(t *testing.T) {
	s := newTestStore(t)

	data, ok, err := s.Load(context.Background(), "extracts")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, data)
}

func TestStore_SaveReplaces(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, "extracts", []byte(`{"a":[]}`)))
	require.NoError(t, s.Save(ctx, "extracts", []byte(`{"b":[]}`)))

	data, ok, err := s.Load(ctx, "extracts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.JSONEq(t, `{"b":[]}`, string(data))

	entries, err := os.ReadDir(s.Dir())
	require.NoError(t, err)
	require.Len(t, entries, 1, "temp files must not be left behind")
	assert.Equal(t, "extracts.json", entries[0].Name())
}

func TestStore_LoadUnreadable(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.Mkdir(filepath.Join(s.Dir(), "extracts.json"), 0o755))

	_, _, err := s.Load(context.Background(), "extracts")
	assert.Error(t, err)
}

func TestKeyForFile(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"/data/extracts.json", "extracts"},
		{"checklists.json", "checklists"},
		{"/data/.extracts.json.123.tmp", ""},
		{"/data/.hidden.json", ""},
		{"/data/notes.txt", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, keyForFile(tt.name))
		})
	}
}

func TestBlobStore(t *testing.T) {
	ctx := context.Background()
	b, err := NewBlobStore(filepath.Join(t.TempDir(), "pdfs"))
	require.NoError(t, err)

	ok, err := b.Exists(ctx, "guide.pdf")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = b.Get(ctx, "guide.pdf")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, b.Put(ctx, "guide.pdf", []byte("v1")))
	require.NoError(t, b.Put(ctx, "guide.pdf", []byte("v2")))

	ok, err = b.Exists(ctx, "guide.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := b.Get(ctx, "guide.pdf")
	require.NoError(t, err)
	assert.Equal(t, "v2", string(data))

	for _, bad := range []string{"", "../escape.pdf", "a/b.pdf", ".hidden.pdf"} {
		assert.ErrorIs(t, b.Put(ctx, bad, []byte("x")), domain.ErrValidation, bad)
	}
}

func TestWatcher_ReportsChangedKeys(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan []string, 4)
	w, err := s.NewWatcher(func(keys []string) { got <- keys }, 200*time.Millisecond)
	require.NoError(t, err)
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "extracts.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "checklists.json"), []byte(`{}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "readme.txt"), []byte("x"), 0o644))

	select {
	case keys := <-got:
		assert.Equal(t, []string{"checklists", "extracts"}, keys)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not report changes")
	}
}

func TestWatcher_SkipsOwnWrites(t *testing.T) {
	tests := []struct {
		name  string
		write func(t *testing.T, s *Store)
		want  []string
	}{
		{
			name: "own save only",
			write: func(t *testing.T, s *Store) {
				require.NoError(t, s.Save(context.Background(), "extracts", []byte(`{"a":[]}`)))
			},
		},
		{
			name: "own save then foreign edit",
			write: func(t *testing.T, s *Store) {
				require.NoError(t, s.Save(context.Background(), "extracts", []byte(`{"a":[]}`)))
				require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "extracts.json"), []byte(`{"b":[]}`), 0o644))
			},
			want: []string{"extracts"},
		},
		{
			name: "foreign edit rewriting the same content",
			write: func(t *testing.T, s *Store) {
				require.NoError(t, s.Save(context.Background(), "checklists", []byte(`{}`)))
				require.NoError(t, os.WriteFile(filepath.Join(s.Dir(), "checklists.json"), []byte(`{}`), 0o644))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestStore(t)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			got := make(chan []string, 4)
			w, err := s.NewWatcher(func(keys []string) { got <- keys }, 100*time.Millisecond)
			require.NoError(t, err)
			require.NoError(t, w.Start(ctx))
			defer w.Stop()

			tt.write(t, s)

			select {
			case keys := <-got:
				assert.Equal(t, tt.want, keys)
			case <-time.After(600 * time.Millisecond):
				assert.Nil(t, tt.want, "watcher did not report changes")
			}
		})
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	w, err := s.NewWatcher(func([]string) {}, 0)
	require.NoError(t, err)
	require.NoError(t, w.Start(context.Background()))

	w.Stop()
	w.Stop()
}
