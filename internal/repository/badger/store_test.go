package badger

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_InMemory(t *testing.T) {
	s, err := Open(Config{InMemory: true})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	_, ok, err := s.Load(ctx, "extracts")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Save(ctx, "extracts", []byte(`{"a":[]}`)))
	require.NoError(t, s.Save(ctx, "extracts", []byte(`{"b":[]}`)))

	data, ok, err := s.Load(ctx, "extracts")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"b":[]}`, string(data))

	_, ok, err = s.Load(ctx, "checklists")
	require.NoError(t, err)
	assert.False(t, ok, "keys are independent")
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "badger")
	ctx := context.Background()

	s, err := Open(Config{Path: path, SyncWrites: true})
	require.NoError(t, err)
	require.NoError(t, s.Save(ctx, "checklists", []byte(`{"Startup":["a"]}`)))
	require.NoError(t, s.Close())

	s, err = Open(Config{Path: path})
	require.NoError(t, err)
	defer s.Close()

	data, ok, err := s.Load(ctx, "checklists")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"Startup":["a"]}`, string(data))
}

func TestOpen_RequiresPath(t *testing.T) {
	_, err := Open(Config{})
	assert.Error(t, err)
}
