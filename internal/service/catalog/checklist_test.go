package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quickref/internal/domain"
)

const sampleChecklists = `{
  "AIR": {
    "Before start": ["Brakes set", "Doors closed"],
    "After landing": ["Flaps up"]
  },
  "GND": ["Chocks in"],
  "Broken": 42
}`

func newTestBook(t *testing.T) (*ChecklistBook, *memStore, *countingPublisher) {
	t.Helper()
	store := newMemStore()
	store.set(ChecklistKey, sampleChecklists)
	pub := &countingPublisher{}
	return NewChecklistBook(store, pub, discardLogger()), store, pub
}

func TestChecklistBook_Lookup(t *testing.T) {
	ctx := context.Background()
	book, _, _ := newTestBook(t)

	top, err := book.TopLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"AIR", "Broken", "GND"}, top)

	group, err := book.Lookup(ctx, []string{"AIR"})
	require.NoError(t, err)
	assert.False(t, group.IsList)
	assert.Equal(t, []string{"After landing", "Before start"}, group.Subcategories)

	list, err := book.Lookup(ctx, []string{"AIR", "Before start"})
	require.NoError(t, err)
	assert.True(t, list.IsList)
	assert.Equal(t, []string{"Brakes set", "Doors closed"}, list.Items)

	_, err = book.Lookup(ctx, []string{"AIR", "Cruise"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = book.Lookup(ctx, []string{"GND", "deeper"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = book.Lookup(ctx, []string{"Broken"})
	assert.ErrorIs(t, err, ErrInvalidChecklist)
}

func TestChecklistBook_Save(t *testing.T) {
	ctx := context.Background()
	book, store, pub := newTestBook(t)

	entry, err := book.Save(ctx, []string{"AIR", "Cruise"}, "  Altimeter set \r\n\n Lights off\n   ")
	require.NoError(t, err)
	assert.Equal(t, []string{"Altimeter set", "Lights off"}, entry.Items)
	assert.Equal(t, 1, pub.count())

	got, err := book.Lookup(ctx, []string{"AIR", "Cruise"})
	require.NoError(t, err)
	assert.Equal(t, entry.Items, got.Items)

	var persisted map[string]any
	require.NoError(t, json.Unmarshal([]byte(store.get(ChecklistKey)), &persisted))
	assert.Equal(t, []any{"Altimeter set", "Lights off"}, persisted["AIR"].(map[string]any)["Cruise"])

	// replacing an existing list
	_, err = book.Save(ctx, []string{"GND"}, "Chocks out")
	require.NoError(t, err)
	got, err = book.Lookup(ctx, []string{"GND"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chocks out"}, got.Items)
}

func TestChecklistBook_SaveRejects(t *testing.T) {
	ctx := context.Background()
	book, store, pub := newTestBook(t)

	tests := []struct {
		name string
		path []string
	}{
		{"empty path", nil},
		{"missing ancestor", []string{"SEA", "Taxi"}},
		{"ancestor is a list", []string{"GND", "Taxi"}},
		{"overwrite a group", []string{"AIR"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := book.Save(ctx, tt.path, "item")
			assert.ErrorIs(t, err, domain.ErrInvalidPath)
		})
	}
	assert.Equal(t, 0, store.saves)
	assert.Equal(t, 0, pub.count())
}

func TestChecklistBook_FailedSaveKeepsMemory(t *testing.T) {
	ctx := context.Background()
	book, store, _ := newTestBook(t)
	store.setFailSave(errors.New("disk full"))

	_, err := book.Save(ctx, []string{"GND"}, "changed")
	assert.ErrorContains(t, err, "disk full")

	got, err := book.Lookup(ctx, []string{"GND"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Chocks in"}, got.Items)
}

func TestStoreChangeHandler(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	tree := NewTree(store, discardLogger())
	book := NewChecklistBook(store, nil, discardLogger())
	pub := &countingPublisher{}
	handle := NewStoreChangeHandler(tree, book, pub, discardLogger())

	_, err := tree.FilesAt(ctx, nil)
	require.NoError(t, err)
	_, err = book.TopLevel(ctx)
	require.NoError(t, err)

	store.set(TreeKey, `{"edited": ["a.pdf"]}`)
	store.set(ChecklistKey, `{"NEW": []}`)

	handle([]string{"unrelated"})
	assert.Equal(t, 0, pub.count())

	handle([]string{ChecklistKey, TreeKey})
	assert.Equal(t, 1, pub.count())

	files, err := tree.FilesAt(ctx, []string{"edited"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.pdf"}, files)

	top, err := book.TopLevel(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"NEW"}, top)
}
