package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSaveAndLoad(t *testing.T) {
	db := openTestDB(t)

	type payload struct {
		Title string `json:"title"`
		Count int    `json:"count"`
	}

	require.NoError(t, db.Save("decks", payload{Title: "Englisch", Count: 3}))

	var got payload
	found, err := db.Load("decks", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "Englisch", got.Title)
	assert.Equal(t, 3, got.Count)
}

func TestLoad_MissingKey(t *testing.T) {
	db := openTestDB(t)

	var got map[string]string
	found, err := db.Load("nope", &got)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, got)
}

func TestSave_Overwrites(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Save("k", "first"))
	require.NoError(t, db.Save("k", "second"))

	var got string
	found, err := db.Load("k", &got)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "second", got)
}

func TestDelete(t *testing.T) {
	db := openTestDB(t)

	require.NoError(t, db.Save("k", 1))
	require.NoError(t, db.Delete("k"))
	require.NoError(t, db.Delete("k")) // idempotent

	var got int
	found, err := db.Load("k", &got)
	require.NoError(t, err)
	assert.False(t, found)
}
