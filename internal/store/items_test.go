package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmoralesv/pulso/internal/models"
)

func TestDedupeBatchKeepsFirstOccurrence(t *testing.T) {
	batch := []models.AnalyzedItem{
		{ID: "a", Title: "first a"},
		{ID: "b", Title: "first b"},
		{ID: "a", Title: "second a"},
		{ID: "c", Title: "first c"},
		{ID: "b", Title: "second b"},
	}

	unique, dupes := dedupeBatch(batch)

	assert.Equal(t, 2, dupes)
	assert.Len(t, unique, 3)
	assert.Equal(t, "first a", unique[0].Title)
	assert.Equal(t, "first b", unique[1].Title)
	assert.Equal(t, "first c", unique[2].Title)
}

func TestDedupeBatchNoDuplicates(t *testing.T) {
	batch := []models.AnalyzedItem{{ID: "a"}, {ID: "b"}}

	unique, dupes := dedupeBatch(batch)

	assert.Equal(t, 0, dupes)
	assert.Equal(t, batch, unique)
}

func TestDedupeBatchEmpty(t *testing.T) {
	unique, dupes := dedupeBatch(nil)
	assert.Empty(t, unique)
	assert.Equal(t, 0, dupes)
}

func TestPersistenceErrorUnwraps(t *testing.T) {
	cause := errors.New("connection reset")
	err := &PersistenceError{Op: "insert item", Err: cause}

	assert.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "insert item")
	assert.Contains(t, err.Error(), "connection reset")
}
