package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driven"
)

func TestCacheStore_MissReturnsNil(t *testing.T) {
	store := NewCacheStore()

	entry, err := store.Get(context.Background(), "no-such-fingerprint")
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCacheStore_SetGet(t *testing.T) {
	store := NewCacheStore()
	ctx := context.Background()

	err := store.Set(ctx, "fp-1", driven.CachedExtraction{
		Text:         "invoice text",
		Method:       domain.MethodOCR,
		Confidence:   0.85,
		QualityScore: 90,
	})
	require.NoError(t, err)

	entry, err := store.Get(ctx, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "invoice text", entry.Text)
	assert.Equal(t, domain.MethodOCR, entry.Method)
	assert.Equal(t, 90, entry.QualityScore)
}

func TestCacheStore_Overwrite(t *testing.T) {
	store := NewCacheStore()
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, "fp-1", driven.CachedExtraction{Text: "old"}))
	require.NoError(t, store.Set(ctx, "fp-1", driven.CachedExtraction{Text: "new"}))

	entry, err := store.Get(ctx, "fp-1")
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "new", entry.Text)
	assert.Equal(t, 1, store.Len())
}
