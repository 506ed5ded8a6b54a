package integration

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

func cacheEntity(source entities.Source, nativeID, name string) entities.HarmonizedEntity {
	return entities.HarmonizedEntity{
		HarmonizedID: entities.HarmonizedID(source, nativeID),
		Source:       source,
		NativeID:     nativeID,
		NameClean:    name,
		IssuerClean:  name,
		AssetType:    "EQUITY",
		CreatedAt:    time.Now(),
	}
}

func TestQdrantCache_PutGet(t *testing.T) {
	ctx := t.Context()
	entity := cacheEntity(entities.SourceFeedA, "SEC001", "HSBC HOLDINGS")
	vector := []float32{0.1, 0.2, 0.3, 0.4}

	require.NoError(t, testCache.Put(ctx, entity, vector))

	got, err := testCache.Get(ctx, entity.HarmonizedID)
	require.NoError(t, err)
	assert.InDeltaSlice(t, vector, got, 1e-6)
}

func TestQdrantCache_GetMissing(t *testing.T) {
	got, err := testCache.Get(t.Context(), "FEED_A_NEVER_STORED")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestQdrantCache_PutUpsertsInPlace(t *testing.T) {
	ctx := t.Context()
	entity := cacheEntity(entities.SourceFeedB, "HSBA.L", "HSBC HOLDINGS ORD")

	require.NoError(t, testCache.Put(ctx, entity, []float32{1, 0, 0, 0}))
	require.NoError(t, testCache.Put(ctx, entity, []float32{0, 1, 0, 0}))

	got, err := testCache.Get(ctx, entity.HarmonizedID)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float32{0, 1, 0, 0}, got, 1e-6)
}

func TestQdrantCache_Search(t *testing.T) {
	ctx := t.Context()

	close1 := cacheEntity(entities.SourceFeedA, "SEARCH1", "BARCLAYS PLC")
	close2 := cacheEntity(entities.SourceFeedB, "SEARCH2", "BARCLAYS ORD")
	far := cacheEntity(entities.SourceFeedC, "SEARCH3", "UNRELATED FUND")

	require.NoError(t, testCache.Put(ctx, close1, []float32{1, 0, 0, 0}))
	require.NoError(t, testCache.Put(ctx, close2, []float32{0.9, 0.1, 0, 0}))
	require.NoError(t, testCache.Put(ctx, far, []float32{0, 0, 0, 1}))

	hits, err := testCache.Search(ctx, []float32{1, 0, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, close1.HarmonizedID, hits[0].HarmonizedID)
	assert.Equal(t, close2.HarmonizedID, hits[1].HarmonizedID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
	assert.Equal(t, close1.Description(), hits[0].Description)
	assert.Equal(t, entities.SourceFeedA, hits[0].Source)
}
