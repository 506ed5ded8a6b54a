package handlers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ersonp/secmatch/internal/domain/entities"
	"github.com/ersonp/secmatch/internal/domain/mocks"
	"github.com/ersonp/secmatch/internal/domain/services"
)

func writeTestFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestIngestHandler_Handle_CSV(t *testing.T) {
	path := writeTestFile(t, "vendor_a.csv", `security_id,security_name,issuer_name,asset_class,isin,ticker,currency
SEC001,HSBC Holdings plc Ordinary Shares,"HSBC Holdings, plc.",Equity,GB0005405286,HSBA,GBP
SEC002,Barclays PLC Ordinary Shares,Barclays PLC,Equity,GB0031348658,BARC,GBP
`)

	store := mocks.NewStore()
	handler := NewIngestHandler(services.NewNormalizer(), store, zerolog.Nop())

	result, err := handler.Handle(t.Context(), path, entities.SourceFeedA)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Dropped)
	assert.Equal(t, entities.SourceFeedA, result.Source)

	stored, err := store.FindEntityByID(t.Context(), "FEED_A_SEC001")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "HSBC HOLDINGS PLC ORDINARY SHARES", stored.NameClean)
	assert.Equal(t, "HSBC HOLDINGS PLC", stored.IssuerClean)
	assert.Equal(t, "EQUITY", stored.AssetType)
	assert.Equal(t, "HSBA", stored.Ticker)

	runs, err := store.ListRuns(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, entities.RunKindIngest, runs[0].Kind)
	assert.Equal(t, 2, runs[0].Summary.Processed)
}

func TestIngestHandler_Handle_JSON(t *testing.T) {
	path := writeTestFile(t, "market_b.json", `[
		{"ric_code": "HSBA.L", "instrument_name": "HSBC HOLDINGS ORD", "issuer": "HSBC Holdings", "instrument_type": "Equity", "ticker": "HSBA"}
	]`)

	store := mocks.NewStore()
	handler := NewIngestHandler(services.NewNormalizer(), store, zerolog.Nop())

	result, err := handler.Handle(t.Context(), path, entities.SourceFeedB)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Processed)

	stored, err := store.FindEntityByID(t.Context(), "FEED_B_HSBA.L")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, entities.SourceFeedB, stored.Source)
}

func TestIngestHandler_Handle_MalformedSiblingsSurvive(t *testing.T) {
	// Row 3 has no issuer; rows 2 and 4 must still process.
	path := writeTestFile(t, "vendor_a.csv", `security_id,security_name,issuer_name,asset_class
SEC001,HSBC Holdings,HSBC,Equity
SEC002,Mystery Security,,Equity
SEC003,Barclays PLC,Barclays,Equity
`)

	store := mocks.NewStore()
	handler := NewIngestHandler(services.NewNormalizer(), store, zerolog.Nop())

	result, err := handler.Handle(t.Context(), path, entities.SourceFeedA)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Dropped)

	count, err := store.CountEntities(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	missing, err := store.FindEntityByID(t.Context(), "FEED_A_SEC002")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestIngestHandler_Handle_NothingSurvives(t *testing.T) {
	path := writeTestFile(t, "vendor_a.csv", `security_id,security_name,issuer_name,asset_class
SEC001,,,
`)

	store := mocks.NewStore()
	handler := NewIngestHandler(services.NewNormalizer(), store, zerolog.Nop())

	_, err := handler.Handle(t.Context(), path, entities.SourceFeedA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "survived")
}

func TestIngestHandler_Handle_Rerun_ReplacesEntities(t *testing.T) {
	store := mocks.NewStore()
	handler := NewIngestHandler(services.NewNormalizer(), store, zerolog.Nop())

	first := writeTestFile(t, "vendor_a.csv", `security_id,security_name,issuer_name,asset_class,ticker
SEC001,HSBC Holdings,HSBC,Equity,HSBA
`)
	_, err := handler.Handle(t.Context(), first, entities.SourceFeedA)
	require.NoError(t, err)

	// Same native ID, corrected name: re-ingest replaces the row.
	second := writeTestFile(t, "vendor_a2.csv", `security_id,security_name,issuer_name,asset_class,ticker
SEC001,HSBC Holdings plc,HSBC Holdings,Equity,HSBA
`)
	_, err = handler.Handle(t.Context(), second, entities.SourceFeedA)
	require.NoError(t, err)

	count, err := store.CountEntities(t.Context())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, err := store.FindEntityByID(t.Context(), "FEED_A_SEC001")
	require.NoError(t, err)
	assert.Equal(t, "HSBC HOLDINGS PLC", stored.NameClean)
}

func TestIngestHandler_Handle_UnknownSource(t *testing.T) {
	store := mocks.NewStore()
	handler := NewIngestHandler(services.NewNormalizer(), store, zerolog.Nop())

	_, err := handler.Handle(t.Context(), "feeds.csv", entities.Source("FEED_X"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown source")
}

func TestIngestHandler_Handle_UnsupportedFormat(t *testing.T) {
	path := writeTestFile(t, "feeds.txt", "not a feed")

	store := mocks.NewStore()
	handler := NewIngestHandler(services.NewNormalizer(), store, zerolog.Nop())

	_, err := handler.Handle(t.Context(), path, entities.SourceFeedA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file format")
}

func TestIngestHandler_Handle_FileNotFound(t *testing.T) {
	store := mocks.NewStore()
	handler := NewIngestHandler(services.NewNormalizer(), store, zerolog.Nop())

	_, err := handler.Handle(t.Context(), "/nonexistent/feed.csv", entities.SourceFeedA)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "opening file")
}
