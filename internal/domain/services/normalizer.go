// Package services contains domain business logic.
package services

import (
	"regexp"
	"strings"
	"time"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

var (
	// reDisallowed matches characters outside the harmonized alphabet.
	reDisallowed = regexp.MustCompile(`[^A-Z0-9 ]+`)
	// reSpaces matches runs of whitespace.
	reSpaces = regexp.MustCompile(`\s+`)
)

// fieldMap names the native columns of one feed for each slot of the
// common schema. Optional slots may be empty when the feed has no such
// column.
type fieldMap struct {
	nativeID  string
	name      string
	issuer    string
	assetType string
	isin      string
	sedol     string
	ticker    string
	currency  string
}

var feedFields = map[entities.Source]fieldMap{
	entities.SourceFeedA: {
		nativeID:  "security_id",
		name:      "security_name",
		issuer:    "issuer_name",
		assetType: "asset_class",
		isin:      "isin",
		sedol:     "sedol",
		ticker:    "ticker",
		currency:  "currency",
	},
	entities.SourceFeedB: {
		nativeID:  "ric_code",
		name:      "instrument_name",
		issuer:    "issuer",
		assetType: "instrument_type",
		isin:      "isin",
		sedol:     "sedol",
		ticker:    "ticker",
		currency:  "currency",
	},
	entities.SourceFeedC: {
		nativeID:  "fca_ref_number",
		name:      "fund_name",
		issuer:    "manager_name",
		assetType: "fund_type",
		isin:      "isin",
		sedol:     "sedol",
		ticker:    "", // regulatory feed carries no ticker
		currency:  "currency",
	},
}

// CleanText canonicalizes a name or issuer string: uppercase, strip
// everything outside [A-Z0-9 ], collapse whitespace, trim. Idempotent
// on already-clean input.
func CleanText(s string) string {
	s = strings.ToUpper(s)
	s = reDisallowed.ReplaceAllString(s, " ")
	s = reSpaces.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// Normalizer maps raw feed rows onto the common harmonized schema.
type Normalizer struct{}

// NewNormalizer creates a new normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize converts a source record into its harmonized form. It is a
// pure function of the record apart from the creation timestamp: the
// same row always yields the same harmonized fields.
//
// Returns *entities.MalformedRecordError when a required field
// (native_id, name, issuer, asset_type) is empty after trimming.
// Downstream-only fields (isin, sedol, ticker, currency) never fail
// normalization.
func (n *Normalizer) Normalize(rec entities.SourceRecord) (entities.HarmonizedEntity, error) {
	fields, ok := feedFields[rec.Source]
	if !ok {
		return entities.HarmonizedEntity{}, &entities.MalformedRecordError{
			Source: rec.Source,
			Field:  "source",
			Line:   rec.Line,
		}
	}

	nativeID := strings.TrimSpace(rec.Field(fields.nativeID))
	name := CleanText(rec.Field(fields.name))
	issuer := CleanText(rec.Field(fields.issuer))
	assetType := strings.ToUpper(strings.TrimSpace(rec.Field(fields.assetType)))

	required := []struct {
		column string
		value  string
	}{
		{fields.nativeID, nativeID},
		{fields.name, name},
		{fields.issuer, issuer},
		{fields.assetType, assetType},
	}
	for _, req := range required {
		if req.value == "" {
			return entities.HarmonizedEntity{}, &entities.MalformedRecordError{
				Source: rec.Source,
				Field:  req.column,
				Line:   rec.Line,
			}
		}
	}

	entity := entities.HarmonizedEntity{
		HarmonizedID: entities.HarmonizedID(rec.Source, nativeID),
		Source:       rec.Source,
		NativeID:     nativeID,
		NameClean:    name,
		IssuerClean:  issuer,
		AssetType:    assetType,
		ISIN:         strings.TrimSpace(rec.Field(fields.isin)),
		SEDOL:        strings.TrimSpace(rec.Field(fields.sedol)),
		Currency:     strings.ToUpper(strings.TrimSpace(rec.Field(fields.currency))),
		CreatedAt:    time.Now(),
	}
	if fields.ticker != "" {
		entity.Ticker = strings.TrimSpace(rec.Field(fields.ticker))
	}

	return entity, nil
}
