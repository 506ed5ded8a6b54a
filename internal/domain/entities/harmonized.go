package entities

import (
	"fmt"
	"time"
)

// HarmonizedEntity is the canonical post-normalization form of a
// security record. Exactly one exists per source record; it is never
// mutated after creation (re-harmonization replaces the row).
type HarmonizedEntity struct {
	HarmonizedID string    `json:"harmonized_id"`
	Source       Source    `json:"source"`
	NativeID     string    `json:"native_id"`
	NameClean    string    `json:"name_clean"`
	IssuerClean  string    `json:"issuer_clean"`
	AssetType    string    `json:"asset_type"`
	ISIN         string    `json:"isin,omitempty"`
	SEDOL        string    `json:"sedol,omitempty"`
	Ticker       string    `json:"ticker,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// HarmonizedID derives the globally unique entity ID from a source and
// its native identifier.
func HarmonizedID(source Source, nativeID string) string {
	return fmt.Sprintf("%s_%s", source, nativeID)
}

// Description renders the semantic text descriptor used as scorer
// input.
func (e HarmonizedEntity) Description() string {
	return fmt.Sprintf("%s by %s (%s)", e.NameClean, e.IssuerClean, e.AssetType)
}
