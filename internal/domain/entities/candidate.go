package entities

// CandidatePair is an ordered cross-source pair of harmonized entities
// sharing an asset type. Entity1 always comes from the lower-ordered
// feed; the pair key is therefore stable regardless of input order.
type CandidatePair struct {
	Entity1 HarmonizedEntity
	Entity2 HarmonizedEntity
}

// NewCandidatePair builds a pair with the canonical source ordering
// applied.
func NewCandidatePair(a, b HarmonizedEntity) CandidatePair {
	if b.Source.Order() < a.Source.Order() {
		a, b = b, a
	}
	return CandidatePair{Entity1: a, Entity2: b}
}

// Key returns the unordered-pair identity used for deduplication.
func (p CandidatePair) Key() string {
	return p.Entity1.HarmonizedID + "|" + p.Entity2.HarmonizedID
}
