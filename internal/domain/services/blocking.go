package services

import (
	"sort"

	"github.com/ersonp/secmatch/internal/domain/entities"
)

// BlockingIndex generates candidate pairs by partitioning entities on
// asset type and forming cross-source pairs within each partition.
// This bounds comparison cost to the sum of squared partition sizes
// instead of the full cross-product.
type BlockingIndex struct{}

// NewBlockingIndex creates a new blocking index.
func NewBlockingIndex() *BlockingIndex {
	return &BlockingIndex{}
}

// GenerateCandidates derives the candidate pairs for the given entity
// set. It relies on the normalizer's asset_type invariant (uppercase,
// trimmed) and does no re-cleaning of its own. Output is deterministic
// for a fixed input set: partitions are visited in sorted order and
// entities within a partition are sorted by source, then ID.
//
// Guarantees: no self pairs, no same-source pairs, each unordered pair
// appears at most once, Entity1 always from the lower-ordered feed.
func (b *BlockingIndex) GenerateCandidates(all []entities.HarmonizedEntity) []entities.CandidatePair {
	partitions := make(map[string][]entities.HarmonizedEntity)
	for _, e := range all {
		partitions[e.AssetType] = append(partitions[e.AssetType], e)
	}

	assetTypes := make([]string, 0, len(partitions))
	for at := range partitions {
		assetTypes = append(assetTypes, at)
	}
	sort.Strings(assetTypes)

	var pairs []entities.CandidatePair
	for _, at := range assetTypes {
		members := partitions[at]
		sort.Slice(members, func(i, j int) bool {
			if members[i].Source.Order() != members[j].Source.Order() {
				return members[i].Source.Order() < members[j].Source.Order()
			}
			return members[i].HarmonizedID < members[j].HarmonizedID
		})

		for i := 0; i < len(members); i++ {
			for j := i + 1; j < len(members); j++ {
				if members[i].Source == members[j].Source {
					continue
				}
				pairs = append(pairs, entities.NewCandidatePair(members[i], members[j]))
			}
		}
	}

	return pairs
}
