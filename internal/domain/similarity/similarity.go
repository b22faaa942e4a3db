// Package similarity scores how related two catalog items are by their tags.
package similarity

import "github.com/okian/reco/internal/domain/model"

// Jaccard returns |A∩B| / |A∪B| over the combined effect and ingredient tags
// of a and b. Two items without any tags score 0.
func Jaccard(a, b model.Item) float64 {
	tagsA := a.Tags()
	tagsB := b.Tags()

	// Iterate the smaller set; the result is symmetric either way.
	if len(tagsA) > len(tagsB) {
		tagsA, tagsB = tagsB, tagsA
	}

	shared := 0
	for tag := range tagsA {
		if _, ok := tagsB[tag]; ok {
			shared++
		}
	}

	union := len(tagsA) + len(tagsB) - shared
	if union == 0 {
		return 0
	}
	return float64(shared) / float64(union)
}
