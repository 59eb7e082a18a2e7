package imagehash

// Item is one image entering duplicate detection. Size is the payload byte
// size, used to pick the best representative of a noise group. An empty
// Fingerprint marks an image whose hash could not be computed; such images
// never join a group and are always kept.
type Item struct {
	Fingerprint Fingerprint
	Size        int
}

// Group is a cluster of indices whose fingerprints sit within the similarity
// threshold of the group's seed (the first member). Best is the index of the
// largest member by payload size.
type Group struct {
	Members []int
	Best    int
}

// GrouperConfig tunes duplicate detection. SimilarityThreshold is the max
// Hamming distance for two fingerprints to count as the same image;
// MinOccurrences is the group size at which a group is considered visual
// noise (repeated logo, header, footer).
type GrouperConfig struct {
	SimilarityThreshold int
	MinOccurrences      int
}

// DefaultGrouperConfig matches an 8×8 (64-bit) fingerprint: up to 6
// differing bits still count as the same asset, and 3 occurrences make a
// group filterable.
func DefaultGrouperConfig() GrouperConfig {
	return GrouperConfig{SimilarityThreshold: 6, MinOccurrences: 3}
}

// Groups clusters items with a single-pass greedy scan: each unprocessed
// item seeds a group and absorbs every later unprocessed item within
// threshold of the seed. Clustering is seed-based, not transitive: two
// members may be farther than threshold from each other while both being
// close to the seed. Items in iteration order; output groups follow seed
// order, so the result is deterministic for a given input order.
func Groups(items []Item, threshold int) []Group {
	processed := make([]bool, len(items))
	var groups []Group

	for i, seed := range items {
		if processed[i] || seed.Fingerprint == "" {
			continue
		}
		processed[i] = true
		g := Group{Members: []int{i}, Best: i}

		for j := i + 1; j < len(items); j++ {
			if processed[j] {
				continue
			}
			if Similar(seed.Fingerprint, items[j].Fingerprint, threshold) {
				processed[j] = true
				g.Members = append(g.Members, j)
				if items[j].Size > items[g.Best].Size {
					g.Best = j
				}
			}
		}

		groups = append(groups, g)
	}
	return groups
}

// Filter marks which items survive duplicate filtering. Groups reaching
// MinOccurrences members are reduced to their best representative; smaller
// groups are untouched even when they have more than one member. Unhashable
// items always survive. Returns the keep mask and the number removed.
func Filter(items []Item, cfg GrouperConfig) (keep []bool, removed int) {
	keep = make([]bool, len(items))
	for i := range keep {
		keep[i] = true
	}

	for _, g := range Groups(items, cfg.SimilarityThreshold) {
		if len(g.Members) < cfg.MinOccurrences {
			continue
		}
		for _, idx := range g.Members {
			if idx != g.Best {
				keep[idx] = false
				removed++
			}
		}
	}
	return keep, removed
}
