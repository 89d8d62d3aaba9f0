package relation

import "sort"

// PairSeparator joins the two country codes of a pair key.
const PairSeparator = "-"

// SingleArcOffset is the multiplier given to a lone relation so its arc is
// still visibly curved.
const SingleArcOffset = 0.3

// PairKey returns the undirected key for a and b: the two codes sorted
// lexicographically and joined by "-".
func PairKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + PairSeparator + b
}

// Key returns r's undirected pair key.
func (r Relation) Key() string {
	return PairKey(r.OriginCountry, r.HostCountry)
}

// GroupByCountryPair buckets relations by undirected country pair.  Within a
// bucket relations are ordered by origin code then CDN provider, ties keeping
// input order, so the same relation always lands on the same offset.
func GroupByCountryPair(relations []Relation) map[string][]Relation {
	groups := make(map[string][]Relation)
	for _, r := range relations {
		k := r.Key()
		groups[k] = append(groups[k], r)
	}
	for _, bucket := range groups {
		sort.SliceStable(bucket, func(i, j int) bool {
			if bucket[i].OriginCountry != bucket[j].OriginCountry {
				return bucket[i].OriginCountry < bucket[j].OriginCountry
			}
			return bucket[i].CDNProvider < bucket[j].CDNProvider
		})
	}
	return groups
}

// Offsets returns the arc offset multipliers for a bucket of n relations:
// SingleArcOffset for one, otherwise evenly spaced and symmetric around 0.
func Offsets(n int) []float64 {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []float64{SingleArcOffset}
	}
	out := make([]float64, n)
	start := -float64(n-1) / 2
	for i := range out {
		out[i] = start + float64(i)
	}
	return out
}

// SortedPairKeys returns the keys of groups in ascending order.
func SortedPairKeys(groups map[string][]Relation) []string {
	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
