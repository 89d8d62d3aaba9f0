package relation

import (
	"fmt"
	"strings"
)

// Type selects relations by direction relative to the selected country.
type Type string

const (
	TypeAll        Type = "all"
	TypeDependency Type = "dependency"
	TypeProvision  Type = "provision"
)

// ParseType parses a relation type, treating "" as TypeAll.
func ParseType(s string) (Type, error) {
	switch t := Type(strings.ToLower(strings.TrimSpace(s))); t {
	case "", TypeAll:
		return TypeAll, nil
	case TypeDependency, TypeProvision:
		return t, nil
	default:
		return "", fmt.Errorf("unknown relation type %q", s)
	}
}

// IntensityRange is an inclusive [Min, Max] bound.
type IntensityRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v lies within the range, inclusive.
func (r IntensityRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// FilterSpec is the set of active dashboard filters.  Empty lists do not
// restrict.
type FilterSpec struct {
	CDNs           []string       `json:"cdns"`
	Protocols      []ProtocolType `json:"protocols"`
	ContentClasses []string       `json:"contentClasses"`
	IntensityRange IntensityRange `json:"intensityRange"`
	RelationType   Type           `json:"relationType"`
}

// DefaultFilterSpec returns the filter that keeps every relation.
func DefaultFilterSpec() FilterSpec {
	return FilterSpec{
		IntensityRange: IntensityRange{Min: 0, Max: 100},
		RelationType:   TypeAll,
	}
}

// IsActive reports whether any criterion narrows the relation set.
func (s FilterSpec) IsActive() bool {
	return len(s.CDNs) > 0 ||
		len(s.Protocols) > 0 ||
		len(s.ContentClasses) > 0 ||
		s.IntensityRange.Min > 0 ||
		s.IntensityRange.Max < 100 ||
		(s.RelationType != TypeAll && s.RelationType != "")
}

// Validate rejects ranges that can never match and unknown relation types.
func (s FilterSpec) Validate() error {
	if s.IntensityRange.Min > s.IntensityRange.Max {
		return fmt.Errorf("intensity range [%d, %d] is empty", s.IntensityRange.Min, s.IntensityRange.Max)
	}
	if _, err := ParseType(string(s.RelationType)); err != nil {
		return err
	}
	return nil
}

// Filter returns the relations matching every criterion of spec, in input
// order.  The relation-type rule is skipped when selected is "".
func Filter(relations []Relation, spec FilterSpec, selected string) []Relation {
	m := newMatcher(spec, selected)
	out := make([]Relation, 0, len(relations))
	for _, r := range relations {
		if m.match(r) {
			out = append(out, r)
		}
	}
	return out
}

// Matches reports whether a single relation passes spec.
func Matches(r Relation, spec FilterSpec, selected string) bool {
	return newMatcher(spec, selected).match(r)
}

type matcher struct {
	spec      FilterSpec
	selected  string
	cdns      map[string]struct{}
	protocols map[ProtocolType]struct{}
	classes   map[string]struct{}
}

func newMatcher(spec FilterSpec, selected string) matcher {
	return matcher{
		spec:      spec,
		selected:  selected,
		cdns:      toSet(spec.CDNs),
		protocols: toSet(spec.Protocols),
		classes:   toSet(spec.ContentClasses),
	}
}

func (m matcher) match(r Relation) bool {
	if m.selected != "" {
		switch m.spec.RelationType {
		case TypeDependency:
			if r.OriginCountry != m.selected {
				return false
			}
		case TypeProvision:
			if r.HostCountry != m.selected {
				return false
			}
		}
	}
	if !member(m.cdns, r.CDNProvider) {
		return false
	}
	if !member(m.protocols, r.Protocol.Type) {
		return false
	}
	if !member(m.classes, r.ContentClass) {
		return false
	}
	return m.spec.IntensityRange.Contains(r.Intensity)
}

func toSet[T comparable](items []T) map[T]struct{} {
	if len(items) == 0 {
		return nil
	}
	set := make(map[T]struct{}, len(items))
	for _, it := range items {
		set[it] = struct{}{}
	}
	return set
}

// member treats a nil set as unrestricted.
func member[T comparable](set map[T]struct{}, v T) bool {
	if set == nil {
		return true
	}
	_, ok := set[v]
	return ok
}

// Touching returns the relations with code at either end, in input order.
func Touching(relations []Relation, code string) []Relation {
	out := make([]Relation, 0)
	for _, r := range relations {
		if r.Touches(code) {
			out = append(out, r)
		}
	}
	return out
}
