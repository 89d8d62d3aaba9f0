package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rel(id, origin, host, cdn, class string, intensity int) Relation {
	return Relation{
		ID:            id,
		OriginCountry: origin,
		HostCountry:   host,
		CDNProvider:   cdn,
		Protocol:      Protocol{Type: ProtocolIPv4, Version: "4"},
		ContentClass:  class,
		Intensity:     intensity,
	}
}

func sample() []Relation {
	return []Relation{
		rel("r1", "BR", "US", "cloudflare", "streaming", 85),
		rel("r2", "US", "BR", "akamai", "banking", 40),
		rel("r3", "DE", "FR", "fastly", "news", 60),
		rel("r4", "FR", "DE", "akamai", "streaming", 10),
		rel("r5", "JP", "US", "cloudflare", "gaming", 100),
		rel("r6", "AR", "AR", "local-cdn", "banking", 0),
	}
}

func ids(rs []Relation) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.ID
	}
	return out
}

func ptr[T any](v T) *T { return &v }

// ─────────────────────────────────────────────────────────────────────────────
// Relation
// ─────────────────────────────────────────────────────────────────────────────

func TestRelation_Validate(t *testing.T) {
	assert.NoError(t, rel("ok", "BR", "US", "c", "x", 50).Validate())
	assert.NoError(t, rel("self", "BR", "BR", "c", "x", 0).Validate())

	assert.Error(t, rel("a", "", "US", "c", "x", 1).Validate())
	assert.Error(t, rel("b", "BR", " ", "c", "x", 1).Validate())
	assert.Error(t, rel("c", "BR", "US", "", "x", 1).Validate())
	assert.Error(t, rel("d", "BR", "US", "c", "x", 101).Validate())
	assert.Error(t, rel("e", "BR", "US", "c", "x", -1).Validate())

	r := rel("f", "BR", "US", "c", "x", 1)
	r.Reliability = ptr(120.0)
	assert.Error(t, r.Validate())
}

func TestRelation_DirectionFrom(t *testing.T) {
	r := rel("r", "BR", "US", "c", "x", 1)
	assert.Equal(t, TypeDependency, r.DirectionFrom("BR"))
	assert.Equal(t, TypeProvision, r.DirectionFrom("US"))
	assert.Equal(t, Type(""), r.DirectionFrom("JP"))
	assert.Equal(t, Type(""), r.DirectionFrom(""))
	assert.True(t, r.Touches("US"))
	assert.False(t, r.IsSelfLoop())
}

// ─────────────────────────────────────────────────────────────────────────────
// Filter
// ─────────────────────────────────────────────────────────────────────────────

func TestFilter_IdentityWithDefaultSpec(t *testing.T) {
	in := sample()
	out := Filter(in, DefaultFilterSpec(), "")
	assert.Equal(t, in, out)
	assert.False(t, DefaultFilterSpec().IsActive())
}

func TestFilter_EmptyInput(t *testing.T) {
	out := Filter(nil, DefaultFilterSpec(), "BR")
	assert.NotNil(t, out)
	assert.Empty(t, out)
}

func TestFilter_Criteria(t *testing.T) {
	cases := []struct {
		name     string
		mutate   func(*FilterSpec)
		selected string
		want     []string
	}{
		{"cdn membership", func(s *FilterSpec) { s.CDNs = []string{"akamai"} }, "", []string{"r2", "r4"}},
		{"unknown cdn matches nothing", func(s *FilterSpec) { s.CDNs = []string{"nope"} }, "", []string{}},
		{"protocol membership", func(s *FilterSpec) { s.Protocols = []ProtocolType{ProtocolIPv4} }, "", []string{"r1", "r2", "r3", "r4", "r5", "r6"}},
		{"unknown protocol", func(s *FilterSpec) { s.Protocols = []ProtocolType{"IPv6"} }, "", []string{}},
		{"content class", func(s *FilterSpec) { s.ContentClasses = []string{"banking", "news"} }, "", []string{"r2", "r3", "r6"}},
		{"intensity inclusive", func(s *FilterSpec) { s.IntensityRange = IntensityRange{Min: 40, Max: 85} }, "", []string{"r1", "r2", "r3"}},
		{"dependency of BR", func(s *FilterSpec) { s.RelationType = TypeDependency }, "BR", []string{"r1"}},
		{"provision of US", func(s *FilterSpec) { s.RelationType = TypeProvision }, "US", []string{"r1", "r5"}},
		{"type ignored without selection", func(s *FilterSpec) { s.RelationType = TypeDependency }, "", []string{"r1", "r2", "r3", "r4", "r5", "r6"}},
		{"all with selection keeps everything", func(s *FilterSpec) {}, "BR", []string{"r1", "r2", "r3", "r4", "r5", "r6"}},
		{"conjunction", func(s *FilterSpec) {
			s.CDNs = []string{"cloudflare", "akamai"}
			s.ContentClasses = []string{"streaming"}
			s.IntensityRange = IntensityRange{Min: 50, Max: 100}
		}, "", []string{"r1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			spec := DefaultFilterSpec()
			tc.mutate(&spec)
			assert.Equal(t, tc.want, ids(Filter(sample(), spec, tc.selected)))
		})
	}
}

func TestFilter_DoesNotMutateInput(t *testing.T) {
	in := sample()
	spec := DefaultFilterSpec()
	spec.CDNs = []string{"fastly"}
	_ = Filter(in, spec, "")
	assert.Equal(t, sample(), in)
}

func TestFilterSpec_IsActive(t *testing.T) {
	s := DefaultFilterSpec()
	s.IntensityRange.Min = 1
	assert.True(t, s.IsActive())

	s = DefaultFilterSpec()
	s.RelationType = TypeProvision
	assert.True(t, s.IsActive())

	s = DefaultFilterSpec()
	s.ContentClasses = []string{"news"}
	assert.True(t, s.IsActive())
}

func TestFilterSpec_Validate(t *testing.T) {
	assert.NoError(t, DefaultFilterSpec().Validate())

	s := DefaultFilterSpec()
	s.IntensityRange = IntensityRange{Min: 80, Max: 20}
	assert.Error(t, s.Validate())

	s = DefaultFilterSpec()
	s.RelationType = "sideways"
	assert.Error(t, s.Validate())
}

func TestParseType(t *testing.T) {
	for in, want := range map[string]Type{"": TypeAll, "ALL": TypeAll, " dependency ": TypeDependency, "provision": TypeProvision} {
		got, err := ParseType(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got)
	}
	_, err := ParseType("both")
	assert.Error(t, err)
}

func TestTouching(t *testing.T) {
	assert.Equal(t, []string{"r1", "r2", "r5"}, ids(Touching(sample(), "US")))
	assert.Empty(t, Touching(sample(), "ZZ"))
}

// ─────────────────────────────────────────────────────────────────────────────
// Grouping
// ─────────────────────────────────────────────────────────────────────────────

func TestPairKey(t *testing.T) {
	assert.Equal(t, "DE-FR", PairKey("DE", "FR"))
	assert.Equal(t, "DE-FR", PairKey("FR", "DE"))
	assert.Equal(t, "AR-AR", PairKey("AR", "AR"))
}

func TestGroupByCountryPair_Symmetric(t *testing.T) {
	ab := GroupByCountryPair([]Relation{rel("x", "A", "B", "c", "k", 1)})
	ba := GroupByCountryPair([]Relation{rel("y", "B", "A", "c", "k", 1)})
	require.Contains(t, ab, "A-B")
	require.Contains(t, ba, "A-B")
	assert.Len(t, ab, 1)
	assert.Len(t, ba, 1)
}

func TestGroupByCountryPair_Buckets(t *testing.T) {
	groups := GroupByCountryPair(sample())

	assert.Equal(t, []string{"AR-AR", "BR-US", "DE-FR", "JP-US"}, SortedPairKeys(groups))
	assert.Equal(t, []string{"r1", "r2"}, ids(groups["BR-US"]))
	assert.Equal(t, []string{"r3", "r4"}, ids(groups["DE-FR"]))
	assert.Equal(t, []string{"r6"}, ids(groups["AR-AR"]))
}

func TestGroupByCountryPair_DeterministicOrder(t *testing.T) {
	in := []Relation{
		rel("c", "FR", "DE", "akamai", "k", 1),
		rel("b", "DE", "FR", "fastly", "k", 1),
		rel("a", "DE", "FR", "akamai", "k", 1),
		rel("d", "DE", "FR", "akamai", "k", 2),
	}
	want := []string{"a", "d", "b", "c"}
	assert.Equal(t, want, ids(GroupByCountryPair(in)["DE-FR"]))

	// Input order only matters for exact ties.
	reordered := []Relation{in[2], in[3], in[0], in[1]}
	assert.Equal(t, want, ids(GroupByCountryPair(reordered)["DE-FR"]))
}

func TestGroupByCountryPair_ThreeBucketOffsets(t *testing.T) {
	in := []Relation{
		rel("1", "FR", "DE", "akamai", "k", 10),
		rel("2", "DE", "FR", "fastly", "k", 20),
		rel("3", "DE", "FR", "akamai", "k", 30),
	}
	bucket := GroupByCountryPair(in)["DE-FR"]
	require.Len(t, bucket, 3)
	assert.Equal(t, []float64{-1, 0, 1}, Offsets(len(bucket)))
	assert.Equal(t, []string{"3", "2", "1"}, ids(bucket))
}

func TestGroupByCountryPair_SelfLoop(t *testing.T) {
	in := []Relation{
		rel("b", "BR", "BR", "fastly", "k", 40),
		rel("a", "BR", "BR", "akamai", "k", 60),
	}
	assert.True(t, in[0].IsSelfLoop())

	groups := GroupByCountryPair(in)
	assert.Equal(t, []string{"BR-BR"}, SortedPairKeys(groups))
	bucket := groups["BR-BR"]
	assert.Equal(t, []string{"a", "b"}, ids(bucket))
	assert.Equal(t, []float64{-0.5, 0.5}, Offsets(len(bucket)))
}

func TestGroupByCountryPair_Empty(t *testing.T) {
	groups := GroupByCountryPair(nil)
	assert.Empty(t, groups)
	assert.Empty(t, SortedPairKeys(groups))
}

func TestOffsets(t *testing.T) {
	assert.Nil(t, Offsets(0))
	assert.Equal(t, []float64{SingleArcOffset}, Offsets(1))
	assert.Equal(t, []float64{-0.5, 0.5}, Offsets(2))
	assert.Equal(t, []float64{-1.5, -0.5, 0.5, 1.5}, Offsets(4))

	for n := 2; n < 12; n++ {
		off := Offsets(n)
		require.Len(t, off, n)
		for i := range off {
			assert.InDelta(t, -off[n-1-i], off[i], 1e-12)
		}
	}
}
