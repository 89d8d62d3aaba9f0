// Package criticality scores how critical a cross-border CDN dependency is.
//
// The score is the sum of five independently bounded subscores:
//
//	performance      0–30  latency, bandwidth and reliability bands
//	business impact  0–25  content category, criticality flags, traffic
//	geopolitical     0–20  weighted economic/cultural/digital/regulatory ties
//	redundancy       0–18  fewer alternate routes means higher criticality
//	network quality  0–10  BGP hop count and reliability
//
// clamped to [0, 100].  Inputs are trusted; out-of-range values fall through
// the same band logic and are never rejected.
package criticality

// ─────────────────────────────────────────────────────────────────────────────
// Enumerations
// ─────────────────────────────────────────────────────────────────────────────

// Scope classifies a CDN's footprint.
type Scope string

const (
	ScopeGlobal   Scope = "global"
	ScopeRegional Scope = "regional"
	ScopeLocal    Scope = "local"
)

// IsValid reports whether s is one of the known scopes.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeGlobal, ScopeRegional, ScopeLocal:
		return true
	}
	return false
}

// Category is the kind of content carried by a relation.
type Category string

const (
	CategoryFinance       Category = "finance"
	CategoryHealth        Category = "health"
	CategoryGovernment    Category = "government"
	CategoryCommerce      Category = "commerce"
	CategoryEducation     Category = "education"
	CategoryMedia         Category = "media"
	CategorySocial        Category = "social"
	CategoryEntertainment Category = "entertainment"
)

// Categories lists every known category from most to least critical.
func Categories() []Category {
	return []Category{
		CategoryFinance, CategoryHealth, CategoryGovernment, CategoryCommerce,
		CategoryEducation, CategoryMedia, CategorySocial, CategoryEntertainment,
	}
}

// IsValid reports whether c is a known category.
func (c Category) IsValid() bool {
	_, ok := categoryBase[c]
	return ok
}

// ─────────────────────────────────────────────────────────────────────────────
// Inputs
// ─────────────────────────────────────────────────────────────────────────────

// NetworkMetrics are the measured properties of the path between two
// countries.
type NetworkMetrics struct {
	Latency       float64 `json:"latency"`       // ms
	Bandwidth     float64 `json:"bandwidth"`     // Mbps
	Reliability   float64 `json:"reliability"`   // % uptime
	HopCount      int     `json:"hopCount"`      // BGP hops
	TrafficVolume float64 `json:"trafficVolume"` // GB/day
	Redundancy    int     `json:"redundancy"`    // alternate routes
}

// GeopoliticalFactors are 0–10 scores describing the country pair.
type GeopoliticalFactors struct {
	EconomicTies    float64 `json:"economicTies" yaml:"economicTies"`
	CulturalTies    float64 `json:"culturalTies" yaml:"culturalTies"`
	DigitalMaturity float64 `json:"digitalMaturity" yaml:"digitalMaturity"`
	Regulations     float64 `json:"regulations" yaml:"regulations"`
}

// ContentFactors describe what is being served.
type ContentFactors struct {
	ContentType         Category `json:"contentType"`
	UserBase            float64  `json:"userBase"` // millions; informational only
	BusinessCritical    bool     `json:"businessCritical"`
	RealTimeRequirement bool     `json:"realTimeRequirement"`
}

// Input bundles every argument of Calculate, for transports that receive a
// single document.
type Input struct {
	Metrics      NetworkMetrics      `json:"metrics"`
	Geopolitical GeopoliticalFactors `json:"geopolitical"`
	Content      ContentFactors      `json:"content"`
	Scope        Scope               `json:"scope"`
}

// NeutralGeopolitics is used when nothing is known about a country pair.
func NeutralGeopolitics() GeopoliticalFactors {
	return GeopoliticalFactors{EconomicTies: 5, CulturalTies: 5, DigitalMaturity: 5, Regulations: 5}
}
