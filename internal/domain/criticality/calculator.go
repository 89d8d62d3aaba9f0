package criticality

import "math"

const (
	MaxScore           = 100.0
	maxBusinessImpact  = 25.0
	businessMultiplier = 1.5
	realTimeMultiplier = 1.3
	maxReliabilityPart = 5.0
)

var categoryBase = map[Category]float64{
	CategoryFinance:       10,
	CategoryHealth:        9,
	CategoryGovernment:    8,
	CategoryCommerce:      7,
	CategoryEducation:     6,
	CategoryMedia:         5,
	CategorySocial:        4,
	CategoryEntertainment: 3,
}

var scopeMultiplier = map[Scope]float64{
	ScopeLocal:    1.2,
	ScopeRegional: 1.1,
	ScopeGlobal:   1.0,
}

// Breakdown is a scored input with every subscore exposed.
type Breakdown struct {
	Performance    float64 `json:"performance"`
	BusinessImpact float64 `json:"businessImpact"`
	Geopolitical   float64 `json:"geopolitical"`
	Redundancy     float64 `json:"redundancy"`
	NetworkQuality float64 `json:"networkQuality"`
	Total          float64 `json:"total"`
	Level          string  `json:"level"`
}

// Calculate returns the criticality of a relation in [0, 100].
func Calculate(m NetworkMetrics, g GeopoliticalFactors, c ContentFactors, scope Scope) float64 {
	return Score(m, g, c, scope).Total
}

// CalculateInput is Calculate over a bundled Input.
func CalculateInput(in Input) float64 {
	return Calculate(in.Metrics, in.Geopolitical, in.Content, in.Scope)
}

// Score computes every subscore and the clamped total.
func Score(m NetworkMetrics, g GeopoliticalFactors, c ContentFactors, scope Scope) Breakdown {
	b := Breakdown{
		Performance:    PerformanceScore(m),
		BusinessImpact: BusinessImpactScore(c, m.TrafficVolume),
		Geopolitical:   GeopoliticalScore(g),
		Redundancy:     RedundancyScore(m.Redundancy, scope),
		NetworkQuality: NetworkQualityScore(m),
	}
	sum := b.Performance + b.BusinessImpact + b.Geopolitical + b.Redundancy + b.NetworkQuality
	b.Total = math.Min(MaxScore, math.Max(0, sum))
	b.Level = Level(b.Total)
	return b
}

// ScoreInput is Score over a bundled Input.
func ScoreInput(in Input) Breakdown {
	return Score(in.Metrics, in.Geopolitical, in.Content, in.Scope)
}

// ─────────────────────────────────────────────────────────────────────────────
// Subscores
// ─────────────────────────────────────────────────────────────────────────────

// PerformanceScore is the 6–30 sum of the latency, bandwidth and reliability
// bands.
func PerformanceScore(m NetworkMetrics) float64 {
	var latency float64
	switch {
	case m.Latency < 50:
		latency = 10
	case m.Latency < 100:
		latency = 8
	case m.Latency < 200:
		latency = 5
	default:
		latency = 2
	}

	var reliability float64
	switch {
	case m.Reliability > 99:
		reliability = 10
	case m.Reliability > 95:
		reliability = 8
	case m.Reliability > 90:
		reliability = 5
	default:
		reliability = 2
	}

	return latency + volumeBand(m.Bandwidth) + reliability
}

// BusinessImpactScore weighs the content category by the criticality flags
// and adds the traffic band, capped at 25.  Unknown categories have base 0.
func BusinessImpactScore(c ContentFactors, trafficVolume float64) float64 {
	score := categoryBase[c.ContentType]
	if c.BusinessCritical {
		score *= businessMultiplier
	}
	if c.RealTimeRequirement {
		score *= realTimeMultiplier
	}
	return math.Min(maxBusinessImpact, score+volumeBand(trafficVolume))
}

// GeopoliticalScore is the weighted average of the four factors scaled to
// 0–20.
func GeopoliticalScore(g GeopoliticalFactors) float64 {
	return (g.EconomicTies*0.4 + g.CulturalTies*0.2 + g.DigitalMaturity*0.3 + g.Regulations*0.1) * 2
}

// RedundancyScore is inverse in the number of alternate routes and scaled up
// for narrower CDN scopes.  Unknown scopes count as global.
func RedundancyScore(redundancy int, scope Scope) float64 {
	var base float64
	switch {
	case redundancy == 0:
		base = 15
	case redundancy == 1:
		base = 12
	case redundancy <= 3:
		base = 8
	case redundancy <= 5:
		base = 5
	default:
		base = 2
	}
	mult, ok := scopeMultiplier[scope]
	if !ok {
		mult = 1.0
	}
	return base * mult
}

// NetworkQualityScore combines the hop-count band with min(5, reliability/20).
func NetworkQualityScore(m NetworkMetrics) float64 {
	var hops float64
	switch {
	case m.HopCount <= 3:
		hops = 5
	case m.HopCount <= 6:
		hops = 3
	case m.HopCount <= 10:
		hops = 2
	default:
		hops = 1
	}
	return hops + math.Min(maxReliabilityPart, m.Reliability/20)
}

// volumeBand is shared by bandwidth (Mbps) and traffic (GB/day).
func volumeBand(v float64) float64 {
	switch {
	case v > 1000:
		return 10
	case v > 500:
		return 8
	case v > 100:
		return 5
	default:
		return 2
	}
}
