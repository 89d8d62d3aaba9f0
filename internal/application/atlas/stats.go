package atlas

import (
	"context"
	"math"
	"sort"

	"go.opentelemetry.io/otel/attribute"

	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/relation"
	"github.com/turtacn/CDNAtlas/pkg/errors"
)

// CountryDetail assembles the side panel for one country under filter.  The
// relation-type criterion is applied relative to that country.
func (s *serviceImpl) CountryDetail(ctx context.Context, code string, filter relation.FilterSpec) (*CountryDetail, error) {
	ctx, span := s.startSpan(ctx, "atlas.CountryDetail", attribute.String("atlas.country", code))
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spec, selected, err := s.prepare(&LayerInput{Filter: filter, Selected: code})
	if err != nil {
		return nil, s.fail(span, "country detail", err)
	}
	c, _ := s.ds.Country(selected)

	visible := s.visible(spec, selected)
	detail := &CountryDetail{
		Country:          c,
		Total:            len(visible),
		AverageIntensity: averageIntensity(visible),
		Relations:        make([]RelationView, 0, len(visible)),
	}

	perClass := make(map[string]int)
	for _, r := range visible {
		switch r.DirectionFrom(selected) {
		case relation.TypeDependency:
			detail.Dependencies++
		case relation.TypeProvision:
			detail.Provisions++
		}
		perClass[r.ContentClass]++
		detail.Relations = append(detail.Relations, s.view(r, selected))
	}

	// Every known class is listed, including empty ones, in dataset order.
	detail.ContentClasses = make([]ClassCount, 0, len(s.ds.ContentClasses))
	for _, cc := range s.ds.ContentClasses {
		detail.ContentClasses = append(detail.ContentClasses, ClassCount{
			ContentClass: cc.ID,
			Name:         cc.Name,
			Count:        perClass[cc.ID],
		})
	}
	return detail, nil
}

// Stats summarises what the map currently shows.
func (s *serviceImpl) Stats(ctx context.Context, input *LayerInput) (*MapStats, error) {
	ctx, span := s.startSpan(ctx, "atlas.Stats")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spec, selected, err := s.prepare(input)
	if err != nil {
		return nil, s.fail(span, "stats", err)
	}

	visible := s.visible(spec, selected)
	stats := &MapStats{
		Selected:         selected,
		TotalRelations:   len(visible),
		AverageIntensity: averageIntensity(visible),
		ActiveCountries:  make(map[string]int),
	}
	for _, r := range visible {
		switch r.DirectionFrom(selected) {
		case relation.TypeDependency:
			stats.Dependencies++
		case relation.TypeProvision:
			stats.Provisions++
		}
		stats.ActiveCountries[r.OriginCountry]++
		if !r.IsSelfLoop() {
			stats.ActiveCountries[r.HostCountry]++
		}
	}
	return stats, nil
}

// Analytics breaks the filtered relations down by protocol, content class,
// country role and criticality level.
func (s *serviceImpl) Analytics(ctx context.Context, filter relation.FilterSpec, topN int) (*Analytics, error) {
	ctx, span := s.startSpan(ctx, "atlas.Analytics")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if topN < 0 {
		return nil, s.fail(span, "analytics", errors.InvalidParam("top must be non-negative"))
	}
	if topN == 0 {
		topN = DefaultTopN
	}
	spec, _, err := s.prepare(&LayerInput{Filter: filter})
	if err != nil {
		return nil, s.fail(span, "analytics", err)
	}

	visible := relation.Filter(s.ds.Relations, spec, "")
	a := &Analytics{
		TotalRelations:    len(visible),
		AverageIntensity:  averageIntensity(visible),
		Protocols:         make(map[string]int),
		ContentClasses:    make(map[string]int),
		CriticalityLevels: make(map[string]int),
	}
	origins := make(map[string]int)
	hosts := make(map[string]int)
	var critSum float64
	for _, r := range visible {
		a.Protocols[string(r.Protocol.Type)]++
		a.ContentClasses[r.ContentClass]++
		origins[r.OriginCountry]++
		hosts[r.HostCountry]++

		b := criticality.ScoreInput(s.relationInput(r))
		a.CriticalityLevels[b.Level]++
		critSum += b.Total
	}
	if len(visible) > 0 {
		a.AverageCriticality = math.Round(critSum/float64(len(visible))*100) / 100
	}
	a.TopDependents = s.rank(origins, topN)
	a.TopProviders = s.rank(hosts, topN)

	span.SetAttributes(attribute.Int("atlas.relations", len(visible)))
	return a, nil
}

// rank orders counts descending, ties by code, and keeps the first n.
func (s *serviceImpl) rank(counts map[string]int, n int) []CountryCount {
	out := make([]CountryCount, 0, len(counts))
	for code, count := range counts {
		name := code
		if c, ok := s.ds.Country(code); ok {
			name = c.DisplayName()
		}
		out = append(out, CountryCount{Code: code, Name: name, Count: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Code < out[j].Code
	})
	if len(out) > n {
		out = out[:n]
	}
	return out
}
