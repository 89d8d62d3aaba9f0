package atlas

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"sort"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/geo"
	"github.com/turtacn/CDNAtlas/internal/domain/relation"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/cache"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/prometheus"
)

const (
	minArcWeight     = 3.0
	arcWeightDivisor = 15.0
	baseArcOpacity   = 0.8
	opacityDivisor   = 500.0
)

// ArcWeight is the stroke width for an intensity: max(3, intensity/15).
func ArcWeight(intensity int) float64 {
	return math.Max(minArcWeight, float64(intensity)/arcWeightDivisor)
}

// ArcOpacity is the stroke opacity for an intensity: 0.8 + intensity/500.
func ArcOpacity(intensity int) float64 {
	return baseArcOpacity + float64(intensity)/opacityDivisor
}

// Layer builds the arc layer for the filter state, serving repeated states
// from the cache.
func (s *serviceImpl) Layer(ctx context.Context, input *LayerInput) (*Layer, error) {
	ctx, span := s.startSpan(ctx, "atlas.Layer")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spec, selected, err := s.prepare(input)
	if err != nil {
		return nil, s.fail(span, "layer", err)
	}
	span.SetAttributes(attribute.String("atlas.selected", selected))

	start := time.Now()
	var layer Layer
	hit, err := s.cache.Fetch(ctx, layerKey(spec, selected), &layer, func(ctx context.Context) (interface{}, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		l := s.buildLayer(spec, selected)
		prometheus.RecordLayerBuild(s.metrics, "computed", time.Since(start), l.Relations, len(l.Arcs), l.Skipped)
		return l, nil
	})
	if err != nil {
		return nil, s.fail(span, "layer", err)
	}
	if hit {
		layer.Cached = true
		prometheus.RecordLayerBuild(s.metrics, "cache", time.Since(start), layer.Relations, len(layer.Arcs), layer.Skipped)
	}

	span.SetAttributes(
		attribute.Int("atlas.arcs", len(layer.Arcs)),
		attribute.Int("atlas.skipped", layer.Skipped),
		attribute.Bool("atlas.cached", hit),
	)
	logging.LogOperationDuration(s.logger, "layer", start,
		logging.Int("arcs", len(layer.Arcs)),
		logging.Bool("cached", hit),
	)
	return &layer, nil
}

// buildLayer filters, groups and lays out every visible relation.  Pairs are
// emitted in key order; within a pair the grouper's order fixes the offset.
func (s *serviceImpl) buildLayer(spec relation.FilterSpec, selected string) *Layer {
	visible := s.visible(spec, selected)
	groups := relation.GroupByCountryPair(visible)

	layer := &Layer{
		Selected:  selected,
		Arcs:      make([]Arc, 0, len(visible)),
		Pairs:     len(groups),
		Relations: len(visible),
	}
	for _, key := range relation.SortedPairKeys(groups) {
		bucket := groups[key]
		offsets := relation.Offsets(len(bucket))
		for i, r := range bucket {
			arc, ok := s.buildArc(r, key, offsets[i], selected)
			if !ok {
				layer.Skipped++
				s.logger.Debug("skipping relation with unknown country",
					logging.String("relation_id", r.ID),
					logging.String("origin", r.OriginCountry),
					logging.String("host", r.HostCountry),
				)
				continue
			}
			layer.Arcs = append(layer.Arcs, arc)
		}
	}
	return layer
}

func (s *serviceImpl) buildArc(r relation.Relation, pairKey string, offset float64, selected string) (Arc, bool) {
	origin, ok := s.ds.Country(r.OriginCountry)
	if !ok {
		return Arc{}, false
	}
	host, ok := s.ds.Country(r.HostCountry)
	if !ok {
		return Arc{}, false
	}

	score := criticality.ScoreInput(s.relationInput(r))
	prometheus.RecordCriticality(s.metrics, score.Level, score.Total)

	v := s.view(r, selected)
	return Arc{
		RelationID: r.ID,
		Origin:     origin.Code,
		Host:       host.Code,
		PairKey:    pairKey,
		Offset:     offset,

		Points:  geo.BuildArc(origin.Position(), host.Position(), offset),
		Color:   geo.IntensityToColor(float64(r.Intensity)),
		Weight:  ArcWeight(r.Intensity),
		Opacity: ArcOpacity(r.Intensity),

		Direction: v.Direction,

		OriginName:   v.OriginName,
		HostName:     v.HostName,
		CDNProvider:  r.CDNProvider,
		CDNName:      v.CDNName,
		ContentClass: r.ContentClass,
		Protocol:     r.Protocol.Type,
		Intensity:    r.Intensity,

		Criticality:      score.Total,
		CriticalityLevel: score.Level,
		CriticalityColor: geo.IntensityToColor(score.Total),
	}, true
}

// Relations lists the visible relations with resolved names.
func (s *serviceImpl) Relations(ctx context.Context, input *LayerInput) (*RelationList, error) {
	ctx, span := s.startSpan(ctx, "atlas.Relations")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	spec, selected, err := s.prepare(input)
	if err != nil {
		return nil, s.fail(span, "relations", err)
	}
	visible := s.visible(spec, selected)
	out := &RelationList{Relations: make([]RelationView, 0, len(visible)), Total: len(visible)}
	for _, r := range visible {
		out.Relations = append(out.Relations, s.view(r, selected))
	}
	return out, nil
}

// layerKey fingerprints a normalised filter state.  List order does not
// change the key.
func layerKey(spec relation.FilterSpec, selected string) string {
	norm := struct {
		CDNs      []string
		Protocols []string
		Classes   []string
		Min, Max  int
		Type      relation.Type
		Selected  string
	}{
		CDNs:     sortedCopy(spec.CDNs),
		Classes:  sortedCopy(spec.ContentClasses),
		Min:      spec.IntensityRange.Min,
		Max:      spec.IntensityRange.Max,
		Type:     spec.RelationType,
		Selected: selected,
	}
	protocols := make([]string, len(spec.Protocols))
	for i, p := range spec.Protocols {
		protocols[i] = string(p)
	}
	norm.Protocols = sortedCopy(protocols)

	data, _ := json.Marshal(norm)
	sum := sha256.Sum256(data)
	return cache.Key("layer", hex.EncodeToString(sum[:16]))
}

func sortedCopy(in []string) []string {
	out := append([]string(nil), in...)
	sort.Strings(out)
	return out
}
