// Package atlas is the application service behind the dependency map: it
// filters the loaded relations, lays them out as arcs, scores their
// criticality and aggregates the panel and analytics statistics.  HTTP
// handlers and CLI commands both go through Service.
package atlas

import (
	"context"
	"math"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/turtacn/CDNAtlas/internal/domain/country"
	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/geo"
	"github.com/turtacn/CDNAtlas/internal/domain/relation"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/cache"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/dataset"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/CDNAtlas/pkg/errors"
)

// Service is the dependency-map application API.
type Service interface {
	Layer(ctx context.Context, input *LayerInput) (*Layer, error)
	Relations(ctx context.Context, input *LayerInput) (*RelationList, error)
	CountryDetail(ctx context.Context, code string, filter relation.FilterSpec) (*CountryDetail, error)
	Stats(ctx context.Context, input *LayerInput) (*MapStats, error)
	Analytics(ctx context.Context, filter relation.FilterSpec, topN int) (*Analytics, error)
	RelationCriticality(ctx context.Context, relationID string) (*RelationScore, error)
	Score(ctx context.Context, input criticality.Input) (*criticality.Breakdown, error)
	ListCountries(ctx context.Context) ([]country.Country, error)
	ListCDNs(ctx context.Context) ([]country.CDN, error)
	ListContentClasses(ctx context.Context) ([]country.ContentClass, error)
	Ready(ctx context.Context) error
}

// DefaultTopN is the analytics ranking length when none is requested.
const DefaultTopN = 5

// Deps are the collaborators of the service.  Only Dataset is required.
type Deps struct {
	Dataset *dataset.Dataset
	Cache   *cache.ReadThrough
	Logger  logging.Logger
	Metrics *prometheus.AppMetrics
	Tracer  trace.Tracer
}

type serviceImpl struct {
	ds        *dataset.Dataset
	relations map[string]relation.Relation
	cache     *cache.ReadThrough
	logger    logging.Logger
	metrics   *prometheus.AppMetrics
	tracer    trace.Tracer
}

// NewService creates the atlas service over a loaded dataset.
func NewService(deps Deps) (Service, error) {
	if deps.Dataset == nil {
		return nil, errors.New(errors.ErrCodeValidation, "atlas service requires a dataset")
	}
	if deps.Logger == nil {
		deps.Logger = logging.NewNopLogger()
	}
	if deps.Metrics == nil {
		deps.Metrics = prometheus.NewNoopAppMetrics()
	}
	if deps.Cache == nil {
		deps.Cache = cache.NewReadThrough(cache.NewNoopCache(), "layer", 0, deps.Logger, deps.Metrics)
	}
	if deps.Tracer == nil {
		deps.Tracer = noop.NewTracerProvider().Tracer("")
	}

	byID := make(map[string]relation.Relation, len(deps.Dataset.Relations))
	for _, r := range deps.Dataset.Relations {
		byID[r.ID] = r
	}
	return &serviceImpl{
		ds:        deps.Dataset,
		relations: byID,
		cache:     deps.Cache,
		logger:    deps.Logger.Named("atlas"),
		metrics:   deps.Metrics,
		tracer:    deps.Tracer,
	}, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Reference lists
// ─────────────────────────────────────────────────────────────────────────────

func (s *serviceImpl) ListCountries(ctx context.Context) ([]country.Country, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]country.Country(nil), s.ds.Countries...), nil
}

func (s *serviceImpl) ListCDNs(ctx context.Context) ([]country.CDN, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]country.CDN(nil), s.ds.CDNs...), nil
}

func (s *serviceImpl) ListContentClasses(ctx context.Context) ([]country.ContentClass, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]country.ContentClass(nil), s.ds.ContentClasses...), nil
}

// Ready reports whether the dataset is usable and the cache reachable.
func (s *serviceImpl) Ready(ctx context.Context) error {
	if len(s.ds.Countries) == 0 {
		return errors.New(errors.ErrCodeServiceUnavailable, "dataset has no countries")
	}
	if err := s.cache.Cache().Ping(ctx); err != nil {
		return errors.Wrap(err, errors.ErrCodeServiceUnavailable, "cache unreachable")
	}
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Criticality
// ─────────────────────────────────────────────────────────────────────────────

// Fallbacks for relations that carry no measured path metrics.
const (
	DefaultLatency       = 100.0
	DefaultBandwidth     = 100.0
	DefaultReliability   = 95.0
	DefaultHopCount      = 6
	DefaultTrafficVolume = 100.0
	DefaultRedundancy    = 2
)

// Score validates and scores an explicit criticality input.
func (s *serviceImpl) Score(ctx context.Context, input criticality.Input) (*criticality.Breakdown, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if input.Scope == "" {
		input.Scope = criticality.ScopeGlobal
	}
	if !input.Scope.IsValid() {
		return nil, errors.InvalidParam("unknown scope").WithDetail(string(input.Scope))
	}
	if !input.Content.ContentType.IsValid() {
		return nil, errors.InvalidParam("unknown content type").WithDetail(string(input.Content.ContentType))
	}
	if err := validateMetrics(input.Metrics); err != nil {
		return nil, err
	}
	b := criticality.ScoreInput(input)
	prometheus.RecordCriticality(s.metrics, b.Level, b.Total)
	return &b, nil
}

func validateMetrics(m criticality.NetworkMetrics) error {
	for name, v := range map[string]float64{
		"latency":       m.Latency,
		"bandwidth":     m.Bandwidth,
		"reliability":   m.Reliability,
		"trafficVolume": m.TrafficVolume,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
			return errors.InvalidParam("metrics must be finite and non-negative").WithDetail(name)
		}
	}
	if m.HopCount < 0 || m.Redundancy < 0 {
		return errors.InvalidParam("hop count and redundancy must be non-negative")
	}
	return nil
}

// RelationCriticality scores a dataset relation by ID.
func (s *serviceImpl) RelationCriticality(ctx context.Context, relationID string) (*RelationScore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r, ok := s.relations[relationID]
	if !ok {
		return nil, errors.NotFound("relation not found").WithDetail(relationID)
	}
	in := s.relationInput(r)
	b := criticality.ScoreInput(in)
	return &RelationScore{RelationID: r.ID, Input: in, Breakdown: b, Color: geo.IntensityToColor(b.Total)}, nil
}

// relationInput derives a criticality input from a relation, its CDN scope,
// its content class and the pair geopolitics.
func (s *serviceImpl) relationInput(r relation.Relation) criticality.Input {
	m := criticality.NetworkMetrics{
		Latency:       floatOr(r.Latency, DefaultLatency),
		Bandwidth:     floatOr(r.Bandwidth, DefaultBandwidth),
		Reliability:   floatOr(r.Reliability, DefaultReliability),
		HopCount:      intOr(r.HopCount, DefaultHopCount),
		TrafficVolume: floatOr(r.TrafficVolume, DefaultTrafficVolume),
		Redundancy:    intOr(r.Redundancy, DefaultRedundancy),
	}

	scope := criticality.ScopeGlobal
	if cdn, ok := s.ds.CDN(r.CDNProvider); ok && cdn.Scope.IsValid() {
		scope = cdn.Scope
	}

	var category criticality.Category
	if cc, ok := s.ds.ContentClass(r.ContentClass); ok {
		category = cc.Category
	}

	return criticality.Input{
		Metrics:      m,
		Geopolitical: s.ds.GeopoliticsFor(r.OriginCountry, r.HostCountry),
		Content: criticality.ContentFactors{
			ContentType:         category,
			BusinessCritical:    isBusinessCritical(category),
			RealTimeRequirement: isRealTime(category),
		},
		Scope: scope,
	}
}

func isBusinessCritical(c criticality.Category) bool {
	switch c {
	case criticality.CategoryFinance, criticality.CategoryHealth, criticality.CategoryGovernment:
		return true
	}
	return false
}

// Live video and trading are the latency-bound categories.
func isRealTime(c criticality.Category) bool {
	switch c {
	case criticality.CategoryFinance, criticality.CategoryEntertainment:
		return true
	}
	return false
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

// ─────────────────────────────────────────────────────────────────────────────
// Shared helpers
// ─────────────────────────────────────────────────────────────────────────────

// prepare validates input and resolves the selected country to its code.
func (s *serviceImpl) prepare(input *LayerInput) (relation.FilterSpec, string, error) {
	if input == nil {
		input = NewLayerInput()
	}
	spec := input.Filter
	if spec.RelationType == "" {
		spec.RelationType = relation.TypeAll
	}
	if err := spec.Validate(); err != nil {
		return spec, "", errors.New(errors.ErrCodeFilterInvalid, "invalid filter").WithDetail(err.Error())
	}
	if input.Selected == "" {
		return spec, "", nil
	}
	c, ok := s.ds.Country(input.Selected)
	if !ok {
		return spec, "", errors.New(errors.ErrCodeCountryNotFound, "country not found").WithDetail(input.Selected)
	}
	return spec, c.Code, nil
}

// visible returns the relations on the map for spec and selected: the
// filtered set, narrowed to those touching the selected country.
func (s *serviceImpl) visible(spec relation.FilterSpec, selected string) []relation.Relation {
	filtered := relation.Filter(s.ds.Relations, spec, selected)
	if selected != "" {
		filtered = relation.Touching(filtered, selected)
	}
	return filtered
}

func (s *serviceImpl) view(r relation.Relation, selected string) RelationView {
	v := RelationView{
		Relation:         r,
		Direction:        r.DirectionFrom(selected),
		OriginName:       r.OriginCountry,
		HostName:         r.HostCountry,
		CDNName:          r.CDNProvider,
		ContentClassName: r.ContentClass,
	}
	if c, ok := s.ds.Country(r.OriginCountry); ok {
		v.OriginName = c.DisplayName()
	}
	if c, ok := s.ds.Country(r.HostCountry); ok {
		v.HostName = c.DisplayName()
	}
	if cdn, ok := s.ds.CDN(r.CDNProvider); ok && cdn.Name != "" {
		v.CDNName = cdn.Name
	}
	if cc, ok := s.ds.ContentClass(r.ContentClass); ok && cc.Name != "" {
		v.ContentClassName = cc.Name
	}
	return v
}

// averageIntensity is the rounded mean intensity, 0 for no relations.
func averageIntensity(rs []relation.Relation) int {
	if len(rs) == 0 {
		return 0
	}
	sum := 0
	for _, r := range rs {
		sum += r.Intensity
	}
	return int(math.Round(float64(sum) / float64(len(rs))))
}

func (s *serviceImpl) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

func (s *serviceImpl) fail(span trace.Span, op string, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	code := errors.GetCode(err)
	prometheus.RecordError(s.metrics, "atlas", code.String())
	s.logger.Warn(op+" failed", logging.String(logging.FieldErrorCode, code.String()), logging.Err(err))
	return err
}
