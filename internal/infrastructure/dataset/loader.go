package dataset

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/turtacn/CDNAtlas/internal/domain/country"
	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/geo"
	"github.com/turtacn/CDNAtlas/internal/domain/relation"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/prometheus"
	apperrors "github.com/turtacn/CDNAtlas/pkg/errors"
)

// Supported formats.
const (
	FormatAuto = "auto"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// SampleSource is the path reported when the embedded dataset is loaded.
const SampleSource = "embedded:sample"

//go:embed sample/dataset.yaml
var sampleYAML []byte

// ─────────────────────────────────────────────────────────────────────────────
// Document shape
// ─────────────────────────────────────────────────────────────────────────────

type rawCountry struct {
	ID          string    `json:"id" yaml:"id"`
	Name        string    `json:"name" yaml:"name"`
	Code        string    `json:"code" yaml:"code"`
	Coordinates []float64 `json:"coordinates" yaml:"coordinates"` // [lng, lat]
	Region      string    `json:"region" yaml:"region"`
}

type rawPair struct {
	Countries                       []string `json:"countries" yaml:"countries"`
	criticality.GeopoliticalFactors `yaml:",inline"`
}

type document struct {
	Countries      []rawCountry           `json:"countries" yaml:"countries"`
	CDNs           []country.CDN          `json:"cdns" yaml:"cdns"`
	ContentClasses []country.ContentClass `json:"contentClasses" yaml:"contentClasses"`
	Relations      []relation.Relation    `json:"relations" yaml:"relations"`
	Geopolitics    []rawPair              `json:"geopolitics" yaml:"geopolitics"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Report
// ─────────────────────────────────────────────────────────────────────────────

// SkippedRecord describes a record dropped by a lenient load.
type SkippedRecord struct {
	Kind   string `json:"kind"`
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// LoadReport summarises a load.
type LoadReport struct {
	Source       string          `json:"source"`
	Format       string          `json:"format"`
	Loaded       map[string]int  `json:"loaded"`
	Skipped      []SkippedRecord `json:"skipped,omitempty"`
	GeneratedIDs int             `json:"generatedIds"`
	Duration     time.Duration   `json:"duration"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Loader
// ─────────────────────────────────────────────────────────────────────────────

// Options configure a Loader.
type Options struct {
	// Format forces a decoder; FormatAuto or "" detects from the extension
	// and content.
	Format string
	// Strict fails the load on the first invalid record and on unknown
	// document fields.  Otherwise invalid records are skipped with a warning.
	Strict bool
}

// Loader reads and validates datasets.
type Loader struct {
	opts    Options
	logger  logging.Logger
	metrics *prometheus.AppMetrics
	newID   func() string
}

// NewLoader creates a Loader.  A nil logger or metrics set is replaced by a
// no-op.
func NewLoader(opts Options, logger logging.Logger, metrics *prometheus.AppMetrics) *Loader {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	if metrics == nil {
		metrics = prometheus.NewNoopAppMetrics()
	}
	if opts.Format == "" {
		opts.Format = FormatAuto
	}
	return &Loader{
		opts:    opts,
		logger:  logger.Named("dataset"),
		metrics: metrics,
		newID:   uuid.NewString,
	}
}

// Load reads the dataset at path.  An empty path loads the embedded sample.
func (l *Loader) Load(ctx context.Context, path string) (*Dataset, *LoadReport, error) {
	if path == "" || path == SampleSource {
		return l.parse(ctx, SampleSource, sampleYAML, FormatYAML)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		l.metrics.DatasetLoadsTotal.WithLabelValues(l.opts.Format, "failure").Inc()
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeDatasetUnreadable, "failed to read dataset").
			WithDetail(path)
	}
	return l.parse(ctx, path, data, l.opts.Format)
}

// LoadReader decodes a dataset from r.  format must not be FormatAuto unless
// the content can be sniffed.
func (l *Loader) LoadReader(ctx context.Context, r io.Reader, format string) (*Dataset, *LoadReport, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.ErrCodeDatasetUnreadable, "failed to read dataset")
	}
	return l.parse(ctx, "reader", data, format)
}

// LoadSample loads the embedded reference dataset with a lenient, silent
// loader.
func LoadSample(ctx context.Context) (*Dataset, error) {
	ds, _, err := NewLoader(Options{}, nil, nil).Load(ctx, "")
	return ds, err
}

// DetectFormat picks a decoder from the file extension, falling back to the
// first non-blank byte of data.
func DetectFormat(path string, data []byte) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	}
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

func (l *Loader) parse(ctx context.Context, source string, data []byte, format string) (ds *Dataset, report *LoadReport, err error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}
	if format == "" || format == FormatAuto {
		format = DetectFormat(source, data)
	}
	start := time.Now()
	defer func() {
		prometheus.RecordDatasetLoad(l.metrics, format, time.Since(start), err)
	}()

	doc, err := l.decode(data, format)
	if err != nil {
		return nil, nil, err
	}

	report = &LoadReport{Source: source, Format: format}
	ds, err = l.build(doc, report)
	if err != nil {
		l.logger.Error("dataset rejected", logging.String("source", source), logging.Err(err))
		return nil, nil, err
	}
	report.Loaded = ds.Counts()
	report.Duration = time.Since(start)

	for kind, n := range report.Loaded {
		l.metrics.DatasetRecords.WithLabelValues(kind).Set(float64(n))
	}
	l.logger.Info("dataset loaded",
		logging.String("source", source),
		logging.String("format", format),
		logging.Int(KindCountries, len(ds.Countries)),
		logging.Int(KindRelations, len(ds.Relations)),
		logging.Int("skipped", len(report.Skipped)),
		logging.Int("generated_ids", report.GeneratedIDs),
		logging.Duration(logging.FieldDuration, report.Duration),
	)
	return ds, report, nil
}

func (l *Loader) decode(data []byte, format string) (*document, error) {
	var doc document
	switch format {
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		if l.opts.Strict {
			dec.DisallowUnknownFields()
		}
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatasetFormat, "malformed JSON dataset")
		}
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(l.opts.Strict)
		if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
			return nil, apperrors.Wrap(err, apperrors.ErrCodeDatasetFormat, "malformed YAML dataset")
		}
	default:
		return nil, apperrors.Newf(apperrors.ErrCodeDatasetFormat, "unsupported dataset format %q", format)
	}
	return &doc, nil
}

// reject either fails the load (strict) or records the skip (lenient).
func (l *Loader) reject(report *LoadReport, code apperrors.ErrorCode, kind, id string, cause error) error {
	if l.opts.Strict {
		return apperrors.Wrap(cause, code, "invalid "+kind+" record").WithDetail(id)
	}
	l.logger.Warn("skipping dataset record",
		logging.String("kind", kind),
		logging.String("id", id),
		logging.String(logging.FieldErrorCode, code.String()),
		logging.Err(cause),
	)
	report.Skipped = append(report.Skipped, SkippedRecord{Kind: kind, ID: id, Reason: cause.Error()})
	return nil
}

func (l *Loader) build(doc *document, report *LoadReport) (*Dataset, error) {
	countries := make([]country.Country, 0, len(doc.Countries))
	seen := make(map[string]struct{}, len(doc.Countries))
	for _, rc := range doc.Countries {
		c, err := rc.toCountry()
		if err == nil {
			err = c.Validate()
		}
		if err != nil {
			if rerr := l.reject(report, apperrors.ErrCodeDatasetInvalidRecord, KindCountries, rc.Code, err); rerr != nil {
				return nil, rerr
			}
			continue
		}
		if _, dup := seen[c.Code]; dup {
			if rerr := l.reject(report, apperrors.ErrCodeDatasetDuplicateID, KindCountries, c.Code,
				fmt.Errorf("country code %s is declared twice", c.Code)); rerr != nil {
				return nil, rerr
			}
			continue
		}
		seen[c.Code] = struct{}{}
		countries = append(countries, c)
	}

	cdns := make([]country.CDN, 0, len(doc.CDNs))
	seen = make(map[string]struct{}, len(doc.CDNs))
	for _, c := range doc.CDNs {
		if err := c.Validate(); err != nil {
			if rerr := l.reject(report, apperrors.ErrCodeDatasetInvalidRecord, KindCDNs, c.ID, err); rerr != nil {
				return nil, rerr
			}
			continue
		}
		if _, dup := seen[c.ID]; dup {
			if rerr := l.reject(report, apperrors.ErrCodeDatasetDuplicateID, KindCDNs, c.ID,
				fmt.Errorf("cdn %s is declared twice", c.ID)); rerr != nil {
				return nil, rerr
			}
			continue
		}
		seen[c.ID] = struct{}{}
		cdns = append(cdns, c)
	}

	classes := make([]country.ContentClass, 0, len(doc.ContentClasses))
	seen = make(map[string]struct{}, len(doc.ContentClasses))
	for _, c := range doc.ContentClasses {
		if err := c.Validate(); err != nil {
			if rerr := l.reject(report, apperrors.ErrCodeDatasetInvalidRecord, KindContentClasses, c.ID, err); rerr != nil {
				return nil, rerr
			}
			continue
		}
		if _, dup := seen[c.ID]; dup {
			if rerr := l.reject(report, apperrors.ErrCodeDatasetDuplicateID, KindContentClasses, c.ID,
				fmt.Errorf("content class %s is declared twice", c.ID)); rerr != nil {
				return nil, rerr
			}
			continue
		}
		seen[c.ID] = struct{}{}
		classes = append(classes, c)
	}

	relations := make([]relation.Relation, 0, len(doc.Relations))
	seen = make(map[string]struct{}, len(doc.Relations))
	for _, r := range doc.Relations {
		if r.ID == "" {
			r.ID = l.newID()
			report.GeneratedIDs++
		}
		if err := r.Validate(); err != nil {
			if rerr := l.reject(report, apperrors.ErrCodeDatasetInvalidRecord, KindRelations, r.ID, err); rerr != nil {
				return nil, rerr
			}
			continue
		}
		if _, dup := seen[r.ID]; dup {
			if rerr := l.reject(report, apperrors.ErrCodeDatasetDuplicateID, KindRelations, r.ID,
				fmt.Errorf("relation %s is declared twice", r.ID)); rerr != nil {
				return nil, rerr
			}
			continue
		}
		seen[r.ID] = struct{}{}
		relations = append(relations, r)
	}

	pairs := make([]PairFactors, 0, len(doc.Geopolitics))
	for _, rp := range doc.Geopolitics {
		p, err := rp.toPair()
		if err != nil {
			if rerr := l.reject(report, apperrors.ErrCodeDatasetInvalidRecord, KindGeopolitics,
				strings.Join(rp.Countries, relation.PairSeparator), err); rerr != nil {
				return nil, rerr
			}
			continue
		}
		pairs = append(pairs, p)
	}

	return New(countries, cdns, classes, relations, pairs), nil
}

func (rc rawCountry) toCountry() (country.Country, error) {
	if len(rc.Coordinates) != 2 {
		return country.Country{}, fmt.Errorf("country %s: coordinates must be [lng, lat], got %d values",
			rc.Code, len(rc.Coordinates))
	}
	return country.Country{
		ID:          rc.ID,
		Name:        rc.Name,
		Code:        rc.Code,
		Coordinates: geo.LngLat{Lng: rc.Coordinates[0], Lat: rc.Coordinates[1]},
		Region:      rc.Region,
	}, nil
}

func (rp rawPair) toPair() (PairFactors, error) {
	if len(rp.Countries) != 2 || rp.Countries[0] == "" || rp.Countries[1] == "" {
		return PairFactors{}, fmt.Errorf("geopolitics entry must name exactly two countries, got %v", rp.Countries)
	}
	g := rp.GeopoliticalFactors
	for name, v := range map[string]float64{
		"economicTies":    g.EconomicTies,
		"culturalTies":    g.CulturalTies,
		"digitalMaturity": g.DigitalMaturity,
		"regulations":     g.Regulations,
	} {
		if v < 0 || v > 10 {
			return PairFactors{}, fmt.Errorf("geopolitics %s-%s: %s %v out of range [0, 10]",
				rp.Countries[0], rp.Countries[1], name, v)
		}
	}
	return PairFactors{Countries: [2]string{rp.Countries[0], rp.Countries[1]}, Factors: g}, nil
}
