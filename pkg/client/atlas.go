package client

import (
	"context"
	"net/url"
	"strconv"
	"strings"

	"github.com/turtacn/CDNAtlas/internal/application/atlas"
	"github.com/turtacn/CDNAtlas/internal/domain/country"
	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/relation"
	"github.com/turtacn/CDNAtlas/pkg/errors"
)

// Response types shared with the server.
type (
	Country          = country.Country
	CDN              = country.CDN
	ContentClass     = country.ContentClass
	FilterSpec       = relation.FilterSpec
	RelationType     = relation.Type
	CriticalityInput = criticality.Input
	Breakdown        = criticality.Breakdown
	Layer            = atlas.Layer
	Arc              = atlas.Arc
	RelationList     = atlas.RelationList
	CountryDetail    = atlas.CountryDetail
	MapStats         = atlas.MapStats
	Analytics        = atlas.Analytics
	RelationScore    = atlas.RelationScore
)

// DefaultFilter returns the filter that keeps every relation.
func DefaultFilter() FilterSpec { return relation.DefaultFilterSpec() }

// Query narrows the relations a request covers.  Selected is ignored by
// endpoints that do not take a selected country.
type Query struct {
	Filter   FilterSpec
	Selected string
}

// Score is the result of scoring an ad-hoc input.
type Score struct {
	Breakdown Breakdown `json:"breakdown"`
	Color     string    `json:"color"`
}

// AtlasClient wraps the /api/v1 dependency-map endpoints.
type AtlasClient struct {
	client *Client
}

// ListCountries returns every country in the dataset.
func (a *AtlasClient) ListCountries(ctx context.Context) ([]Country, error) {
	var out struct {
		Countries []Country `json:"countries"`
	}
	if err := a.client.get(ctx, "/countries", nil, &out); err != nil {
		return nil, err
	}
	return out.Countries, nil
}

// GetCountry returns the side panel for one country.
func (a *AtlasClient) GetCountry(ctx context.Context, code string, filter FilterSpec) (*CountryDetail, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, errors.InvalidParam("country code is required")
	}
	var out CountryDetail
	if err := a.client.get(ctx, "/countries/"+url.PathEscape(code), encodeFilter(filter), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListCDNs returns every CDN provider.
func (a *AtlasClient) ListCDNs(ctx context.Context) ([]CDN, error) {
	var out struct {
		CDNs []CDN `json:"cdns"`
	}
	if err := a.client.get(ctx, "/cdns", nil, &out); err != nil {
		return nil, err
	}
	return out.CDNs, nil
}

// ListContentClasses returns every content class.
func (a *AtlasClient) ListContentClasses(ctx context.Context) ([]ContentClass, error) {
	var out struct {
		ContentClasses []ContentClass `json:"contentClasses"`
	}
	if err := a.client.get(ctx, "/content-classes", nil, &out); err != nil {
		return nil, err
	}
	return out.ContentClasses, nil
}

// Relations lists the relations matching q.
func (a *AtlasClient) Relations(ctx context.Context, q Query) (*RelationList, error) {
	var out RelationList
	if err := a.client.get(ctx, "/relations", q.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RelationCriticality scores one dataset relation.
func (a *AtlasClient) RelationCriticality(ctx context.Context, id string) (*RelationScore, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.InvalidParam("relation id is required")
	}
	var out RelationScore
	if err := a.client.get(ctx, "/relations/"+url.PathEscape(id)+"/criticality", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Layer returns the arc layer for q.
func (a *AtlasClient) Layer(ctx context.Context, q Query) (*Layer, error) {
	var out Layer
	if err := a.client.get(ctx, "/layer", q.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Stats returns the map statistics for q.
func (a *AtlasClient) Stats(ctx context.Context, q Query) (*MapStats, error) {
	var out MapStats
	if err := a.client.get(ctx, "/stats", q.values(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analytics returns the dataset-wide breakdown.  top <= 0 uses the server
// default.
func (a *AtlasClient) Analytics(ctx context.Context, filter FilterSpec, top int) (*Analytics, error) {
	v := encodeFilter(filter)
	if top > 0 {
		v.Set("top", strconv.Itoa(top))
	}
	var out Analytics
	if err := a.client.get(ctx, "/analytics", v, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Score computes the criticality of an ad-hoc input.
func (a *AtlasClient) Score(ctx context.Context, input CriticalityInput) (*Score, error) {
	var out Score
	if err := a.client.post(ctx, "/criticality", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (q Query) values() url.Values {
	v := encodeFilter(q.Filter)
	if s := strings.TrimSpace(q.Selected); s != "" {
		v.Set("selected", s)
	}
	return v
}

// encodeFilter renders the active criteria of f as query parameters.  A zero
// FilterSpec encodes nothing, which the server reads as "keep everything".
func encodeFilter(f FilterSpec) url.Values {
	v := url.Values{}
	if len(f.CDNs) > 0 {
		v.Set("cdn", strings.Join(f.CDNs, ","))
	}
	if len(f.ContentClasses) > 0 {
		v.Set("class", strings.Join(f.ContentClasses, ","))
	}
	if len(f.Protocols) > 0 {
		ps := make([]string, len(f.Protocols))
		for i, p := range f.Protocols {
			ps[i] = string(p)
		}
		v.Set("protocol", strings.Join(ps, ","))
	}
	r := f.IntensityRange
	if r.Min != 0 || r.Max != 0 {
		v.Set("min", strconv.Itoa(r.Min))
		v.Set("max", strconv.Itoa(r.Max))
	}
	if f.RelationType != "" && f.RelationType != relation.TypeAll {
		v.Set("type", string(f.RelationType))
	}
	return v
}
