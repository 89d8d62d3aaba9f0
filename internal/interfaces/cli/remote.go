package cli

import (
	"context"

	"github.com/turtacn/CDNAtlas/internal/application/atlas"
	"github.com/turtacn/CDNAtlas/internal/domain/country"
	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/relation"
	"github.com/turtacn/CDNAtlas/pkg/client"
)

// remoteService answers query commands from a running API server instead of
// a local dataset.
type remoteService struct {
	c *client.Client
}

var _ atlas.Service = (*remoteService)(nil)

func newRemoteService(baseURL string) (*remoteService, error) {
	c, err := client.NewClient(baseURL, client.WithUserAgent("cdnatlas-cli/"+Version))
	if err != nil {
		return nil, err
	}
	return &remoteService{c: c}, nil
}

func remoteQuery(input *atlas.LayerInput) client.Query {
	if input == nil {
		return client.Query{Filter: relation.DefaultFilterSpec()}
	}
	return client.Query{Filter: input.Filter, Selected: input.Selected}
}

func (s *remoteService) Layer(ctx context.Context, input *atlas.LayerInput) (*atlas.Layer, error) {
	return s.c.Atlas().Layer(ctx, remoteQuery(input))
}

func (s *remoteService) Relations(ctx context.Context, input *atlas.LayerInput) (*atlas.RelationList, error) {
	return s.c.Atlas().Relations(ctx, remoteQuery(input))
}

func (s *remoteService) CountryDetail(ctx context.Context, code string, filter relation.FilterSpec) (*atlas.CountryDetail, error) {
	return s.c.Atlas().GetCountry(ctx, code, filter)
}

func (s *remoteService) Stats(ctx context.Context, input *atlas.LayerInput) (*atlas.MapStats, error) {
	return s.c.Atlas().Stats(ctx, remoteQuery(input))
}

func (s *remoteService) Analytics(ctx context.Context, filter relation.FilterSpec, topN int) (*atlas.Analytics, error) {
	return s.c.Atlas().Analytics(ctx, filter, topN)
}

func (s *remoteService) RelationCriticality(ctx context.Context, relationID string) (*atlas.RelationScore, error) {
	return s.c.Atlas().RelationCriticality(ctx, relationID)
}

func (s *remoteService) Score(ctx context.Context, input criticality.Input) (*criticality.Breakdown, error) {
	score, err := s.c.Atlas().Score(ctx, input)
	if err != nil {
		return nil, err
	}
	return &score.Breakdown, nil
}

func (s *remoteService) ListCountries(ctx context.Context) ([]country.Country, error) {
	return s.c.Atlas().ListCountries(ctx)
}

func (s *remoteService) ListCDNs(ctx context.Context) ([]country.CDN, error) {
	return s.c.Atlas().ListCDNs(ctx)
}

func (s *remoteService) ListContentClasses(ctx context.Context) ([]country.ContentClass, error) {
	return s.c.Atlas().ListContentClasses(ctx)
}

func (s *remoteService) Ready(ctx context.Context) error {
	return s.c.Ready(ctx)
}
