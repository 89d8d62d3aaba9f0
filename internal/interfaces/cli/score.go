package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/CDNAtlas/internal/application/atlas"
	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/geo"
)

// NewScoreCmd scores either explicit inputs or a dataset relation.
func NewScoreCmd() *cobra.Command {
	var (
		in         criticality.Input
		scope      string
		category   string
		relationID string
	)

	cmd := &cobra.Command{
		Use:   "score",
		Short: "Compute the criticality of a CDN dependency",
		Long: "Score a dependency from explicit network, geopolitical and content inputs,\n" +
			"or pass --relation to score a relation from the dataset.",
		Example: "  cdnatlas score --latency 120 --bandwidth 850 --reliability 99.2 --hops 8 \\\n" +
			"    --traffic 2500 --redundancy 2 --economic 8 --cultural 6 --digital 7 --regulations 7 \\\n" +
			"    --content-type entertainment --business-critical --real-time\n" +
			"  cdnatlas score --relation br-us-cloudflare-ent -o json",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, func(ctx context.Context, svc atlas.Service) (interface{}, error) {
				if relationID != "" {
					rs, err := svc.RelationCriticality(ctx, relationID)
					if err != nil {
						return nil, err
					}
					return scoreView{RelationID: rs.RelationID, Breakdown: rs.Breakdown, Color: rs.Color}, nil
				}
				in.Scope = criticality.Scope(scope)
				in.Content.ContentType = criticality.Category(category)
				b, err := svc.Score(ctx, in)
				if err != nil {
					return nil, err
				}
				return scoreView{Breakdown: *b, Color: geo.IntensityToColor(b.Total)}, nil
			})
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&relationID, "relation", "", "score the dataset relation with this ID; other inputs are ignored")

	fs.Float64Var(&in.Metrics.Latency, "latency", atlas.DefaultLatency, "latency in ms")
	fs.Float64Var(&in.Metrics.Bandwidth, "bandwidth", atlas.DefaultBandwidth, "bandwidth in Mbps")
	fs.Float64Var(&in.Metrics.Reliability, "reliability", atlas.DefaultReliability, "reliability in % uptime")
	fs.IntVar(&in.Metrics.HopCount, "hops", atlas.DefaultHopCount, "BGP hop count")
	fs.Float64Var(&in.Metrics.TrafficVolume, "traffic", atlas.DefaultTrafficVolume, "traffic volume in GB/day")
	fs.IntVar(&in.Metrics.Redundancy, "redundancy", atlas.DefaultRedundancy, "number of alternate routes")

	neutral := criticality.NeutralGeopolitics()
	fs.Float64Var(&in.Geopolitical.EconomicTies, "economic", neutral.EconomicTies, "economic ties, 0-10")
	fs.Float64Var(&in.Geopolitical.CulturalTies, "cultural", neutral.CulturalTies, "cultural ties, 0-10")
	fs.Float64Var(&in.Geopolitical.DigitalMaturity, "digital", neutral.DigitalMaturity, "digital maturity, 0-10")
	fs.Float64Var(&in.Geopolitical.Regulations, "regulations", neutral.Regulations, "regulatory alignment, 0-10")

	fs.StringVar(&category, "content-type", string(criticality.CategoryMedia), "content category (finance, health, government, commerce, education, media, social, entertainment)")
	fs.Float64Var(&in.Content.UserBase, "user-base", 0, "user base in millions (informational)")
	fs.BoolVar(&in.Content.BusinessCritical, "business-critical", false, "content is business critical")
	fs.BoolVar(&in.Content.RealTimeRequirement, "real-time", false, "content has real-time requirements")
	fs.StringVar(&scope, "scope", string(criticality.ScopeGlobal), "CDN scope (global, regional, local)")

	return cmd
}
