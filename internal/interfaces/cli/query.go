package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/turtacn/CDNAtlas/internal/application/atlas"
)

// NewLayerCmd prints the arc layer for the current filters.
func NewLayerCmd() *cobra.Command {
	var flags layerFlags
	cmd := &cobra.Command{
		Use:   "layer",
		Short: "Compute the arc layer for the map",
		Long:  "Filter the relations, group them by country pair and print one arc per relation.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := flags.input()
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc atlas.Service) (interface{}, error) {
				layer, err := svc.Layer(ctx, input)
				if err != nil {
					return nil, err
				}
				return layerView{layer}, nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

// NewCountryCmd prints the side panel for one country.
func NewCountryCmd() *cobra.Command {
	var flags filterFlags
	cmd := &cobra.Command{
		Use:   "country <code>",
		Short: "Show a country's dependencies and provisions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := flags.spec()
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc atlas.Service) (interface{}, error) {
				detail, err := svc.CountryDetail(ctx, args[0], spec)
				if err != nil {
					return nil, err
				}
				return countryView{detail}, nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

// NewStatsCmd prints the map statistics.
func NewStatsCmd() *cobra.Command {
	var flags layerFlags
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show map statistics for the current filters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			input, err := flags.input()
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc atlas.Service) (interface{}, error) {
				stats, err := svc.Stats(ctx, input)
				if err != nil {
					return nil, err
				}
				return statsView{stats}, nil
			})
		},
	}
	flags.bind(cmd)
	return cmd
}

// NewAnalyticsCmd prints the dataset-wide analytics.
func NewAnalyticsCmd() *cobra.Command {
	var (
		flags filterFlags
		top   int
	)
	cmd := &cobra.Command{
		Use:   "analytics",
		Short: "Show protocol, content-class and country rankings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, err := flags.spec()
			if err != nil {
				return err
			}
			return withService(cmd, func(ctx context.Context, svc atlas.Service) (interface{}, error) {
				a, err := svc.Analytics(ctx, spec, top)
				if err != nil {
					return nil, err
				}
				return analyticsView{a}, nil
			})
		},
	}
	flags.bind(cmd)
	cmd.Flags().IntVar(&top, "top", atlas.DefaultTopN, "length of the country rankings")
	return cmd
}
