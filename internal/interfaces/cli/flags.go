package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/turtacn/CDNAtlas/internal/application/atlas"
	"github.com/turtacn/CDNAtlas/internal/domain/relation"
	"github.com/turtacn/CDNAtlas/pkg/errors"
)

// filterFlags are the dashboard filters shared by the query commands.
type filterFlags struct {
	cdns         []string
	protocols    []string
	classes      []string
	min          int
	max          int
	relationType string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringSliceVar(&f.cdns, "cdn", nil, "CDN provider IDs to keep (repeatable or comma-separated)")
	fs.StringSliceVar(&f.protocols, "protocol", nil, "protocol types to keep, e.g. IPv4")
	fs.StringSliceVar(&f.classes, "class", nil, "content class IDs to keep")
	fs.IntVar(&f.min, "min", 0, "minimum intensity (inclusive)")
	fs.IntVar(&f.max, "max", 100, "maximum intensity (inclusive)")
	fs.StringVar(&f.relationType, "type", string(relation.TypeAll), "relation type relative to the selected country (all, dependency, provision)")
}

func (f *filterFlags) spec() (relation.FilterSpec, error) {
	t, err := relation.ParseType(f.relationType)
	if err != nil {
		return relation.FilterSpec{}, errors.InvalidParam("invalid relation type").WithDetail(err.Error())
	}
	spec := relation.FilterSpec{
		CDNs:           trimAll(f.cdns),
		ContentClasses: trimAll(f.classes),
		IntensityRange: relation.IntensityRange{Min: f.min, Max: f.max},
		RelationType:   t,
	}
	for _, p := range trimAll(f.protocols) {
		spec.Protocols = append(spec.Protocols, relation.ProtocolType(p))
	}
	if err := spec.Validate(); err != nil {
		return spec, errors.InvalidParam("invalid filter").WithDetail(err.Error())
	}
	return spec, nil
}

// layerFlags add the selected country to the filter.
type layerFlags struct {
	filterFlags
	selected string
}

func (f *layerFlags) bind(cmd *cobra.Command) {
	f.filterFlags.bind(cmd)
	cmd.Flags().StringVar(&f.selected, "selected", "", "selected country code")
}

func (f *layerFlags) input() (*atlas.LayerInput, error) {
	spec, err := f.spec()
	if err != nil {
		return nil, err
	}
	return &atlas.LayerInput{Filter: spec, Selected: strings.TrimSpace(f.selected)}, nil
}

func trimAll(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
