package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/turtacn/CDNAtlas/internal/application/atlas"
	"github.com/turtacn/CDNAtlas/internal/domain/relation"
	"github.com/turtacn/CDNAtlas/pkg/errors"
)

// Query parameters shared by the relation, layer and stats endpoints.
const (
	paramCDN      = "cdn"
	paramProtocol = "protocol"
	paramClass    = "class"
	paramMin      = "min"
	paramMax      = "max"
	paramType     = "type"
	paramSelected = "selected"
	paramTop      = "top"
)

// listParam accepts repeated keys and comma-separated values alike:
// ?cdn=Akamai&cdn=Fastly and ?cdn=Akamai,Fastly are equivalent.
func listParam(q url.Values, key string) []string {
	var out []string
	for _, raw := range q[key] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

func intParam(q url.Values, key string, def int) (int, error) {
	raw := strings.TrimSpace(q.Get(key))
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, errors.InvalidParam(key + " must be an integer").WithDetail(key + "=" + raw)
	}
	return v, nil
}

// parseFilter builds a FilterSpec from query parameters.  Absent parameters
// leave the matching criterion inactive.
func parseFilter(q url.Values) (relation.FilterSpec, error) {
	spec := relation.DefaultFilterSpec()
	spec.CDNs = listParam(q, paramCDN)
	spec.ContentClasses = listParam(q, paramClass)
	for _, p := range listParam(q, paramProtocol) {
		spec.Protocols = append(spec.Protocols, relation.ProtocolType(p))
	}

	var err error
	if spec.IntensityRange.Min, err = intParam(q, paramMin, 0); err != nil {
		return spec, err
	}
	if spec.IntensityRange.Max, err = intParam(q, paramMax, 100); err != nil {
		return spec, err
	}
	if spec.IntensityRange.Min > spec.IntensityRange.Max {
		return spec, errors.InvalidParam("min must not exceed max").
			WithDetail(strconv.Itoa(spec.IntensityRange.Min) + ">" + strconv.Itoa(spec.IntensityRange.Max))
	}

	t, err := relation.ParseType(q.Get(paramType))
	if err != nil {
		return spec, errors.InvalidParam("invalid relation type").WithDetail(err.Error())
	}
	spec.RelationType = t
	return spec, nil
}

// parseLayerInput adds the selected country to the parsed filter.
func parseLayerInput(q url.Values) (*atlas.LayerInput, error) {
	spec, err := parseFilter(q)
	if err != nil {
		return nil, err
	}
	return &atlas.LayerInput{
		Filter:   spec,
		Selected: strings.TrimSpace(q.Get(paramSelected)),
	}, nil
}

// parseTopN reads ?top=, bounded to [1, 50].
func parseTopN(q url.Values) (int, error) {
	n, err := intParam(q, paramTop, atlas.DefaultTopN)
	if err != nil {
		return 0, err
	}
	if n < 1 || n > 50 {
		return 0, errors.InvalidParam("top must be between 1 and 50").WithDetail(paramTop + "=" + strconv.Itoa(n))
	}
	return n, nil
}
