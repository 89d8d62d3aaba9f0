// Package relation models directed CDN dependencies between countries and
// provides the filtering and pair-grouping used to lay them out on the map.
package relation

import (
	"fmt"
	"strings"
)

// ProtocolType is the addressing family of a relation.
type ProtocolType string

const ProtocolIPv4 ProtocolType = "IPv4"

// Protocol describes how a relation is reached.
type Protocol struct {
	Type    ProtocolType `json:"type" yaml:"type"`
	Version string       `json:"version" yaml:"version"`
}

// Relation is a directed edge from an origin (dependent) country to a host
// (providing) country over one CDN.  Direction relative to a selected
// country is derived, not stored.
type Relation struct {
	ID            string   `json:"id" yaml:"id"`
	OriginCountry string   `json:"originCountry" yaml:"originCountry"`
	HostCountry   string   `json:"hostCountry" yaml:"hostCountry"`
	CDNProvider   string   `json:"cdnProvider" yaml:"cdnProvider"`
	Protocol      Protocol `json:"protocol" yaml:"protocol"`
	ContentClass  string   `json:"contentClass" yaml:"contentClass"`
	Intensity     int      `json:"intensity" yaml:"intensity"`

	Latency     *float64 `json:"latency,omitempty" yaml:"latency,omitempty"`
	Bandwidth   *float64 `json:"bandwidth,omitempty" yaml:"bandwidth,omitempty"`
	Reliability *float64 `json:"reliability,omitempty" yaml:"reliability,omitempty"`

	// Optional path detail used for criticality scoring.
	HopCount      *int     `json:"hopCount,omitempty" yaml:"hopCount,omitempty"`
	TrafficVolume *float64 `json:"trafficVolume,omitempty" yaml:"trafficVolume,omitempty"`
	Redundancy    *int     `json:"redundancy,omitempty" yaml:"redundancy,omitempty"`
}

// Validate checks the record invariants enforced at dataset load.
func (r Relation) Validate() error {
	if strings.TrimSpace(r.OriginCountry) == "" {
		return fmt.Errorf("relation %q: origin country is empty", r.ID)
	}
	if strings.TrimSpace(r.HostCountry) == "" {
		return fmt.Errorf("relation %q: host country is empty", r.ID)
	}
	if strings.TrimSpace(r.CDNProvider) == "" {
		return fmt.Errorf("relation %q: cdn provider is empty", r.ID)
	}
	if r.Intensity < 0 || r.Intensity > 100 {
		return fmt.Errorf("relation %q: intensity %d out of range [0, 100]", r.ID, r.Intensity)
	}
	if r.Reliability != nil && (*r.Reliability < 0 || *r.Reliability > 100) {
		return fmt.Errorf("relation %q: reliability %v out of range [0, 100]", r.ID, *r.Reliability)
	}
	return nil
}

// Touches reports whether code is either endpoint of r.
func (r Relation) Touches(code string) bool {
	return r.OriginCountry == code || r.HostCountry == code
}

// IsSelfLoop reports whether origin and host are the same country.
func (r Relation) IsSelfLoop() bool {
	return r.OriginCountry == r.HostCountry
}

// DirectionFrom classifies r relative to the selected country: dependency
// when the selected country is the origin, provision when it is the host.
// A self-loop is a dependency.  Unrelated relations yield "".
func (r Relation) DirectionFrom(selected string) Type {
	switch {
	case selected == "":
		return ""
	case r.OriginCountry == selected:
		return TypeDependency
	case r.HostCountry == selected:
		return TypeProvision
	}
	return ""
}
