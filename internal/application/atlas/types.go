package atlas

import (
	"github.com/turtacn/CDNAtlas/internal/domain/country"
	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/geo"
	"github.com/turtacn/CDNAtlas/internal/domain/relation"
)

// LayerInput selects which relations a view covers.
type LayerInput struct {
	Filter relation.FilterSpec `json:"filter"`
	// Selected is the country clicked on the map, by code or ID; empty when
	// none is selected.
	Selected string `json:"selected,omitempty"`
}

// NewLayerInput returns an input that keeps every relation.
func NewLayerInput() *LayerInput {
	return &LayerInput{Filter: relation.DefaultFilterSpec()}
}

// Arc is one relation drawn on the map.
type Arc struct {
	RelationID string  `json:"relationId"`
	Origin     string  `json:"origin"`
	Host       string  `json:"host"`
	PairKey    string  `json:"pairKey"`
	Offset     float64 `json:"offset"`

	Points  []geo.LatLng `json:"points"`
	Color   string       `json:"color"`
	Weight  float64      `json:"weight"`
	Opacity float64      `json:"opacity"`

	Direction relation.Type `json:"direction,omitempty"`

	// Tooltip
	OriginName   string                `json:"originName"`
	HostName     string                `json:"hostName"`
	CDNProvider  string                `json:"cdnProvider"`
	CDNName      string                `json:"cdnName"`
	ContentClass string                `json:"contentClass"`
	Protocol     relation.ProtocolType `json:"protocol"`
	Intensity    int                   `json:"intensity"`

	Criticality      float64 `json:"criticality"`
	CriticalityLevel string  `json:"criticalityLevel"`
	CriticalityColor string  `json:"criticalityColor"`
}

// Layer is the full arc layer for one filter state.
type Layer struct {
	Selected  string `json:"selected,omitempty"`
	Arcs      []Arc  `json:"arcs"`
	Pairs     int    `json:"pairs"`
	Relations int    `json:"relations"`
	// Skipped counts relations whose origin or host is not in the dataset.
	Skipped int  `json:"skipped"`
	Cached  bool `json:"cached"`
}

// RelationView is a relation with its display names resolved.
type RelationView struct {
	relation.Relation
	Direction        relation.Type `json:"direction,omitempty"`
	OriginName       string        `json:"originName"`
	HostName         string        `json:"hostName"`
	CDNName          string        `json:"cdnName"`
	ContentClassName string        `json:"contentClassName"`
}

// RelationList is a filtered relation listing.
type RelationList struct {
	Relations []RelationView `json:"relations"`
	Total     int            `json:"total"`
}

// ClassCount is the number of relations in one content class.
type ClassCount struct {
	ContentClass string `json:"contentClass"`
	Name         string `json:"name"`
	Count        int    `json:"count"`
}

// CountryDetail is the side panel shown for a selected country.
type CountryDetail struct {
	Country          country.Country `json:"country"`
	Dependencies     int             `json:"dependencies"`
	Provisions       int             `json:"provisions"`
	Total            int             `json:"total"`
	AverageIntensity int             `json:"averageIntensity"`
	ContentClasses   []ClassCount    `json:"contentClasses"`
	Relations        []RelationView  `json:"relations"`
}

// MapStats summarises the relations currently on the map.
type MapStats struct {
	Selected         string `json:"selected,omitempty"`
	TotalRelations   int    `json:"totalRelations"`
	AverageIntensity int    `json:"averageIntensity"`
	Dependencies     int    `json:"dependencies"`
	Provisions       int    `json:"provisions"`
	// ActiveCountries maps each country code with at least one visible
	// relation to its relation count.
	ActiveCountries map[string]int `json:"activeCountries"`
}

// CountryCount ranks a country by relation count.
type CountryCount struct {
	Code  string `json:"code"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

// Analytics is the dataset-wide breakdown shown on the analytics page.
type Analytics struct {
	TotalRelations     int            `json:"totalRelations"`
	AverageIntensity   int            `json:"averageIntensity"`
	Protocols          map[string]int `json:"protocols"`
	ContentClasses     map[string]int `json:"contentClasses"`
	TopDependents      []CountryCount `json:"topDependents"`
	TopProviders       []CountryCount `json:"topProviders"`
	CriticalityLevels  map[string]int `json:"criticalityLevels"`
	AverageCriticality float64        `json:"averageCriticality"`
}

// RelationScore is the criticality of one dataset relation with the inputs
// that produced it.
type RelationScore struct {
	RelationID string                `json:"relationId"`
	Input      criticality.Input     `json:"input"`
	Breakdown  criticality.Breakdown `json:"breakdown"`
	Color      string                `json:"color"`
}
