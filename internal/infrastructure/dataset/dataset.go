// Package dataset loads the static reference data CDNAtlas serves: the
// countries drawn on the map, the CDN providers, the content classes, the
// directed relations between countries and the optional pair geopolitics
// used for criticality scoring.
//
// A Dataset is immutable after Load returns and is safe for concurrent
// readers.
package dataset

import (
	"sort"
	"strings"

	"github.com/turtacn/CDNAtlas/internal/domain/country"
	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/relation"
)

// PairFactors attaches geopolitical factors to an unordered country pair.
type PairFactors struct {
	Countries [2]string                       `json:"countries"`
	Factors   criticality.GeopoliticalFactors `json:"factors"`
}

// Dataset is the validated, indexed reference data.
type Dataset struct {
	Countries      []country.Country
	CDNs           []country.CDN
	ContentClasses []country.ContentClass
	Relations      []relation.Relation
	Geopolitics    []PairFactors

	countryIdx map[string]int
	foldIdx    map[string]int
	cdnIdx     map[string]int
	classIdx   map[string]int
	pairIdx    map[string]criticality.GeopoliticalFactors
}

// New indexes already-validated records.  Countries are reachable by both
// code and ID, case-insensitively.  Relation endpoints and geopolitics pairs
// that name a country by ID are rewritten to its code, so every downstream
// comparison works on codes.
func New(countries []country.Country, cdns []country.CDN, classes []country.ContentClass,
	relations []relation.Relation, geopolitics []PairFactors) *Dataset {
	d := &Dataset{
		Countries:      countries,
		CDNs:           cdns,
		ContentClasses: classes,
		countryIdx:     make(map[string]int, len(countries)*2),
		foldIdx:        make(map[string]int, len(countries)*2),
		cdnIdx:         make(map[string]int, len(cdns)),
		classIdx:       make(map[string]int, len(classes)),
		pairIdx:        make(map[string]criticality.GeopoliticalFactors, len(geopolitics)),
	}
	for i, c := range countries {
		d.countryIdx[c.Code] = i
		d.foldIdx[foldCode(c.Code)] = i
	}
	for i, c := range countries {
		if c.ID == "" {
			continue
		}
		if _, taken := d.countryIdx[c.ID]; !taken {
			d.countryIdx[c.ID] = i
		}
		if _, taken := d.foldIdx[foldCode(c.ID)]; !taken {
			d.foldIdx[foldCode(c.ID)] = i
		}
	}

	if relations != nil {
		d.Relations = make([]relation.Relation, len(relations))
		for i, r := range relations {
			r.OriginCountry = d.canonicalCode(r.OriginCountry)
			r.HostCountry = d.canonicalCode(r.HostCountry)
			d.Relations[i] = r
		}
	}
	if geopolitics != nil {
		d.Geopolitics = make([]PairFactors, len(geopolitics))
		for i, p := range geopolitics {
			p.Countries = [2]string{d.canonicalCode(p.Countries[0]), d.canonicalCode(p.Countries[1])}
			d.Geopolitics[i] = p
		}
	}
	for i, c := range cdns {
		d.cdnIdx[c.ID] = i
	}
	for i, c := range classes {
		d.classIdx[c.ID] = i
	}
	for _, p := range d.Geopolitics {
		d.pairIdx[relation.PairKey(p.Countries[0], p.Countries[1])] = p.Factors
	}
	return d
}

// Country resolves a country by code or ID.  An exact match wins; otherwise
// the lookup ignores case and surrounding space, so "br" finds "BR".
func (d *Dataset) Country(code string) (country.Country, bool) {
	i, ok := d.countryIdx[code]
	if !ok {
		if i, ok = d.foldIdx[foldCode(code)]; !ok {
			return country.Country{}, false
		}
	}
	return d.Countries[i], true
}

// canonicalCode maps a code or ID to the country's code, leaving unknown
// references untouched so callers can report them.
func (d *Dataset) canonicalCode(ref string) string {
	if c, ok := d.Country(ref); ok {
		return c.Code
	}
	return ref
}

func foldCode(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CDN resolves a CDN provider by ID.
func (d *Dataset) CDN(id string) (country.CDN, bool) {
	i, ok := d.cdnIdx[id]
	if !ok {
		return country.CDN{}, false
	}
	return d.CDNs[i], true
}

// ContentClass resolves a content class by ID.
func (d *Dataset) ContentClass(id string) (country.ContentClass, bool) {
	i, ok := d.classIdx[id]
	if !ok {
		return country.ContentClass{}, false
	}
	return d.ContentClasses[i], true
}

// GeopoliticsFor returns the factors recorded for the unordered pair (a, b),
// or neutral factors when the pair is unknown.
func (d *Dataset) GeopoliticsFor(a, b string) criticality.GeopoliticalFactors {
	if g, ok := d.pairIdx[relation.PairKey(a, b)]; ok {
		return g
	}
	return criticality.NeutralGeopolitics()
}

// CountryCodes returns every country code in ascending order.
func (d *Dataset) CountryCodes() []string {
	codes := make([]string, 0, len(d.Countries))
	for _, c := range d.Countries {
		codes = append(codes, c.Code)
	}
	sort.Strings(codes)
	return codes
}

// Counts reports record totals by kind, as exported on the dataset_records
// gauge.
func (d *Dataset) Counts() map[string]int {
	return map[string]int{
		KindCountries:      len(d.Countries),
		KindCDNs:           len(d.CDNs),
		KindContentClasses: len(d.ContentClasses),
		KindRelations:      len(d.Relations),
		KindGeopolitics:    len(d.Geopolitics),
	}
}

// Record kinds used in metrics and load reports.
const (
	KindCountries      = "countries"
	KindCDNs           = "cdns"
	KindContentClasses = "content_classes"
	KindRelations      = "relations"
	KindGeopolitics    = "geopolitics"
)
