package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/turtacn/CDNAtlas/internal/domain/country"
	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/domain/geo"
	"github.com/turtacn/CDNAtlas/internal/domain/relation"
)

func testDataset() *Dataset {
	return New(
		[]country.Country{
			{ID: "bra", Code: "BR", Name: "Brazil", Coordinates: geo.LngLat{Lng: -47.9, Lat: -15.8}},
			{ID: "US", Code: "US", Name: "United States", Coordinates: geo.LngLat{Lng: -95.7, Lat: 37.1}},
		},
		[]country.CDN{{ID: "Akamai", Scope: criticality.ScopeGlobal}},
		[]country.ContentClass{{ID: "News", Category: criticality.CategoryMedia}},
		nil,
		[]PairFactors{{Countries: [2]string{"US", "BR"}, Factors: criticality.GeopoliticalFactors{EconomicTies: 9}}},
	)
}

func TestDataset_Lookups(t *testing.T) {
	ds := testDataset()

	c, ok := ds.Country("BR")
	assert.True(t, ok)
	assert.Equal(t, "Brazil", c.Name)

	c, ok = ds.Country("bra")
	assert.True(t, ok)
	assert.Equal(t, "BR", c.Code)

	_, ok = ds.Country("ZZ")
	assert.False(t, ok)

	_, ok = ds.CDN("Akamai")
	assert.True(t, ok)
	_, ok = ds.CDN("Nope")
	assert.False(t, ok)

	cc, ok := ds.ContentClass("News")
	assert.True(t, ok)
	assert.Equal(t, criticality.CategoryMedia, cc.Category)
}

func TestDataset_GeopoliticsFor(t *testing.T) {
	ds := testDataset()
	assert.Equal(t, 9.0, ds.GeopoliticsFor("BR", "US").EconomicTies)
	assert.Equal(t, 9.0, ds.GeopoliticsFor("US", "BR").EconomicTies)
	assert.Equal(t, criticality.NeutralGeopolitics(), ds.GeopoliticsFor("BR", "DE"))
}

func TestDataset_CountryCodesAndCounts(t *testing.T) {
	ds := testDataset()
	assert.Equal(t, []string{"BR", "US"}, ds.CountryCodes())

	counts := ds.Counts()
	assert.Equal(t, 2, counts[KindCountries])
	assert.Equal(t, 0, counts[KindRelations])
	assert.Equal(t, 1, counts[KindGeopolitics])
}

func TestDataset_CountryIgnoresCase(t *testing.T) {
	ds := testDataset()

	c, ok := ds.Country("br")
	assert.True(t, ok)
	assert.Equal(t, "BR", c.Code)

	c, ok = ds.Country(" us ")
	assert.True(t, ok)
	assert.Equal(t, "US", c.Code)

	c, ok = ds.Country("BRA")
	assert.True(t, ok)
	assert.Equal(t, "BR", c.Code)

	_, ok = ds.Country("")
	assert.False(t, ok)
}

func TestNew_RewritesCountryIDsToCodes(t *testing.T) {
	in := []relation.Relation{
		{ID: "r1", OriginCountry: "bra", HostCountry: "US", CDNProvider: "Akamai", Intensity: 10},
		{ID: "r2", OriginCountry: "XX", HostCountry: "bra", CDNProvider: "Akamai", Intensity: 20},
	}
	ds := New(
		[]country.Country{
			{ID: "bra", Code: "BR", Name: "Brazil"},
			{ID: "US", Code: "US", Name: "United States"},
		},
		nil, nil, in,
		[]PairFactors{{Countries: [2]string{"bra", "US"}, Factors: criticality.GeopoliticalFactors{EconomicTies: 7}}},
	)

	assert.Equal(t, "BR", ds.Relations[0].OriginCountry)
	assert.Equal(t, "XX", ds.Relations[1].OriginCountry)
	assert.Equal(t, "BR", ds.Relations[1].HostCountry)
	assert.Equal(t, "bra", in[0].OriginCountry, "input slice is not modified")
	assert.Equal(t, 7.0, ds.GeopoliticsFor("BR", "US").EconomicTies)
}
