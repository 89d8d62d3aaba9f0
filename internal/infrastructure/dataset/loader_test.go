package dataset

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CDNAtlas/internal/domain/criticality"
	"github.com/turtacn/CDNAtlas/internal/testutil"
	apperrors "github.com/turtacn/CDNAtlas/pkg/errors"
)

const miniYAML = `
countries:
  - { id: DE, name: Germany, code: DE, coordinates: [10.4515, 51.1657], region: Europe }
  - { id: FR, name: France, code: FR, coordinates: [2.2137, 46.2276], region: Europe }
cdns:
  - { id: Akamai, name: Akamai, provider: Akamai, type: global }
contentClasses:
  - { id: News, name: news, category: media }
relations:
  - { id: r1, originCountry: DE, hostCountry: FR, cdnProvider: Akamai, protocol: { type: IPv4, version: "4" }, contentClass: News, intensity: 40 }
  - { originCountry: FR, hostCountry: DE, cdnProvider: Akamai, protocol: { type: IPv4, version: "4" }, contentClass: News, intensity: 60 }
geopolitics:
  - { countries: [FR, DE], economicTies: 10, culturalTies: 7, digitalMaturity: 9, regulations: 9 }
`

const miniJSON = `{
  "countries": [
    {"id": "BR", "name": "Brazil", "code": "BR", "coordinates": [-47.9292, -15.7801], "region": "South America"},
    {"id": "US", "name": "United States", "code": "US", "coordinates": [-95.7129, 37.0902], "region": "North America"}
  ],
  "cdns": [{"id": "Cloudflare", "name": "Cloudflare", "provider": "Cloudflare", "type": "global"}],
  "contentClasses": [{"id": "Entertainment", "name": "entertainment", "category": "entertainment"}],
  "relations": [
    {"id": "br-us", "originCountry": "BR", "hostCountry": "US", "cdnProvider": "Cloudflare",
     "protocol": {"type": "IPv4", "version": "4"}, "contentClass": "Entertainment", "intensity": 85,
     "latency": 120, "reliability": 99.2}
  ],
  "geopolitics": [{"countries": ["BR", "US"], "economicTies": 8, "culturalTies": 6, "digitalMaturity": 7, "regulations": 7}]
}`

func newTestLoader(strict bool) (*Loader, *testutil.MockLogger) {
	log := testutil.NewMockLogger()
	l := NewLoader(Options{Strict: strict}, log, nil)
	n := 0
	l.newID = func() string {
		n++
		return "generated-" + string(rune('0'+n))
	}
	return l, log
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDetectFormat(t *testing.T) {
	tests := []struct {
		path string
		data string
		want string
	}{
		{"data.json", "", FormatJSON},
		{"data.YAML", "{}", FormatYAML},
		{"data.yml", "", FormatYAML},
		{"data.txt", "  \n{\"countries\": []}", FormatJSON},
		{"data", "countries: []", FormatYAML},
		{"", "[]", FormatJSON},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectFormat(tt.path, []byte(tt.data)), "path=%q data=%q", tt.path, tt.data)
	}
}

func TestLoad_YAML(t *testing.T) {
	l, log := newTestLoader(true)
	ds, report, err := l.Load(context.Background(), writeFile(t, "atlas.yaml", miniYAML))
	require.NoError(t, err)

	assert.Equal(t, FormatYAML, report.Format)
	assert.Len(t, ds.Countries, 2)
	assert.Len(t, ds.Relations, 2)
	assert.Equal(t, 1, report.GeneratedIDs)
	assert.Equal(t, "generated-1", ds.Relations[1].ID)
	assert.Equal(t, 2, report.Loaded[KindRelations])

	de, ok := ds.Country("DE")
	require.True(t, ok)
	assert.InDelta(t, 51.1657, de.Position().Lat, 1e-9)
	assert.InDelta(t, 10.4515, de.Position().Lng, 1e-9)

	assert.True(t, log.HasMessage("info", "dataset loaded"))
}

func TestLoad_JSON(t *testing.T) {
	l, _ := newTestLoader(true)
	ds, report, err := l.Load(context.Background(), writeFile(t, "atlas.json", miniJSON))
	require.NoError(t, err)

	assert.Equal(t, FormatJSON, report.Format)
	require.Len(t, ds.Relations, 1)
	r := ds.Relations[0]
	require.NotNil(t, r.Latency)
	assert.Equal(t, 120.0, *r.Latency)
	assert.Nil(t, r.Bandwidth)

	g := ds.GeopoliticsFor("US", "BR")
	assert.Equal(t, criticality.GeopoliticalFactors{EconomicTies: 8, CulturalTies: 6, DigitalMaturity: 7, Regulations: 7}, g)
}

func TestLoad_ForcedFormatOverridesExtension(t *testing.T) {
	l := NewLoader(Options{Format: FormatJSON}, nil, nil)
	_, _, err := l.Load(context.Background(), writeFile(t, "atlas.yaml", miniJSON))
	require.NoError(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	l, _ := newTestLoader(false)
	_, _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDatasetUnreadable))
}

func TestLoad_Malformed(t *testing.T) {
	l, _ := newTestLoader(false)
	_, _, err := l.Load(context.Background(), writeFile(t, "broken.json", `{"countries": [`))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDatasetFormat))

	_, _, err = l.Load(context.Background(), writeFile(t, "broken.yaml", "countries: [unterminated"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDatasetFormat))
}

func TestLoad_UnsupportedFormat(t *testing.T) {
	l := NewLoader(Options{Format: "toml"}, nil, nil)
	_, _, err := l.Load(context.Background(), writeFile(t, "atlas.toml", "x = 1"))
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDatasetFormat))
}

func TestLoad_StrictRejectsUnknownFields(t *testing.T) {
	doc := miniYAML + "\nextra: true\n"
	strict, _ := newTestLoader(true)
	_, _, err := strict.Load(context.Background(), writeFile(t, "atlas.yaml", doc))
	require.Error(t, err)

	lenient, _ := newTestLoader(false)
	_, _, err = lenient.Load(context.Background(), writeFile(t, "atlas.yaml", doc))
	require.NoError(t, err)
}

const invalidRecords = `
countries:
  - { id: DE, name: Germany, code: DE, coordinates: [10.4515, 51.1657] }
  - { id: XX, name: Nowhere, code: XX, coordinates: [10.0, 120.0] }
  - { id: DE2, name: Germany again, code: DE, coordinates: [10.0, 50.0] }
  - { id: YY, name: Flat, code: YY, coordinates: [1.0] }
cdns:
  - { id: Akamai, name: Akamai, type: global }
  - { id: Weird, name: Weird, type: planetary }
contentClasses:
  - { id: News, name: news, category: media }
  - { id: Odd, name: odd, category: astrology }
relations:
  - { id: ok, originCountry: DE, hostCountry: DE, cdnProvider: Akamai, contentClass: News, intensity: 10 }
  - { id: hot, originCountry: DE, hostCountry: FR, cdnProvider: Akamai, contentClass: News, intensity: 140 }
  - { id: ok, originCountry: DE, hostCountry: FR, cdnProvider: Akamai, contentClass: News, intensity: 20 }
geopolitics:
  - { countries: [DE], economicTies: 1 }
  - { countries: [DE, FR], economicTies: 11 }
`

func TestLoad_LenientSkipsInvalidRecords(t *testing.T) {
	l, log := newTestLoader(false)
	ds, report, err := l.Load(context.Background(), writeFile(t, "atlas.yaml", invalidRecords))
	require.NoError(t, err)

	assert.Len(t, ds.Countries, 1)
	assert.Len(t, ds.CDNs, 1)
	assert.Len(t, ds.ContentClasses, 1)
	assert.Len(t, ds.Relations, 1)
	assert.Empty(t, ds.Geopolitics)
	assert.Len(t, report.Skipped, 9)

	kinds := map[string]int{}
	for _, s := range report.Skipped {
		kinds[s.Kind]++
		assert.NotEmpty(t, s.Reason)
	}
	assert.Equal(t, 3, kinds[KindCountries])
	assert.Equal(t, 2, kinds[KindRelations])
	assert.Equal(t, 2, kinds[KindGeopolitics])

	msg, ok := log.Find("warn", "skipping dataset record")
	require.True(t, ok)
	_, hasCode := msg.Field("error_code")
	assert.True(t, hasCode)
}

func TestLoad_StrictFailsOnFirstInvalidRecord(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code apperrors.ErrorCode
	}{
		{
			name: "out of range coordinate",
			doc:  "countries:\n  - { id: XX, code: XX, coordinates: [10.0, 120.0] }\n",
			code: apperrors.ErrCodeDatasetInvalidRecord,
		},
		{
			name: "duplicate country",
			doc: "countries:\n  - { id: DE, code: DE, coordinates: [10.0, 50.0] }\n" +
				"  - { id: DE, code: DE, coordinates: [10.0, 50.0] }\n",
			code: apperrors.ErrCodeDatasetDuplicateID,
		},
		{
			name: "intensity above range",
			doc:  "relations:\n  - { id: r, originCountry: A, hostCountry: B, cdnProvider: C, intensity: 101 }\n",
			code: apperrors.ErrCodeDatasetInvalidRecord,
		},
		{
			name: "duplicate relation",
			doc: "relations:\n  - { id: r, originCountry: A, hostCountry: B, cdnProvider: C, intensity: 1 }\n" +
				"  - { id: r, originCountry: A, hostCountry: B, cdnProvider: C, intensity: 2 }\n",
			code: apperrors.ErrCodeDatasetDuplicateID,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, log := newTestLoader(true)
			_, _, err := l.Load(context.Background(), writeFile(t, "atlas.yaml", tt.doc))
			require.Error(t, err)
			assert.True(t, apperrors.IsCode(err, tt.code), "got %v", err)
			assert.True(t, log.HasMessage("error", "dataset rejected"))
		})
	}
}

func TestLoad_EmptyDocument(t *testing.T) {
	l, _ := newTestLoader(true)
	ds, _, err := l.Load(context.Background(), writeFile(t, "empty.yaml", ""))
	require.NoError(t, err)
	assert.Empty(t, ds.Relations)
}

func TestLoad_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	l, _ := newTestLoader(false)
	_, _, err := l.Load(ctx, "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadReader(t *testing.T) {
	l, _ := newTestLoader(false)
	ds, report, err := l.LoadReader(context.Background(), strings.NewReader(miniJSON), FormatAuto)
	require.NoError(t, err)
	assert.Equal(t, FormatJSON, report.Format)
	assert.Len(t, ds.Countries, 2)
}

func TestLoadSample(t *testing.T) {
	ds, err := LoadSample(context.Background())
	require.NoError(t, err)

	assert.GreaterOrEqual(t, len(ds.Countries), 10)
	assert.GreaterOrEqual(t, len(ds.Relations), 20)

	// Every relation endpoint resolves and every CDN/class reference is known.
	for _, r := range ds.Relations {
		_, ok := ds.Country(r.OriginCountry)
		assert.True(t, ok, "origin %s of %s", r.OriginCountry, r.ID)
		_, ok = ds.Country(r.HostCountry)
		assert.True(t, ok, "host %s of %s", r.HostCountry, r.ID)
		_, ok = ds.CDN(r.CDNProvider)
		assert.True(t, ok, "cdn %s of %s", r.CDNProvider, r.ID)
		_, ok = ds.ContentClass(r.ContentClass)
		assert.True(t, ok, "class %s of %s", r.ContentClass, r.ID)
	}

	// The DE-FR pair carries three relations for the offset fan-out.
	n := 0
	for _, r := range ds.Relations {
		if r.Key() == "DE-FR" {
			n++
		}
	}
	assert.Equal(t, 3, n)
}

func TestSampleLoadsStrictly(t *testing.T) {
	l, _ := newTestLoader(true)
	_, report, err := l.Load(context.Background(), SampleSource)
	require.NoError(t, err)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, SampleSource, report.Source)
}
