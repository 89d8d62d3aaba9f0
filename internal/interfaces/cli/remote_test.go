package cli

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CDNAtlas/internal/app"
	"github.com/turtacn/CDNAtlas/internal/application/atlas"
	"github.com/turtacn/CDNAtlas/internal/config"
	"github.com/turtacn/CDNAtlas/internal/infrastructure/dataset"
	"github.com/turtacn/CDNAtlas/pkg/client"
)

func apiServer(t *testing.T) string {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Dataset.Path = dataset.SampleSource
	cfg.Cache.Backend = "memory"
	cfg.Metrics.Enabled = false
	cfg.Tracing.Enabled = false

	a, err := app.New(context.Background(), cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close(context.Background()) })

	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestRemote_MatchesLocal(t *testing.T) {
	url := apiServer(t)

	local, err := run(t, "-o", "json", "stats", "--selected", "BR", "--cdn", "Akamai")
	require.NoError(t, err)
	remote, err := run(t, "--server", url, "-o", "json", "stats", "--selected", "BR", "--cdn", "Akamai")
	require.NoError(t, err)

	var l, r atlas.MapStats
	require.NoError(t, json.Unmarshal([]byte(local), &l))
	require.NoError(t, json.Unmarshal([]byte(remote), &r))
	assert.Equal(t, l, r)

	out, err := run(t, append([]string{"--server", url, "-o", "json"}, streamingArgs...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"total"`)
}

func TestRemote_ErrorsSurface(t *testing.T) {
	url := apiServer(t)
	_, err := run(t, "--server", url, "country", "ZZ")
	var apiErr *client.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.True(t, apiErr.IsNotFound())

	_, err = run(t, "--server", "ftp://nowhere", "stats")
	assert.Error(t, err)
}

func TestRemoteService_Ready(t *testing.T) {
	svc, err := newRemoteService(apiServer(t))
	require.NoError(t, err)
	assert.NoError(t, svc.Ready(context.Background()))

	countries, err := svc.ListCountries(context.Background())
	require.NoError(t, err)
	assert.Len(t, countries, 16)

	layer, err := svc.Layer(context.Background(), nil)
	require.NoError(t, err)
	assert.NotEmpty(t, layer.Arcs)
}
