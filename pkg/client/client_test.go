package client

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/CDNAtlas/pkg/errors"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	opts = append([]Option{WithRetryWait(time.Millisecond, 2*time.Millisecond)}, opts...)
	c, err := NewClient(server.URL, opts...)
	require.NoError(t, err)
	return c
}

type testLogger struct {
	count int32
}

func (l *testLogger) Debugf(format string, args ...interface{}) { atomic.AddInt32(&l.count, 1) }
func (l *testLogger) Infof(format string, args ...interface{})  { atomic.AddInt32(&l.count, 1) }
func (l *testLogger) Errorf(format string, args ...interface{}) { atomic.AddInt32(&l.count, 1) }

func TestNewClient(t *testing.T) {
	c, err := NewClient("http://localhost:8080/")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", c.baseURL)
	assert.Equal(t, 3, c.retryMax)
	assert.Equal(t, "cdnatlas-go-sdk/"+Version, c.userAgent)
	assert.Same(t, c.Atlas(), c.Atlas())

	for _, bad := range []string{"", "ftp://host", "://nope"} {
		_, err := NewClient(bad)
		assert.Error(t, err, bad)
		assert.True(t, errors.IsCode(err, errors.ErrCodeBadRequest), bad)
	}
}

func TestDo_SetsHeadersAndPrefix(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cdns", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		assert.Equal(t, "custom/1", r.Header.Get("User-Agent"))
		assert.NotEmpty(t, r.Header.Get("X-Request-Id"))
		assert.Empty(t, r.Header.Get("Content-Type"))
		fmt.Fprint(w, `{"cdns":[{"id":"Akamai"}],"total":1}`)
	}, WithUserAgent("custom/1"))

	cdns, err := c.Atlas().ListCDNs(context.Background())
	require.NoError(t, err)
	require.Len(t, cdns, 1)
	assert.Equal(t, "Akamai", cdns[0].ID)
}

func TestDo_RetriesServerErrors(t *testing.T) {
	var calls int32
	logger := &testLogger{}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"countries":[],"total":0}`)
	}, WithLogger(logger))

	_, err := c.Atlas().ListCountries(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Greater(t, atomic.LoadInt32(&logger.count), int32(0))
}

func TestDo_GivesUpAfterRetryMax(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"code":"COMMON_001","message":"internal server error"}`)
	}, WithRetryMax(1))

	_, err := c.Atlas().ListCDNs(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsServerError())
	assert.Equal(t, errors.ErrCodeInternal, apiErr.Code)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_ClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"code":"CTRY_001","message":"country not found","detail":"ZZ"}`)
	})

	_, err := c.Atlas().GetCountry(context.Background(), "ZZ", DefaultFilter())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsNotFound())
	assert.Equal(t, errors.ErrCodeCountryNotFound, apiErr.Code)
	assert.Equal(t, "ZZ", apiErr.Detail)
	assert.NotEmpty(t, apiErr.RequestID)
	assert.Contains(t, apiErr.Error(), "country not found: ZZ")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestDo_NonJSONErrorBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway says no", http.StatusBadRequest)
	})
	_, err := c.Atlas().ListCDNs(context.Background())
	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.True(t, apiErr.IsBadRequest())
	assert.Equal(t, "gateway says no", apiErr.Message)
}

func TestDo_RateLimitedThenOK(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"cdns":[],"total":0}`)
	})
	_, err := c.Atlas().ListCDNs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestDo_ContextCancelled(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}, WithRetryWait(time.Second, time.Second))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Atlas().ListCDNs(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestDo_PostsJSONBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, _ := io.ReadAll(r.Body)
		assert.Contains(t, string(body), `"scope":"global"`)
		fmt.Fprint(w, `{"breakdown":{"total":42.5,"level":"medium"},"color":"#ffff00"}`)
	})

	score, err := c.Atlas().Score(context.Background(), CriticalityInput{Scope: "global"})
	require.NoError(t, err)
	assert.Equal(t, 42.5, score.Breakdown.Total)
	assert.Equal(t, "medium", score.Breakdown.Level)
}

func TestCalculateBackoff(t *testing.T) {
	c := &Client{retryWaitMin: 100 * time.Millisecond, retryWaitMax: 300 * time.Millisecond}
	for attempt, base := range map[int]time.Duration{1: 100 * time.Millisecond, 2: 200 * time.Millisecond, 3: 300 * time.Millisecond, 10: 300 * time.Millisecond} {
		got := c.calculateBackoff(attempt)
		assert.GreaterOrEqual(t, got, base, "attempt %d", attempt)
		assert.Less(t, got, base+base/4+1, "attempt %d", attempt)
	}
}

func TestOptions(t *testing.T) {
	hc := &http.Client{Timeout: time.Second}
	c, err := NewClient("https://atlas.example.com",
		WithHTTPClient(hc),
		WithRetryMax(-1),
		WithRetryWait(2*time.Second, time.Second),
		WithUserAgent(""),
		WithLogger(nil),
	)
	require.NoError(t, err)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, 3, c.retryMax)
	assert.Equal(t, 2*time.Second, c.retryWaitMin)
	assert.Equal(t, 5*time.Second, c.retryWaitMax)
	assert.Equal(t, "cdnatlas-go-sdk/"+Version, c.userAgent)
	assert.NotNil(t, c.logger)

	c, err = NewClient("https://atlas.example.com", WithRetryMax(0), WithHTTPClient(nil))
	require.NoError(t, err)
	assert.Equal(t, 0, c.retryMax)
	assert.NotNil(t, c.httpClient)
}
