package validate

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/riskfeed/georisk/internal/core/domain"
)

func newTestValidator(enabled bool) *Validator {
	logger := zerolog.Nop()

	return New(Config{
		Enabled:     enabled,
		Concurrency: 4,
		Timeout:     2 * time.Second,
		MaxURLs:     50,
	}, &logger)
}

func riskWithSources(name string, urls ...string) domain.Risk {
	r := domain.Risk{Name: name, Impact: 5}
	for _, u := range urls {
		r.Sources = append(r.Sources, domain.RiskSource{Name: "src", URL: u})
	}

	return r
}

func TestApplyDropsMalformedURLs(t *testing.T) {
	risks := []domain.Risk{
		riskWithSources("kept", "https://example.com/a", "not-a-url"),
		riskWithSources("dropped", "ftp://example.com/b", ""),
	}

	out := newTestValidator(false).Apply(context.Background(), risks)

	require.Len(t, out, 1)
	assert.Equal(t, "kept", out[0].Name)
	require.Len(t, out[0].Sources, 1)
	assert.Equal(t, "https://example.com/a", out[0].Sources[0].URL)
}

func TestApplyDisabledSkipsProbing(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	risks := []domain.Risk{riskWithSources("r", srv.URL)}

	out := newTestValidator(false).Apply(context.Background(), risks)

	require.Len(t, out, 1)
	assert.Equal(t, int32(0), hits.Load())
}

func TestApplyRemovesUnreachableSources(t *testing.T) {
	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer good.Close()

	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer bad.Close()

	risks := []domain.Risk{riskWithSources("r", bad.URL+"/gone", good.URL+"/ok")}

	out := newTestValidator(true).Apply(context.Background(), risks)

	require.Len(t, out, 1)
	require.Len(t, out[0].Sources, 1)
	assert.Equal(t, good.URL+"/ok", out[0].Sources[0].URL)
}

func TestApplyDropsRiskWithNoReachableSources(t *testing.T) {
	bad := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer bad.Close()

	good := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer good.Close()

	risks := []domain.Risk{
		riskWithSources("all dead", bad.URL),
		riskWithSources("alive", good.URL),
	}

	out := newTestValidator(true).Apply(context.Background(), risks)

	require.Len(t, out, 1)
	assert.Equal(t, "alive", out[0].Name)
}

func TestApplyFallsBackToGETOn405(t *testing.T) {
	var sawGet atomic.Bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		sawGet.Store(true)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	risks := []domain.Risk{riskWithSources("r", srv.URL)}

	out := newTestValidator(true).Apply(context.Background(), risks)

	require.Len(t, out, 1)
	assert.True(t, sawGet.Load())
}

func TestApplySkipsProbingAboveURLCeiling(t *testing.T) {
	var hits atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	logger := zerolog.Nop()
	v := New(Config{Enabled: true, Concurrency: 2, Timeout: time.Second, MaxURLs: 1}, &logger)

	risks := []domain.Risk{riskWithSources("r", srv.URL+"/a", srv.URL+"/b")}

	out := v.Apply(context.Background(), risks)

	require.Len(t, out, 1)
	assert.Len(t, out[0].Sources, 2)
	assert.Equal(t, int32(0), hits.Load())
}

func TestApplyRedirectCountsAsReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	redirecting := httptest.NewServer(http.RedirectHandler(srv.URL, http.StatusMovedPermanently))
	defer redirecting.Close()

	risks := []domain.Risk{riskWithSources("r", redirecting.URL)}

	out := newTestValidator(true).Apply(context.Background(), risks)

	require.Len(t, out, 1)
}
