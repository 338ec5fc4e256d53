package httpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetch_OKReadsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "v", r.Header.Get("X-Test"))
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := NewPerAttempt(0)
	resp, err := c.Fetch(context.Background(), http.MethodGet, srv.URL+"/x", map[string]string{"X-Test": "v"})
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/plain", resp.ContentType())
	require.Equal(t, "hello", string(resp.Body))
}

func TestFetch_Non2xxReturnsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusGone)
	}))
	defer srv.Close()

	resp, err := NewPerAttempt(0).Fetch(context.Background(), http.MethodGet, srv.URL, nil)
	require.Error(t, err)
	require.Equal(t, http.StatusGone, StatusOf(err))
	require.NotNil(t, resp)
	require.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestFetch_BodyLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	// nunca se devuelve un body recortado como éxito
	resp, err := NewPerAttempt(4).Fetch(context.Background(), http.MethodGet, srv.URL, nil)
	require.ErrorIs(t, err, ErrBodyTooLarge)
	require.Equal(t, 0, StatusOf(err))
	require.NotNil(t, resp)
	require.Empty(t, resp.Body)

	// justo en el límite pasa completo
	resp, err = NewPerAttempt(10).Fetch(context.Background(), http.MethodGet, srv.URL, nil)
	require.NoError(t, err)
	require.Equal(t, "0123456789", string(resp.Body))
}

func TestFetch_BodyLimitNon2xxKeepsHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("0123456789"))
	}))
	defer srv.Close()

	_, err := NewPerAttempt(4).Fetch(context.Background(), http.MethodGet, srv.URL, nil)
	require.Equal(t, http.StatusBadGateway, StatusOf(err))
	require.NotErrorIs(t, err, ErrBodyTooLarge)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestNewWithTransport_UsesInjectedTransport(t *testing.T) {
	var seen string
	c := NewWithTransport(0, roundTripFunc(func(r *http.Request) (*http.Response, error) {
		seen = r.URL.String()
		return &http.Response{
			StatusCode:    http.StatusOK,
			Header:        http.Header{"Content-Type": []string{"text/plain"}},
			Body:          io.NopCloser(strings.NewReader("fake")),
			ContentLength: 4,
			Request:       r,
		}, nil
	}))
	assert.Zero(t, c.HTTP.Timeout)

	resp, err := c.Fetch(context.Background(), http.MethodGet, "https://gw.example/ipfs/x", nil)
	require.NoError(t, err)
	assert.Equal(t, "https://gw.example/ipfs/x", seen)
	assert.Equal(t, "fake", string(resp.Body))

	assert.Equal(t, 5*time.Second, NewWithTransport(5*time.Second, nil).HTTP.Timeout)
}

func TestHead_NoBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodHead, r.Method)
		w.Header().Set("Content-Length", "42")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	resp, err := NewPerAttempt(0).Head(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	require.Empty(t, resp.Body)
	require.EqualValues(t, 42, resp.ContentLength)
}

func TestDoJSON_RelativeRequiresBaseURL(t *testing.T) {
	err := New(0).DoJSON(context.Background(), http.MethodGet, "/v1/x", nil, nil, nil)
	require.Error(t, err)
}

func TestDoJSON_DecodesWithBaseURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/x", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"count":2}`))
	}))
	defer srv.Close()

	c, err := NewWithBaseURL(srv.URL, 0)
	require.NoError(t, err)

	var out struct {
		Count int `json:"count"`
	}
	require.NoError(t, c.DoJSON(context.Background(), http.MethodGet, "v1/x", nil, nil, &out))
	require.Equal(t, 2, out.Count)
}
