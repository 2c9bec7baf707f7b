package main

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arvarik/withings-go/withings"
)

func newOAuthServer(t *testing.T, body string) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/access_token" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("oauth_verifier") != "v1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
}

func newTestClient(t *testing.T, ts *httptest.Server) *withings.Client {
	t.Helper()

	client, err := withings.NewClient(
		withings.Credentials{ConsumerKey: "ckey", ConsumerSecret: "csecret", CallbackURL: "http://localhost:8081/callback"},
		withings.WithOAuthBaseURL(ts.URL),
	)
	require.NoError(t, err)
	return client
}

func TestCallback_Success(t *testing.T) {
	ts := newOAuthServer(t, "oauth_token=atoken&oauth_token_secret=asecret")
	defer ts.Close()

	results := make(chan authResult, 1)
	rt := &withings.RequestToken{Token: "rtoken", Secret: "rsecret"}
	h := newRouter("/callback", newTestClient(t, ts), rt, results)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?oauth_token=rtoken&oauth_verifier=v1&userid=42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	res := <-results
	require.NoError(t, res.err)
	assert.Equal(t, "atoken", res.token.Token)
	assert.Equal(t, "asecret", res.token.Secret)
	assert.Equal(t, "42", res.token.UserID, "userid falls back to the redirect query")
}

func TestCallback_Rejects(t *testing.T) {
	ts := newOAuthServer(t, "oauth_token=atoken&oauth_token_secret=asecret")
	defer ts.Close()

	rt := &withings.RequestToken{Token: "rtoken", Secret: "rsecret"}

	tests := []struct {
		name   string
		query  url.Values
		status int
		result bool
	}{
		{"wrong token", url.Values{"oauth_token": {"other"}, "oauth_verifier": {"v1"}}, http.StatusBadRequest, false},
		{"missing verifier", url.Values{"oauth_token": {"rtoken"}}, http.StatusBadRequest, false},
		{"exchange failure", url.Values{"oauth_token": {"rtoken"}, "oauth_verifier": {"bad"}}, http.StatusBadGateway, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			results := make(chan authResult, 1)
			h := newRouter("/callback", newTestClient(t, ts), rt, results)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?"+tt.query.Encode(), nil))

			assert.Equal(t, tt.status, rec.Code)
			if tt.result {
				require.Len(t, results, 1)
				assert.Error(t, (<-results).err)
			} else {
				assert.Len(t, results, 0)
			}
		})
	}
}

func TestCallbackPort(t *testing.T) {
	for raw, want := range map[string]string{
		"http://localhost:8081/callback": "8081",
		"http://localhost/callback":      "80",
		"https://example.com/callback":   "443",
	} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, callbackPort(u), raw)
	}
}

func TestCallbackPath(t *testing.T) {
	for raw, want := range map[string]string{
		"http://localhost:8081":          "/",
		"http://localhost:8081/":         "/",
		"http://localhost:8081/callback": "/callback",
	} {
		u, err := url.Parse(raw)
		require.NoError(t, err)
		assert.Equal(t, want, callbackPath(u), raw)
	}
}

func TestCallback_RootPath(t *testing.T) {
	ts := newOAuthServer(t, "oauth_token=atoken&oauth_token_secret=asecret&userid=42")
	defer ts.Close()

	u, err := url.Parse("http://localhost:8081")
	require.NoError(t, err)

	results := make(chan authResult, 1)
	rt := &withings.RequestToken{Token: "rtoken", Secret: "rsecret"}

	var h http.Handler
	require.NotPanics(t, func() {
		h = newRouter(callbackPath(u), newTestClient(t, ts), rt, results)
	})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/?oauth_token=rtoken&oauth_verifier=v1", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	res := <-results
	require.NoError(t, res.err)
	assert.Equal(t, "42", res.token.UserID)
}
