package withings

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

const (
	testConsumerKey    = "ckey"
	testConsumerSecret = "csecret"
	testCallbackURL    = "http://example.com/cb"

	testRequestToken       = "rtoken"
	testRequestTokenSecret = "rsecret"
	testVerifier           = "verifier1"

	testAccessToken       = "atoken"
	testAccessTokenSecret = "asecret"
	testUserID            = "42"
)

var testCreds = Credentials{
	ConsumerKey:    testConsumerKey,
	ConsumerSecret: testConsumerSecret,
	CallbackURL:    testCallbackURL,
}

// verifySignature recomputes the OAuth signature of r as the server would.
func verifySignature(t *testing.T, r *http.Request, tokenSecret string) {
	t.Helper()

	q := r.URL.Query()
	got := q.Get("oauth_signature")
	q.Del("oauth_signature")

	base := r.Method + "&" + percentEncode("http://"+r.Host+r.URL.Path) + "&" + percentEncode(canonicalQuery(q))
	s := &signer{consumerSecret: testConsumerSecret}
	if want := s.sign(base, tokenSecret); got != want {
		t.Errorf("signature mismatch for %s %s: got %q, want %q", r.Method, r.URL.Path, got, want)
	}
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// newMockServer creates an httptest.Server configured to respond dynamically
// to the Withings OAuth and API routes with literal mock payloads.
func newMockServer(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()

	// 1. OAuth - request token
	mux.HandleFunc("/account/request_token", func(w http.ResponseWriter, r *http.Request) {
		verifySignature(t, r, "")
		q := r.URL.Query()
		if q.Get("oauth_callback") != testCallbackURL {
			t.Errorf("expected oauth_callback %q, got %q", testCallbackURL, q.Get("oauth_callback"))
		}
		if q.Get("oauth_token") != "" {
			t.Errorf("request token leg must not carry oauth_token, got %q", q.Get("oauth_token"))
		}
		_, _ = w.Write([]byte("oauth_token=" + testRequestToken + "&oauth_token_secret=" + testRequestTokenSecret))
	})

	// 2. OAuth - access token
	mux.HandleFunc("/account/access_token", func(w http.ResponseWriter, r *http.Request) {
		verifySignature(t, r, testRequestTokenSecret)
		q := r.URL.Query()
		if q.Get("oauth_token") != testRequestToken || q.Get("oauth_verifier") != testVerifier {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte("invalid verifier"))
			return
		}
		_, _ = w.Write([]byte("oauth_token=" + testAccessToken + "&oauth_token_secret=" + testAccessTokenSecret + "&userid=" + testUserID + "&deviceid=0"))
	})

	// 3. Activity (versioned path)
	mux.HandleFunc("/v2/measure", func(w http.ResponseWriter, r *http.Request) {
		verifySignature(t, r, testAccessTokenSecret)
		q := r.URL.Query()
		if q.Get("action") != "getactivity" {
			t.Errorf("unexpected action on /v2/measure: %s", q.Get("action"))
		}
		switch q.Get("date") {
		case "2024-01-01":
			writeJSON(w, `{
				"status": 0,
				"body": {
					"date": "2024-01-01",
					"timezone": "Europe/Paris",
					"steps": "5000",
					"distance": 3800.5,
					"elevation": 12,
					"soft": 3600,
					"moderate": 1200,
					"intense": 300,
					"active": 1500,
					"calories": 345.5,
					"totalcalories": 2210.25,
					"hr_average": 72,
					"brand": 18,
					"is_tracker": true
				}
			}`)
		case "2024-01-02":
			writeJSON(w, `{"status": 2555, "error": "An unknown error occurred"}`)
		case "2024-01-03":
			writeJSON(w, `{"status": 601, "error": "Too many requests"}`)
		case "2024-01-04":
			writeJSON(w, `{"status": 342, "error": "The signature does not match"}`)
		default:
			writeJSON(w, `{"status": 0, "body": {}}`)
		}
	})

	// 4. Measures (legacy unversioned path)
	mux.HandleFunc("/measure", func(w http.ResponseWriter, r *http.Request) {
		verifySignature(t, r, testAccessTokenSecret)
		q := r.URL.Query()
		if q.Get("action") != "getmeas" {
			t.Errorf("unexpected action on /measure: %s", q.Get("action"))
		}
		switch q.Get("meastype") {
		case "1":
			writeJSON(w, `{
				"status": 0,
				"body": {
					"updatetime": 1704067200,
					"timezone": "Europe/Paris",
					"measuregrps": [
						{"grpid": 1001, "attrib": 0, "date": 1704067200, "created": 1704067300, "category": 1,
						 "measures": [{"value": 72345, "type": 1, "unit": -3}]}
					]
				}
			}`)
		case "11":
			writeJSON(w, `{
				"status": 0,
				"body": {
					"updatetime": 1704067200,
					"timezone": "Europe/Paris",
					"measuregrps": [
						{"grpid": 2001, "attrib": 0, "date": 1704067200, "created": 1704067300, "category": 1,
						 "measures": [{"value": 64, "type": 11, "unit": 0}]}
					]
				}
			}`)
		default:
			if q.Get("offset") == "" {
				writeJSON(w, `{
					"status": 0,
					"body": {
						"updatetime": 1704067200,
						"measuregrps": [{"grpid": 1, "date": 1704067200, "category": 1, "measures": [{"value": 70, "type": 1, "unit": 0}]}],
						"more": 1,
						"offset": 1
					}
				}`)
			} else if q.Get("offset") == "1" {
				writeJSON(w, `{
					"status": 0,
					"body": {
						"updatetime": 1704067200,
						"measuregrps": [{"grpid": 2, "date": 1704153600, "category": 1, "measures": [{"value": 71, "type": 1, "unit": 0}]}],
						"more": 0,
						"offset": 0
					}
				}`)
			} else {
				t.Errorf("unexpected offset requested: %s", q.Get("offset"))
			}
		}
	})

	// 5. Sleep summary
	mux.HandleFunc("/v2/sleep", func(w http.ResponseWriter, r *http.Request) {
		verifySignature(t, r, testAccessTokenSecret)
		writeJSON(w, `{
			"status": 0,
			"body": {
				"series": [
					{
						"id": 987,
						"timezone": "Europe/Paris",
						"model": 32,
						"startdate": 1704060000,
						"enddate": 1704088800,
						"date": "2024-01-01",
						"created": 1704090000,
						"modified": 1704090000,
						"data": {
							"wakeupduration": 1200,
							"lightsleepduration": 14400,
							"deepsleepduration": 7200,
							"remsleepduration": 5400,
							"wakeupcount": 2,
							"durationtosleep": 600,
							"hr_average": 58,
							"sleep_score": 81
						}
					}
				],
				"more": false,
				"offset": 0
			}
		}`)
	})

	// 6. Notifications
	mux.HandleFunc("/v2/notify", func(w http.ResponseWriter, r *http.Request) {
		verifySignature(t, r, testAccessTokenSecret)
		q := r.URL.Query()
		switch q.Get("action") {
		case "subscribe":
			if r.Method != http.MethodPost {
				t.Errorf("expected POST for subscribe, got %s", r.Method)
			}
			writeJSON(w, `{"status": 0}`)
		case "get":
			writeJSON(w, `{"status": 0, "body": {"callbackurl": "`+q.Get("callbackurl")+`", "comment": "weight feed", "expires": 2147483647}}`)
		case "list":
			if q.Get("appli") == "44" {
				writeJSON(w, `{"status": 0, "body": {"profiles": []}}`)
				return
			}
			writeJSON(w, `{"status": 0, "body": {"profiles": [
				{"callbackurl": "https://example.com/notify", "comment": "weight feed", "appli": 1, "expires": 2147483647},
				{"callbackurl": "https://example.com/notify", "comment": "heart feed", "appli": 4, "expires": 2147483647}
			]}}`)
		case "revoke":
			writeJSON(w, `{"status": 0}`)
		default:
			t.Errorf("unexpected notify action %q", q.Get("action"))
		}
	})

	// 7. Rate Limit Explicit Mock (always 429)
	mux.HandleFunc("/429-generator", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "Too Many Requests"}`))
	})

	// 8. Broken Endpoint Mock (Auth Error)
	mux.HandleFunc("/403-generator", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error": "Forbidden"}`))
	})

	// 9. Context Cancellation Delay Mock
	mux.HandleFunc("/delay", func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	return httptest.NewServer(mux)
}

// newMockClient builds an authenticated client connected directly to the
// mock server.
func newMockClient(t *testing.T, ts *httptest.Server, opts ...Option) *Client {
	t.Helper()

	defaultOpts := []Option{
		WithBaseURL(ts.URL),
		WithOAuthBaseURL(ts.URL + "/account"),
		WithAccessToken(testAccessToken, testAccessTokenSecret),
		WithUserID(testUserID),
	}
	defaultOpts = append(defaultOpts, opts...)

	client, err := NewClient(testCreds, defaultOpts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return client
}
