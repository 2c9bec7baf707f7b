package withings

import (
	"net/http"
	"strings"

	"go.uber.org/zap"
)

// Option is a functional option for configuring the Client.
type Option func(*Client)

// WithHTTPClient sets the underlying HTTP client used for requests.
// If this is not provided, a default http.Client is used.
func WithHTTPClient(c *http.Client) Option {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithAccessToken stores a previously obtained access token and secret so
// resource calls can be made without running the OAuth handshake again.
func WithAccessToken(token, secret string) Option {
	return func(client *Client) {
		client.accessToken = token
		client.accessTokenSecret = secret
	}
}

// WithUserID sets the Withings user ID that scopes every resource call.
func WithUserID(userID string) Option {
	return func(client *Client) {
		client.userID = userID
	}
}

// WithBaseURL overrides the default Withings API base URL.
// This is primarily useful for testing or connecting to a proxy.
func WithBaseURL(url string) Option {
	return func(client *Client) {
		client.baseURL = strings.TrimRight(url, "/")
	}
}

// WithOAuthBaseURL overrides the host serving the request-token, authorize
// and access-token endpoints.
func WithOAuthBaseURL(url string) Option {
	return func(client *Client) {
		client.oauthBaseURL = strings.TrimRight(url, "/")
	}
}

// WithLogger sets the logger used for per-request debug output.
// Tokens and signatures are never logged.
func WithLogger(logger *zap.Logger) Option {
	return func(client *Client) {
		if logger != nil {
			client.logger = logger
		}
	}
}

// WithRateLimit enables client-side pacing at the given number of requests
// per minute. Withings documents a limit of DefaultRateLimit per minute.
// A value of zero or less disables pacing, which is the default.
func WithRateLimit(requestsPerMinute int) Option {
	return func(client *Client) {
		client.rateLimiter = newRateLimiter(requestsPerMinute)
	}
}
