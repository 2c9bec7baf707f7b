package withings

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	defaultBaseURL = "https://wbsapi.withings.net"
	userAgent      = "withings-go/1.0"

	// actionGetMeas is served from the legacy unversioned path.
	actionGetMeas = "getmeas"
)

// userScopedServices lists the services whose actions all require a user ID.
var userScopedServices = map[string]bool{
	"measure": true,
	"sleep":   true,
	"notify":  true,
}

// Credentials identify the consumer application. They are fixed for the
// lifetime of a Client.
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
	CallbackURL    string
}

// Client is the core Withings API client.
//
// A Client is safe for concurrent use. The session fields (access token,
// secret, user ID) are read once per call, so a call in flight is not
// affected by a concurrent AccessToken exchange.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	oauthBaseURL string
	logger       *zap.Logger

	rateLimiter *rateLimiter

	creds  Credentials
	signer *signer

	mu                sync.RWMutex
	accessToken       string
	accessTokenSecret string
	userID            string

	// Services used for communicating with the Withings API endpoints.
	Measure *MeasureService
	Sleep   *SleepService
	Notify  *NotifyService
}

// NewClient creates a new Withings API client for the given consumer
// credentials. Pass WithAccessToken and WithUserID to resume an existing
// session without a new OAuth handshake.
func NewClient(creds Credentials, opts ...Option) (*Client, error) {
	if creds.ConsumerKey == "" || creds.ConsumerSecret == "" {
		return nil, ErrMissingCredentials
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      defaultBaseURL,
		oauthBaseURL: defaultOAuthBaseURL,
		logger:       zap.NewNop(),
		creds:        creds,
		signer:       newSigner(creds.ConsumerKey, creds.ConsumerSecret),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.Measure = &MeasureService{client: c}
	c.Sleep = &SleepService{client: c}
	c.Notify = &NotifyService{client: c}

	return c, nil
}

// SetAccessToken replaces the stored access token and secret.
func (c *Client) SetAccessToken(token, secret string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
	c.accessTokenSecret = secret
}

// SetUserID replaces the stored user ID.
func (c *Client) SetUserID(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = userID
}

// setSession stores a new token pair and, when non-empty, the user ID in
// one step so no call observes the token without its user.
func (c *Client) setSession(token, secret, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accessToken = token
	c.accessTokenSecret = secret
	if userID != "" {
		c.userID = userID
	}
}

// UserID returns the user ID resource calls are scoped to.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// session is a consistent snapshot of the credential fields used by one call.
type session struct {
	token       string
	tokenSecret string
	userID      string
}

func (c *Client) session() session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return session{
		token:       c.accessToken,
		tokenSecret: c.accessTokenSecret,
		userID:      c.userID,
	}
}

// String implements fmt.Stringer, keeping secrets out of logs and panics.
func (c *Client) String() string {
	s := c.session()
	return fmt.Sprintf("&{baseURL:%s consumerKey:%s consumerSecret:<REDACTED> accessToken:%s accessTokenSecret:<REDACTED> userID:%s}",
		c.baseURL, c.creds.ConsumerKey, redacted(s.token), s.userID)
}

// GoString implements fmt.GoStringer so %#v is redacted as well.
func (c *Client) GoString() string {
	return c.String()
}

func redacted(v string) string {
	if v == "" {
		return ""
	}
	return "<REDACTED>"
}

// Get performs a signed GET for action on service. A nil params is
// equivalent to an empty one; params is never modified.
func (c *Client) Get(ctx context.Context, service, action string, params url.Values) (*Envelope, error) {
	return c.call(ctx, http.MethodGet, service, action, params)
}

// Post performs a signed POST for action on service. A nil params is
// equivalent to an empty one; params is never modified.
func (c *Client) Post(ctx context.Context, service, action string, params url.Values) (*Envelope, error) {
	return c.call(ctx, http.MethodPost, service, action, params)
}

// resourceURL returns the endpoint for action on service. getmeas is still
// served from the unversioned path while every other action lives under /v2.
func (c *Client) resourceURL(service, action string) string {
	if action == actionGetMeas {
		return c.baseURL + "/" + service
	}
	return c.baseURL + "/v2/" + service
}

func (c *Client) call(ctx context.Context, method, service, action string, params url.Values) (*Envelope, error) {
	s := c.session()
	if s.token == "" || s.tokenSecret == "" {
		return nil, ErrNotAuthenticated
	}
	if userScopedServices[service] && s.userID == "" {
		return nil, ErrMissingUserContext
	}

	q := make(url.Values, len(params)+2)
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	q.Set("action", action)
	if s.userID != "" {
		q.Set("userid", s.userID)
	}

	signed := c.signer.signURL(method, c.resourceURL(service, action), q, s.token, s.tokenSecret)

	req, err := http.NewRequest(method, signed, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	c.logger.Debug("withings request",
		zap.String("method", method),
		zap.String("service", service),
		zap.String("action", action),
		zap.Int("http_status", resp.StatusCode),
	)

	return decodeEnvelope(resp)
}

// Do executes an HTTP request with context, pacing and standard headers.
// Transport errors are returned exactly as the underlying http.Client
// produced them; HTTP statuses of 400 and above become typed errors.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}

	// Handle standard HTTP errors (4xx, 5xx).
	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, mapHTTPError(resp, body)
	}

	return resp, nil
}

// roundTrip sends req without interpreting the response status.
func (c *Client) roundTrip(ctx context.Context, req *http.Request) (*http.Response, error) {
	// Clone so the caller's headers are left untouched.
	req = req.Clone(ctx)

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if req.Header.Get("Content-Type") == "" && req.Method != http.MethodGet {
		req.Header.Set("Content-Type", "application/json")
	}

	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("local rate limit wait interrupted: %w", err)
	}

	return c.httpClient.Do(req)
}
