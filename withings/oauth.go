package withings

import (
	"context"
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	defaultOAuthBaseURL = "https://oauth.withings.com/account"

	requestTokenPath = "/request_token"
	authorizePath    = "/authorize"
	accessTokenPath  = "/access_token"

	signatureMethod = "HMAC-SHA1"
	oauthVersion    = "1.0"
)

// RequestToken is the short-lived token issued at the start of the
// three-legged flow. It is only useful for building the authorization URL
// and for the access-token exchange.
type RequestToken struct {
	Token  string
	Secret string
}

// AccessToken is the long-lived token authorizing resource calls.
// UserID is filled when Withings returns it alongside the token.
type AccessToken struct {
	Token  string
	Secret string
	UserID string
}

// signer produces OAuth 1.0a HMAC-SHA1 signed URLs for one consumer.
type signer struct {
	consumerKey    string
	consumerSecret string

	now   func() time.Time
	nonce func() string
}

func newSigner(consumerKey, consumerSecret string) *signer {
	return &signer{
		consumerKey:    consumerKey,
		consumerSecret: consumerSecret,
		now:            time.Now,
		nonce:          generateNonce,
	}
}

// generateNonce returns 32 random hex characters.
func generateNonce() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// signURL returns baseURL with the canonical OAuth query and its signature
// appended. params are copied, never modified. token and tokenSecret may be
// empty for the request-token leg.
func (s *signer) signURL(method, baseURL string, params url.Values, token, tokenSecret string) string {
	q := make(url.Values, len(params)+6)
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	q.Set("oauth_consumer_key", s.consumerKey)
	q.Set("oauth_nonce", s.nonce())
	q.Set("oauth_signature_method", signatureMethod)
	q.Set("oauth_timestamp", strconv.FormatInt(s.now().Unix(), 10))
	q.Set("oauth_version", oauthVersion)
	if token != "" {
		q.Set("oauth_token", token)
	}

	query := canonicalQuery(q)
	base := strings.ToUpper(method) + "&" + percentEncode(baseURL) + "&" + percentEncode(query)
	signature := percentEncode(s.sign(base, tokenSecret))

	return baseURL + "?" + query + "&oauth_signature=" + signature
}

// sign computes the base64 HMAC-SHA1 of base keyed with the consumer secret
// and token secret.
func (s *signer) sign(base, tokenSecret string) string {
	key := percentEncode(s.consumerSecret) + "&" + percentEncode(tokenSecret)
	mac := hmac.New(sha1.New, []byte(key))
	mac.Write([]byte(base))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// canonicalQuery encodes q sorted by key and then by value, as required for
// the signature base string.
func canonicalQuery(q url.Values) string {
	type pair struct{ k, v string }
	pairs := make([]pair, 0, len(q))
	for k, vs := range q {
		ek := percentEncode(k)
		for _, v := range vs {
			pairs = append(pairs, pair{ek, percentEncode(v)})
		}
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].k != pairs[j].k {
			return pairs[i].k < pairs[j].k
		}
		return pairs[i].v < pairs[j].v
	})

	parts := make([]string, len(pairs))
	for i, p := range pairs {
		parts[i] = p.k + "=" + p.v
	}
	return strings.Join(parts, "&")
}

// percentEncode applies RFC 3986 encoding: every byte outside the unreserved
// set is written as %XX with upper-case hex.
func percentEncode(s string) string {
	const hex = "0123456789ABCDEF"
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(hex[c>>4])
		b.WriteByte(hex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'A' <= c && c <= 'Z', 'a' <= c && c <= 'z', '0' <= c && c <= '9':
		return true
	case c == '-', c == '.', c == '_', c == '~':
		return true
	}
	return false
}

// RequestToken starts the three-legged flow by obtaining a request token
// signed with the consumer credentials only.
func (c *Client) RequestToken(ctx context.Context) (*RequestToken, error) {
	params := url.Values{}
	if c.creds.CallbackURL != "" {
		params.Set("oauth_callback", c.creds.CallbackURL)
	}

	values, err := c.oauthExchange(ctx, c.oauthBaseURL+requestTokenPath, params, "", "")
	if err != nil {
		return nil, err
	}

	return &RequestToken{
		Token:  values.Get("oauth_token"),
		Secret: values.Get("oauth_token_secret"),
	}, nil
}

// AuthorizeURL returns the signed URL the end user must visit to grant
// access for token, which must be non-nil. It performs no network I/O.
func (c *Client) AuthorizeURL(token *RequestToken) string {
	return c.signer.signURL(http.MethodGet, c.oauthBaseURL+authorizePath, nil, token.Token, token.Secret)
}

// AccessToken exchanges an authorized request token and the verifier
// returned by the authorization step for an access token. On success the
// token, and the user ID when Withings returns one, are stored on the client.
func (c *Client) AccessToken(ctx context.Context, token *RequestToken, verifier string) (*AccessToken, error) {
	if token == nil {
		return nil, ErrMissingRequestToken
	}

	params := url.Values{}
	params.Set("oauth_verifier", verifier)

	values, err := c.oauthExchange(ctx, c.oauthBaseURL+accessTokenPath, params, token.Token, token.Secret)
	if err != nil {
		return nil, err
	}

	at := &AccessToken{
		Token:  values.Get("oauth_token"),
		Secret: values.Get("oauth_token_secret"),
		UserID: values.Get("userid"),
	}

	c.setSession(at.Token, at.Secret, at.UserID)

	return at, nil
}

// oauthExchange performs a signed GET against one of the OAuth endpoints and
// parses the form-encoded token response.
func (c *Client) oauthExchange(ctx context.Context, endpoint string, params url.Values, token, tokenSecret string) (url.Values, error) {
	signed := c.signer.signURL(http.MethodGet, endpoint, params, token, tokenSecret)

	req, err := http.NewRequest(http.MethodGet, signed, nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.roundTrip(ctx, req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &AuthError{
			StatusCode: resp.StatusCode,
			Message:    "oauth token request rejected",
			Err:        mapHTTPError(resp, body),
		}
	}

	values, err := url.ParseQuery(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, &AuthError{
			StatusCode: resp.StatusCode,
			Message:    "malformed oauth token response",
			Err:        err,
		}
	}

	if values.Get("oauth_token") == "" || values.Get("oauth_token_secret") == "" {
		return nil, &AuthError{
			StatusCode: resp.StatusCode,
			Message:    fmt.Sprintf("oauth token response missing token or secret: %s", truncate(string(body))),
		}
	}

	return values, nil
}
