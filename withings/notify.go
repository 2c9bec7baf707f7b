package withings

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// NotificationProfile describes one registered notification callback.
type NotificationProfile struct {
	CallbackURL string `json:"callbackurl"`
	Comment     string `json:"comment"`
	Appli       Appli  `json:"appli,omitempty"`
	Expires     int64  `json:"expires"`
}

// ExpiresAt returns when the subscription lapses.
func (p NotificationProfile) ExpiresAt() time.Time {
	return time.Unix(p.Expires, 0)
}

// NotifyService handles communication with the notification subscription
// methods. Pass "appli" in params to narrow Get, List and Revoke to one
// data class.
type NotifyService struct {
	client *Client
}

// Create subscribes callbackURL to changes of the appli data class and
// returns the envelope status.
func (s *NotifyService) Create(ctx context.Context, callbackURL, comment string, appli Appli, params url.Values) (int, error) {
	q := withParams(params)
	q.Set("callbackurl", callbackURL)
	q.Set("comment", comment)
	q.Set("appli", strconv.Itoa(int(appli)))

	env, err := s.client.Post(ctx, "notify", "subscribe", q)
	if err != nil {
		return 0, err
	}
	return env.Status, nil
}

// Get fetches the subscription registered for callbackURL.
func (s *NotifyService) Get(ctx context.Context, callbackURL string, params url.Values) (*NotificationProfile, error) {
	q := withParams(params)
	q.Set("callbackurl", callbackURL)

	env, err := s.client.Get(ctx, "notify", "get", q)
	if err != nil {
		return nil, err
	}

	var profile NotificationProfile
	if err := env.Decode("", &profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

// List fetches every subscription of the user.
func (s *NotifyService) List(ctx context.Context, params url.Values) ([]NotificationProfile, error) {
	env, err := s.client.Get(ctx, "notify", "list", withParams(params))
	if err != nil {
		return nil, err
	}

	var profiles []NotificationProfile
	if err := env.Decode("profiles", &profiles); err != nil {
		return nil, err
	}

	return profiles, nil
}

// Revoke removes the subscription registered for callbackURL and returns the
// envelope status.
func (s *NotifyService) Revoke(ctx context.Context, callbackURL string, params url.Values) (int, error) {
	q := withParams(params)
	q.Set("callbackurl", callbackURL)

	env, err := s.client.Get(ctx, "notify", "revoke", q)
	if err != nil {
		return 0, err
	}
	return env.Status, nil
}
