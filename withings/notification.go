package withings

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

// maxNotificationBodySize caps how much of a callback body is read.
const maxNotificationBodySize = 64 << 10

// NotificationEvent is the payload Withings POSTs to a subscribed callback
// URL when new data is available for a user.
type NotificationEvent struct {
	UserID    string
	Appli     Appli
	StartDate time.Time
	EndDate   time.Time
}

// ParseNotification reads and validates an incoming notification callback.
// Withings probes a callback URL with a HEAD or GET request while
// subscribing; those are rejected here so handlers can answer them with a
// plain 200 before calling ParseNotification.
func ParseNotification(r *http.Request) (*NotificationEvent, error) {
	if r.Method != http.MethodPost {
		return nil, errors.New("notification must be a POST request")
	}

	if r.Body == nil {
		return nil, errors.New("notification has no body")
	}
	r.Body = http.MaxBytesReader(nil, r.Body, maxNotificationBodySize)
	if err := r.ParseForm(); err != nil {
		return nil, fmt.Errorf("failed to parse notification form: %w", err)
	}

	event := &NotificationEvent{
		UserID: r.PostForm.Get("userid"),
	}
	if event.UserID == "" {
		return nil, errors.New("notification is missing userid")
	}

	appli, err := strconv.Atoi(r.PostForm.Get("appli"))
	if err != nil {
		return nil, fmt.Errorf("notification has invalid appli: %w", err)
	}
	event.Appli = Appli(appli)

	if event.StartDate, err = parseUnixField(r.PostForm.Get("startdate")); err != nil {
		return nil, fmt.Errorf("notification has invalid startdate: %w", err)
	}
	if event.EndDate, err = parseUnixField(r.PostForm.Get("enddate")); err != nil {
		return nil, fmt.Errorf("notification has invalid enddate: %w", err)
	}

	return event, nil
}

// parseUnixField parses a Unix seconds value, treating an empty string as
// the zero time.
func parseUnixField(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	secs, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.Unix(secs, 0), nil
}
