package withings

import (
	"context"
	"net/url"
	"time"
)

// SleepSeries is the summary of one night.
type SleepSeries struct {
	ID        int64            `json:"id"`
	Timezone  string           `json:"timezone"`
	Model     int              `json:"model"`
	StartDate int64            `json:"startdate"`
	EndDate   int64            `json:"enddate"`
	Date      string           `json:"date"`
	Created   int64            `json:"created"`
	Modified  int64            `json:"modified"`
	Data      SleepSummaryData `json:"data"`
}

// Start returns when the sleep session began.
func (s SleepSeries) Start() time.Time {
	return time.Unix(s.StartDate, 0)
}

// End returns when the sleep session ended.
func (s SleepSeries) End() time.Time {
	return time.Unix(s.EndDate, 0)
}

// SleepSummaryData holds the per-night durations (seconds) and vitals.
type SleepSummaryData struct {
	WakeupDuration     int `json:"wakeupduration"`
	LightSleepDuration int `json:"lightsleepduration"`
	DeepSleepDuration  int `json:"deepsleepduration"`
	REMSleepDuration   int `json:"remsleepduration,omitempty"`
	WakeupCount        int `json:"wakeupcount"`
	DurationToSleep    int `json:"durationtosleep"`
	DurationToWakeup   int `json:"durationtowakeup,omitempty"`
	HRAverage          int `json:"hr_average,omitempty"`
	HRMin              int `json:"hr_min,omitempty"`
	HRMax              int `json:"hr_max,omitempty"`
	RRAverage          int `json:"rr_average,omitempty"`
	RRMin              int `json:"rr_min,omitempty"`
	RRMax              int `json:"rr_max,omitempty"`
	SleepScore         int `json:"sleep_score,omitempty"`
}

// SleepService handles communication with the sleep related methods.
type SleepService struct {
	client *Client
}

// GetSummary fetches nightly sleep summaries for the days from start to end
// inclusive.
func (s *SleepService) GetSummary(ctx context.Context, start, end time.Time, params url.Values) ([]SleepSeries, error) {
	q := withParams(params)
	q.Set("startdateymd", start.Format(dateLayout))
	q.Set("enddateymd", end.Format(dateLayout))

	env, err := s.client.Get(ctx, "sleep", "getsummary", q)
	if err != nil {
		return nil, err
	}

	var series []SleepSeries
	if err := env.Decode("series", &series); err != nil {
		return nil, err
	}

	return series, nil
}
