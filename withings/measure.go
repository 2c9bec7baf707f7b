package withings

import (
	"context"
	"math"
	"net/url"
	"strconv"
	"time"
)

const dateLayout = "2006-01-02"

// Activity is one day of aggregated activity.
type Activity struct {
	Date          string `json:"date"`
	Timezone      string `json:"timezone"`
	Steps         Number `json:"steps"`
	Distance      Number `json:"distance"`
	Elevation     Number `json:"elevation"`
	Soft          int    `json:"soft"`
	Moderate      int    `json:"moderate"`
	Intense       int    `json:"intense"`
	Active        int    `json:"active"`
	Calories      Number `json:"calories"`
	TotalCalories Number `json:"totalcalories"`
	HRAverage     int    `json:"hr_average,omitempty"`
	HRMin         int    `json:"hr_min,omitempty"`
	HRMax         int    `json:"hr_max,omitempty"`
	Brand         int    `json:"brand,omitempty"`
	IsTracker     bool   `json:"is_tracker,omitempty"`
}

// Measure is a single value inside a measure group. The real value is
// Value * 10^Unit.
type Measure struct {
	Value int64       `json:"value"`
	Type  MeasureType `json:"type"`
	Unit  int         `json:"unit"`
}

// Float returns the measure scaled by its unit exponent.
func (m Measure) Float() float64 {
	return float64(m.Value) * math.Pow10(m.Unit)
}

// MeasureGroup is a set of measures captured together by one device.
type MeasureGroup struct {
	GroupID  int64           `json:"grpid"`
	Attrib   int             `json:"attrib"`
	Date     int64           `json:"date"`
	Created  int64           `json:"created"`
	Category MeasureCategory `json:"category"`
	DeviceID string          `json:"deviceid,omitempty"`
	Comment  string          `json:"comment,omitempty"`
	Measures []Measure       `json:"measures"`
}

// Time returns the capture time of the group.
func (g MeasureGroup) Time() time.Time {
	return time.Unix(g.Date, 0)
}

// Value returns the scaled value of the first measure of type t.
func (g MeasureGroup) Value(t MeasureType) (float64, bool) {
	for _, m := range g.Measures {
		if m.Type == t {
			return m.Float(), true
		}
	}
	return 0, false
}

// MeasureService handles communication with the measure related methods.
type MeasureService struct {
	client *Client
}

// GetDailyActivity fetches the activity summary for date.
// params may be nil; it is merged under the date parameter.
func (s *MeasureService) GetDailyActivity(ctx context.Context, date time.Time, params url.Values) (*Activity, error) {
	env, err := s.getActivity(ctx, date, params)
	if err != nil {
		return nil, err
	}

	var activity Activity
	if err := env.Decode("", &activity); err != nil {
		return nil, err
	}

	return &activity, nil
}

// GetDailySteps fetches the step count for date.
func (s *MeasureService) GetDailySteps(ctx context.Context, date time.Time, params url.Values) (float64, error) {
	env, err := s.getActivity(ctx, date, params)
	if err != nil {
		return 0, err
	}
	return env.Number("steps")
}

// GetDailyCalories fetches the active calories burned on date.
func (s *MeasureService) GetDailyCalories(ctx context.Context, date time.Time, params url.Values) (float64, error) {
	env, err := s.getActivity(ctx, date, params)
	if err != nil {
		return 0, err
	}
	return env.Number("calories")
}

func (s *MeasureService) getActivity(ctx context.Context, date time.Time, params url.Values) (*Envelope, error) {
	q := withParams(params)
	q.Set("date", date.Format(dateLayout))
	return s.client.Get(ctx, "measure", "getactivity", q)
}

// GetWeightMeasures fetches weight measure groups captured between start and end.
func (s *MeasureService) GetWeightMeasures(ctx context.Context, start, end time.Time, params url.Values) ([]MeasureGroup, error) {
	return s.getMeasures(ctx, MeasureTypeWeight, start, end, params)
}

// GetPulseMeasures fetches heart pulse measure groups captured between start and end.
func (s *MeasureService) GetPulseMeasures(ctx context.Context, start, end time.Time, params url.Values) ([]MeasureGroup, error) {
	return s.getMeasures(ctx, MeasureTypeHeartPulse, start, end, params)
}

func (s *MeasureService) getMeasures(ctx context.Context, t MeasureType, start, end time.Time, params url.Values) ([]MeasureGroup, error) {
	q := withParams(params)
	q.Set("startdate", strconv.FormatInt(start.Unix(), 10))
	q.Set("enddate", strconv.FormatInt(end.Unix(), 10))
	q.Set("meastype", strconv.Itoa(int(t)))

	env, err := s.client.Get(ctx, "measure", actionGetMeas, q)
	if err != nil {
		return nil, err
	}

	var groups []MeasureGroup
	if err := env.Decode("measuregrps", &groups); err != nil {
		return nil, err
	}

	return groups, nil
}

// withParams returns a copy of params that resource methods can add their
// own parameters to. Parameters set by the method take precedence.
func withParams(params url.Values) url.Values {
	q := make(url.Values, len(params)+4)
	for k, v := range params {
		q[k] = append([]string(nil), v...)
	}
	return q
}
