package withings

import (
	"context"
	"net/url"
	"strconv"
	"time"
)

// MeasureOptions specifies the optional filters for MeasureService.List.
type MeasureOptions struct {
	// Restrict to a single measure type. Zero returns every type.
	MeasureType MeasureType

	// Restrict to real measurements or goals. Zero returns both.
	Category MeasureCategory

	// Capture window. Ignored when LastUpdate is set.
	StartDate *time.Time
	EndDate   *time.Time

	// Return groups created or modified since this time.
	LastUpdate *time.Time

	// Offset used to fetch the next page of results. Usually handled automatically by the paginator.
	Offset int
}

// encode adds the non-zero options to q.
func (o *MeasureOptions) encode(q url.Values) {
	if o == nil {
		return
	}

	if o.MeasureType != 0 {
		q.Set("meastype", strconv.Itoa(int(o.MeasureType)))
	}
	if o.Category != 0 {
		q.Set("category", strconv.Itoa(int(o.Category)))
	}
	if o.LastUpdate != nil {
		q.Set("lastupdate", strconv.FormatInt(o.LastUpdate.Unix(), 10))
	} else {
		if o.StartDate != nil {
			q.Set("startdate", strconv.FormatInt(o.StartDate.Unix(), 10))
		}
		if o.EndDate != nil {
			q.Set("enddate", strconv.FormatInt(o.EndDate.Unix(), 10))
		}
	}
	if o.Offset > 0 {
		q.Set("offset", strconv.Itoa(o.Offset))
	}
}

// measurePage is the getmeas body.
type measurePage struct {
	UpdateTime    int64          `json:"updatetime"`
	Timezone      string         `json:"timezone"`
	MeasureGroups []MeasureGroup `json:"measuregrps"`
	More          int            `json:"more"`
	Offset        int            `json:"offset"`
}

// MeasurePage represents one page of measure groups.
type MeasurePage struct {
	Groups     []MeasureGroup
	UpdateTime time.Time
	More       bool
	Offset     int

	service *MeasureService
	opts    *MeasureOptions
}

// List fetches a page of measure groups matching opts. opts may be nil.
func (s *MeasureService) List(ctx context.Context, opts *MeasureOptions) (*MeasurePage, error) {
	q := url.Values{}
	opts.encode(q)

	env, err := s.client.Get(ctx, "measure", actionGetMeas, q)
	if err != nil {
		return nil, err
	}

	var page measurePage
	if err := env.Decode("", &page); err != nil {
		return nil, err
	}

	return &MeasurePage{
		Groups:     page.MeasureGroups,
		UpdateTime: time.Unix(page.UpdateTime, 0),
		More:       page.More != 0,
		Offset:     page.Offset,
		service:    s,
		opts:       opts,
	}, nil
}

// NextPage fetches the subsequent page of measure groups based on Offset.
func (p *MeasurePage) NextPage(ctx context.Context) (*MeasurePage, error) {
	if !p.More {
		return nil, ErrNoNextPage
	}

	nextOpts := &MeasureOptions{}
	if p.opts != nil {
		*nextOpts = *p.opts
	}
	nextOpts.Offset = p.Offset

	return p.service.List(ctx, nextOpts)
}
