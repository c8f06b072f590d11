package geo

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Element is one Overpass result (node, or way/relation with "out center").
type Element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    float64           `json:"lat"`
	Lon    float64           `json:"lon"`
	Center *Point            `json:"center,omitempty"`
	Tags   map[string]string `json:"tags"`
}

// Position returns the element coordinate, using the center for ways.
func (e Element) Position() Point {
	if e.Center != nil && e.Lat == 0 && e.Lon == 0 {
		return *e.Center
	}
	return Point{Lat: e.Lat, Lon: e.Lon}
}

// Key identifies an element across queries.
func (e Element) Key() string {
	return e.Type + "/" + strconv.FormatInt(e.ID, 10)
}

type overpassResponse struct {
	Elements []Element `json:"elements"`
}

// Overpass posts Overpass QL queries to an interpreter endpoint.
type Overpass struct {
	opts Options
	http *http.Client
}

func NewOverpass(opts Options) *Overpass {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://overpass-api.de/api/interpreter"
	}
	return &Overpass{opts: opts, http: opts.client()}
}

// Query runs one Overpass QL query and returns its elements.
func (o *Overpass) Query(ctx context.Context, ql string) ([]Element, error) {
	req, err := http.NewRequest(http.MethodPost, o.opts.BaseURL, strings.NewReader("data="+url.QueryEscape(ql)))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", o.opts.userAgent())

	var resp overpassResponse
	if err := doJSON(ctx, o.http, "overpass", req, &resp); err != nil {
		return nil, err
	}
	return resp.Elements, nil
}
