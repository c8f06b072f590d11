package geo

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// RouteResult is the summary and geometry of one computed route.
type RouteResult struct {
	DistanceMeters  float64 `json:"distance_m"`
	DurationSeconds float64 `json:"duration_s"`
	Coordinates     []Point `json:"-"`
	// Waypoints are the requested start and end, in request order.
	Waypoints []Point `json:"waypoints"`
}

// DistanceKm returns the route length in kilometres.
func (r RouteResult) DistanceKm() float64 {
	return r.DistanceMeters / 1000
}

// Start returns the first waypoint.
func (r RouteResult) Start() Point {
	if len(r.Waypoints) == 0 {
		return Point{}
	}
	return r.Waypoints[0]
}

// End returns the last waypoint.
func (r RouteResult) End() Point {
	if len(r.Waypoints) == 0 {
		return Point{}
	}
	return r.Waypoints[len(r.Waypoints)-1]
}

// Middle returns the middle coordinate of the route geometry, falling back to
// the great-circle midpoint of the waypoints when no geometry is available.
func (r RouteResult) Middle() Point {
	if len(r.Coordinates) > 0 {
		return r.Coordinates[len(r.Coordinates)/2]
	}
	return Midpoint(r.Start(), r.End())
}

// GeoJSON renders the route as a LineString feature.
func (r RouteResult) GeoJSON() *geojson.Feature {
	line := make(orb.LineString, 0, len(r.Coordinates))
	for _, c := range r.Coordinates {
		line = append(line, c.Orb())
	}
	f := geojson.NewFeature(line)
	f.Properties["distance_m"] = r.DistanceMeters
	f.Properties["duration_s"] = r.DurationSeconds
	return f
}

type osrmResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Distance float64 `json:"distance"`
		Duration float64 `json:"duration"`
		Geometry struct {
			Coordinates [][2]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"routes"`
}

// OSRM is a client for an OSRM-compatible route service.
type OSRM struct {
	opts    Options
	http    *http.Client
	profile string
}

func NewOSRM(opts Options) *OSRM {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://router.project-osrm.org"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &OSRM{opts: opts, http: opts.client(), profile: "driving"}
}

// Route requests a driving route from one point to another.
func (o *OSRM) Route(ctx context.Context, from, to Point) (RouteResult, error) {
	if !from.Valid() || !to.Valid() {
		return RouteResult{}, fmt.Errorf("osrm: invalid waypoints %s -> %s", from, to)
	}
	endpoint := fmt.Sprintf("%s/route/v1/%s/%.6f,%.6f;%.6f,%.6f?overview=full&geometries=geojson&steps=false",
		o.opts.BaseURL, o.profile, from.Lon, from.Lat, to.Lon, to.Lat)

	req, err := http.NewRequest(http.MethodGet, endpoint, nil)
	if err != nil {
		return RouteResult{}, err
	}
	req.Header.Set("User-Agent", o.opts.userAgent())

	var resp osrmResponse
	if err := doJSON(ctx, o.http, "osrm", req, &resp); err != nil {
		return RouteResult{}, err
	}
	if resp.Code != "Ok" || len(resp.Routes) == 0 {
		return RouteResult{}, fmt.Errorf("osrm: no route (%s %s)", resp.Code, resp.Message)
	}

	best := resp.Routes[0]
	coords := make([]Point, 0, len(best.Geometry.Coordinates))
	for _, c := range best.Geometry.Coordinates {
		coords = append(coords, Point{Lat: c[1], Lon: c[0]})
	}
	return RouteResult{
		DistanceMeters:  best.Distance,
		DurationSeconds: best.Duration,
		Coordinates:     coords,
		Waypoints:       []Point{from, to},
	}, nil
}
