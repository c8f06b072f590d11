// Package nearby finds famous places around a route, a planned destination
// or the device position using Overpass.
package nearby

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"smarttravel/internal/domain"
	"smarttravel/internal/geo"
	"smarttravel/internal/utils"
)

const (
	// RadiusMeters is the search radius around each centre.
	RadiusMeters = 10000
	// GroupThresholdMeters is how close a place must be to a centre to be grouped under it.
	GroupThresholdMeters = 11000
	// ResultLimit caps the elements returned per Overpass query.
	ResultLimit = 40

	tourismFilter  = "attraction|museum|viewpoint|monument|theme_park|gallery|zoo"
	historicFilter = "castle|fort|ruins|archaeological_site|monument|memorial"
)

// Mode says which context supplied the query centres.
type Mode string

const (
	ModeRoute           Mode = "route"
	ModeDestination     Mode = "destination"
	ModeCurrentLocation Mode = "current_location"
)

const (
	MsgNoResults = "No nearby attractions or facilities found."
)

var (
	ErrNoLocation = domain.PreconditionError{
		Msg: "Could not get your location. Please enable location services or plan a trip first.",
	}
	msgLookupFailed = "Failed to fetch nearby attractions. The Overpass API may be busy. Please try again in a moment."
)

// Querier runs an Overpass QL query.
type Querier interface {
	Query(ctx context.Context, ql string) ([]geo.Element, error)
}

// Context is what the caller knows about the user's whereabouts, in priority order.
type Context struct {
	Route       *geo.RouteResult
	Destination *geo.Point
	Device      *geo.Point
}

// Centre is one point the lookup searches around.
type Centre struct {
	Label string    `json:"label"`
	Icon  string    `json:"icon"`
	Point geo.Point `json:"point"`
}

// Centres picks the query centres: start, middle and end of a computed route,
// else the planned destination, else the device position.
func Centres(c Context) (Mode, []Centre, error) {
	if c.Route != nil && len(c.Route.Waypoints) > 0 {
		return ModeRoute, []Centre{
			{Label: "Near Your Start", Icon: "fa-map-marker-alt", Point: c.Route.Start()},
			{Label: "Along Your Route", Icon: "fa-route", Point: c.Route.Middle()},
			{Label: "Near Your Destination", Icon: "fa-flag-checkered", Point: c.Route.End()},
		}, nil
	}
	if c.Destination != nil && c.Destination.Valid() {
		return ModeDestination, []Centre{
			{Label: "Near Your Destination", Icon: "fa-map-marker-alt", Point: *c.Destination},
		}, nil
	}
	if c.Device != nil && c.Device.Valid() {
		return ModeCurrentLocation, []Centre{
			{Label: "Near You", Icon: "fa-map-marker-alt", Point: *c.Device},
		}, nil
	}
	return "", nil, ErrNoLocation
}

// BuildQuery returns the Overpass QL for tourism and historic nodes around p.
func BuildQuery(p geo.Point, radius int) string {
	around := fmt.Sprintf("around:%d,%.6f,%.6f", radius, p.Lat, p.Lon)
	var b strings.Builder
	b.WriteString("[out:json][timeout:25];(")
	fmt.Fprintf(&b, `node(%s)[tourism~"%s"];`, around, tourismFilter)
	fmt.Fprintf(&b, `node(%s)[historic~"%s"];`, around, historicFilter)
	fmt.Fprintf(&b, ");out center %d;", ResultLimit)
	return b.String()
}

// Place is one rendered result.
type Place struct {
	ID   string    `json:"id"`
	Name string    `json:"name"`
	Type string    `json:"type"`
	Icon string    `json:"icon"`
	At   geo.Point `json:"position"`
}

// Group is the places listed under one heading.
type Group struct {
	Label  string  `json:"label"`
	Icon   string  `json:"icon"`
	Places []Place `json:"places"`
}

type Result struct {
	Mode    Mode     `json:"mode"`
	Centres []Centre `json:"centres"`
	Groups  []Group  `json:"groups"`
	Count   int      `json:"count"`
	Message string   `json:"message,omitempty"`
}

// Service runs nearby lookups.
type Service struct {
	Overpass Querier
}

// Lookup queries every centre in parallel, merges the results and groups them.
func (s Service) Lookup(ctx context.Context, c Context) (Result, error) {
	mode, centres, err := Centres(c)
	if err != nil {
		return Result{}, err
	}

	perCentre := make([][]geo.Element, len(centres))
	g, gctx := errgroup.WithContext(ctx)
	for i, centre := range centres {
		i, q := i, BuildQuery(centre.Point, RadiusMeters)
		g.Go(func() error {
			els, err := s.Overpass.Query(gctx, q)
			if err != nil {
				return err
			}
			perCentre[i] = els
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		utils.LogEvent("", "nearby", "lookup_error", err.Error())
		return Result{}, domain.UpstreamError{Service: "overpass", Msg: msgLookupFailed, Err: err}
	}

	places := merge(perCentre)
	res := Result{Mode: mode, Centres: centres, Count: len(places)}
	if len(places) == 0 {
		res.Message = MsgNoResults
		res.Groups = []Group{}
		return res, nil
	}
	res.Groups = group(centres, places)
	return res, nil
}

func merge(perCentre [][]geo.Element) []Place {
	seen := map[string]bool{}
	var out []Place
	for _, els := range perCentre {
		for _, e := range els {
			key := e.Key()
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, toPlace(e))
		}
	}
	return out
}

// group puts each place under its nearest centre. With a single centre every
// place belongs to it; with several, places farther than the threshold from
// all centres are dropped.
func group(centres []Centre, places []Place) []Group {
	groups := make([]Group, len(centres))
	points := make([]geo.Point, len(centres))
	for i, c := range centres {
		groups[i] = Group{Label: c.Label, Icon: c.Icon, Places: []Place{}}
		points[i] = c.Point
	}

	if len(centres) == 1 {
		groups[0].Places = append(groups[0].Places, places...)
		return groups
	}

	for _, p := range places {
		idx, dist := geo.Nearest(p.At, points)
		if idx < 0 || dist >= GroupThresholdMeters {
			continue
		}
		groups[idx].Places = append(groups[idx].Places, p)
	}
	return groups
}

func toPlace(e geo.Element) Place {
	name := strings.TrimSpace(e.Tags["name"])
	if name == "" {
		name = "Unnamed"
	}
	typ := PlaceType(e.Tags)
	return Place{
		ID:   e.Key(),
		Name: name,
		Type: typ,
		Icon: Icon(typ),
		At:   e.Position(),
	}
}

// PlaceType derives the display type from the tourism, amenity or historic tag.
func PlaceType(tags map[string]string) string {
	raw := tags["tourism"]
	if raw == "" {
		raw = tags["amenity"]
	}
	if raw == "" {
		raw = tags["historic"]
	}
	return utils.TitleWords(strings.ReplaceAll(raw, "_", " "))
}

var icons = map[string]string{
	"Fuel":                "fa-gas-pump",
	"Atm":                 "fa-credit-card",
	"Restaurant":          "fa-utensils",
	"Cafe":                "fa-utensils",
	"Museum":              "fa-landmark",
	"Monument":            "fa-landmark",
	"Castle":              "fa-landmark",
	"Fort":                "fa-landmark",
	"Ruins":               "fa-landmark",
	"Archaeological Site": "fa-landmark",
	"Memorial":            "fa-landmark",
	"Gallery":             "fa-landmark",
	"Viewpoint":           "fa-binoculars",
	"Attraction":          "fa-binoculars",
	"Theme Park":          "fa-binoculars",
	"Zoo":                 "fa-binoculars",
}

// Icon maps a display type to its Font Awesome icon.
func Icon(placeType string) string {
	if icon, ok := icons[placeType]; ok {
		return icon
	}
	return "fa-map-pin"
}
