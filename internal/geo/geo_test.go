package geo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDistanceAndIsNear(t *testing.T) {
	delhi := Point{Lat: 28.6139, Lon: 77.2090}
	agra := Point{Lat: 27.1767, Lon: 78.0081}

	d := Distance(delhi, agra)
	if d < 175000 || d > 185000 {
		t.Fatalf("Distance = %.0f, want ~178km", d)
	}
	if !IsNear(delhi, delhi, 1) {
		t.Fatalf("point should be near itself")
	}
	if IsNear(delhi, agra, 11000) {
		t.Fatalf("agra should not be within 11km of delhi")
	}
}

func TestMidpointLiesBetween(t *testing.T) {
	a := Point{Lat: 10, Lon: 10}
	b := Point{Lat: 20, Lon: 20}
	m := Midpoint(a, b)
	da, db := Distance(a, m), Distance(m, b)
	if diff := da - db; diff > 1 || diff < -1 {
		t.Fatalf("midpoint not equidistant: %.2f vs %.2f", da, db)
	}
}

func TestNearest(t *testing.T) {
	if i, _ := Nearest(Point{Lat: 1, Lon: 1}, nil); i != -1 {
		t.Fatalf("empty candidates should return -1, got %d", i)
	}
	cands := []Point{{Lat: 10, Lon: 10}, {Lat: 1.1, Lon: 1.1}, {Lat: -5, Lon: 3}}
	if i, _ := Nearest(Point{Lat: 1, Lon: 1}, cands); i != 1 {
		t.Fatalf("Nearest = %d, want 1", i)
	}
}

func TestPointValid(t *testing.T) {
	cases := map[Point]bool{
		{Lat: 12.9, Lon: 77.5}: true,
		{Lat: 0, Lon: 77.5}:    false,
		{Lat: 91, Lon: 10}:     false,
		{Lat: 10, Lon: -181}:   false,
	}
	for p, want := range cases {
		if got := p.Valid(); got != want {
			t.Fatalf("%v.Valid() = %v", p, got)
		}
	}
}

func TestViewportContainsAndPan(t *testing.T) {
	var empty Viewport
	if empty.Contains(Point{Lat: 1, Lon: 1}) {
		t.Fatalf("unset viewport must contain nothing")
	}

	v := Viewport{South: 10, West: 20, North: 12, East: 24}
	if !v.Contains(Point{Lat: 11, Lon: 21}) {
		t.Fatalf("expected point inside")
	}
	if v.Contains(Point{Lat: 13, Lon: 21}) {
		t.Fatalf("expected point outside")
	}

	moved := v.PanTo(Point{Lat: 30, Lon: 40})
	if moved.North-moved.South != 2 || moved.East-moved.West != 4 {
		t.Fatalf("pan must keep span, got %+v", moved)
	}
	if c := moved.Center(); c.Lat != 30 || c.Lon != 40 {
		t.Fatalf("pan center = %v", c)
	}

	fresh := empty.PanTo(Point{Lat: 5, Lon: 5})
	if !fresh.Valid() || !fresh.Contains(Point{Lat: 5, Lon: 5}) {
		t.Fatalf("pan from empty = %+v", fresh)
	}
}

func TestNominatimSearchCachesAndSetsUserAgent(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/search" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if ua := r.Header.Get("User-Agent"); ua != "test-agent" {
			t.Errorf("User-Agent = %q", ua)
		}
		if r.URL.Query().Get("q") != "Goa" || r.URL.Query().Get("limit") != "5" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		time.Sleep(20 * time.Millisecond)
		_, _ = io.WriteString(w, `[{"display_name":"Goa, India","lat":"15.3","lon":"74.1"},{"display_name":"bad","lat":"x","lon":"1"}]`)
	}))
	defer srv.Close()

	n := NewNominatim(Options{BaseURL: srv.URL + "/", UserAgent: "test-agent"})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			locs, err := n.Search(context.Background(), "Goa", 5)
			if err != nil {
				t.Errorf("Search: %v", err)
				return
			}
			if len(locs) != 1 || locs[0].Name != "Goa, India" || locs[0].Latitude != 15.3 {
				t.Errorf("locs = %+v", locs)
			}
		}()
	}
	wg.Wait()

	if _, err := n.Search(context.Background(), "  goa ", 5); err != nil {
		t.Fatalf("cached search: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("upstream calls = %d, want 1", got)
	}
}

func TestNominatimSharedSearchSurvivesCallerCancel(t *testing.T) {
	var calls int32
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var releaseOnce sync.Once
	unblock := func() { releaseOnce.Do(func() { close(release) }) }

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		started <- struct{}{}
		<-release
		_, _ = io.WriteString(w, `[{"display_name":"Goa, India","lat":"15.3","lon":"74.1"}]`)
	}))
	defer srv.Close()
	defer unblock()

	n := NewNominatim(Options{BaseURL: srv.URL, Timeout: 5 * time.Second})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := n.Search(ctx, "goa", 5)
		firstErr <- err
	}()
	<-started

	type result struct {
		locs []Location
		err  error
	}
	second := make(chan result, 1)
	go func() {
		locs, err := n.Search(context.Background(), "goa", 5)
		second <- result{locs, err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancel()
	select {
	case err := <-firstErr:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("first caller err = %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("cancelled caller did not return")
	}

	unblock()
	select {
	case res := <-second:
		if res.err != nil {
			t.Fatalf("second caller: %v", res.err)
		}
		if len(res.locs) != 1 || res.locs[0].Name != "Goa, India" {
			t.Fatalf("second caller locs = %+v", res.locs)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("second caller did not return")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("upstream calls = %d, want 1", got)
	}
}

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func cachedSearches(n *Nominatim) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.cache)
}

func TestNominatimCacheDropsExpiredEntries(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = io.WriteString(w, `[{"display_name":"Somewhere","lat":"10","lon":"20"}]`)
	}))
	defer srv.Close()

	clock := &testClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	n := NewNominatim(Options{BaseURL: srv.URL})
	n.now = clock.now

	for i := 0; i < 200; i++ {
		if _, err := n.Search(context.Background(), fmt.Sprintf("place %d", i), 5); err != nil {
			t.Fatalf("Search: %v", err)
		}
	}
	if got := cachedSearches(n); got != 200 {
		t.Fatalf("cache entries = %d, want 200", got)
	}

	clock.advance(48 * time.Hour)
	if _, err := n.Search(context.Background(), "place 0", 5); err != nil {
		t.Fatalf("Search after expiry: %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 201 {
		t.Fatalf("upstream calls = %d, expired entry should be refetched", got)
	}
	if got := cachedSearches(n); got != 1 {
		t.Fatalf("cache entries after expiry = %d, want 1", got)
	}
}

func TestNominatimCacheIsBounded(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	clock := &testClock{t: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	n := NewNominatim(Options{BaseURL: srv.URL})
	n.now = clock.now

	n.mu.Lock()
	n.pruned = clock.now()
	for i := 0; i < maxCachedSearches; i++ {
		n.cache[fmt.Sprintf("5:q%d", i)] = cachedSearch{at: clock.now().Add(time.Duration(i) * time.Second)}
	}
	n.mu.Unlock()

	clock.advance(time.Duration(maxCachedSearches) * time.Second)
	if _, err := n.Search(context.Background(), "fresh", 5); err != nil {
		t.Fatalf("Search: %v", err)
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.cache) != maxCachedSearches {
		t.Fatalf("cache entries = %d, want %d", len(n.cache), maxCachedSearches)
	}
	if _, ok := n.cache["5:q0"]; ok {
		t.Fatalf("oldest entry should have been evicted")
	}
	if _, ok := n.cache["5:fresh"]; !ok {
		t.Fatalf("new entry missing")
	}
}

func TestNominatimSearchRejectsEmptyQuery(t *testing.T) {
	n := NewNominatim(Options{BaseURL: "http://127.0.0.1:1"})
	if _, err := n.Search(context.Background(), "   ", 5); err == nil {
		t.Fatalf("expected error for empty query")
	}
}

func TestNominatimStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewNominatim(Options{BaseURL: srv.URL}).Search(context.Background(), "x", 1)
	var se StatusError
	if !errors.As(err, &se) || se.Code != http.StatusTooManyRequests {
		t.Fatalf("err = %v", err)
	}
}

func TestNominatimReverse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/reverse" || r.URL.Query().Get("lat") != "12.971600" {
			t.Errorf("unexpected request %s", r.URL.String())
		}
		_, _ = io.WriteString(w, `{"display_name":"MG Road, Bengaluru"}`)
	}))
	defer srv.Close()

	name, err := NewNominatim(Options{BaseURL: srv.URL}).Reverse(context.Background(), Point{Lat: 12.9716, Lon: 77.5946})
	if err != nil || name != "MG Road, Bengaluru" {
		t.Fatalf("Reverse = %q, %v", name, err)
	}
}

func TestOSRMRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		want := "/route/v1/driving/77.209000,28.613900;78.008100,27.176700"
		if r.URL.Path != want {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.URL.Query().Get("geometries") != "geojson" || r.URL.Query().Get("overview") != "full" {
			t.Errorf("query = %s", r.URL.RawQuery)
		}
		_, _ = io.WriteString(w, `{"code":"Ok","routes":[{"distance":233000,"duration":12600,
			"geometry":{"coordinates":[[77.209,28.6139],[77.6,27.9],[78.0081,27.1767]]}}]}`)
	}))
	defer srv.Close()

	from := Point{Lat: 28.6139, Lon: 77.2090}
	to := Point{Lat: 27.1767, Lon: 78.0081}
	res, err := NewOSRM(Options{BaseURL: srv.URL}).Route(context.Background(), from, to)
	if err != nil {
		t.Fatalf("Route: %v", err)
	}
	if res.DistanceKm() != 233 || res.DurationSeconds != 12600 {
		t.Fatalf("summary = %+v", res)
	}
	if res.Start() != from || res.End() != to {
		t.Fatalf("waypoints = %+v", res.Waypoints)
	}
	if m := res.Middle(); m.Lat != 27.9 || m.Lon != 77.6 {
		t.Fatalf("Middle = %v", m)
	}
	f := res.GeoJSON()
	if f.Geometry.GeoJSONType() != "LineString" || f.Properties["distance_m"] != 233000.0 {
		t.Fatalf("geojson = %+v", f)
	}
}

func TestOSRMNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"code":"NoRoute","message":"Impossible route","routes":[]}`)
	}))
	defer srv.Close()

	_, err := NewOSRM(Options{BaseURL: srv.URL}).Route(context.Background(), Point{Lat: 1, Lon: 1}, Point{Lat: 2, Lon: 2})
	if err == nil || !strings.Contains(err.Error(), "NoRoute") {
		t.Fatalf("err = %v", err)
	}
}

func TestOSRMRejectsInvalidWaypoints(t *testing.T) {
	_, err := NewOSRM(Options{BaseURL: "http://127.0.0.1:1"}).Route(context.Background(), Point{}, Point{Lat: 2, Lon: 2})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestOverpassQueryPostsForm(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		body, _ := io.ReadAll(r.Body)
		form, err := url.ParseQuery(string(body))
		if err != nil || !strings.Contains(form.Get("data"), "[out:json]") {
			t.Errorf("body = %s", body)
		}
		fmt.Fprint(w, `{"elements":[
			{"type":"node","id":1,"lat":15.1,"lon":73.9,"tags":{"name":"Fort","historic":"fort"}},
			{"type":"way","id":2,"center":{"lat":15.2,"lon":74.0},"tags":{"tourism":"museum"}}]}`)
	}))
	defer srv.Close()

	els, err := NewOverpass(Options{BaseURL: srv.URL}).Query(context.Background(), "[out:json];node(1);out;")
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(els) != 2 {
		t.Fatalf("elements = %d", len(els))
	}
	if p := els[0].Position(); p.Lat != 15.1 {
		t.Fatalf("node position = %v", p)
	}
	if p := els[1].Position(); p.Lat != 15.2 || p.Lon != 74.0 {
		t.Fatalf("way center = %v", p)
	}
	if els[1].Key() != "way/2" {
		t.Fatalf("Key = %s", els[1].Key())
	}
}
