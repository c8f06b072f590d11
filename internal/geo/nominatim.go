package geo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

const (
	searchCacheTTL    = time.Hour
	maxCachedSearches = 1024
)

// Location is one geocoding suggestion.
type Location struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type nominatimResult struct {
	PlaceID     int64  `json:"place_id"`
	DisplayName string `json:"display_name"`
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
}

type cachedSearch struct {
	locations []Location
	at        time.Time
}

// Nominatim is a client for the OpenStreetMap Nominatim search and reverse APIs.
type Nominatim struct {
	opts  Options
	http  *http.Client
	now   func() time.Time
	group singleflight.Group

	mu     sync.Mutex
	cache  map[string]cachedSearch
	pruned time.Time
}

func NewNominatim(opts Options) *Nominatim {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://nominatim.openstreetmap.org"
	}
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Nominatim{
		opts:  opts,
		http:  opts.client(),
		now:   time.Now,
		cache: map[string]cachedSearch{},
	}
}

// Search returns up to limit locations matching query. Results are cached per
// (query, limit) and concurrent identical lookups share one upstream call. The
// shared call is not tied to any one caller, so a caller that gives up only
// stops waiting.
func (n *Nominatim) Search(ctx context.Context, query string, limit int) ([]Location, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("query is required")
	}
	if limit <= 0 {
		limit = 5
	}
	key := fmt.Sprintf("%d:%s", limit, strings.ToLower(query))

	if hit, ok := n.cached(key); ok {
		return hit, nil
	}

	ch := n.group.DoChan(key, func() (any, error) {
		if hit, ok := n.cached(key); ok {
			return hit, nil
		}
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.opts.timeout())
		defer cancel()
		locs, err := n.search(fctx, query, limit)
		if err != nil {
			return nil, err
		}
		n.store(key, locs)
		return locs, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]Location), nil
	}
}

func (n *Nominatim) cached(key string) ([]Location, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	hit, ok := n.cache[key]
	if !ok {
		return nil, false
	}
	if n.now().Sub(hit.at) >= searchCacheTTL {
		delete(n.cache, key)
		return nil, false
	}
	return hit.locations, true
}

// store caches locs under key. Expired entries are pruned at most once per TTL
// or when the cache is full; a full cache then drops its oldest entry.
func (n *Nominatim) store(key string, locs []Location) {
	now := n.now()
	n.mu.Lock()
	defer n.mu.Unlock()

	if now.Sub(n.pruned) >= searchCacheTTL || len(n.cache) >= maxCachedSearches {
		for k, v := range n.cache {
			if now.Sub(v.at) >= searchCacheTTL {
				delete(n.cache, k)
			}
		}
		n.pruned = now
	}
	for len(n.cache) >= maxCachedSearches {
		oldest, first := "", true
		var at time.Time
		for k, v := range n.cache {
			if first || v.at.Before(at) {
				oldest, at, first = k, v.at, false
			}
		}
		delete(n.cache, oldest)
	}
	n.cache[key] = cachedSearch{locations: locs, at: now}
}

func (n *Nominatim) search(ctx context.Context, query string, limit int) ([]Location, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("format", "json")
	params.Set("limit", strconv.Itoa(limit))
	params.Set("addressdetails", "1")

	req, err := http.NewRequest(http.MethodGet, n.opts.BaseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.opts.userAgent())

	var results []nominatimResult
	if err := doJSON(ctx, n.http, "nominatim", req, &results); err != nil {
		return nil, err
	}

	out := make([]Location, 0, len(results))
	for _, r := range results {
		lat, err := strconv.ParseFloat(r.Lat, 64)
		if err != nil {
			continue
		}
		lon, err := strconv.ParseFloat(r.Lon, 64)
		if err != nil {
			continue
		}
		out = append(out, Location{Name: r.DisplayName, Latitude: lat, Longitude: lon})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// Reverse resolves p to a human-readable display name.
func (n *Nominatim) Reverse(ctx context.Context, p Point) (string, error) {
	params := url.Values{}
	params.Set("lat", strconv.FormatFloat(p.Lat, 'f', 6, 64))
	params.Set("lon", strconv.FormatFloat(p.Lon, 'f', 6, 64))
	params.Set("format", "json")

	req, err := http.NewRequest(http.MethodGet, n.opts.BaseURL+"/reverse?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", n.opts.userAgent())

	var result nominatimResult
	if err := doJSON(ctx, n.http, "nominatim", req, &result); err != nil {
		return "", err
	}
	if result.DisplayName == "" {
		return "", fmt.Errorf("nominatim: no address for %s", p)
	}
	return result.DisplayName, nil
}
