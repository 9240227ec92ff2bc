package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"places-api/logger"
	"places-api/models"
	apierrors "places-api/utils/errors"

	"github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"
)

const maxGeocodeResponseBytes = 1 << 20

// Geocoder resolves a postal address to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, address string) (models.Location, error)
}

// GeocodeCache remembers resolved addresses. A cache failure is a miss,
// never an error.
type GeocodeCache interface {
	Get(ctx context.Context, address string) (models.Location, bool)
	Set(ctx context.Context, address string, loc models.Location)
}

// GoogleGeocoder calls the Google Geocoding API.
type GoogleGeocoder struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	cache      GeocodeCache
	log        *logger.Logger
}

// NewGoogleGeocoder builds a geocoder. cache may be nil.
func NewGoogleGeocoder(apiKey, baseURL string, cache GeocodeCache, log *logger.Logger) *GoogleGeocoder {
	return &GoogleGeocoder{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		apiKey:     apiKey,
		baseURL:    baseURL,
		cache:      cache,
		log:        log.With("service", "GoogleGeocoder"),
	}
}

func (g *GoogleGeocoder) Resolve(ctx context.Context, address string) (models.Location, error) {
	if g.cache != nil {
		if loc, ok := g.cache.Get(ctx, address); ok {
			return loc, nil
		}
	}

	u, err := url.Parse(g.baseURL)
	if err != nil {
		return models.Location{}, apierrors.ErrGeocode.WithCause(err)
	}
	q := u.Query()
	q.Set("address", address)
	q.Set("key", g.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return models.Location{}, apierrors.ErrGeocode.WithCause(err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return models.Location{}, apierrors.ErrGeocode.WithCause(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxGeocodeResponseBytes))
	if err != nil {
		return models.Location{}, apierrors.ErrGeocode.WithCause(err)
	}
	if resp.StatusCode != http.StatusOK {
		return models.Location{}, apierrors.ErrGeocode.WithCause(fmt.Errorf("geocoding upstream returned %d", resp.StatusCode))
	}

	loc, err := parseGeocodeResponse(body)
	if err != nil {
		return models.Location{}, err
	}
	g.log.Debug("Resolved address", "address", address, "lat", loc.Lat, "lng", loc.Lng)

	if g.cache != nil {
		g.cache.Set(ctx, address, loc)
	}
	return loc, nil
}

func parseGeocodeResponse(body []byte) (models.Location, error) {
	if !gjson.ValidBytes(body) {
		return models.Location{}, apierrors.ErrGeocode.WithCause(errors.New("malformed geocoding response"))
	}
	res := gjson.ParseBytes(body)

	status := res.Get("status").String()
	if status == "ZERO_RESULTS" || !res.Get("results.0").Exists() {
		return models.Location{}, apierrors.ErrGeocode
	}
	if status != "" && status != "OK" {
		return models.Location{}, apierrors.ErrGeocode.WithCause(
			fmt.Errorf("geocoding status %s: %s", status, res.Get("error_message").String()))
	}

	lat := res.Get("results.0.geometry.location.lat")
	lng := res.Get("results.0.geometry.location.lng")
	if lat.Type != gjson.Number || lng.Type != gjson.Number {
		return models.Location{}, apierrors.ErrGeocode.WithCause(errors.New("geocoding result has no location"))
	}
	return models.Location{Lat: lat.Float(), Lng: lng.Float()}, nil
}

// RedisGeocodeCache stores resolved coordinates as JSON under geocode:<address>.
type RedisGeocodeCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

func NewRedisGeocodeCache(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisGeocodeCache {
	return &RedisGeocodeCache{client: client, ttl: ttl, log: log.With("service", "RedisGeocodeCache")}
}

func geocodeCacheKey(address string) string {
	return "geocode:" + strings.ToLower(strings.TrimSpace(address))
}

func (c *RedisGeocodeCache) Get(ctx context.Context, address string) (models.Location, bool) {
	raw, err := c.client.Get(ctx, geocodeCacheKey(address)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("Failed to read geocode cache", "address", address, "error", err)
		}
		return models.Location{}, false
	}
	var loc models.Location
	if err := json.Unmarshal([]byte(raw), &loc); err != nil {
		c.log.Warn("Failed to unmarshal cached location", "address", address, "error", err)
		return models.Location{}, false
	}
	return loc, true
}

func (c *RedisGeocodeCache) Set(ctx context.Context, address string, loc models.Location) {
	locJSON, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, geocodeCacheKey(address), locJSON, c.ttl).Err(); err != nil {
		c.log.Warn("Failed to write geocode cache", "address", address, "error", err)
	}
}
