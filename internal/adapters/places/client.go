package places

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/moyak/saferoute/internal/core/domain"
)

// Remote resource names per POI category.
var categoryPaths = map[string]string{
	domain.CategoryConvenienceStore: "ConvenienceStores",
	domain.CategoryPolice:           "Police",
	domain.CategoryWheelchair:       "WheelChairs",
	domain.CategoryWomenSafety:      "WomenPlaces",
}

// Client queries the per-category point-of-interest services. Each category
// is an independent remote dataset keyed by a location; responses are opaque
// data sources for the marker layer.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a places client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

type wirePlace struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
	Phone     string  `json:"phone"`
	Category  string  `json:"category"`
}

// Nearby fetches the category's places around the given coordinate.
func (c *Client) Nearby(ctx context.Context, category string, around domain.Coordinate) ([]domain.PointOfInterest, error) {
	path, ok := categoryPaths[category]
	if !ok {
		return nil, fmt.Errorf("unknown POI category %q", category)
	}

	q := url.Values{}
	q.Set("lat", fmt.Sprintf("%f", around.Latitude))
	q.Set("lng", fmt.Sprintf("%f", around.Longitude))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s?%s", c.baseURL, path, q.Encode()), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("places service %s: status %d", path, resp.StatusCode)
	}

	var raw []wirePlace
	if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
		return nil, fmt.Errorf("places service %s: %w", path, err)
	}

	out := make([]domain.PointOfInterest, 0, len(raw))
	for _, p := range raw {
		poi := domain.PointOfInterest{
			Name:       p.Name,
			Coordinate: domain.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude},
			Address:    p.Address,
		}
		if p.Phone != "" || p.Category != "" {
			poi.Detail = map[string]string{}
			if p.Phone != "" {
				poi.Detail["phone"] = p.Phone
			}
			if p.Category != "" {
				poi.Detail["category"] = p.Category
			}
		}
		out = append(out, poi)
	}
	return out, nil
}
