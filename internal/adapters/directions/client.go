package directions

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

const requestTimeout = 30 * time.Second

// Client talks to the remote route computation service. The service is an
// opaque black box: it accepts start/goal/kind and returns a path plus
// metadata, or a structured error payload with a human-readable message.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a directions client for the given base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		http: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Wire format of the route service.
type routeResponse struct {
	Success bool      `json:"success"`
	Data    routeData `json:"data"`
	Error   string    `json:"error"`
}

type routeData struct {
	Features     []feature `json:"features"`
	NearbyCCTVs  []wirePOI `json:"nearbyCCTVs"`
	NearbyStores []wirePOI `json:"nearbyStores"`
}

type feature struct {
	Geometry struct {
		Type        string      `json:"type"`
		Coordinates [][]float64 `json:"coordinates"` // [lon, lat] pairs
	} `json:"geometry"`
	Properties struct {
		TotalDistance float64 `json:"totalDistance"`
		TotalTime     float64 `json:"totalTime"` // seconds
	} `json:"properties"`
}

type wirePOI struct {
	Name        string  `json:"name"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Address     string  `json:"address"`
	Purpose     string  `json:"purpose"`
	CameraCount int     `json:"cameraCount"`
	Distance    string  `json:"distance"`
}

// Route issues the computation request. Honors ctx cancellation: once ctx is
// done the transport call unwinds with ctx.Err() and any late response is
// dropped on the floor.
func (c *Client) Route(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error) {
	endpoint := "normal-direction"
	if req.Kind == domain.RouteSafe {
		endpoint = "safe-direction"
	}

	q := url.Values{}
	q.Set("start", fmt.Sprintf("%f,%f", req.Start.Latitude, req.Start.Longitude))
	q.Set("goal", fmt.Sprintf("%f,%f", req.End.Latitude, req.End.Longitude))

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet,
		fmt.Sprintf("%s/%s?%s", c.baseURL, endpoint, q.Encode()), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		// ctx cancellation surfaces here; pass it through untouched so
		// the coordinator can tell superseded from failed.
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &domain.RouteError{Kind: req.Kind, Message: "route service unreachable", Err: err}
	}
	defer resp.Body.Close()

	var payload routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, &domain.RouteError{Kind: req.Kind, Message: "malformed route response", Err: err}
	}

	if resp.StatusCode != http.StatusOK || !payload.Success {
		msg := payload.Error
		if msg == "" {
			msg = fmt.Sprintf("route service returned status %d", resp.StatusCode)
		}
		return nil, &domain.RouteError{Kind: req.Kind, Message: msg}
	}

	return toResult(req.Kind, payload.Data), nil
}

func toResult(kind domain.RouteKind, data routeData) *domain.RouteResult {
	var path []domain.Coordinate
	var distance, seconds float64

	for i, f := range data.Features {
		if f.Geometry.Type != "LineString" {
			continue
		}
		for _, pair := range f.Geometry.Coordinates {
			if len(pair) < 2 {
				continue
			}
			// Wire order is [lon, lat].
			path = append(path, domain.Coordinate{Latitude: pair[1], Longitude: pair[0]})
		}
		if i == 0 {
			distance = f.Properties.TotalDistance
			seconds = f.Properties.TotalTime
		}
	}

	result := &domain.RouteResult{
		Path:           path,
		DistanceMeters: distance,
		ETA:            time.Duration(seconds * float64(time.Second)),
	}

	if kind == domain.RouteSafe && (len(data.NearbyCCTVs) > 0 || len(data.NearbyStores) > 0) {
		result.Adjuncts = &domain.SafetyAdjuncts{
			Cameras: toPOIs(data.NearbyCCTVs),
			Stores:  toPOIs(data.NearbyStores),
		}
	}
	return result
}

func toPOIs(in []wirePOI) []domain.PointOfInterest {
	out := make([]domain.PointOfInterest, 0, len(in))
	for _, p := range in {
		poi := domain.PointOfInterest{
			Name:       p.Name,
			Coordinate: domain.Coordinate{Latitude: p.Latitude, Longitude: p.Longitude},
			Address:    p.Address,
		}
		detail := map[string]string{}
		if p.Purpose != "" {
			detail["purpose"] = p.Purpose
		}
		if p.CameraCount > 0 {
			detail["cameraCount"] = fmt.Sprintf("%d", p.CameraCount)
		}
		if p.Distance != "" {
			detail["distance"] = p.Distance
		}
		if len(detail) > 0 {
			poi.Detail = detail
		}
		out = append(out, poi)
	}
	return out
}
