package directions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyak/saferoute/internal/core/domain"
)

var testReq = domain.RouteRequest{
	Start: domain.Coordinate{Latitude: 35.8714, Longitude: 128.6014},
	End:   domain.Coordinate{Latitude: 35.8680, Longitude: 128.5970},
	Kind:  domain.RouteNormal,
}

const safeBody = `{
	"success": true,
	"data": {
		"features": [
			{
				"geometry": {"type": "LineString", "coordinates": [[128.6014, 35.8714], [128.5990, 35.8700], [128.5970, 35.8680]]},
				"properties": {"totalDistance": 612.5, "totalTime": 480}
			},
			{
				"geometry": {"type": "Point", "coordinates": [[128.5970, 35.8680]]},
				"properties": {}
			}
		],
		"nearbyCCTVs": [{"name": "crossing cam", "latitude": 35.8701, "longitude": 128.5991, "purpose": "crime watch", "cameraCount": 2}],
		"nearbyStores": [{"name": "GS25", "latitude": 35.8690, "longitude": 128.5980, "address": "Jung-gu", "distance": "80m"}]
	}
}`

func TestRoute_ParsesPathAndMetadata(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/normal-direction", r.URL.Path)
		assert.Equal(t, "35.871400,128.601400", r.URL.Query().Get("start"))
		assert.Equal(t, "35.868000,128.597000", r.URL.Query().Get("goal"))
		w.Write([]byte(safeBody))
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL).Route(context.Background(), testReq)
	require.NoError(t, err)

	// Wire order is [lon, lat]; only LineString features contribute.
	require.Len(t, result.Path, 3)
	assert.Equal(t, 35.8714, result.Path[0].Latitude)
	assert.Equal(t, 128.6014, result.Path[0].Longitude)
	assert.Equal(t, 612.5, result.DistanceMeters)
	assert.Equal(t, 8*time.Minute, result.ETA)
	assert.Nil(t, result.Adjuncts, "normal routes carry no adjuncts")
}

func TestRoute_SafeEndpointAndAdjuncts(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/safe-direction", r.URL.Path)
		w.Write([]byte(safeBody))
	}))
	defer srv.Close()

	req := testReq
	req.Kind = domain.RouteSafe
	result, err := NewClient(srv.URL).Route(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, result.Adjuncts)
	require.Len(t, result.Adjuncts.Cameras, 1)
	assert.Equal(t, "crossing cam", result.Adjuncts.Cameras[0].Name)
	assert.Equal(t, "2", result.Adjuncts.Cameras[0].Detail["cameraCount"])
	require.Len(t, result.Adjuncts.Stores, 1)
	assert.Equal(t, "80m", result.Adjuncts.Stores[0].Detail["distance"])
}

func TestRoute_ServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"success": false, "error": "no route between points"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Route(context.Background(), testReq)
	var routeErr *domain.RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Contains(t, routeErr.Message, "no route between points")
}

func TestRoute_HTTPErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Route(context.Background(), testReq)
	var routeErr *domain.RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Contains(t, routeErr.Message, "502")
}

func TestRoute_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<html>gateway error</html>`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Route(context.Background(), testReq)
	var routeErr *domain.RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Contains(t, routeErr.Message, "malformed")
}

func TestRoute_Unreachable(t *testing.T) {
	_, err := NewClient("http://127.0.0.1:1").Route(context.Background(), testReq)
	var routeErr *domain.RouteError
	require.ErrorAs(t, err, &routeErr)
	assert.Contains(t, routeErr.Message, "unreachable")
}

func TestRoute_CancellationPassesThrough(t *testing.T) {
	started := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(started)
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()

	_, err := NewClient(srv.URL).Route(ctx, testReq)
	assert.ErrorIs(t, err, context.Canceled, "cancellation is not wrapped as a route error")
}
