package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
	"github.com/moyak/saferoute/internal/core/services/navigation"
)

var (
	wsStart = domain.Coordinate{Latitude: 35.8714, Longitude: 128.6014}
	wsGoalA = domain.Coordinate{Latitude: 35.8800, Longitude: 128.6100}
	wsGoalB = domain.Coordinate{Latitude: 35.8600, Longitude: 128.5900}
)

// scriptedDirections answers route requests immediately, except that with
// blockFirst set the first request parks until its context is canceled.
type scriptedDirections struct {
	mu         sync.Mutex
	calls      int
	started    chan struct{}
	blockFirst bool
}

func (d *scriptedDirections) Route(ctx context.Context, req domain.RouteRequest) (*domain.RouteResult, error) {
	d.mu.Lock()
	d.calls++
	n := d.calls
	d.mu.Unlock()

	if d.started != nil {
		d.started <- struct{}{}
	}
	if d.blockFirst && n == 1 {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	return &domain.RouteResult{
		Path:           []domain.Coordinate{req.Start, req.End},
		DistanceMeters: 480,
		ETA:            5 * time.Minute,
	}, nil
}

func (d *scriptedDirections) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.calls
}

type stubPlaces struct{}

func (stubPlaces) Nearby(ctx context.Context, category string, around domain.Coordinate) ([]domain.PointOfInterest, error) {
	return nil, nil
}

type wsMemStore struct {
	mu   sync.Mutex
	data map[string][]byte
}

func (m *wsMemStore) Get(key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *wsMemStore) Set(key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *wsMemStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *wsMemStore) Close() error { return nil }

// dialSocket runs a WSManager behind an httptest server and dials it with a
// seed coordinate so the viewport settles without a real sensor.
func dialSocket(t *testing.T, dir ports.Directions) *websocket.Conn {
	t.Helper()

	sessions := navigation.NewManager(navigation.Deps{
		Directions: dir,
		Places:     stubPlaces{},
		StoreFor: func(string) ports.SessionStore {
			return &wsMemStore{data: make(map[string][]byte)}
		},
		Fallback:   wsStart,
		SessionTTL: time.Hour,
	})
	srv := httptest.NewServer(http.HandlerFunc(NewWSManager(sessions).HandleWebSocket))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?lat=35.8714&lng=128.6014"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return conn
}

func sendFrame(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(WSMessage{Type: msgType, Payload: raw}))
}

// awaitFrame reads frames until one of the wanted type arrives, skipping
// everything else the server pushes in between.
func awaitFrame(t *testing.T, conn *websocket.Conn, msgType string, timeout time.Duration) WSMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(timeout)))
	for {
		var msg WSMessage
		require.NoError(t, conn.ReadJSON(&msg), "waiting for %s", msgType)
		if msg.Type == msgType {
			return msg
		}
	}
}

// frameAbsent drains frames until the deadline and fails if one of the given
// type shows up.
func frameAbsent(t *testing.T, conn *websocket.Conn, msgType string, window time.Duration) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(window)))
	for {
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		require.NotEqual(t, msgType, msg.Type)
	}
}

func TestWebSocket_OrientationEnableKeepsSessionResponsive(t *testing.T) {
	conn := dialSocket(t, &scriptedDirections{})

	awaitFrame(t, conn, msgSessionReady, 2*time.Second)

	// The permission grant travels over the same connection that asked for
	// it, so the enable operation must not occupy the read loop.
	sendFrame(t, conn, msgOrientationEnable, struct{}{})
	ask := awaitFrame(t, conn, msgOrientationAsk, 2*time.Second)

	var req grantPayload
	require.NoError(t, json.Unmarshal(ask.Payload, &req))
	sendFrame(t, conn, msgOrientationGrant, grantPayload{ID: req.ID, Granted: true})

	sendFrame(t, conn, msgRouteSelect, routeSelectPayload{Start: wsStart, End: wsGoalA, Kind: domain.RouteNormal})

	result := awaitFrame(t, conn, msgRouteResult, 3*time.Second)
	var p routeResultPayload
	require.NoError(t, json.Unmarshal(result.Payload, &p))
	assert.InDelta(t, 480, p.DistanceMeters, 0.01)
}

func TestWebSocket_RapidRouteSelectSupersedesInFlight(t *testing.T) {
	dir := &scriptedDirections{blockFirst: true, started: make(chan struct{}, 4)}
	conn := dialSocket(t, dir)

	awaitFrame(t, conn, msgSessionReady, 2*time.Second)

	sendFrame(t, conn, msgRouteSelect, routeSelectPayload{Start: wsStart, End: wsGoalA, Kind: domain.RouteNormal})
	select {
	case <-dir.started:
	case <-time.After(2 * time.Second):
		t.Fatal("first route request never reached the directions service")
	}

	// The second select must be read while the first request is still in
	// flight; the coordinator cancels the stale one underneath.
	sendFrame(t, conn, msgRouteSelect, routeSelectPayload{Start: wsStart, End: wsGoalB, Kind: domain.RouteNormal})

	result := awaitFrame(t, conn, msgRouteResult, 3*time.Second)
	var p routeResultPayload
	require.NoError(t, json.Unmarshal(result.Payload, &p))
	assert.InDelta(t, 480, p.DistanceMeters, 0.01)
	assert.Equal(t, 2, dir.count())

	// The superseded request resolves silently, never as a second result.
	frameAbsent(t, conn, msgRouteResult, 300*time.Millisecond)
}
