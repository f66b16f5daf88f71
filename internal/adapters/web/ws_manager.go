package web

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/services/navigation"
)

const (
	writeTimeout  = 5 * time.Second
	sendQueueSize = 64
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// Allow same-origin (no Origin header)
		if origin == "" {
			return true
		}

		allowedOrigins := []string{
			"http://localhost:8080",
			"http://127.0.0.1:8080",
			"http://[::1]:8080",
		}

		for _, allowed := range allowedOrigins {
			if origin == allowed {
				return true
			}
		}

		slog.Warn("websocket origin rejected", "origin", origin)
		return false
	},
}

// WSManager upgrades browser connections and binds each one to a
// navigation session. One connection is one session.
type WSManager struct {
	Sessions *navigation.Manager

	mu      sync.Mutex
	clients map[*client]struct{}
}

func NewWSManager(sessions *navigation.Manager) *WSManager {
	return &WSManager{
		Sessions: sessions,
		clients:  make(map[*client]struct{}),
	}
}

// client is one browser connection: the websocket, its outbound queue and
// the bridges that turn the browser into this session's sensor and map.
type client struct {
	conn    *websocket.Conn
	out     chan []byte
	done    chan struct{}
	once    sync.Once
	sensor  *sensorBridge
	orient  *orientationBridge
	session *navigation.Session
}

// send queues one frame for the write pump. Frames to a stalled client are
// dropped once the queue fills; the read pump tears the connection down.
func (c *client) send(msgType string, payload any) {
	data, err := makeMessage(msgType, payload)
	if err != nil {
		slog.Error("websocket marshal failed", "type", msgType, "error", err)
		return
	}

	select {
	case c.out <- data:
	case <-c.done:
	default:
		slog.Warn("websocket send queue full, frame dropped", "type", msgType)
	}
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

// HandleWebSocket upgrades the request and runs the connection until the
// browser goes away. A session_id query parameter resumes a prior session's
// cached state; without one a fresh session id is issued.
func (m *WSManager) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		out:  make(chan []byte, sendQueueSize),
		done: make(chan struct{}),
	}
	c.sensor = newSensorBridge(c)
	c.orient = newOrientationBridge(c)

	session, err := m.Sessions.Open(r.URL.Query().Get("session_id"), newSurfaceBridge(c), c.sensor, c.orient)
	if err != nil {
		slog.Error("session open failed", "error", err)
		conn.Close()
		return
	}
	c.session = session
	session.OnProgress = func(p navigation.Progress) {
		c.send(msgRouteProgress, routeProgressPayload{
			RemainingMeters: p.RemainingMeters,
			ETASeconds:      p.ETA.Seconds(),
		})
	}
	session.Viewport.OnPermissionDenied = func() {
		c.send(msgPermissionDenied, struct{}{})
	}

	m.mu.Lock()
	m.clients[c] = struct{}{}
	m.mu.Unlock()

	slog.Info("websocket connected", "session", session.ID)
	c.send(msgSessionReady, sessionReadyPayload{SessionID: session.ID})

	go c.writePump()
	go m.readPump(c)

	session.Viewport.InitializeLocation(session.Context(), seedFromQuery(r))
}

// seedFromQuery reads an optional lat/lng pair the embedding page passed on
// the websocket URL, used as the lowest-tier seed before any real fix.
func seedFromQuery(r *http.Request) *domain.Coordinate {
	latStr, lngStr := r.URL.Query().Get("lat"), r.URL.Query().Get("lng")
	if latStr == "" || lngStr == "" {
		return nil
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return nil
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return nil
	}
	coord := domain.Coordinate{Latitude: lat, Longitude: lng}
	if !coord.Valid() {
		return nil
	}
	return &coord
}

func (c *client) writePump() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.out:
			c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		}
	}
}

func (m *WSManager) readPump(c *client) {
	defer func() {
		c.close()
		m.mu.Lock()
		delete(m.clients, c)
		m.mu.Unlock()
		m.Sessions.Close(c.session.ID)
		slog.Info("websocket disconnected", "session", c.session.ID)
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(msgError, errorPayload{Message: "malformed message"})
			continue
		}

		handled, err := c.handleSensorFrame(msg)
		if err != nil {
			c.send(msgError, errorPayload{Message: err.Error()})
			continue
		}
		if handled {
			continue
		}

		// Session operations may block on remote calls or on reply frames
		// this loop has yet to read, so each one runs off the loop.
		go func(msg WSMessage) {
			if err := m.dispatch(c, msg); err != nil {
				slog.Warn("websocket message failed", "session", c.session.ID, "type", msg.Type, "error", err)
				c.send(msgError, errorPayload{Message: err.Error()})
			}
		}(msg)
	}
}

// handleSensorFrame consumes sensor data and request/reply frames inline.
// Blocked session operations wait on these, so they stay on the read loop.
// Returns false for frames that carry a session operation.
func (c *client) handleSensorFrame(msg WSMessage) (bool, error) {
	switch msg.Type {
	case msgPositionFix:
		var p fixPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return true, err
		}
		c.sensor.handleFix(p)

	case msgPositionError:
		var p geoErrorPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return true, err
		}
		c.sensor.handleWatchError(p.Code)

	case msgGeolocationResult:
		var p geoResultPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return true, err
		}
		c.sensor.handleAcquireResult(p)

	case msgOrientationHeading:
		var p headingPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return true, err
		}
		c.orient.handleHeading(p.Heading)

	case msgOrientationGrant:
		var p grantPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return true, err
		}
		c.orient.handleGrant(p)

	default:
		return false, nil
	}

	return true, nil
}

// dispatch routes one inbound frame to the session operation it names.
func (m *WSManager) dispatch(c *client, msg WSMessage) error {
	ctx := c.session.Context()

	switch msg.Type {
	case msgOrientationEnable:
		return c.session.Source.EnableOrientation(ctx)

	case msgViewportDragEnd:
		c.session.Viewport.HandleDragEnd()

	case msgTrackingStart:
		var p trackingPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		return c.session.Viewport.StartTracking(ctx, p.Mode)

	case msgTrackingStop:
		c.session.Viewport.StopTracking()

	case msgTrackingRecenter:
		c.session.Viewport.RecenterOnCurrent(ctx)

	case msgRouteSelect:
		var p routeSelectPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		result, err := c.session.SelectRoute(ctx, domain.RouteRequest{Start: p.Start, End: p.End, Kind: p.Kind})
		if err != nil {
			c.send(msgRouteError, errorPayload{Message: err.Error()})
			return nil
		}
		if result != nil {
			payload := routeResultPayload{
				DistanceMeters: result.DistanceMeters,
				ETASeconds:     result.ETA.Seconds(),
			}
			if result.Adjuncts != nil {
				payload.CameraCount = len(result.Adjuncts.Cameras)
				payload.StoreCount = len(result.Adjuncts.Stores)
			}
			c.send(msgRouteResult, payload)
		}

	case msgRouteClear:
		c.session.ClearRoute()

	case msgFilterToggle:
		var p filterTogglePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		return c.session.ToggleFilter(ctx, p.Category, p.Enabled)

	case msgPopupOpen:
		var p popupOpenPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return err
		}
		c.session.Markers.OpenPopup(p.Category, p.Item)

	case msgPopupClose:
		c.session.Markers.ClosePopup()

	case msgPermissionRetry:
		c.session.Source.ResetPermission()
		c.session.Viewport.InitializeLocation(ctx, nil)

	default:
		slog.Debug("unknown websocket message", "type", msg.Type)
	}

	return nil
}

// Count reports connected clients.
func (m *WSManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.clients)
}
