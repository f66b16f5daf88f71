package web

import (
	"encoding/json"

	"github.com/moyak/saferoute/internal/core/domain"
)

// WSMessage is the envelope for every frame in either direction.
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func makeMessage(msgType string, payload any) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(WSMessage{Type: msgType, Payload: raw})
}

// Inbound message types (browser -> server).
const (
	msgPositionFix        = "position.fix"
	msgPositionError      = "position.error"
	msgGeolocationResult  = "geolocation.result"
	msgOrientationHeading = "orientation.heading"
	msgOrientationGrant   = "orientation.grant"
	msgOrientationEnable  = "orientation.enable"
	msgViewportDragEnd    = "viewport.dragend"
	msgTrackingStart      = "tracking.start"
	msgTrackingStop       = "tracking.stop"
	msgTrackingRecenter   = "tracking.recenter"
	msgRouteSelect        = "route.select"
	msgRouteClear         = "route.clear"
	msgFilterToggle       = "filter.toggle"
	msgPopupOpen          = "popup.open"
	msgPopupClose         = "popup.close"
	msgPermissionRetry    = "permission.retry"
)

// Outbound message types (server -> browser).
const (
	msgViewportCenter     = "viewport.center"
	msgViewportZoom       = "viewport.zoom"
	msgViewportFit        = "viewport.fit"
	msgPositionMarker     = "position.marker"
	msgOverlaySet         = "overlay.set"
	msgRoutePath          = "route.path"
	msgRouteResult        = "route.result"
	msgRouteError         = "route.error"
	msgRouteProgress      = "route.progress"
	msgPopupShow          = "popup.show"
	msgPopupHide          = "popup.hide"
	msgGeolocationAcquire = "geolocation.acquire"
	msgGeolocationWatch   = "geolocation.watch"
	msgGeolocationClear   = "geolocation.clearwatch"
	msgOrientationAsk     = "orientation.request"
	msgPermissionDenied   = "permission.denied"
	msgSessionReady       = "session.ready"
	msgError              = "error"
)

// Geolocation error codes on the wire, mirroring the browser API.
const (
	codePermissionDenied    = "permission_denied"
	codePositionUnavailable = "position_unavailable"
	codeTimeout             = "timeout"
	codeUnsupported         = "unsupported"
)

type fixPayload struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Accuracy  float64  `json:"accuracy"`
	Heading   *float64 `json:"heading,omitempty"`
	Timestamp int64    `json:"timestamp"` // unix milliseconds
}

type geoResultPayload struct {
	ID   string      `json:"id"`
	Fix  *fixPayload `json:"fix,omitempty"`
	Code string      `json:"code,omitempty"`
}

type geoErrorPayload struct {
	Code string `json:"code"`
}

type acquirePayload struct {
	ID           string `json:"id"`
	HighAccuracy bool   `json:"highAccuracy"`
	TimeoutMs    int    `json:"timeoutMs"`
	MaximumAgeMs int    `json:"maximumAgeMs"`
}

type watchPayload struct {
	HighAccuracy bool `json:"highAccuracy"`
	TimeoutMs    int  `json:"timeoutMs"`
	MaximumAgeMs int  `json:"maximumAgeMs"`
}

type headingPayload struct {
	Heading float64 `json:"heading"`
}

type grantPayload struct {
	ID      string `json:"id"`
	Granted bool   `json:"granted"`
}

type trackingPayload struct {
	Mode domain.TrackingMode `json:"mode"`
}

type routeSelectPayload struct {
	Start domain.Coordinate `json:"start"`
	End   domain.Coordinate `json:"end"`
	Kind  domain.RouteKind  `json:"kind"`
}

type filterTogglePayload struct {
	Category string `json:"category"`
	Enabled  bool   `json:"enabled"`
}

type popupOpenPayload struct {
	Category string                 `json:"category"`
	Item     domain.PointOfInterest `json:"item"`
}

type centerPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Animate   bool    `json:"animate"`
}

type zoomPayload struct {
	Level   int  `json:"level"`
	Animate bool `json:"animate"`
}

type pathPayload struct {
	Path []domain.Coordinate `json:"path"`
}

type markerPayload struct {
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Heading   *float64 `json:"heading,omitempty"`
}

type overlayPayload struct {
	Category string                   `json:"category"`
	Items    []domain.PointOfInterest `json:"items"`
}

type routeResultPayload struct {
	DistanceMeters float64 `json:"distanceMeters"`
	ETASeconds     float64 `json:"etaSeconds"`
	CameraCount    int     `json:"cameraCount"`
	StoreCount     int     `json:"storeCount"`
}

type routeProgressPayload struct {
	RemainingMeters float64 `json:"remainingMeters"`
	ETASeconds      float64 `json:"etaSeconds"`
}

type errorPayload struct {
	Message string `json:"message"`
}

type sessionReadyPayload struct {
	SessionID string `json:"sessionId"`
}
