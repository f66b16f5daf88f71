package mock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyak/saferoute/internal/core/domain"
	"github.com/moyak/saferoute/internal/core/ports"
)

var origin = domain.Coordinate{Latitude: 35.8714, Longitude: 128.6014}

func TestWalker_CurrentPosition(t *testing.T) {
	w := NewWalker(origin)

	sample, err := w.CurrentPosition(context.Background(), ports.FixOptions{HighAccuracy: true})
	require.NoError(t, err)
	require.NotNil(t, sample)

	assert.True(t, sample.Accurate())
	assert.InDelta(t, origin.Latitude, sample.Latitude, 0.001)
	assert.InDelta(t, origin.Longitude, sample.Longitude, 0.001)
	require.NotNil(t, sample.Heading)
	assert.GreaterOrEqual(t, *sample.Heading, 0.0)
	assert.Less(t, *sample.Heading, 360.0)
}

func TestWalker_CurrentPositionHonorsContext(t *testing.T) {
	w := NewWalker(origin)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := w.CurrentPosition(ctx, ports.FixOptions{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDirections_StraightLineRoute(t *testing.T) {
	req := domain.RouteRequest{
		Start: origin,
		End:   domain.Coordinate{Latitude: 35.8680, Longitude: 128.5970},
		Kind:  domain.RouteNormal,
	}

	result, err := Directions{}.Route(context.Background(), req)
	require.NoError(t, err)

	assert.Len(t, result.Path, 21)
	assert.Equal(t, req.Start, result.Path[0])
	assert.Equal(t, req.End, result.Path[len(result.Path)-1])
	assert.Greater(t, result.DistanceMeters, 0.0)
	assert.Greater(t, result.ETA, time.Duration(0))
	assert.Nil(t, result.Adjuncts)
}

func TestDirections_SafeRouteCarriesAdjuncts(t *testing.T) {
	req := domain.RouteRequest{
		Start: origin,
		End:   domain.Coordinate{Latitude: 35.8680, Longitude: 128.5970},
		Kind:  domain.RouteSafe,
	}

	result, err := Directions{}.Route(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, result.Adjuncts)
	assert.Len(t, result.Adjuncts.Cameras, 3)
	assert.Len(t, result.Adjuncts.Stores, 2)
}

func TestPlaces_Nearby(t *testing.T) {
	items, err := Places{}.Nearby(context.Background(), domain.CategoryPolice, origin)
	require.NoError(t, err)
	assert.Len(t, items, 5)
	for _, item := range items {
		assert.InDelta(t, origin.Latitude, item.Latitude, 0.01)
	}
}
