package places

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/moyak/saferoute/internal/core/domain"
)

var around = domain.Coordinate{Latitude: 35.8714, Longitude: 128.6014}

func TestNearby_QueriesCategoryResource(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/Police", r.URL.Path)
		assert.Equal(t, "35.871400", r.URL.Query().Get("lat"))
		assert.Equal(t, "128.601400", r.URL.Query().Get("lng"))
		w.Write([]byte(`[
			{"name": "Jung-gu station", "latitude": 35.8700, "longitude": 128.6000, "address": "Downtown", "phone": "112"},
			{"name": "Police box", "latitude": 35.8720, "longitude": 128.6030}
		]`))
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL).Nearby(context.Background(), domain.CategoryPolice, around)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "Jung-gu station", items[0].Name)
	assert.Equal(t, "112", items[0].Detail["phone"])
	assert.Nil(t, items[1].Detail)
}

func TestNearby_UnknownCategory(t *testing.T) {
	_, err := NewClient("http://unused").Nearby(context.Background(), "bakeries", around)
	assert.Error(t, err)
}

func TestNearby_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Nearby(context.Background(), domain.CategoryWheelchair, around)
	assert.ErrorContains(t, err, "status 500")
}

func TestNearby_EmptyDataset(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	items, err := NewClient(srv.URL).Nearby(context.Background(), domain.CategoryWomenSafety, around)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCategoryPaths_CoverAllFilterCategories(t *testing.T) {
	for _, category := range domain.FilterCategories() {
		_, ok := categoryPaths[category]
		assert.True(t, ok, "category %q has no remote resource", category)
	}
}
