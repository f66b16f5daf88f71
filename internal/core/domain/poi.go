package domain

// POI categories recognized by the marker layer. Route adjuncts use the
// camera/store categories; the rest are user-toggleable filters.
const (
	CategoryCamera           = "camera"
	CategoryStore            = "store"
	CategoryConvenienceStore = "convenience_store"
	CategoryPolice           = "police"
	CategoryWheelchair       = "wheelchair"
	CategoryWomenSafety      = "women_safety"
)

// FilterCategories lists the categories backed by a remote POI service.
func FilterCategories() []string {
	return []string{
		CategoryConvenienceStore,
		CategoryPolice,
		CategoryWheelchair,
		CategoryWomenSafety,
	}
}

// PointOfInterest is one overlay item returned by a POI service or carried
// as a route adjunct. Detail holds category-specific fields verbatim.
type PointOfInterest struct {
	Name string `json:"name"`
	Coordinate
	Address string            `json:"address,omitempty"`
	Detail  map[string]string `json:"detail,omitempty"`
}
