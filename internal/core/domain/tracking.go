package domain

// TrackingMode describes how the viewport reacts to the position stream.
type TrackingMode string

const (
	// TrackingNone means no continuous subscription is active.
	TrackingNone TrackingMode = "None"
	// TrackingNoFollow keeps the subscription alive and moves the position
	// marker, but never the viewport.
	TrackingNoFollow TrackingMode = "NoFollow"
	// TrackingFollow additionally re-centers the viewport on each accepted
	// sample. A user drag always demotes Follow to NoFollow.
	TrackingFollow TrackingMode = "Follow"
)

// Valid reports whether m is one of the three known modes.
func (m TrackingMode) Valid() bool {
	switch m {
	case TrackingNone, TrackingNoFollow, TrackingFollow:
		return true
	}
	return false
}

// Tracking reports whether a continuous subscription should be active in m.
func (m TrackingMode) Tracking() bool {
	return m == TrackingNoFollow || m == TrackingFollow
}
