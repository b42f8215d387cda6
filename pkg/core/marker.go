// pkg/core/marker.go
package core

// AnchorMode selects which member of Anchor is meaningful
type AnchorMode uint8

const (
	// AnchorGeo pins the mark to a geodetic coordinate
	AnchorGeo AnchorMode = iota
	// AnchorScreen pins the mark to a polar offset from the viewport center
	AnchorScreen
)

func (m AnchorMode) String() string {
	switch m {
	case AnchorGeo:
		return "GEO"
	case AnchorScreen:
		return "SCREEN"
	default:
		return "UNKNOWN"
	}
}

// GeoAnchor is a fixed geodetic position
type GeoAnchor struct {
	Position GeoPoint `json:"position"`
}

// ScreenAnchor is the polar offset captured when a mark is placed without
// a fix. OriginalAngleRad is the screen-math angle atan2(dy, dx) used for
// rescaling; ScreenBearingRad is clockwise from viewport up.
type ScreenAnchor struct {
	InitialDistanceMeters float64 `json:"initialDistanceMeters"`
	OriginalAngleRad      float64 `json:"originalAngleRad"`
	ScreenBearingRad      float64 `json:"screenBearingRad"`
}

// Anchor is a tagged variant. Build it with NewGeoAnchor or NewScreenAnchor.
type Anchor struct {
	Mode   AnchorMode   `json:"mode"`
	Geo    GeoAnchor    `json:"geo"`
	Screen ScreenAnchor `json:"screen"`
}

// NewGeoAnchor anchors to a geodetic point.
func NewGeoAnchor(p GeoPoint) Anchor {
	return Anchor{Mode: AnchorGeo, Geo: GeoAnchor{Position: p}}
}

// NewScreenAnchor anchors to a polar screen offset.
func NewScreenAnchor(s ScreenAnchor) Anchor {
	return Anchor{Mode: AnchorScreen, Screen: s}
}

// IsGeo reports whether the anchor is geodetic.
func (a Anchor) IsGeo() bool { return a.Mode == AnchorGeo }

// ShapeKind is the symbol the renderer draws for a mark
type ShapeKind uint8

const (
	ShapeDiamond ShapeKind = iota
	ShapeCross
	// ShapeTriangle is never assigned by the store; renderers use it for
	// the simulated echo blob.
	ShapeTriangle
)

func (s ShapeKind) String() string {
	switch s {
	case ShapeDiamond:
		return "DIAMOND"
	case ShapeCross:
		return "CROSS"
	case ShapeTriangle:
		return "TRIANGLE"
	default:
		return "UNKNOWN"
	}
}

// Marker is an operator-placed target mark
type Marker struct {
	ID          uint      `json:"id"`
	Anchor      Anchor    `json:"anchor"`
	Shape       ShapeKind `json:"shape"`
	CreatedAtMs int64     `json:"createdAtMs"`
	Hovered     bool      `json:"hovered"`
	Screen      ScreenPos `json:"screen"`
}
