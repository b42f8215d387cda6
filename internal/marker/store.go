// Package marker owns the operator's target marks.
//
// A mark is anchored either to a geodetic coordinate (placed while the
// navigation feed has a fix) or to a polar offset from the viewport center
// (placed without one). Screen marks are promoted to geodetic marks once, on
// the frame a fix is acquired; geodetic marks never revert.
package marker

import (
	"math"

	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/pkg/core"
)

// Store holds marks in creation order. It has a single writer, the frame
// loop, and is not safe for concurrent use.
type Store struct {
	markers []core.Marker
	nextID  uint
}

// NewStore creates an empty Store
func NewStore() *Store {
	return &Store{}
}

// Add places a mark at a cursor offset (pixels from the viewport center,
// y down). ok is false when the display scale is degenerate.
func (s *Store) Add(pose core.ShipPose, dx, dy float64, cfg core.SensorConfig, nowMs int64) (core.Marker, bool) {
	polar, ok := geo.ScreenOffsetToPolar(dx, dy, cfg)
	if !ok {
		return core.Marker{}, false
	}

	var anchor core.Anchor
	if pose.HasFix() {
		bearing := pose.HeadingDeg + geo.ScreenBearingDeg(polar)
		anchor = core.NewGeoAnchor(geo.Destination(pose.Position, bearing, polar.InitialDistanceMeters))
	} else {
		anchor = core.NewScreenAnchor(polar)
	}

	s.nextID++
	m := core.Marker{
		ID:          s.nextID,
		Anchor:      anchor,
		CreatedAtMs: nowMs,
	}
	m.Screen = position(m, pose, cfg)
	s.markers = append(s.markers, m)
	s.reclassify()

	return s.markers[len(s.markers)-1], true
}

// Delete removes a mark by id
func (s *Store) Delete(id uint) (core.Marker, bool) {
	for i, m := range s.markers {
		if m.ID == id {
			s.markers = append(s.markers[:i], s.markers[i+1:]...)
			s.reclassify()
			return m, true
		}
	}
	return core.Marker{}, false
}

// DeleteHovered removes the mark currently under the cursor, if any.
func (s *Store) DeleteHovered() (core.Marker, bool) {
	for _, m := range s.markers {
		if m.Hovered {
			return s.Delete(m.ID)
		}
	}
	return core.Marker{}, false
}

// Clear removes every mark. IDs keep counting up.
func (s *Store) Clear() {
	s.markers = nil
}

// reclassify assigns shapes: the newest two marks are diamonds, everything
// older is a cross.
func (s *Store) reclassify() {
	switch n := len(s.markers); n {
	case 0:
		return
	case 1, 2:
		for i := range s.markers {
			s.markers[i].Shape = core.ShapeDiamond
		}
	default:
		for i := range s.markers {
			if i >= n-2 {
				s.markers[i].Shape = core.ShapeDiamond
			} else {
				s.markers[i].Shape = core.ShapeCross
			}
		}
	}
}

// PromoteScreenToGeo converts every screen mark into a geodetic mark using
// the current heading. Marks that are already geodetic are left alone, so
// calling it twice is harmless. Without a fix nothing happens.
func (s *Store) PromoteScreenToGeo(pose core.ShipPose) []core.Marker {
	if !pose.HasFix() {
		return nil
	}
	var promoted []core.Marker
	for i := range s.markers {
		m := &s.markers[i]
		if m.Anchor.IsGeo() {
			continue
		}
		sa := m.Anchor.Screen
		bearing := pose.HeadingDeg + geo.ScreenBearingDeg(sa)
		m.Anchor = core.NewGeoAnchor(geo.Destination(pose.Position, bearing, sa.InitialDistanceMeters))
		promoted = append(promoted, *m)
	}
	return promoted
}

// RefreshScreenPositions recomputes where each mark is drawn this frame.
// Marks out of range stay in the store with a not-visible position.
func (s *Store) RefreshScreenPositions(pose core.ShipPose, cfg core.SensorConfig) {
	for i := range s.markers {
		s.markers[i].Screen = position(s.markers[i], pose, cfg)
	}
}

func position(m core.Marker, pose core.ShipPose, cfg core.SensorConfig) core.ScreenPos {
	if m.Anchor.IsGeo() {
		return geo.Project(pose, m.Anchor.Geo.Position, cfg)
	}
	return geo.ProjectScreenAnchor(m.Anchor.Screen, cfg)
}

// UpdateHover flags the visible mark nearest to (x, y) within hitRadius
// pixels and clears the flag on every other mark.
func (s *Store) UpdateHover(x, y, hitRadius float64) (uint, bool) {
	best := -1
	bestDist := math.Inf(1)
	for i := range s.markers {
		s.markers[i].Hovered = false
		sp := s.markers[i].Screen
		if !sp.Visible {
			continue
		}
		d := math.Hypot(sp.X-x, sp.Y-y)
		if d <= hitRadius && d < bestDist {
			best, bestDist = i, d
		}
	}
	if best < 0 {
		return 0, false
	}
	s.markers[best].Hovered = true
	return s.markers[best].ID, true
}

// Markers returns a copy of the marks in creation order
func (s *Store) Markers() []core.Marker {
	out := make([]core.Marker, len(s.markers))
	copy(out, s.markers)
	return out
}

// Len returns the number of marks
func (s *Store) Len() int {
	return len(s.markers)
}
