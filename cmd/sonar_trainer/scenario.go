package main

import (
	"context"
	"fmt"
	"time"

	"github.com/OCAP2/sonar-trainer/internal/config"
	"github.com/OCAP2/sonar-trainer/internal/dispatcher"
	"github.com/OCAP2/sonar-trainer/internal/geo"
	"github.com/OCAP2/sonar-trainer/internal/sim"
	"github.com/OCAP2/sonar-trainer/pkg/core"
)

// ownShip dead-reckons the scripted own-ship course.
type ownShip struct {
	position core.GeoPoint
	heading  float64
	speed    float64
	turnRate float64
}

func newOwnShip(sc config.ScenarioConfig) *ownShip {
	return &ownShip{
		position: sc.Start,
		heading:  geo.NormalizeDeg(sc.HeadingDeg),
		speed:    sc.SpeedKnots,
		turnRate: sc.TurnRate,
	}
}

// advance moves the ship by dt seconds.
func (o *ownShip) advance(dt float64) {
	if dt <= 0 {
		return
	}
	dist := o.speed * geo.KnotsToMetersPerSecond * dt
	o.position = geo.Destination(o.position, o.heading, dist)
	o.heading = geo.NormalizeDeg(o.heading + o.turnRate*dt)
}

// nav reports the ship as the navigation feed would. Inside the fix-loss
// window the position is withheld.
func (o *ownShip) nav(sc config.ScenarioConfig, frame int) core.NavSnapshot {
	speed := o.speed
	nav := core.NavSnapshot{HeadingDeg: o.heading, SpeedKnots: &speed}
	if fixLost(sc, frame) {
		return nav
	}
	lat, lon := o.position.Lat, o.position.Lon
	nav.Lat, nav.Lon, nav.FixValid = &lat, &lon, true
	return nav
}

func fixLost(sc config.ScenarioConfig, frame int) bool {
	if sc.FixLostFrom < 0 {
		return false
	}
	to := sc.FixLostTo
	if to < 0 {
		to = sc.Frames
	}
	return frame >= sc.FixLostFrom && frame <= to
}

// commandsByFrame groups the scripted console commands by the frame they
// are sent on.
func commandsByFrame(cmds []config.ScriptedCommand) map[int][]config.ScriptedCommand {
	out := make(map[int][]config.ScriptedCommand, len(cmds))
	for _, c := range cmds {
		out[c.Frame] = append(out[c.Frame], c)
	}
	return out
}

// runScenario drives the session through every scripted frame on a
// simulated clock. Frames are not paced to wall time.
func runScenario(ctx context.Context, s *sim.Session, d *dispatcher.Dispatcher, sc config.ScenarioConfig, start time.Time) (sim.Frame, error) {
	ship := newOwnShip(sc)
	scripted := commandsByFrame(sc.Commands)
	dt := sc.FrameInterval.Seconds()

	var last sim.Frame
	for n := 1; n <= sc.Frames; n++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		ship.advance(dt)
		s.SetNav(ship.nav(sc, n))

		for _, c := range scripted[n] {
			if _, err := d.Dispatch(dispatcher.Event{Command: c.Command, Args: append([]string(nil), c.Args...)}); err != nil {
				Logger.Warn("Scripted command failed", "frame", n, "command", c.Command, "error", err)
			}
		}
		d.Sync()

		f, err := s.Step(ctx, start.Add(time.Duration(n)*sc.FrameInterval))
		if err != nil {
			return last, fmt.Errorf("frame %d: %w", n, err)
		}
		last = f
	}
	return last, nil
}
