package sim

import (
	"github.com/OCAP2/sonar-trainer/internal/dispatcher"
	"github.com/OCAP2/sonar-trainer/internal/parser"
	"github.com/OCAP2/sonar-trainer/pkg/core"
)

// Console commands understood by the session.
const (
	CmdMark   = ":MARK:"
	CmdHover  = ":HOVER:"
	CmdDelete = ":DELETE:"
	CmdClear  = ":CLEAR:"
	CmdNav    = ":NAV:"
	CmdStats  = ":STATS:"
)

// HoverBuffer is how many cursor moves may wait for the hover worker before
// new ones are dropped.
const HoverBuffer = 64

// RegisterCommands wires the console commands to the session. Input
// commands only queue; their effect shows up on the next frame. Cursor moves
// are parsed off the caller's goroutine; call Dispatcher.Sync before a frame
// that must see them.
func (s *Session) RegisterCommands(d *dispatcher.Dispatcher, p *parser.Parser) {
	d.Register(CmdMark, s.queueInput(p.ParseMark), dispatcher.Logged())
	d.Register(CmdHover, s.queueInput(p.ParseHover), dispatcher.Buffered(HoverBuffer))
	d.Register(CmdDelete, s.queueInput(p.ParseDelete), dispatcher.Logged())
	d.Register(CmdClear, func(e dispatcher.Event) (any, error) {
		s.Submit(core.Input{Kind: core.InputClear})
		return "queued", nil
	}, dispatcher.Logged())

	d.Register(CmdNav, func(e dispatcher.Event) (any, error) {
		nav, err := p.ParseNav(e.Args)
		if err != nil {
			return nil, err
		}
		s.SetNav(nav)
		return nav.Pose(), nil
	})

	d.Register(CmdStats, func(e dispatcher.Event) (any, error) {
		last := s.Last()
		return last.Stats, last.StatsErr
	})
}

func (s *Session) queueInput(parse func([]string) (core.Input, error)) dispatcher.HandlerFunc {
	return func(e dispatcher.Event) (any, error) {
		in, err := parse(e.Args)
		if err != nil {
			return nil, err
		}
		s.Submit(in)
		return "queued", nil
	}
}
