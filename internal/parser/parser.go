// Package parser turns console command arguments into typed inputs.
package parser

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/OCAP2/sonar-trainer/pkg/core"
)

// ErrInvalidArgs is returned when a command carries the wrong number of
// arguments.
var ErrInvalidArgs = errors.New("invalid arguments")

// cleanArgs strips surrounding quotes and unescapes doubled quotes in place.
func cleanArgs(data []string) {
	for i, v := range data {
		v = strings.TrimSpace(v)
		v = strings.Trim(v, `"`)
		data[i] = strings.ReplaceAll(v, `""`, `"`)
	}
}

// parseUintFromFloat accepts "32" as well as "32.00", which is how some
// consoles serialize whole numbers.
func parseUintFromFloat(s string) (uint64, error) {
	if v, err := strconv.ParseUint(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 || f != float64(uint64(f)) {
		return 0, fmt.Errorf("parseUintFromFloat: %q is not a valid uint64", s)
	}
	return uint64(f), nil
}

func parseFloatPair(data []string, what string) (float64, float64, error) {
	a, err := strconv.ParseFloat(data[0], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing %s x: %w", what, err)
	}
	b, err := strconv.ParseFloat(data[1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("error parsing %s y: %w", what, err)
	}
	return a, b, nil
}

// optionalFloat returns nil for an empty or "nil" field.
func optionalFloat(s string) (*float64, error) {
	if s == "" || strings.EqualFold(s, "nil") {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// Parser provides pure []string -> core struct conversion.
type Parser struct {
	logger *slog.Logger
}

// NewParser creates a new parser with only a logger dependency
func NewParser(logger *slog.Logger) *Parser {
	return &Parser{logger: logger}
}

// ParseMark parses "dx,dy", the cursor offset from the viewport center.
func (p *Parser) ParseMark(data []string) (core.Input, error) {
	if len(data) != 2 {
		return core.Input{}, fmt.Errorf("mark: want 2 args, got %d: %w", len(data), ErrInvalidArgs)
	}
	cleanArgs(data)
	dx, dy, err := parseFloatPair(data, "mark offset")
	if err != nil {
		return core.Input{}, err
	}
	return core.Input{Kind: core.InputMark, DX: dx, DY: dy}, nil
}

// ParseHover parses "x,y", the absolute cursor position.
func (p *Parser) ParseHover(data []string) (core.Input, error) {
	if len(data) != 2 {
		return core.Input{}, fmt.Errorf("hover: want 2 args, got %d: %w", len(data), ErrInvalidArgs)
	}
	cleanArgs(data)
	x, y, err := parseFloatPair(data, "cursor")
	if err != nil {
		return core.Input{}, err
	}
	return core.Input{Kind: core.InputHover, X: x, Y: y}, nil
}

// ParseDelete parses an optional mark id. Without one the hovered mark is
// deleted.
func (p *Parser) ParseDelete(data []string) (core.Input, error) {
	in := core.Input{Kind: core.InputDelete}
	if len(data) == 0 {
		return in, nil
	}
	if len(data) > 1 {
		return in, fmt.Errorf("delete: want at most 1 arg, got %d: %w", len(data), ErrInvalidArgs)
	}
	cleanArgs(data)
	if data[0] == "" {
		return in, nil
	}
	id, err := parseUintFromFloat(data[0])
	if err != nil {
		return in, fmt.Errorf("error parsing mark id: %w", err)
	}
	in.ID = uint(id)
	return in, nil
}

// ParseNav parses "lat,lon,heading,fixValid[,speed]". Empty lat or lon means
// the receiver has no position.
func (p *Parser) ParseNav(data []string) (core.NavSnapshot, error) {
	var nav core.NavSnapshot
	if len(data) != 4 && len(data) != 5 {
		return nav, fmt.Errorf("nav: want 4 or 5 args, got %d: %w", len(data), ErrInvalidArgs)
	}
	cleanArgs(data)

	var err error
	if nav.Lat, err = optionalFloat(data[0]); err != nil {
		return nav, fmt.Errorf("error parsing latitude: %w", err)
	}
	if nav.Lon, err = optionalFloat(data[1]); err != nil {
		return nav, fmt.Errorf("error parsing longitude: %w", err)
	}
	if nav.HeadingDeg, err = strconv.ParseFloat(data[2], 64); err != nil {
		return nav, fmt.Errorf("error parsing heading: %w", err)
	}
	if nav.FixValid, err = strconv.ParseBool(data[3]); err != nil {
		p.logger.Warn("Error parsing fix flag, assuming no fix", "value", data[3], "error", err)
		nav.FixValid = false
	}
	if len(data) == 5 {
		if nav.SpeedKnots, err = optionalFloat(data[4]); err != nil {
			return nav, fmt.Errorf("error parsing speed: %w", err)
		}
	}

	if nav.Pose().FixValid != nav.FixValid {
		p.logger.Debug("Navigation fix rejected", "lat", data[0], "lon", data[1])
	}
	return nav, nil
}
