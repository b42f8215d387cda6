package debrief

import (
	"math"
	"testing"
	"time"

	"github.com/OCAP2/sonar-trainer/pkg/core"
	"github.com/stretchr/testify/assert"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func frame(n uint, overlap bool, intensity float64) core.FrameRecord {
	return core.FrameRecord{
		SessionID: "s1",
		Frame:     n,
		Time:      t0.Add(time.Duration(n) * time.Second),
		Echo:      core.EchoResult{Overlap: overlap, Intensity: intensity},
	}
}

func TestSummarize_Empty(t *testing.T) {
	s := Summarize("s1", nil, nil, nil)
	assert.Equal(t, core.DebriefSummary{SessionID: "s1"}, s)
}

func TestSummarize_Intensity(t *testing.T) {
	frames := []core.FrameRecord{
		frame(0, true, 0.2),
		frame(1, false, 0),
		frame(2, true, 0.4),
		frame(3, true, 0.6),
		frame(4, false, 0),
	}

	s := Summarize("s1", frames, nil, nil)
	assert.Equal(t, 5, s.Frames)
	assert.Equal(t, 3, s.EchoFrames)
	assert.InDelta(t, 0.4, s.MeanIntensity, 1e-12)
	assert.InDelta(t, 0.2, s.StdDevIntensity, 1e-12)
	assert.Equal(t, 0.6, s.PeakIntensity)
	assert.Equal(t, 4.0, s.DurationSeconds)
}

func TestSummarize_SingleEchoHasNoSpread(t *testing.T) {
	s := Summarize("s1", []core.FrameRecord{frame(0, true, 0.3)}, nil, nil)
	assert.Equal(t, 0.3, s.MeanIntensity)
	assert.Equal(t, 0.0, s.StdDevIntensity)
	assert.False(t, math.IsNaN(s.StdDevIntensity))
	assert.Equal(t, 0.0, s.DurationSeconds)
}

func TestSummarize_MarkEvents(t *testing.T) {
	events := []core.MarkEvent{
		{Kind: core.MarkCreated},
		{Kind: core.MarkCreated},
		{Kind: core.MarkPromoted},
		{Kind: core.MarkDeleted},
		{Kind: "bogus"},
	}

	s := Summarize("s1", nil, events, nil)
	assert.Equal(t, 2, s.MarksPlaced)
	assert.Equal(t, 1, s.MarksPromoted)
	assert.Equal(t, 1, s.MarksDeleted)
}

func TestSummarize_TrackLength(t *testing.T) {
	track := []core.GeoPoint{{Lat: 0, Lon: 0}, {Lat: 1, Lon: 0}}
	s := Summarize("s1", nil, nil, track)
	assert.InDelta(t, 111195, s.TrackMeters, 1)
}
