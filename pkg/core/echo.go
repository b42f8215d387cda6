// pkg/core/echo.go
package core

// EchoResult is what the renderer paints for the simulated target each frame
type EchoResult struct {
	Intensity             float64 `json:"intensity"`
	SlantRangeMeters      float64 `json:"slantRangeMeters"`
	HorizontalRangeMeters float64 `json:"horizontalRangeMeters"`
	RelativeBearingDeg    float64 `json:"relativeBearingDeg"`
	AngularHalfWidthRad   float64 `json:"angularHalfWidthRad"`
	RadialExtentMeters    float64 `json:"radialExtentMeters"`
	Overlap               bool    `json:"overlap"`
}
