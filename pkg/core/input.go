package core

// InputKind is the operator action carried by an Input
type InputKind uint8

const (
	InputMark InputKind = iota + 1
	InputHover
	InputDelete
	InputClear
)

func (k InputKind) String() string {
	switch k {
	case InputMark:
		return "MARK"
	case InputHover:
		return "HOVER"
	case InputDelete:
		return "DELETE"
	case InputClear:
		return "CLEAR"
	default:
		return "UNKNOWN"
	}
}

// Input is an operator event queued for the next frame.
//
// MARK uses DX/DY as the cursor offset from the viewport center, HOVER uses
// X/Y as the absolute cursor position. DELETE removes mark ID, or the hovered
// mark when ID is zero.
type Input struct {
	Kind InputKind `json:"kind"`
	DX   float64   `json:"dx,omitempty"`
	DY   float64   `json:"dy,omitempty"`
	X    float64   `json:"x,omitempty"`
	Y    float64   `json:"y,omitempty"`
	ID   uint      `json:"id,omitempty"`
}
