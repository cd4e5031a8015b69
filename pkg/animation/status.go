// Package animation encodes the render lifecycle of an animation record.
//
// Every record starts at pending when it is created alongside freshly
// generated Manim code, moves to rendering when a render is triggered, and
// resolves to exactly one of completed or error. Transitions only move
// forward; completed and error are terminal. A new generation cycle starts a
// brand new record, it never reopens an old one.
package animation

// Status is the render state of an animation record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRendering Status = "rendering"
	StatusCompleted Status = "completed"
	StatusError     Status = "error"
)

// Valid reports whether s is one of the four lifecycle states.
func Valid(s Status) bool {
	switch s {
	case StatusPending, StatusRendering, StatusCompleted, StatusError:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func Terminal(s Status) bool {
	return s == StatusCompleted || s == StatusError
}

// CanTransition reports whether the lifecycle permits moving from one state
// to another. The machine is strictly forward: pending -> rendering ->
// {completed | error}.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusRendering
	case StatusRendering:
		return to == StatusCompleted || to == StatusError
	default:
		return false
	}
}
