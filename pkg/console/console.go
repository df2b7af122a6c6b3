// Package console has small helpers for interactive terminal output.
package console

var dotFrames = [...]string{"", ".", "..", "..."}

// DotAnimation yields a trailing-dots progress indicator, one frame per call.
// The zero value is ready to use. It is not safe for concurrent use.
type DotAnimation struct {
	frame int
}

// Next returns the current frame and advances the animation.
func (d *DotAnimation) Next() string {
	s := dotFrames[d.frame]
	d.frame = (d.frame + 1) % len(dotFrames)
	return s
}

// Reset rewinds the animation to the empty frame.
func (d *DotAnimation) Reset() {
	d.frame = 0
}
