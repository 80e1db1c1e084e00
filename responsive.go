package marionette

import "math"

// Value is a responsive scalar: either a concrete number or a deferred
// zero-argument function evaluated at layout time. The zero Value is unset
// and evaluates to the caller's fallback.
type Value struct {
	kind valueKind
	num  float64
	fn   func() float64
}

type valueKind uint8

const (
	valueUnset valueKind = iota
	valueNum
	valueFunc
)

// Px returns a Value fixed at n pixels.
func Px(n float64) Value {
	return Value{kind: valueNum, num: n}
}

// Deferred returns a Value computed by fn each time it is evaluated.
func Deferred(fn func() float64) Value {
	return Value{kind: valueFunc, fn: fn}
}

// Evaluate resolves the value, returning fallback when unset.
func (v Value) Evaluate(fallback float64) float64 {
	switch v.kind {
	case valueNum:
		return v.num
	case valueFunc:
		return v.fn()
	default:
		return fallback
	}
}

// IsSet reports whether the value was given explicitly.
func (v Value) IsSet() bool {
	return v.kind != valueUnset
}

// StartY is the ceiling-anchor height for a viewport h pixels tall. Anchors
// sit above the visible top so strings appear to come from beyond the edge.
func StartY(viewH, startYFrac float64) float64 {
	return -viewH * startYFrac
}

// StringSegments is the number of segments a chain needs to span from the
// anchor height to the body's rest height.
func StringSegments(y, startY, segmentLength float64) int {
	return int(math.Ceil(math.Abs(y-startY) / segmentLength))
}

// FontScale maps the viewport to a phrase font size in pixels, clamped so
// phrases stay readable on small windows and restrained on large ones.
func FontScale(viewW float64) float64 {
	return clamp(viewW*0.075, 36, 120)
}

// AnchorSpread is the horizontal offset of each ceiling anchor from the
// body's center.
func AnchorSpread(textWidth, spreadFrac float64) float64 {
	return textWidth * spreadFrac
}

// DefaultPhraseX centers a phrase horizontally.
func DefaultPhraseX(viewW float64) float64 {
	return viewW * 0.5
}

// DefaultPhraseY rests a phrase at 38% of the viewport height.
func DefaultPhraseY(viewH float64) float64 {
	return viewH * 0.38
}
