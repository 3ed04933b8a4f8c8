package funnel

// Carousel is the bounded cursor nested inside the testimonials step.
// It moves independently of the outer engine: prev/next clamp at the
// ends, the repeating timer advances without wrapping, and reaching
// the last item is what unlocks the step's continue action.
type Carousel struct {
	size   int
	cursor int

	// SwipeThreshold is the minimum gesture distance, in the caller's
	// units, required to register a prev/next. Shorter gestures are
	// ignored.
	SwipeThreshold float64
}

// DefaultSwipeThreshold matches the touch handling of the funnel
// front-ends: 50 logical pixels.
const DefaultSwipeThreshold = 50.0

// NewCarousel creates a carousel over size items, positioned at the
// first.
func NewCarousel(size int) *Carousel {
	return &Carousel{size: size, SwipeThreshold: DefaultSwipeThreshold}
}

// Index returns the current item index.
func (c *Carousel) Index() int { return c.cursor }

// AtEnd reports whether the cursor sits on the last item.
func (c *Carousel) AtEnd() bool { return c.cursor >= c.size-1 }

// Next moves forward one item, clamping at the last.
func (c *Carousel) Next() {
	if c.cursor+1 < c.size {
		c.cursor++
	}
}

// Prev moves back one item, clamping at the first. Moving backward
// here never touches the outer step cursor.
func (c *Carousel) Prev() {
	if c.cursor > 0 {
		c.cursor--
	}
}

// Tick is the repeating-timer advance: one step forward, and nothing
// at the last item. The timer must not wrap; continuing past the end
// is an explicit action on the outer engine.
func (c *Carousel) Tick() {
	if !c.AtEnd() {
		c.cursor++
	}
}

// Swipe maps a horizontal gesture to prev/next. Negative delta (a
// leftward swipe) advances; positive goes back. Gestures shorter than
// the threshold are ignored.
func (c *Carousel) Swipe(delta float64) {
	switch {
	case delta <= -c.SwipeThreshold:
		c.Next()
	case delta >= c.SwipeThreshold:
		c.Prev()
	}
}
