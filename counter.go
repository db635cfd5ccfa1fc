package factory

// sequenceCounter is a monotonically increasing integer source. One factory
// owns the counter; descendants inheriting the owner's concrete target type
// reference the same counter object, so siblings draw from a single stream.
//
// Mutation is a plain increment. Builds running in parallel must be
// synchronized by the caller.
type sequenceCounter struct {
	start  func() int64
	value  int64
	primed bool
}

func newSequenceCounter(start func() int64) *sequenceCounter {
	return &sequenceCounter{start: start}
}

func (c *sequenceCounter) next() int64 {
	if !c.primed {
		c.value = c.start()
		c.primed = true
	}
	n := c.value
	c.value++
	return n
}

// reset makes the next draw return v.
func (c *sequenceCounter) reset(v int64) {
	c.value = v
	c.primed = true
}
