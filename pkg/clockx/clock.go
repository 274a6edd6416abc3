// Package clockx implements CLOCK (second-chance) replacement over a fixed
// number of slot ids [0..capacity).
package clockx

type slotState uint8

const (
	present slotState = 1 << iota
	evictable
	referenced
)

type Clock struct {
	slots []slotState
	hand  int
	size  int // number of evictable slots
}

func New(capacity int) *Clock {
	if capacity <= 0 {
		capacity = 1
	}
	return &Clock{slots: make([]slotState, capacity)}
}

func (c *Clock) Capacity() int { return len(c.slots) }

// Size is the number of slots that can currently be evicted.
func (c *Clock) Size() int { return c.size }

func (c *Clock) inRange(id int) bool { return id >= 0 && id < len(c.slots) }

// Touch marks slot as recently accessed, tracking it if it was not.
func (c *Clock) Touch(id int) {
	if !c.inRange(id) {
		return
	}
	c.slots[id] |= present | referenced
}

// SetEvictable marks whether a tracked slot can be evicted (e.g., pin==0).
// Untracked slots are ignored.
func (c *Clock) SetEvictable(id int, on bool) {
	if !c.inRange(id) || c.slots[id]&present == 0 {
		return
	}
	was := c.slots[id]&evictable != 0
	switch {
	case on && !was:
		c.slots[id] |= evictable
		c.size++
	case !on && was:
		c.slots[id] &^= evictable
		c.size--
	}
}

// Evict picks a victim, stops tracking it and returns its id. Slots with the
// reference bit set get one more pass before they can be chosen.
func (c *Clock) Evict() (id int, ok bool) {
	n := len(c.slots)
	if c.size == 0 {
		return -1, false
	}

	// two sweeps always suffice: the first clears every reference bit
	for range 2 * n {
		idx := c.hand
		c.hand = (c.hand + 1) % n

		st := c.slots[idx]
		if st&(present|evictable) != present|evictable {
			continue
		}
		if st&referenced != 0 {
			c.slots[idx] &^= referenced
			continue
		}
		c.slots[idx] = 0
		c.size--
		return idx, true
	}
	return -1, false
}

// Remove stops tracking slot.
func (c *Clock) Remove(id int) {
	if !c.inRange(id) || c.slots[id]&present == 0 {
		return
	}
	if c.slots[id]&evictable != 0 {
		c.size--
	}
	c.slots[id] = 0
}
