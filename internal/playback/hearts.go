package playback

import "time"

// Heart is a transient like animation on one reel.
type Heart struct {
	EntityID  string
	TicksLeft int
	StartedAt time.Time
}

// Hearts tracks like animations keyed by entity id.
type Hearts struct {
	hearts   map[string]Heart
	ticksMax int
}

// NewHearts creates a store whose animations last ticksMax ticks.
func NewHearts(ticksMax int) *Hearts {
	if ticksMax <= 0 {
		ticksMax = 8
	}
	return &Hearts{hearts: make(map[string]Heart), ticksMax: ticksMax}
}

// Start (re)starts the animation for id.
func (h *Hearts) Start(id string, now time.Time) {
	h.hearts[id] = Heart{EntityID: id, TicksLeft: h.ticksMax, StartedAt: now}
}

// Get returns the animation for id, or nil if none.
func (h *Hearts) Get(id string) *Heart {
	heart, ok := h.hearts[id]
	if !ok {
		return nil
	}
	return &heart
}

// Active reports whether any animation is running.
func (h *Hearts) Active() bool { return len(h.hearts) > 0 }

// Tick decrements all animations and removes expired ones. It returns true
// if anything changed.
func (h *Hearts) Tick() bool {
	changed := false
	for id, heart := range h.hearts {
		heart.TicksLeft--
		if heart.TicksLeft <= 0 {
			delete(h.hearts, id)
		} else {
			h.hearts[id] = heart
		}
		changed = true
	}
	return changed
}

// Clear removes all animations.
func (h *Hearts) Clear() { clear(h.hearts) }
