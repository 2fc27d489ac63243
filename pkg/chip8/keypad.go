package chip8

import "time"

// KeyReleaseDuration is how long a key's "recently released" shadow state
// survives after key-up. Fx0A observes releases through this window, so a
// tap shorter than one VM cycle is still seen.
const KeyReleaseDuration = 30 * time.Millisecond

// Keypad tracks the 16-key hex keypad: the live key state plus a shadow of
// recent releases with a per-key debounce timestamp. Writes come from the
// host's input collaborator, reads from the VM; both run on the same
// goroutine between cycles, so no locking is involved.
type Keypad struct {
	// Current is the live pressed state per key 0x0-0xF.
	Current [16]bool
	// Shadow marks keys released within the debounce window.
	Shadow [16]bool

	releasedAt [16]time.Time
}

// Press marks key k as held. Keys above 0xF are ignored.
func (kp *Keypad) Press(k byte) {
	if k > 0xF {
		return
	}
	kp.Current[k] = true
}

// Release marks key k as up and opens its shadow window at the given time.
func (kp *Keypad) Release(k byte, now time.Time) {
	if k > 0xF {
		return
	}
	kp.Current[k] = false
	kp.Shadow[k] = true
	kp.releasedAt[k] = now
}

// Expire clears shadow entries whose debounce window has run out.
func (kp *Keypad) Expire(now time.Time) {
	for k, shadowed := range kp.Shadow {
		if shadowed && now.Sub(kp.releasedAt[k]) >= KeyReleaseDuration {
			kp.Shadow[k] = false
		}
	}
}

// FirstReleased returns the lowest key index that was pressed and then
// released, observed through its shadow window.
func (kp *Keypad) FirstReleased() (byte, bool) {
	for k, shadowed := range kp.Shadow {
		if shadowed && !kp.Current[k] {
			return byte(k), true
		}
	}
	return 0, false
}

// Clear drops all key state, live and shadowed.
func (kp *Keypad) Clear() {
	*kp = Keypad{}
}
