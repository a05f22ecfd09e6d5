// internal/status/snapshot.go
package status

// Snapshot represents exactly what the writer is allowed to deliver.
// It contains no logic and no memory of the past beyond current state.
type Snapshot struct {
	Health              uint16
	LastErrorCode       uint16
	SecondsInError      uint16
	Shirt               uint16
	Pants               uint16
	Uniform             uint16
	ConsecutiveFailures uint16
}

// Slots returns the live (non-name) slots of s in block order.
func (s Snapshot) Slots() [SlotConsecutiveFailures + 1]uint16 {
	return [SlotConsecutiveFailures + 1]uint16{
		SlotHealthCode:          s.Health,
		SlotLastErrorCode:       s.LastErrorCode,
		SlotSecondsInError:      s.SecondsInError,
		SlotShirt:               s.Shirt,
		SlotPants:               s.Pants,
		SlotUniform:             s.Uniform,
		SlotConsecutiveFailures: s.ConsecutiveFailures,
	}
}

// Bit maps a detection flag to a register value.
func Bit(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}

// Saturate clamps n into a non-wrapping counter value.
func Saturate(n int) uint16 {
	if n < 0 {
		return 0
	}
	if n > int(MaxCounter) {
		return MaxCounter
	}
	return uint16(n)
}
