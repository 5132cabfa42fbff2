package workflow

import "fmt"

// Gate sequencing. Every caller that edits a task's gate list routes through
// these functions; current/next/blocked are never re-derived locally.
//
// Gates may complete out of order: completing a later gate while an earlier
// one is open is allowed, and CurrentGate still points at the earliest
// incomplete gate.

// CurrentGate returns the first incomplete gate in list order, or nil if
// every gate is complete or the list is empty. The second return value is
// the gate's index, -1 when there is no current gate.
func CurrentGate(gates []Gate) (*Gate, int) {
	for i := range gates {
		if !gates[i].Completed {
			return &gates[i], i
		}
	}
	return nil, -1
}

// NextGate returns the first incomplete gate after the current one, or nil
// if there is none.
func NextGate(gates []Gate) (*Gate, int) {
	_, cur := CurrentGate(gates)
	if cur < 0 {
		return nil, -1
	}
	for i := cur + 1; i < len(gates); i++ {
		if !gates[i].Completed {
			return &gates[i], i
		}
	}
	return nil, -1
}

// GatesBlocked is the single rule for deriving a task's blocked flag: some
// gate is incomplete and has a non-empty responsible party. It must be
// re-applied after every gate mutation.
func GatesBlocked(gates []Gate) bool {
	for i := range gates {
		if !gates[i].Completed && gates[i].OwnerName != "" {
			return true
		}
	}
	return false
}

// InsertGate returns a new gate list with g spliced in at position.
// Position 0 inserts before all existing gates; position len(gates) appends.
// Callers that use sequential display labels must regenerate them from the
// new order (see RenumberGateLabels).
func InsertGate(gates []Gate, g Gate, position int) ([]Gate, error) {
	if position < 0 || position > len(gates) {
		return nil, &ValidationError{
			Field:   "position",
			Message: fmt.Sprintf("must be in [0, %d]", len(gates)),
		}
	}
	out := make([]Gate, 0, len(gates)+1)
	out = append(out, gates[:position]...)
	out = append(out, g)
	out = append(out, gates[position:]...)
	return out, nil
}

// RemoveGate returns a new gate list with the gate at index removed.
func RemoveGate(gates []Gate, index int) ([]Gate, error) {
	if index < 0 || index >= len(gates) {
		return nil, ErrGateIndexOutOfRange
	}
	out := make([]Gate, 0, len(gates)-1)
	out = append(out, gates[:index]...)
	out = append(out, gates[index+1:]...)
	return out, nil
}

// MoveGate returns a new gate list with the gate at index swapped one slot
// up (delta -1) or down (delta +1). A move off either end is rejected.
func MoveGate(gates []Gate, index, delta int) ([]Gate, error) {
	if index < 0 || index >= len(gates) {
		return nil, ErrGateIndexOutOfRange
	}
	if delta != -1 && delta != 1 {
		return nil, &ValidationError{Field: "delta", Message: "must be -1 or +1"}
	}
	target := index + delta
	if target < 0 || target >= len(gates) {
		return nil, ErrGateIndexOutOfRange
	}
	out := make([]Gate, len(gates))
	copy(out, gates)
	out[index], out[target] = out[target], out[index]
	return out, nil
}

// CompleteGate returns a new gate list with the gate at index marked
// complete, along with the recomputed blocked flag for the resulting list.
func CompleteGate(gates []Gate, index int) ([]Gate, bool, error) {
	if len(gates) == 0 {
		return nil, false, ErrNoGates
	}
	if index < 0 || index >= len(gates) {
		return nil, false, ErrGateIndexOutOfRange
	}
	out := make([]Gate, len(gates))
	copy(out, gates)
	out[index].Completed = true
	return out, GatesBlocked(out), nil
}

// ToggleGate flips the completion flag at index and recomputes blocked.
func ToggleGate(gates []Gate, index int) ([]Gate, bool, error) {
	if index < 0 || index >= len(gates) {
		return nil, false, ErrGateIndexOutOfRange
	}
	out := make([]Gate, len(gates))
	copy(out, gates)
	out[index].Completed = !out[index].Completed
	return out, GatesBlocked(out), nil
}

// RenumberGateLabels rewrites sequential "Gate N" display names from the
// current index order. Gates whose names were customized away from the
// sequential form are left alone.
func RenumberGateLabels(gates []Gate) []Gate {
	out := make([]Gate, len(gates))
	copy(out, gates)
	for i := range out {
		if out[i].Name == "" || isSequentialLabel(out[i].Name) {
			out[i].Name = fmt.Sprintf("Gate %d", i+1)
		}
	}
	return out
}

func isSequentialLabel(name string) bool {
	var n int
	_, err := fmt.Sscanf(name, "Gate %d", &n)
	return err == nil
}
