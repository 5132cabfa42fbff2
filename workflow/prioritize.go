package workflow

import (
	"fmt"
	"sort"
	"time"
)

// NoContact is the sentinel for an absent gate contact when clustering
// overdue tasks for the focused batch.
const NoContact = "none"

// FocusBatchSize caps how many tasks a focused batch surfaces at once.
const FocusBatchSize = 3

// DailyItem is one row of the daily list: an overdue task tagged with its
// staleness numbers and a recommended next action.
type DailyItem struct {
	Task              *Task  `json:"task"`
	DaysSinceMovement int    `json:"days_since_movement"`
	DaysOverdue       int    `json:"days_overdue"`
	Action            string `json:"action"`
}

// FocusBatch is a capped, clustered subset of the overdue population for
// deep-work mode. CurrentContact and NextContact are set when the batch was
// selected by contact clustering, so the caller can show who the sitting is
// organized around.
type FocusBatch struct {
	Tasks          []*Task `json:"tasks"`
	CurrentContact string  `json:"current_contact,omitempty"`
	NextContact    string  `json:"next_contact,omitempty"`
	// Tier records which selection rule produced the batch: "all" (population
	// fit in one batch), "pair", "contact", or "stalest".
	Tier string `json:"tier"`
}

// Visible returns the open tasks the caller may see. Admins see every open
// task; a regular caller sees only tasks listing their contact among the
// owners. A caller with no linked contact and no admin flag sees nothing.
func Visible(tasks []*Task, caller Caller) []*Task {
	out := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if t.Status != StatusOpen {
			continue
		}
		if caller.Admin || (caller.ContactID != "" && t.OwnedBy(caller.ContactID)) {
			out = append(out, t)
		}
	}
	return out
}

// Overdue filters the given tasks down to those currently overdue.
func Overdue(tasks []*Task, now time.Time) []*Task {
	out := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if IsOverdue(t, now) {
			out = append(out, t)
		}
	}
	return out
}

// DailyList builds the flat, exhaustive daily list for a caller: every
// visible overdue task, most overdue first, each with a recommended action.
// Empty input or an invisible caller yields an empty list, never an error.
func DailyList(tasks []*Task, caller Caller, now time.Time) []DailyItem {
	overdue := Overdue(Visible(tasks, caller), now)

	sort.SliceStable(overdue, func(i, j int) bool {
		di, dj := DaysOverdue(overdue[i], now), DaysOverdue(overdue[j], now)
		if di != dj {
			return di > dj
		}
		return overdue[i].ID < overdue[j].ID
	})

	items := make([]DailyItem, 0, len(overdue))
	for _, t := range overdue {
		items = append(items, DailyItem{
			Task:              t,
			DaysSinceMovement: DaysSinceMovement(t, now),
			DaysOverdue:       DaysOverdue(t, now),
			Action:            RecommendedAction(t, now),
		})
	}
	return items
}

// RecommendedAction produces the next-action hint for a task. Rules are
// checked in priority order; the first match wins:
//  1. blocked with a current-gate contact → contact that person
//  2. blocked with a blocker description but no contact → resolve the blocker
//  3. an explicit next step → emitted verbatim
//  4. otherwise a generic follow-up nudge
func RecommendedAction(t *Task, now time.Time) string {
	if t.Blocked {
		if cur, _ := CurrentGate(t.Gates); cur != nil && cur.OwnerName != "" {
			if t.BlockerDescription != "" {
				return fmt.Sprintf("Contact %s: %s", cur.OwnerName, t.BlockerDescription)
			}
			return fmt.Sprintf("Contact %s", cur.OwnerName)
		}
		if t.BlockerDescription != "" {
			return fmt.Sprintf("Resolve blocker: %s", t.BlockerDescription)
		}
	}
	if t.NextStep != "" {
		return t.NextStep
	}
	return fmt.Sprintf("Follow up — %d days without movement", DaysSinceMovement(t, now))
}

// gateContacts returns the current and next gate contacts for clustering,
// substituting the NoContact sentinel where a gate or its owner is absent.
func gateContacts(t *Task) (current, next string) {
	current, next = NoContact, NoContact
	if cur, _ := CurrentGate(t.Gates); cur != nil && cur.OwnerName != "" {
		current = cur.OwnerName
	}
	if nxt, _ := NextGate(t.Gates); nxt != nil && nxt.OwnerName != "" {
		next = nxt.OwnerName
	}
	return current, next
}

// FocusedBatch selects up to FocusBatchSize overdue tasks for a deep-work
// sitting, preferring clusters that share gate contacts so one sitting can
// clear several tasks blocked on the same people.
//
// The session's handled set removes tasks already resolved or skipped this
// sitting. The batch is always re-derived in full from the current
// population, never patched incrementally.
func FocusedBatch(tasks []*Task, caller Caller, session *Session, now time.Time) FocusBatch {
	pool := Overdue(Visible(tasks, caller), now)
	if session != nil {
		kept := pool[:0]
		for _, t := range pool {
			if !session.Handled(t.ID) {
				kept = append(kept, t)
			}
		}
		pool = kept
	}

	// Deterministic scan order: stalest first, ID breaks ties.
	sort.SliceStable(pool, func(i, j int) bool {
		di, dj := DaysSinceMovement(pool[i], now), DaysSinceMovement(pool[j], now)
		if di != dj {
			return di > dj
		}
		return pool[i].ID < pool[j].ID
	})

	if len(pool) <= FocusBatchSize {
		return FocusBatch{Tasks: pool, Tier: "all"}
	}

	// Tier 1: shared (current contact, next contact) pair.
	if batch, ok := clusterBatch(pool, func(t *Task) [2]string {
		cur, next := gateContacts(t)
		return [2]string{cur, next}
	}); ok {
		batch.Tier = "pair"
		return batch
	}

	// Tier 2: shared current contact only.
	if batch, ok := clusterBatch(pool, func(t *Task) [2]string {
		cur, _ := gateContacts(t)
		return [2]string{cur, ""}
	}); ok {
		batch.NextContact = ""
		batch.Tier = "contact"
		return batch
	}

	// Tier 3: the most overdue overall.
	fallback := make([]*Task, len(pool))
	copy(fallback, pool)
	sort.SliceStable(fallback, func(i, j int) bool {
		di, dj := DaysOverdue(fallback[i], now), DaysOverdue(fallback[j], now)
		if di != dj {
			return di > dj
		}
		return fallback[i].ID < fallback[j].ID
	})
	return FocusBatch{Tasks: fallback[:FocusBatchSize], Tier: "stalest"}
}

// clusterBatch groups the pool by key and returns the first cluster, in pool
// order, that reaches FocusBatchSize members. The batch keeps the pool's
// ordering, so members are already stalest-first.
func clusterBatch(pool []*Task, key func(*Task) [2]string) (FocusBatch, bool) {
	clusters := make(map[[2]string][]*Task)
	for _, t := range pool {
		k := key(t)
		clusters[k] = append(clusters[k], t)
		if len(clusters[k]) == FocusBatchSize {
			return FocusBatch{
				Tasks:          clusters[k],
				CurrentContact: k[0],
				NextContact:    k[1],
			}, true
		}
	}
	return FocusBatch{}, false
}
