package world

import (
	"fmt"

	"trantor/internal/protocol"
)

// Team tracks connection capacity for one named roster. Configured is the
// immutable startup slot count; Capacity grows by one for every successful
// fork (a manufactured egg). Available is the number of joinable slots right
// now: 0 <= Available <= Capacity always holds.
type Team struct {
	Name       string
	Configured int
	Capacity   int
	Available  int

	// Manufactured eggs not yet consumed by a join, by egg id. Only used
	// to narrate hatching to observers.
	eggs []int
}

// Teams is the registry of all rosters. Registration happens once at startup;
// everything else runs on the world loop goroutine.
type Teams struct {
	byName map[string]*Team
	order  []*Team
}

func NewTeams() *Teams {
	return &Teams{byName: map[string]*Team{}}
}

func (ts *Teams) Register(name string, slots int) error {
	if _, ok := ts.byName[name]; ok {
		return fmt.Errorf("%w: %q", protocol.ErrDuplicateTeam, name)
	}
	t := &Team{Name: name, Configured: slots, Capacity: slots, Available: slots}
	ts.byName[name] = t
	ts.order = append(ts.order, t)
	return nil
}

func (ts *Teams) Get(name string) *Team { return ts.byName[name] }

// Names returns team names in registration order.
func (ts *Teams) Names() []string {
	out := make([]string, len(ts.order))
	for i, t := range ts.order {
		out[i] = t.Name
	}
	return out
}

// TryJoin consumes one slot. hatchedEgg is >= 0 when the consumed slot was a
// manufactured egg, for observer narration.
func (ts *Teams) TryJoin(name string) (t *Team, hatchedEgg int, err error) {
	t = ts.byName[name]
	if t == nil {
		return nil, -1, fmt.Errorf("%w: %q", protocol.ErrNoSuchTeam, name)
	}
	if t.Available == 0 {
		return nil, -1, fmt.Errorf("%w: %q", protocol.ErrNoSlotsAvailable, name)
	}
	t.Available--
	hatchedEgg = -1
	if n := len(t.eggs); n > 0 {
		hatchedEgg = t.eggs[0]
		t.eggs = t.eggs[1:]
	}
	return t, hatchedEgg, nil
}

// ReleaseSlot returns a dead player's slot to its team. Exceeding the team's
// capacity means the slot accounting is corrupt, which is an unrecoverable
// defect: abort instead of continuing with bad shared state.
func (t *Team) ReleaseSlot() {
	if t.Available >= t.Capacity {
		panic(fmt.Sprintf("team %q: slot release beyond capacity %d", t.Name, t.Capacity))
	}
	t.Available++
}

// GrantSlot is the effect of a completed fork: one new egg, joinable
// immediately.
func (t *Team) GrantSlot(eggID int) {
	t.Capacity++
	t.Available++
	t.eggs = append(t.eggs, eggID)
}
