package engine

import (
	"fmt"
	"sort"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

// BuildTurnOrder computes the fixed rotation for a new session: descending
// initiative, ties kept in roster order.
func BuildTurnOrder(sessionID string, roster []*game.Combatant) []game.TurnOrderEntry {
	sorted := make([]*game.Combatant, len(roster))
	copy(sorted, roster)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Initiative > sorted[j].Initiative
	})
	order := make([]game.TurnOrderEntry, len(sorted))
	for i, c := range sorted {
		order[i] = game.TurnOrderEntry{SessionID: sessionID, TurnIndex: i, CombatantID: c.ID}
	}
	return order
}

// Outcome is reported once a session has ended.
type Outcome struct {
	AlivePlayers int       `json:"alive_players"`
	AliveNPCs    int       `json:"alive_npcs"`
	WinningTeam  game.Team `json:"winning_team,omitempty"`
}

// ActionResult is returned by every accepted turn-consuming action.
type ActionResult struct {
	Ended                bool           `json:"ended"`
	Outcome              *Outcome       `json:"outcome,omitempty"`
	RewardsReady         bool           `json:"rewards_ready,omitempty"`
	NextTurnIndex        *int           `json:"next_turn_index,omitempty"`
	NextActorCombatantID string         `json:"next_actor_combatant_id,omitempty"`
	AnimationHint        map[string]any `json:"animation_hint,omitempty"`
}

// CurrentActor returns the combatant at the current turn index.
func (b *Battle) CurrentActor() *game.Combatant {
	if len(b.Order) == 0 {
		return nil
	}
	idx := b.Session.CurrentTurnIndex
	if idx < 0 || idx >= len(b.Order) {
		return nil
	}
	return b.byID[b.Order[idx].CombatantID]
}

// Begin activates a pending session: it logs the rotation, starts the first
// living combatant's turn and runs its status tick.
func (b *Battle) Begin() error {
	if err := b.transition(fsmStart); err != nil {
		return fmt.Errorf("%w: %v", game.ErrCombatInactive, err)
	}
	order := make([]string, len(b.Order))
	for i, e := range b.Order {
		order[i] = e.CombatantID
	}
	b.Session.TurnNumber = 0
	b.emit(game.EventCombatStart, nil, map[string]any{
		"turn_order": order,
		"seed":       b.Session.Seed,
		"width":      b.Session.Width,
		"height":     b.Session.Height,
		"animation":  anim("combat_start", 800),
	})
	if b.checkEnd() {
		return nil
	}
	b.Session.CurrentTurnIndex = len(b.Order) - 1
	b.startNextTurn()
	return nil
}

// aliveCounts returns living combatants per team.
func (b *Battle) aliveCounts() (party, enemy int) {
	for _, c := range b.Combatants {
		if !c.IsAlive {
			continue
		}
		if c.Team == game.TeamParty {
			party++
		} else {
			enemy++
		}
	}
	return party, enemy
}

// checkEnd ends the session when one side has no living combatants.
func (b *Battle) checkEnd() bool {
	if b.Session.Status == game.StatusEnded {
		return true
	}
	party, enemy := b.aliveCounts()
	if party > 0 && enemy > 0 {
		return false
	}
	winner := game.TeamParty
	if party == 0 {
		winner = game.TeamEnemy
	}
	if err := b.transition(fsmFinish); err != nil {
		return false
	}
	now := b.Now().UTC()
	b.Session.WinningTeam = winner
	b.Session.EndedAt = &now
	out := b.Outcome()
	b.emit(game.EventCombatEnd, nil, map[string]any{
		"winning_team":  winner,
		"alive_players": out.AlivePlayers,
		"alive_npcs":    out.AliveNPCs,
		"animation":     anim("combat_end", 1200),
	})
	return true
}

// Outcome counts the survivors of each side.
func (b *Battle) Outcome() *Outcome {
	party, enemy := b.aliveCounts()
	return &Outcome{AlivePlayers: party, AliveNPCs: enemy, WinningTeam: b.Session.WinningTeam}
}

// nextAliveIndex scans cyclically from after `from` for a living combatant.
func (b *Battle) nextAliveIndex(from int) (int, bool) {
	n := len(b.Order)
	for step := 1; step <= n; step++ {
		i := ((from+step)%n + n) % n
		if c := b.byID[b.Order[i].CombatantID]; c != nil && c.IsAlive {
			return i, true
		}
	}
	return 0, false
}

// startNextTurn moves the rotation to the next living combatant and runs its
// status tick. A combatant killed by its own tick loses the turn and the
// scan continues.
func (b *Battle) startNextTurn() {
	for i, n := 0, len(b.Order)+1; i < n; i++ {
		if b.checkEnd() {
			return
		}
		next, ok := b.nextAliveIndex(b.Session.CurrentTurnIndex)
		if !ok {
			return
		}
		b.Session.CurrentTurnIndex = next
		b.Session.TurnNumber++
		actor := b.CurrentActor()
		b.emit(game.EventTurnStart, actor, map[string]any{
			"turn_index":   next,
			"combatant_id": actor.ID,
			"autonomous":   actor.Autonomous(),
		})
		b.tickStatuses(actor)
		if actor.IsAlive {
			return
		}
	}
}

// advance closes the current actor's turn and opens the next one.
func (b *Battle) advance() {
	if b.checkEnd() {
		return
	}
	if actor := b.CurrentActor(); actor != nil {
		b.emit(game.EventTurnEnd, actor, map[string]any{
			"turn_index":   b.Session.CurrentTurnIndex,
			"combatant_id": actor.ID,
		})
	}
	b.startNextTurn()
}

// finish evaluates the end condition after an accepted action and advances
// the rotation when combat goes on.
func (b *Battle) finish(hint map[string]any) *ActionResult {
	b.advance()
	if b.Session.Status == game.StatusEnded {
		return &ActionResult{Ended: true, Outcome: b.Outcome(), RewardsReady: true, AnimationHint: hint}
	}
	idx := b.Session.CurrentTurnIndex
	res := &ActionResult{NextTurnIndex: &idx, AnimationHint: hint}
	if actor := b.CurrentActor(); actor != nil {
		res.NextActorCombatantID = actor.ID
	}
	return res
}

// requireTurn runs the checks every turn-consuming action shares: active
// session, known living actor, actor owns the current turn.
func (b *Battle) requireTurn(actorID string) (*game.Combatant, error) {
	if b.Session.Status != game.StatusActive {
		return nil, game.ErrCombatInactive
	}
	actor, ok := b.byID[actorID]
	if !ok {
		return nil, game.ErrCombatantNotFound
	}
	if !actor.IsAlive {
		return nil, game.ErrActorDefeated
	}
	if cur := b.CurrentActor(); cur == nil || cur.ID != actor.ID {
		return nil, game.ErrNotYourTurn
	}
	return actor, nil
}

// EnsureLiveTurn restores the invariant that the current turn index points
// at a living combatant, advancing if it does not.
func (b *Battle) EnsureLiveTurn() {
	if b.Session.Status != game.StatusActive {
		return
	}
	if cur := b.CurrentActor(); cur != nil && cur.IsAlive {
		return
	}
	b.startNextTurn()
}
