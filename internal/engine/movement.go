package engine

import (
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"
)

// MoveRequest either names a destination or asks to wait.
type MoveRequest struct {
	To   *game.Tile `json:"to,omitempty"`
	Wait bool       `json:"wait,omitempty"`
}

// MoveResult is returned by an accepted move or wait.
type MoveResult struct {
	Moved          bool        `json:"moved"`
	Waited         bool        `json:"waited"`
	MovementBudget int         `json:"movement_budget"`
	StepsUsed      int         `json:"steps_used"`
	Path           []game.Tile `json:"path,omitempty"`
	To             *game.Tile  `json:"to,omitempty"`
	*ActionResult
}

// MovementBudget is how many tiles c may move this turn: zero while rooted
// or stunned.
func MovementBudget(c *game.Combatant, turn int) int {
	if HasControl(c, game.ControlRoot, turn) || HasControl(c, game.ControlStun, turn) {
		return 0
	}
	return stats.MovementBudget(c.Mobility)
}

var neighbours = [4]game.Tile{{X: 0, Y: -1}, {X: 1, Y: 0}, {X: 0, Y: 1}, {X: -1, Y: 0}}

// FindPath runs a breadth-first search from `from` to `to` on a w x h grid.
// Tiles in blocked are impassable. The returned path includes both ends.
func FindPath(w, h int, blocked map[game.Tile]bool, from, to game.Tile) ([]game.Tile, bool) {
	if from == to {
		return []game.Tile{from}, true
	}
	prev := map[game.Tile]game.Tile{from: from}
	queue := []game.Tile{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, d := range neighbours {
			n := game.Tile{X: cur.X + d.X, Y: cur.Y + d.Y}
			if n.X < 0 || n.Y < 0 || n.X >= w || n.Y >= h || blocked[n] {
				continue
			}
			if _, seen := prev[n]; seen {
				continue
			}
			prev[n] = cur
			if n == to {
				return walkBack(prev, from, to), true
			}
			queue = append(queue, n)
		}
	}
	return nil, false
}

func walkBack(prev map[game.Tile]game.Tile, from, to game.Tile) []game.Tile {
	var rev []game.Tile
	for t := to; t != from; t = prev[t] {
		rev = append(rev, t)
	}
	rev = append(rev, from)
	path := make([]game.Tile, len(rev))
	for i, t := range rev {
		path[len(rev)-1-i] = t
	}
	return path
}

// obstacles returns blocked tiles plus tiles held by other living
// combatants.
func (b *Battle) obstacles(except *game.Combatant) map[game.Tile]bool {
	out := b.blockedSet()
	for _, c := range b.Combatants {
		if c.IsAlive && c != except {
			out[c.Pos()] = true
		}
	}
	return out
}

// planMove validates a move for actor without touching state.
func (b *Battle) planMove(actor *game.Combatant, to game.Tile) ([]game.Tile, int, error) {
	if !b.inBounds(to) {
		return nil, 0, game.ErrTileOutOfBounds
	}
	if to == actor.Pos() {
		return nil, 0, game.ErrAlreadyOnTile
	}
	budget := MovementBudget(actor, b.Session.TurnNumber)
	if budget == 0 {
		return nil, 0, game.ErrMovementLocked
	}
	obs := b.obstacles(actor)
	if obs[to] {
		return nil, budget, game.ErrDestinationBlocked
	}
	path, ok := FindPath(b.Session.Width, b.Session.Height, obs, actor.Pos(), to)
	if !ok {
		return nil, budget, game.ErrNoPath
	}
	if len(path)-1 > budget {
		return nil, budget, game.ErrMoveExceedsBudget
	}
	return path, budget, nil
}

// Move resolves a move or wait for actorID. Rejections leave the battle
// untouched.
func (b *Battle) Move(actorID string, req MoveRequest) (*MoveResult, error) {
	actor, err := b.requireTurn(actorID)
	if err != nil {
		return nil, err
	}
	if req.Wait {
		return b.wait(actor), nil
	}
	if req.To == nil {
		return nil, game.ErrInvalidMove
	}
	path, budget, err := b.planMove(actor, *req.To)
	if err != nil {
		return nil, err
	}
	return b.applyMove(actor, path, budget), nil
}

func (b *Battle) wait(actor *game.Combatant) *MoveResult {
	budget := MovementBudget(actor, b.Session.TurnNumber)
	b.emit(game.EventWait, actor, map[string]any{"combatant_id": actor.ID, "animation": anim("wait", 200)})
	return &MoveResult{Waited: true, MovementBudget: budget, ActionResult: b.finish(anim("wait", 200))}
}

func (b *Battle) applyMove(actor *game.Combatant, path []game.Tile, budget int) *MoveResult {
	steps := len(path) - 1
	dest := path[len(path)-1]
	from := actor.Pos()
	actor.X, actor.Y = dest.X, dest.Y
	hint := anim("move", 120+90*steps)
	b.emit(game.EventMoved, actor, map[string]any{
		"combatant_id":    actor.ID,
		"from":            from,
		"to":              dest,
		"path":            path,
		"steps_used":      steps,
		"movement_budget": budget,
		"animation":       hint,
	})
	return &MoveResult{
		Moved:          true,
		MovementBudget: budget,
		StepsUsed:      steps,
		Path:           path,
		To:             &dest,
		ActionResult:   b.finish(hint),
	}
}
