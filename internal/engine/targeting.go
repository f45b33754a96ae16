package engine

import (
	"fmt"
	"math"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

// Target is what a caller aims an action at. Which field is read depends on
// the targeting kind of the skill or item.
type Target struct {
	CombatantID string     `json:"combatant_id,omitempty"`
	Tile        *game.Tile `json:"tile,omitempty"`
}

func manhattan(a, b game.Tile) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func chebyshev(a, b game.Tile) int {
	return max(abs(a.X-b.X), abs(a.Y-b.Y))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (b *Battle) inBounds(t game.Tile) bool {
	return t.X >= 0 && t.Y >= 0 && t.X < b.Session.Width && t.Y < b.Session.Height
}

func (b *Battle) blockedSet() map[game.Tile]bool {
	out := make(map[game.Tile]bool, len(b.Session.Blocked))
	for _, t := range b.Session.Blocked {
		out[t] = true
	}
	return out
}

// shape describes the geometry of an action independent of whether it comes
// from a skill or a consumable.
type shape struct {
	Targeting string
	Range     int
	Radius    int
	Friendly  bool
}

func skillShape(s game.Skill) shape {
	return shape{Targeting: s.Targeting, Range: s.RangeTiles, Radius: s.Radius, Friendly: s.Friendly || s.DamageKind == game.DamageHeal}
}

// resolveTargets validates target against sh and returns the affected
// combatants in roster order plus the aimed tile, if any. It never mutates.
func (b *Battle) resolveTargets(actor *game.Combatant, sh shape, target Target) ([]*game.Combatant, *game.Tile, error) {
	switch sh.Targeting {
	case game.TargetSelf:
		return []*game.Combatant{actor}, nil, nil

	case game.TargetSingle:
		if target.CombatantID == "" {
			return nil, nil, fmt.Errorf("%w: combatant id required", game.ErrInvalidTarget)
		}
		c, ok := b.byID[target.CombatantID]
		if !ok || !c.IsAlive {
			return nil, nil, fmt.Errorf("%w: no living combatant %s", game.ErrInvalidTarget, target.CombatantID)
		}
		if !sh.affects(actor, c) {
			return nil, nil, fmt.Errorf("%w: %s is not a valid side for this action", game.ErrInvalidTarget, c.ID)
		}
		if manhattan(actor.Pos(), c.Pos()) > sh.Range {
			return nil, nil, game.ErrTargetOutOfRange
		}
		return []*game.Combatant{c}, nil, nil

	case game.TargetTile, game.TargetArea, game.TargetCone, game.TargetLine:
		if target.Tile == nil {
			return nil, nil, fmt.Errorf("%w: tile required", game.ErrInvalidTarget)
		}
		aim := *target.Tile
		if !b.inBounds(aim) {
			return nil, nil, game.ErrTileOutOfBounds
		}
		origin := actor.Pos()
		switch sh.Targeting {
		case game.TargetTile, game.TargetArea:
			if manhattan(origin, aim) > sh.Range {
				return nil, nil, game.ErrTargetOutOfRange
			}
		default:
			if aim == origin {
				return nil, nil, fmt.Errorf("%w: aim tile must differ from the caster's tile", game.ErrInvalidTarget)
			}
		}
		tiles := b.shapeTiles(origin, aim, sh)
		var out []*game.Combatant
		for _, c := range b.Combatants {
			if c.IsAlive && tiles[c.Pos()] && sh.affects(actor, c) {
				out = append(out, c)
			}
		}
		return out, &aim, nil
	}
	return nil, nil, fmt.Errorf("%w: unknown targeting %q", game.ErrSkillNotUsable, sh.Targeting)
}

func (sh shape) affects(actor, c *game.Combatant) bool {
	if sh.Friendly {
		return c.Team == actor.Team
	}
	return c.Team != actor.Team
}

func (b *Battle) shapeTiles(origin, aim game.Tile, sh shape) map[game.Tile]bool {
	out := map[game.Tile]bool{}
	switch sh.Targeting {
	case game.TargetTile:
		out[aim] = true
	case game.TargetArea:
		for y := aim.Y - sh.Radius; y <= aim.Y+sh.Radius; y++ {
			for x := aim.X - sh.Radius; x <= aim.X+sh.Radius; x++ {
				t := game.Tile{X: x, Y: y}
				if b.inBounds(t) {
					out[t] = true
				}
			}
		}
	case game.TargetCone:
		dir := math.Atan2(float64(aim.Y-origin.Y), float64(aim.X-origin.X))
		for y := origin.Y - sh.Range; y <= origin.Y+sh.Range; y++ {
			for x := origin.X - sh.Range; x <= origin.X+sh.Range; x++ {
				t := game.Tile{X: x, Y: y}
				if t == origin || !b.inBounds(t) || manhattan(origin, t) > sh.Range {
					continue
				}
				a := math.Atan2(float64(y-origin.Y), float64(x-origin.X))
				if angleBetween(a, dir) <= math.Pi/4+1e-9 {
					out[t] = true
				}
			}
		}
	case game.TargetLine:
		blocked := b.blockedSet()
		for _, t := range lineTiles(origin, aim, sh.Range) {
			if !b.inBounds(t) || blocked[t] {
				break
			}
			out[t] = true
		}
	}
	return out
}

func angleBetween(a, c float64) float64 {
	d := math.Abs(a - c)
	if d > math.Pi {
		d = 2*math.Pi - d
	}
	return d
}

// lineTiles walks a Bresenham ray from origin through aim and returns up to
// n tiles, origin excluded.
func lineTiles(origin, aim game.Tile, n int) []game.Tile {
	dx, dy := abs(aim.X-origin.X), -abs(aim.Y-origin.Y)
	sx, sy := 1, 1
	if aim.X < origin.X {
		sx = -1
	}
	if aim.Y < origin.Y {
		sy = -1
	}
	err := dx + dy
	x, y := origin.X, origin.Y
	out := make([]game.Tile, 0, n)
	for len(out) < n {
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x += sx
		}
		if e2 <= dx {
			err += dx
			y += sy
		}
		out = append(out, game.Tile{X: x, Y: y})
	}
	return out
}
