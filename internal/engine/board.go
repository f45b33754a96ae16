package engine

import (
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/prng"
)

// Board is a generated battlefield.
type Board struct {
	Width       int
	Height      int
	Blocked     []game.Tile
	PartySpawns []game.Tile
	EnemySpawns []game.Tile
}

const obstacleDensity = 0.12

// GenerateBoard scatters obstacles from seed, keeping the three columns on
// each edge clear for spawns, and guarantees the two sides are connected.
func GenerateBoard(seed int64, width, height, party, enemies int) Board {
	b := Board{Width: width, Height: height}
	b.PartySpawns = spawnColumn(1, 1, width, height, party)
	b.EnemySpawns = spawnColumn(width-2, -1, width, height, enemies)

	blocked := map[game.Tile]bool{}
	for x := 3; x < width-3; x++ {
		for y := 0; y < height; y++ {
			if prng.Chance(seed, prng.Label("board", x, y), obstacleDensity) {
				blocked[game.Tile{X: x, Y: y}] = true
			}
		}
	}
	if len(b.PartySpawns) > 0 && len(b.EnemySpawns) > 0 {
		if _, ok := FindPath(width, height, blocked, b.PartySpawns[0], b.EnemySpawns[0]); !ok {
			mid := height / 2
			for x := 0; x < width; x++ {
				delete(blocked, game.Tile{X: x, Y: mid})
			}
		}
	}
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			if t := (game.Tile{X: x, Y: y}); blocked[t] {
				b.Blocked = append(b.Blocked, t)
			}
		}
	}
	return b
}

// spawnColumn places n units around the vertical middle of column x,
// spilling into the next column in direction dir when a column is full.
func spawnColumn(x, dir, width, height, n int) []game.Tile {
	out := make([]game.Tile, 0, n)
	mid := height / 2
	for col := x; len(out) < n && col >= 0 && col < width; col += dir {
		for i := 0; i < height && len(out) < n; i++ {
			off := (i + 1) / 2
			if i%2 == 1 {
				off = -off
			}
			y := mid + off
			if y < 0 || y >= height {
				continue
			}
			out = append(out, game.Tile{X: col, Y: y})
		}
	}
	return out
}

// EncounterSlot is one enemy to spawn.
type EncounterSlot struct {
	Template game.NPCTemplate
	Level    int
	Ordinal  int
}

// BuildEncounter rolls count enemies from the catalog's NPC templates,
// levelled around partyLevel. Templates rolled more than once get ordinals.
func BuildEncounter(seed int64, cat *game.Catalog, partyLevel, count int) []EncounterSlot {
	table := make([]prng.Weighted[string], 0, len(cat.NPCOrder))
	for _, key := range cat.NPCOrder {
		table = append(table, prng.Weighted[string]{Value: key, Weight: cat.NPCs[key].Weight})
	}
	picked := make([]EncounterSlot, 0, count)
	seen := map[string]int{}
	for i := 0; i < count; i++ {
		key, ok := prng.PickWeighted(seed, prng.Label("encounter", i, "template"), table)
		if !ok {
			break
		}
		level := max(1, partyLevel+prng.Intn(seed, prng.Label("encounter", i, "level"), 3)-1)
		seen[key]++
		picked = append(picked, EncounterSlot{Template: cat.NPCs[key], Level: level, Ordinal: seen[key]})
	}
	// single occurrences keep the plain template name
	for i := range picked {
		if seen[picked[i].Template.Key] == 1 {
			picked[i].Ordinal = 0
		}
	}
	return picked
}

// EncounterSize returns how many enemies face a party of partySize.
func EncounterSize(seed int64, partySize, minEnemies, maxEnemies int) int {
	n := partySize + prng.Intn(seed, "encounter:size", 2)
	return min(max(n, minEnemies), maxEnemies)
}
