package loot

import "github.com/mylo2dolla/saga-spark-web-sub008/internal/prng"

const maxIDRetries = 5

// BatchRequest describes a drop batch for one actor.
type BatchRequest struct {
	Seed           int64
	Label          string
	Count          int
	ActorLevel     int
	PreferredSlots []Slot
	// EquippedScores maps slot to the score of the item currently equipped
	// there. Missing slots count as empty (score 0).
	EquippedScores map[Slot]float64
	AvoidIDs       map[string]bool
}

// Drop is one generated item and the gold that came with it.
type Drop struct {
	Item Item `json:"item"`
	Gold int  `json:"gold"`
}

// GenerateBatch rolls Count drops. Slot selection favours preferred slots
// and slots that lag behind the actor's best equipped slot, and penalises
// slots already chosen in this batch. Items whose id collides with
// AvoidIDs (or with an earlier drop of the batch) are re-rolled a bounded
// number of times.
func GenerateBatch(req BatchRequest) []Drop {
	if req.Count <= 0 {
		return nil
	}
	avoid := make(map[string]bool, len(req.AvoidIDs)+req.Count)
	for id := range req.AvoidIDs {
		avoid[id] = true
	}
	chosen := map[Slot]int{}
	drops := make([]Drop, 0, req.Count)

	for i := 0; i < req.Count; i++ {
		var it Item
		var rarity Rarity
		for attempt := 0; attempt <= maxIDRetries; attempt++ {
			label := prng.Label(req.Label, "drop", i, attempt)
			rarity = RollRarity(req.Seed, prng.Label(label, "rarity"))
			slot := rollSlot(req, prng.Label(label, "slot"), chosen)
			it = GenerateItem(req.Seed, label, req.ActorLevel, rarity, slot)
			if !avoid[it.ID] {
				break
			}
		}
		avoid[it.ID] = true
		chosen[it.Slot]++
		drops = append(drops, Drop{
			Item: it,
			Gold: RollGold(req.Seed, prng.Label(req.Label, "drop", i), req.ActorLevel, rarity),
		})
	}
	return drops
}

// SlotWeights exposes the slot table used for a request, after preference,
// smart-drop and repeat adjustments.
func SlotWeights(req BatchRequest, chosen map[Slot]int) []prng.Weighted[Slot] {
	best := 0.0
	for _, s := range req.EquippedScores {
		if s > best {
			best = s
		}
	}
	preferred := make(map[Slot]bool, len(req.PreferredSlots))
	for _, s := range req.PreferredSlots {
		preferred[s] = true
	}

	out := make([]prng.Weighted[Slot], 0, len(Slots))
	for _, s := range Slots {
		w := 10.0
		if preferred[s] {
			w += 15
		}
		if best > 0 {
			gap := 1 - req.EquippedScores[s]/best
			if gap > 0.4 {
				w += 20 * gap
			}
		}
		for n := 0; n < chosen[s]; n++ {
			w *= 0.25
		}
		out = append(out, prng.Weighted[Slot]{Value: s, Weight: w})
	}
	return out
}

func rollSlot(req BatchRequest, label string, chosen map[Slot]int) Slot {
	s, ok := prng.PickWeighted(req.Seed, label, SlotWeights(req, chosen))
	if !ok {
		return SlotWeapon
	}
	return s
}
