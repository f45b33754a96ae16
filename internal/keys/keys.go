package keys

import (
	"strings"
)

// IdempotencyKey produces the storage key for a caller-supplied
// idempotency key. The key is scoped by player and operation so two
// callers (or two endpoints) never share a cached response.
func IdempotencyKey(playerID, scope, key string) string {
	return strings.Join([]string{normalize(playerID), normalize(scope), strings.TrimSpace(key)}, "|")
}

// RewardFlight is the singleflight key for a session's settlement.
func RewardFlight(sessionID string) string {
	return "rewards:" + sessionID
}

// LootLabel is the PRNG label of one character's loot roll for a session.
func LootLabel(sessionID, characterID string) string {
	return "rewards:" + sessionID + ":" + characterID
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
