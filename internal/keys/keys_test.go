package keys

import "testing"

func TestIdempotencyKey_ScopedAndNormalized(t *testing.T) {
	a := IdempotencyKey(" Player-1 ", "POST /combat/s1/rewards", "abc")
	b := IdempotencyKey("player-1", "post /combat/s1/rewards", " abc ")
	if a != b {
		t.Fatalf("expected normalized keys to match, got %q vs %q", a, b)
	}
	if IdempotencyKey("player-2", "post /combat/s1/rewards", "abc") == a {
		t.Fatalf("keys of different players must differ")
	}
	if IdempotencyKey("player-1", "post /combat/s2/rewards", "abc") == a {
		t.Fatalf("keys of different scopes must differ")
	}
}

func TestLootLabel(t *testing.T) {
	if got := LootLabel("s1", "c1"); got != "rewards:s1:c1" {
		t.Fatalf("unexpected label %q", got)
	}
}
