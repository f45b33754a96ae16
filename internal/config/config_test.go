package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/constants"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
)

func repoCatalog(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(file), "..", "..", "catalog.yaml")
}

func TestLoadCatalog_BundledCatalogIsValid(t *testing.T) {
	lc, err := LoadCatalog(repoCatalog(t))
	require.NoError(t, err)

	assert.Equal(t, 12, lc.Rules.BoardWidth)
	assert.Equal(t, 2, lc.Rules.EncounterMin)
	assert.Equal(t, []string{"goblin", "goblin_archer", "shaman", "ogre"}, lc.Catalog.NPCOrder)

	fb, ok := lc.Catalog.Skill("fireball")
	require.True(t, ok)
	assert.Equal(t, game.TargetArea, fb.Targeting)
	assert.Equal(t, "burn", fb.Status)

	pierce, ok := lc.Catalog.Skill("piercing_shot")
	require.True(t, ok)
	assert.Equal(t, game.DamageTrue, pierce.DamageKind)

	require.Len(t, lc.Seeds, 1)
	seed := lc.Seeds[0]
	assert.Equal(t, "demo", seed.Campaign.ID)
	require.Len(t, seed.Characters, 3)
	assert.Equal(t, game.CharacterCompanion, seed.Characters[2].Kind)
	assert.Equal(t, 15.0, seed.Characters[1].Resistances.Data()["fire"])
	require.Len(t, seed.Characters[0].Inventory, 1)
	assert.Equal(t, 2, seed.Characters[0].Inventory[0].Quantity)
}

func TestParseCatalog_RejectsBrokenReferences(t *testing.T) {
	cases := map[string]string{
		"unknown status": `
skills:
  - {id: a, kind: active, targeting: single, damage_kind: physical, status: nope}
npcs:
  - {key: g, weight: 1}
`,
		"duplicate skill": `
skills:
  - {id: a, kind: active, targeting: single, damage_kind: physical}
  - {id: a, kind: active, targeting: single, damage_kind: physical}
npcs:
  - {key: g, weight: 1}
`,
		"bad targeting": `
skills:
  - {id: a, kind: active, targeting: everywhere, damage_kind: physical}
npcs:
  - {key: g, weight: 1}
`,
		"npc skill": `
npcs:
  - {key: g, weight: 1, skills: [missing]}
`,
		"zero duration": `
statuses:
  - {id: s, kind: buff}
npcs:
  - {key: g, weight: 1}
`,
		"reserved status id": `
statuses:
  - {id: "cd:x", kind: buff, duration: 2}
npcs:
  - {key: g, weight: 1}
`,
		"no npcs": `
skills: []
`,
		"unknown inventory item": `
npcs:
  - {key: g, weight: 1}
campaigns:
  - id: c
    characters:
      - {id: x, kind: player, inventory: [{id: i, item_key: missing}]}
`,
		"bad character kind": `
npcs:
  - {key: g, weight: 1}
campaigns:
  - id: c
    characters:
      - {id: x, kind: wizard}
`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(doc))
			assert.Error(t, err)
		})
	}
}

func TestParseCatalog_Defaults(t *testing.T) {
	lc, err := ParseCatalog([]byte(`
consumables:
  - {key: ether, power: 10}
npcs:
  - {key: g, weight: 1}
`))
	require.NoError(t, err)
	assert.Equal(t, Rules{BoardWidth: 12, BoardHeight: 8, EncounterMin: 1, EncounterMax: 4}, lc.Rules)
	assert.Equal(t, game.TargetSelf, lc.Catalog.Consumables["ether"].Targeting)
}

func TestLoad_FromEnvironment(t *testing.T) {
	t.Setenv(constants.EnvJWTSecret, "s3cret")
	t.Setenv(constants.EnvIdempotencyTTL, "2h")
	t.Setenv(constants.EnvMaxTickActions, "5")
	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, 2*time.Hour, cfg.IdempotencyTTL)
	assert.Equal(t, 5, cfg.MaxTickActions)
}

func TestLoad_RequiresSecret(t *testing.T) {
	t.Setenv(constants.EnvJWTSecret, "")
	os.Unsetenv(constants.EnvJWTSecret)
	_, err := Load()
	assert.Error(t, err)
}
