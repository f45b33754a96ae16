package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"gorm.io/datatypes"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/game"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/loot"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/storage"
)

type boardEntry struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

type encounterEntry struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

type inventoryEntry struct {
	ID       string `yaml:"id"`
	ItemKey  string `yaml:"item_key"`
	Quantity int    `yaml:"quantity"`
}

type characterEntry struct {
	ID             string             `yaml:"id"`
	Kind           string             `yaml:"kind"`
	Owner          string             `yaml:"owner_player_id"`
	Name           string             `yaml:"name"`
	Level          int                `yaml:"level"`
	Attributes     stats.Attributes   `yaml:"attributes"`
	Skills         []string           `yaml:"skills"`
	PreferredSlots []loot.Slot        `yaml:"preferred_slots"`
	Resistances    map[string]float64 `yaml:"resistances"`
	Inventory      []inventoryEntry   `yaml:"inventory"`
}

type campaignEntry struct {
	ID         string           `yaml:"id"`
	Name       string           `yaml:"name"`
	DM         string           `yaml:"dm_player_id"`
	Characters []characterEntry `yaml:"characters"`
}

type rawCatalog struct {
	Board       boardEntry              `yaml:"board"`
	Encounter   encounterEntry          `yaml:"encounter"`
	Statuses    []game.StatusDefinition `yaml:"statuses"`
	Skills      []game.Skill            `yaml:"skills"`
	Consumables []game.Consumable       `yaml:"consumables"`
	NPCs        []game.NPCTemplate      `yaml:"npcs"`
	Campaigns   []campaignEntry         `yaml:"campaigns"`
}

// Rules are the tunables of combat setup.
type Rules struct {
	BoardWidth   int
	BoardHeight  int
	EncounterMin int
	EncounterMax int
}

// LoadedCatalog contains the content catalog, the combat setup rules and
// the campaigns to seed.
type LoadedCatalog struct {
	Catalog *game.Catalog
	Rules   Rules
	Seeds   []storage.Seed
}

// LoadCatalog reads and validates the YAML catalog at path.
func LoadCatalog(path string) (*LoadedCatalog, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file %s: %w", path, err)
	}
	lc, err := ParseCatalog(b)
	if err != nil {
		return nil, fmt.Errorf("catalog file %s: %w", path, err)
	}
	return lc, nil
}

// ParseCatalog decodes a YAML catalog. Keys must be unique and every
// reference (skill status, NPC skill, character skill, inventory item)
// must resolve.
func ParseCatalog(b []byte) (*LoadedCatalog, error) {
	var rc rawCatalog
	if err := yaml.Unmarshal(b, &rc); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}

	cat := &game.Catalog{
		Skills:      make(map[string]game.Skill, len(rc.Skills)),
		Statuses:    make(map[string]game.StatusDefinition, len(rc.Statuses)),
		Consumables: make(map[string]game.Consumable, len(rc.Consumables)),
		NPCs:        make(map[string]game.NPCTemplate, len(rc.NPCs)),
	}

	for _, s := range rc.Statuses {
		if err := validateStatus(s); err != nil {
			return nil, err
		}
		if _, dup := cat.Statuses[s.ID]; dup {
			return nil, fmt.Errorf("duplicate status id '%s'", s.ID)
		}
		cat.Statuses[s.ID] = s
	}

	for _, s := range rc.Skills {
		if err := validateSkill(s, cat); err != nil {
			return nil, err
		}
		if _, dup := cat.Skills[s.ID]; dup {
			return nil, fmt.Errorf("duplicate skill id '%s'", s.ID)
		}
		cat.Skills[s.ID] = s
	}

	for _, c := range rc.Consumables {
		if strings.TrimSpace(c.Key) == "" {
			return nil, fmt.Errorf("consumable entry missing 'key'")
		}
		if _, dup := cat.Consumables[c.Key]; dup {
			return nil, fmt.Errorf("duplicate consumable key '%s'", c.Key)
		}
		if c.Targeting == "" {
			c.Targeting = game.TargetSelf
		}
		if !validTargeting(c.Targeting) {
			return nil, fmt.Errorf("consumable '%s': unknown targeting %q", c.Key, c.Targeting)
		}
		if c.Status != "" {
			if _, ok := cat.Statuses[c.Status]; !ok {
				return nil, fmt.Errorf("consumable '%s': unknown status '%s'", c.Key, c.Status)
			}
		}
		cat.Consumables[c.Key] = c
	}

	for _, n := range rc.NPCs {
		if strings.TrimSpace(n.Key) == "" {
			return nil, fmt.Errorf("npc entry missing 'key'")
		}
		if _, dup := cat.NPCs[n.Key]; dup {
			return nil, fmt.Errorf("duplicate npc key '%s'", n.Key)
		}
		if n.Weight < 0 {
			return nil, fmt.Errorf("npc '%s': weight must not be negative", n.Key)
		}
		for _, id := range n.Skills {
			if _, ok := cat.Skills[id]; !ok {
				return nil, fmt.Errorf("npc '%s': unknown skill '%s'", n.Key, id)
			}
		}
		cat.NPCs[n.Key] = n
		cat.NPCOrder = append(cat.NPCOrder, n.Key)
	}
	if len(cat.NPCs) == 0 {
		return nil, fmt.Errorf("npcs is empty (provide at least one enemy template)")
	}

	rules := Rules{
		BoardWidth:   orDefault(rc.Board.Width, 12),
		BoardHeight:  orDefault(rc.Board.Height, 8),
		EncounterMin: orDefault(rc.Encounter.Min, 1),
		EncounterMax: orDefault(rc.Encounter.Max, 4),
	}
	if rules.BoardWidth < 6 || rules.BoardHeight < 3 {
		return nil, fmt.Errorf("board must be at least 6x3, got %dx%d", rules.BoardWidth, rules.BoardHeight)
	}
	if rules.EncounterMin > rules.EncounterMax {
		return nil, fmt.Errorf("encounter min %d exceeds max %d", rules.EncounterMin, rules.EncounterMax)
	}

	seeds := make([]storage.Seed, 0, len(rc.Campaigns))
	for _, ce := range rc.Campaigns {
		seed, err := buildSeed(ce, cat)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, seed)
	}

	return &LoadedCatalog{Catalog: cat, Rules: rules, Seeds: seeds}, nil
}

func validateStatus(s game.StatusDefinition) error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("status entry missing 'id'")
	}
	if strings.HasPrefix(s.ID, game.CooldownPrefix) {
		return fmt.Errorf("status '%s': ids starting with %q are reserved", s.ID, game.CooldownPrefix)
	}
	if s.Duration <= 0 {
		return fmt.Errorf("status '%s': duration must be positive", s.ID)
	}
	if _, err := s.Effect(); err != nil {
		return err
	}
	return nil
}

func validateSkill(s game.Skill, cat *game.Catalog) error {
	if strings.TrimSpace(s.ID) == "" {
		return fmt.Errorf("skill entry missing 'id'")
	}
	switch s.Kind {
	case game.SkillActive, game.SkillPassive, game.SkillUltimate:
	default:
		return fmt.Errorf("skill '%s': unknown kind %q", s.ID, s.Kind)
	}
	if s.Kind != game.SkillPassive && !validTargeting(s.Targeting) {
		return fmt.Errorf("skill '%s': unknown targeting %q", s.ID, s.Targeting)
	}
	if s.Kind != game.SkillPassive {
		switch s.DamageKind {
		case game.DamagePhysical, game.DamageMagical, game.DamageTrue, game.DamageHeal, game.DamageNone:
		default:
			return fmt.Errorf("skill '%s': unknown damage_kind %q", s.ID, s.DamageKind)
		}
	}
	if s.RangeTiles < 0 || s.Radius < 0 || s.CooldownTurns < 0 || s.PowerCost < 0 {
		return fmt.Errorf("skill '%s': range, radius, cooldown and cost must not be negative", s.ID)
	}
	if s.Status != "" {
		if _, ok := cat.Statuses[s.Status]; !ok {
			return fmt.Errorf("skill '%s': unknown status '%s'", s.ID, s.Status)
		}
	}
	return nil
}

func validTargeting(t string) bool {
	switch t {
	case game.TargetSelf, game.TargetSingle, game.TargetTile, game.TargetArea, game.TargetCone, game.TargetLine:
		return true
	}
	return false
}

func buildSeed(ce campaignEntry, cat *game.Catalog) (storage.Seed, error) {
	if ce.ID == "" {
		return storage.Seed{}, fmt.Errorf("campaign entry missing 'id'")
	}
	seed := storage.Seed{Campaign: game.Campaign{ID: ce.ID, Name: ce.Name, DMPlayerID: ce.DM}}
	ids := map[string]bool{}
	for _, ch := range ce.Characters {
		if ch.ID == "" || ids[ch.ID] {
			return storage.Seed{}, fmt.Errorf("campaign '%s': character id missing or duplicated (%q)", ce.ID, ch.ID)
		}
		ids[ch.ID] = true
		kind := game.CharacterKind(ch.Kind)
		if kind != game.CharacterPlayer && kind != game.CharacterCompanion {
			return storage.Seed{}, fmt.Errorf("campaign '%s': character '%s' has unknown kind %q", ce.ID, ch.ID, ch.Kind)
		}
		for _, id := range ch.Skills {
			if _, ok := cat.Skills[id]; !ok {
				return storage.Seed{}, fmt.Errorf("campaign '%s': character '%s' has unknown skill '%s'", ce.ID, ch.ID, id)
			}
		}
		out := game.Character{
			ID:             ch.ID,
			CampaignID:     ce.ID,
			OwnerPlayerID:  ch.Owner,
			Kind:           kind,
			Name:           ch.Name,
			Level:          orDefault(ch.Level, 1),
			Attributes:     ch.Attributes,
			Skills:         ch.Skills,
			PreferredSlots: ch.PreferredSlots,
			Resistances:    datatypes.NewJSONType(ch.Resistances),
		}
		for _, it := range ch.Inventory {
			if _, ok := cat.Consumables[it.ItemKey]; !ok {
				return storage.Seed{}, fmt.Errorf("campaign '%s': character '%s' carries unknown item '%s'", ce.ID, ch.ID, it.ItemKey)
			}
			if it.ID == "" {
				return storage.Seed{}, fmt.Errorf("campaign '%s': inventory entry of '%s' missing 'id'", ce.ID, ch.ID)
			}
			out.Inventory = append(out.Inventory, game.InventoryItem{
				ID:          it.ID,
				CharacterID: ch.ID,
				ItemKey:     it.ItemKey,
				Quantity:    orDefault(it.Quantity, 1),
			})
		}
		seed.Characters = append(seed.Characters, out)
	}
	return seed, nil
}

func orDefault(v, def int) int {
	if v == 0 {
		return def
	}
	return v
}
