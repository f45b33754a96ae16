package game

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/mylo2dolla/saga-spark-web-sub008/internal/loot"
	"github.com/mylo2dolla/saga-spark-web-sub008/internal/stats"
)

// Session status values.
const (
	StatusPending = "pending"
	StatusActive  = "active"
	StatusEnded   = "ended"
)

// EntityType of a combatant.
type EntityType string

const (
	EntityPlayer EntityType = "player"
	EntityNPC    EntityType = "npc"
	EntitySummon EntityType = "summon"
)

// Team a combatant fights for.
type Team string

const (
	TeamParty Team = "party"
	TeamEnemy Team = "enemy"
)

// CharacterKind distinguishes player-controlled characters from companions.
type CharacterKind string

const (
	CharacterPlayer    CharacterKind = "player"
	CharacterCompanion CharacterKind = "companion"
)

// Tile is an integer board coordinate.
type Tile struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Campaign groups a party of characters. DMPlayerID may act for any
// combatant of the campaign.
type Campaign struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	Name       string    `json:"name" gorm:"size:64"`
	DMPlayerID string    `json:"dm_player_id" gorm:"size:64;index"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Campaign) TableName() string { return "campaigns" }

// Character is a persistent party member. Companions have no owner and act
// autonomously in combat.
type Character struct {
	ID             string                                 `json:"id" gorm:"primaryKey;size:36"`
	CampaignID     string                                 `json:"campaign_id" gorm:"size:36;index"`
	OwnerPlayerID  string                                 `json:"owner_player_id,omitempty" gorm:"size:64;index"`
	Kind           CharacterKind                          `json:"kind" gorm:"size:16"`
	Name           string                                 `json:"name" gorm:"size:64"`
	Level          int                                    `json:"level"`
	XP             int                                    `json:"xp"`
	Gold           int                                    `json:"gold"`
	Attributes     stats.Attributes                       `json:"attributes" gorm:"embedded;embeddedPrefix:attr_"`
	Skills         datatypes.JSONSlice[string]            `json:"skills"`
	PreferredSlots datatypes.JSONSlice[loot.Slot]         `json:"preferred_slots"`
	Resistances    datatypes.JSONType[map[string]float64] `json:"resistances"`
	Inventory      []InventoryItem                        `json:"inventory,omitempty" gorm:"foreignKey:CharacterID"`
	CreatedAt      time.Time                              `json:"created_at"`
	UpdatedAt      time.Time                              `json:"updated_at"`
}

func (Character) TableName() string { return "characters" }

// InventoryItem is either a stack of a catalog consumable (ItemKey set) or
// a generated piece of equipment (Equipment set).
type InventoryItem struct {
	ID            string                        `json:"id" gorm:"primaryKey;size:36"`
	CharacterID   string                        `json:"character_id" gorm:"size:36;index"`
	ItemKey       string                        `json:"item_key,omitempty" gorm:"size:64"`
	Quantity      int                           `json:"quantity"`
	Equipped      bool                          `json:"equipped"`
	Slot          loot.Slot                     `json:"slot,omitempty" gorm:"size:16"`
	Equipment     datatypes.JSONType[loot.Item] `json:"equipment"`
	SourceSession string                        `json:"source_session,omitempty" gorm:"size:36;index"`
	CreatedAt     time.Time                     `json:"created_at"`
	UpdatedAt     time.Time                     `json:"updated_at"`
}

// IsEquipment reports whether the row holds generated equipment rather
// than a consumable stack.
func (it *InventoryItem) IsEquipment() bool { return it.ItemKey == "" }

func (InventoryItem) TableName() string { return "inventory_items" }

// CombatSession is one fight. Status moves pending -> active -> ended and
// never leaves ended.
type CombatSession struct {
	ID               string                    `json:"id" gorm:"primaryKey;size:36"`
	CampaignID       string                    `json:"campaign_id" gorm:"size:36;index"`
	Seed             int64                     `json:"seed"`
	Status           string                    `json:"status" gorm:"size:16;index"`
	CurrentTurnIndex int                       `json:"current_turn_index"`
	TurnNumber       int                       `json:"turn_number"`
	EventSeq         int64                     `json:"-"`
	Width            int                       `json:"width"`
	Height           int                       `json:"height"`
	Blocked          datatypes.JSONSlice[Tile] `json:"blocked"`
	WinningTeam      Team                      `json:"winning_team,omitempty" gorm:"size:16"`
	EndedAt          *time.Time                `json:"ended_at,omitempty"`
	CreatedAt        time.Time                 `json:"created_at"`
	UpdatedAt        time.Time                 `json:"updated_at"`
	DeletedAt        gorm.DeletedAt            `json:"-" gorm:"index"`
}

func (CombatSession) TableName() string { return "combat_sessions" }

// Combatant is one participant of a session. Defeated combatants stay in
// the row set with IsAlive=false.
type Combatant struct {
	ID            string                            `json:"id" gorm:"primaryKey;size:36"`
	SessionID     string                            `json:"session_id" gorm:"size:36;index"`
	RosterIndex   int                               `json:"roster_index"`
	EntityType    EntityType                        `json:"entity_type" gorm:"size:16"`
	Team          Team                              `json:"team" gorm:"size:16"`
	OwnerPlayerID *string                           `json:"owner_player_id,omitempty" gorm:"size:64"`
	CharacterID   *string                           `json:"character_id,omitempty" gorm:"size:36"`
	TemplateKey   string                            `json:"template_key,omitempty" gorm:"size:64"`
	Name          string                            `json:"name" gorm:"size:64"`
	Level         int                               `json:"level"`
	XPValue       int                               `json:"xp_value,omitempty"`
	X             int                               `json:"x"`
	Y             int                               `json:"y"`
	HP            int                               `json:"hp"`
	HPMax         int                               `json:"hp_max"`
	Power         int                               `json:"power"`
	PowerMax      int                               `json:"power_max"`
	Armor         int                               `json:"armor"`
	Resist        int                               `json:"resist"`
	Barrier       int                               `json:"barrier"`
	Mobility      int                               `json:"mobility"`
	Initiative    float64                           `json:"initiative"`
	Stats         stats.Derived                     `json:"stats" gorm:"embedded;embeddedPrefix:stat_"`
	Skills        datatypes.JSONSlice[string]       `json:"skills"`
	Statuses      datatypes.JSONSlice[StatusEffect] `json:"statuses"`
	IsAlive       bool                              `json:"is_alive"`
	CreatedAt     time.Time                         `json:"created_at"`
	UpdatedAt     time.Time                         `json:"updated_at"`
}

func (Combatant) TableName() string { return "combatants" }

// Autonomous reports whether the server drives this combatant's turns.
func (c *Combatant) Autonomous() bool {
	return c.EntityType != EntityPlayer
}

// Pos returns the combatant's tile.
func (c *Combatant) Pos() Tile { return Tile{X: c.X, Y: c.Y} }

// OwnedBy reports whether playerID owns the combatant.
func (c *Combatant) OwnedBy(playerID string) bool {
	return c.OwnerPlayerID != nil && *c.OwnerPlayerID == playerID
}

// TurnOrderEntry is one slot of the fixed initiative rotation.
type TurnOrderEntry struct {
	SessionID   string `json:"session_id" gorm:"primaryKey;size:36"`
	TurnIndex   int    `json:"turn_index" gorm:"primaryKey"`
	CombatantID string `json:"combatant_id" gorm:"size:36"`
}

func (TurnOrderEntry) TableName() string { return "turn_order" }

// Event types appended to the log.
const (
	EventCombatStart  = "combat_start"
	EventMoved        = "moved"
	EventWait         = "wait"
	EventSkillUsed    = "skill_used"
	EventItemUsed     = "item_used"
	EventDamage       = "damage"
	EventHealed       = "healed"
	EventStatusApply  = "status_apply"
	EventStatusTick   = "status_tick"
	EventStatusExpire = "status_expire"
	EventArmorShred   = "armor_shred"
	EventPowerGain    = "power_gain"
	EventMiss         = "miss"
	EventDeath        = "death"
	EventTurnStart    = "turn_start"
	EventTurnEnd      = "turn_end"
	EventCombatEnd    = "combat_end"
)

// ActionEvent is one immutable entry of a session's event log, ordered by
// (TurnNumber, Seq).
type ActionEvent struct {
	ID               string            `json:"id" gorm:"primaryKey;size:36"`
	SessionID        string            `json:"session_id" gorm:"size:36;uniqueIndex:idx_event_order,priority:1"`
	TurnNumber       int               `json:"turn_index" gorm:"uniqueIndex:idx_event_order,priority:2"`
	Seq              int64             `json:"seq" gorm:"uniqueIndex:idx_event_order,priority:3"`
	ActorCombatantID *string           `json:"actor_combatant_id,omitempty" gorm:"size:36"`
	Type             string            `json:"event_type" gorm:"size:32;index"`
	Payload          datatypes.JSONMap `json:"payload"`
	CreatedAt        time.Time         `json:"created_at"`
}

func (ActionEvent) TableName() string { return "action_events" }

// RewardGrant records the settlement of a session. Its existence makes
// claiming rewards idempotent.
type RewardGrant struct {
	SessionID string         `json:"session_id" gorm:"primaryKey;size:36"`
	Payload   datatypes.JSON `json:"payload"`
	CreatedAt time.Time      `json:"created_at"`
}

func (RewardGrant) TableName() string { return "reward_grants" }

// IdempotencyRecord caches the first successful response for a
// caller-supplied key.
type IdempotencyRecord struct {
	Key        string `gorm:"primaryKey;size:128"`
	Scope      string `gorm:"size:128"`
	PlayerID   string `gorm:"size:64"`
	StatusCode int
	Body       []byte    `gorm:"type:blob"`
	ExpiresAt  time.Time `gorm:"index"`
	CreatedAt  time.Time
}

func (IdempotencyRecord) TableName() string { return "idempotency_records" }
