package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StatusKind tags which case a StatusEffect carries.
type StatusKind string

const (
	StatusBuff           StatusKind = "buff"
	StatusDebuff         StatusKind = "debuff"
	StatusDamageOverTime StatusKind = "damage_over_time"
	StatusHealOverTime   StatusKind = "heal_over_time"
	StatusCooldown       StatusKind = "cooldown"
)

// Control effects a debuff may impose.
const (
	ControlRoot = "root"
	ControlStun = "stun"
)

// CooldownPrefix marks synthetic statuses that track skill cooldowns.
const CooldownPrefix = "cd:"

// CooldownID returns the status id used to track the cooldown of skillID.
func CooldownID(skillID string) string { return CooldownPrefix + skillID }

// StatModifier changes one derived stat by a flat amount and/or a
// percentage (0.1 == +10%).
type StatModifier struct {
	Stat    string  `json:"stat" yaml:"stat"`
	Flat    float64 `json:"flat,omitempty" yaml:"flat"`
	Percent float64 `json:"percent,omitempty" yaml:"percent"`
}

// Effect is implemented by every status case.
type Effect interface {
	Kind() StatusKind
}

type Buff struct {
	Modifiers []StatModifier `json:"modifiers"`
}

type Debuff struct {
	Modifiers []StatModifier `json:"modifiers,omitempty"`
	// Control is empty, ControlRoot or ControlStun.
	Control string `json:"control,omitempty"`
}

type DamageOverTime struct {
	Amount     int    `json:"amount"`
	DamageKind string `json:"damage_kind"`
}

type HealOverTime struct {
	Amount int `json:"amount"`
}

type CooldownMarker struct {
	SkillID string `json:"skill_id"`
}

func (Buff) Kind() StatusKind           { return StatusBuff }
func (Debuff) Kind() StatusKind         { return StatusDebuff }
func (DamageOverTime) Kind() StatusKind { return StatusDamageOverTime }
func (HealOverTime) Kind() StatusKind   { return StatusHealOverTime }
func (CooldownMarker) Kind() StatusKind { return StatusCooldown }

// StatusEffect is one active status instance on a combatant. The envelope
// fields are shared; Effect holds exactly one case.
type StatusEffect struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	AppliedTurn int               `json:"applied_turn"`
	ExpiresTurn int               `json:"expires_turn"`
	SourceID    string            `json:"source_id,omitempty"`
	SourceSkill string            `json:"source_skill,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Effect      Effect            `json:"-"`
}

// Kind reports the case tag, or "" when no effect is set.
func (s StatusEffect) Kind() StatusKind {
	if s.Effect == nil {
		return ""
	}
	return s.Effect.Kind()
}

// Periodic reports whether the status ticks each turn.
func (s StatusEffect) Periodic() bool {
	k := s.Kind()
	return k == StatusDamageOverTime || k == StatusHealOverTime
}

// Control returns the control effect imposed by a debuff, if any.
func (s StatusEffect) Control() string {
	if d, ok := s.Effect.(Debuff); ok {
		return d.Control
	}
	return ""
}

// IsCooldown reports whether s is a synthetic cooldown marker.
func (s StatusEffect) IsCooldown() bool {
	return s.Kind() == StatusCooldown || strings.HasPrefix(s.ID, CooldownPrefix)
}

// Modifiers returns the stat modifiers of a buff or debuff.
func (s StatusEffect) Modifiers() []StatModifier {
	switch e := s.Effect.(type) {
	case Buff:
		return e.Modifiers
	case Debuff:
		return e.Modifiers
	}
	return nil
}

type statusEnvelope struct {
	ID          string            `json:"id"`
	Name        string            `json:"name,omitempty"`
	Kind        StatusKind        `json:"kind"`
	AppliedTurn int               `json:"applied_turn"`
	ExpiresTurn int               `json:"expires_turn"`
	SourceID    string            `json:"source_id,omitempty"`
	SourceSkill string            `json:"source_skill,omitempty"`
	Metadata    map[string]string `json:"metadata,omitempty"`
	Effect      json.RawMessage   `json:"effect,omitempty"`
}

func (s StatusEffect) MarshalJSON() ([]byte, error) {
	env := statusEnvelope{
		ID:          s.ID,
		Name:        s.Name,
		Kind:        s.Kind(),
		AppliedTurn: s.AppliedTurn,
		ExpiresTurn: s.ExpiresTurn,
		SourceID:    s.SourceID,
		SourceSkill: s.SourceSkill,
		Metadata:    s.Metadata,
	}
	if s.Effect != nil {
		b, err := json.Marshal(s.Effect)
		if err != nil {
			return nil, err
		}
		env.Effect = b
	}
	return json.Marshal(env)
}

func (s *StatusEffect) UnmarshalJSON(b []byte) error {
	var env statusEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	effect, err := decodeEffect(env.Kind, env.Effect)
	if err != nil {
		return fmt.Errorf("status %s: %w", env.ID, err)
	}
	*s = StatusEffect{
		ID:          env.ID,
		Name:        env.Name,
		AppliedTurn: env.AppliedTurn,
		ExpiresTurn: env.ExpiresTurn,
		SourceID:    env.SourceID,
		SourceSkill: env.SourceSkill,
		Metadata:    env.Metadata,
		Effect:      effect,
	}
	return nil
}

func decodeEffect(kind StatusKind, raw json.RawMessage) (Effect, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	switch kind {
	case StatusBuff:
		var e Buff
		err := json.Unmarshal(raw, &e)
		return e, err
	case StatusDebuff:
		var e Debuff
		err := json.Unmarshal(raw, &e)
		return e, err
	case StatusDamageOverTime:
		var e DamageOverTime
		err := json.Unmarshal(raw, &e)
		return e, err
	case StatusHealOverTime:
		var e HealOverTime
		err := json.Unmarshal(raw, &e)
		return e, err
	case StatusCooldown:
		var e CooldownMarker
		err := json.Unmarshal(raw, &e)
		return e, err
	case "":
		return nil, nil
	}
	return nil, fmt.Errorf("unknown status kind %q", kind)
}

// StatusDefinition is the catalog description of a status a skill or item
// can apply. NewInstance turns it into a StatusEffect case.
type StatusDefinition struct {
	ID         string         `json:"id" yaml:"id"`
	Name       string         `json:"name" yaml:"name"`
	Kind       StatusKind     `json:"kind" yaml:"kind"`
	Duration   int            `json:"duration" yaml:"duration"`
	Modifiers  []StatModifier `json:"modifiers,omitempty" yaml:"modifiers"`
	Control    string         `json:"control,omitempty" yaml:"control"`
	Amount     int            `json:"amount,omitempty" yaml:"amount"`
	DamageKind string         `json:"damage_kind,omitempty" yaml:"damage_kind"`
}

// Effect builds the tagged case described by the definition.
func (d StatusDefinition) Effect() (Effect, error) {
	switch d.Kind {
	case StatusBuff:
		return Buff{Modifiers: d.Modifiers}, nil
	case StatusDebuff:
		if d.Control != "" && d.Control != ControlRoot && d.Control != ControlStun {
			return nil, fmt.Errorf("status %s: unknown control %q", d.ID, d.Control)
		}
		return Debuff{Modifiers: d.Modifiers, Control: d.Control}, nil
	case StatusDamageOverTime:
		kind := d.DamageKind
		if kind == "" {
			kind = DamageMagical
		}
		return DamageOverTime{Amount: d.Amount, DamageKind: kind}, nil
	case StatusHealOverTime:
		return HealOverTime{Amount: d.Amount}, nil
	case StatusCooldown:
		return nil, fmt.Errorf("status %s: cooldown markers are installed by the engine", d.ID)
	}
	return nil, fmt.Errorf("status %s: unknown kind %q", d.ID, d.Kind)
}
