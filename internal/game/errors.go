package game

import (
	"errors"
	"fmt"
)

// Error kinds. Every rejection returned by the engine or the service wraps
// exactly one of these so callers can classify it with errors.Is.
var (
	ErrValidation = errors.New("validation failed")
	ErrForbidden  = errors.New("forbidden")
	ErrConflict   = errors.New("state conflict")
	ErrNotFound   = errors.New("not found")
)

var (
	ErrSessionNotFound   = fmt.Errorf("%w: combat session", ErrNotFound)
	ErrCombatantNotFound = fmt.Errorf("%w: combatant", ErrNotFound)
	ErrCampaignNotFound  = fmt.Errorf("%w: campaign", ErrNotFound)
	ErrItemNotFound      = fmt.Errorf("%w: inventory item", ErrNotFound)
	ErrSkillNotFound     = fmt.Errorf("%w: skill", ErrNotFound)

	ErrCombatInactive     = fmt.Errorf("%w: combat is not active", ErrConflict)
	ErrCombatNotEnded     = fmt.Errorf("%w: combat has not ended", ErrConflict)
	ErrNotYourTurn        = fmt.Errorf("%w: not your turn", ErrConflict)
	ErrActorDefeated      = fmt.Errorf("%w: actor is defeated", ErrConflict)
	ErrSkillOnCooldown    = fmt.Errorf("%w: skill on cooldown", ErrConflict)
	ErrInsufficientPower  = fmt.Errorf("%w: not enough power", ErrConflict)
	ErrMovementLocked     = fmt.Errorf("%w: actor cannot move", ErrConflict)
	ErrMoveExceedsBudget  = fmt.Errorf("%w: movement exceeds budget", ErrConflict)
	ErrDestinationBlocked = fmt.Errorf("%w: destination blocked or occupied", ErrConflict)
	ErrNoPath             = fmt.Errorf("%w: no path to destination", ErrConflict)
	ErrItemUnavailable    = fmt.Errorf("%w: item already used", ErrConflict)
	ErrCombatInProgress   = fmt.Errorf("%w: campaign already has an active combat", ErrConflict)
	ErrActorStunned       = fmt.Errorf("%w: actor is stunned", ErrConflict)
	ErrIdempotencyReused  = fmt.Errorf("%w: idempotency key used for another request", ErrConflict)

	ErrInvalidTarget     = fmt.Errorf("%w: invalid target", ErrValidation)
	ErrTargetOutOfRange  = fmt.Errorf("%w: target out of range", ErrValidation)
	ErrTileOutOfBounds   = fmt.Errorf("%w: tile out of bounds", ErrValidation)
	ErrSkillNotUsable    = fmt.Errorf("%w: skill cannot be used", ErrValidation)
	ErrSkillNotKnown     = fmt.Errorf("%w: actor does not know this skill", ErrValidation)
	ErrItemNotUsable     = fmt.Errorf("%w: item cannot be used in combat", ErrValidation)
	ErrEmptyParty        = fmt.Errorf("%w: campaign has no party", ErrValidation)
	ErrInvalidMove       = fmt.Errorf("%w: move needs a destination or wait", ErrValidation)
	ErrAlreadyOnTile     = fmt.Errorf("%w: actor already stands on the destination", ErrValidation)
	ErrMissingIdempotent = fmt.Errorf("%w: idempotency key required", ErrValidation)

	ErrNotActorOwner   = fmt.Errorf("%w: combatant not owned by caller", ErrForbidden)
	ErrNotParticipant  = fmt.Errorf("%w: caller is not a campaign participant", ErrForbidden)
	ErrAutonomousActor = fmt.Errorf("%w: combatant is controlled by the server", ErrForbidden)
	ErrItemNotCarried  = fmt.Errorf("%w: item does not belong to actor", ErrForbidden)
)
