package constants

// Environment variable keys
const (
	EnvAddr            = "COMBAT_ADDR"
	EnvDB              = "COMBAT_DB"
	EnvCatalog         = "COMBAT_CATALOG"
	EnvJWTSecret       = "COMBAT_JWT_SECRET"
	EnvIdempotencyTTL  = "COMBAT_IDEMPOTENCY_TTL"
	EnvMaxTickActions  = "COMBAT_MAX_TICK_ACTIONS"
	EnvSweepInterval   = "COMBAT_SWEEP_INTERVAL"
	EnvTraceService    = "COMBAT_TRACE_SERVICE"
	EnvTraceEndpoint   = "COMBAT_OTEL_ENDPOINT"
	EnvHealthcheckAddr = "COMBAT_HEALTHCHECK_URL"
	EnvLogLevel        = "LOG_LEVEL"
	EnvLogFormat       = "LOG_FORMAT"
)

// HTTP headers and content types
const (
	HeaderAuthorization  = "Authorization"
	HeaderContentType    = "Content-Type"
	HeaderIdempotencyKey = "Idempotency-Key"
	HeaderIdempotentHit  = "Idempotent-Replay"

	ContentTypeJSON = "application/json"

	BearerPrefix = "Bearer "
)

// Context keys set by middleware
const (
	CtxPlayerID = "playerID"
)

// Routes used by the backend router
const (
	RouteAPIPrefix     = "/api"
	RouteHealth        = "/healthz"
	RouteVersion       = "/version"
	RouteStartCombat   = "/campaigns/:campaignID/combat"
	RouteSession       = "/combat/:sessionID"
	RouteSessionEvents = "/combat/:sessionID/events"
	RouteSessionStream = "/combat/:sessionID/stream"
	RouteMove          = "/combat/:sessionID/move"
	RouteSkill         = "/combat/:sessionID/skill"
	RouteItem          = "/combat/:sessionID/item"
	RouteTick          = "/combat/:sessionID/tick"
	RouteRewards       = "/combat/:sessionID/rewards"
)

// Common JSON response keys
const (
	JSONKeyError   = "error"
	JSONKeyKind    = "kind"
	JSONKeyDetails = "details"
	JSONKeyStatus  = "status"
)

// Common error messages used across API handlers
const (
	ErrInvalidRequest = "Invalid request"
	ErrInternal       = "Internal error"
	ErrAuthRequired   = "Authentication required"
	ErrInvalidSession = "Invalid or expired token"
)

// Logging field names
const (
	LogFieldCampaignID = "campaign_id"
	LogFieldSessionID  = "session_id"
	LogFieldActorID    = "actor_id"
	LogFieldPlayerID   = "player_id"
	LogFieldOperation  = "operation"
	LogFieldEventCount = "events"
	LogFieldKey        = "key"
	LogFieldAddr       = "addr"
	LogFieldPath       = "path"
	LogFieldCount      = "count"
)
