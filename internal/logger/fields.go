package logger

// Common field names for structured logging
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldEntity     = "entity"
	FieldEntityID   = "entity_id"
	FieldStorePath  = "store_path"
)

// Components
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentStore     = "store"
	ComponentEntity    = "entity"
	ComponentUser      = "user"
	ComponentSpending  = "spending"
	ComponentCache     = "cache"
	ComponentAudit     = "audit"
	ComponentRealtime  = "realtime"
	ComponentAuth      = "auth"
	ComponentAssistant = "assistant"
)

// Operations
const (
	OpCreate    = "create"
	OpRead      = "read"
	OpUpdate    = "update"
	OpDelete    = "delete"
	OpAggregate = "aggregate"
	OpLogin     = "login"
)
