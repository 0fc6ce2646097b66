package log

// Common field names for structured logging.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status_code"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"
	FieldOperation  = "operation"
	FieldUserID     = "user_id"
	FieldRecordID   = "record_id"
	FieldKind       = "kind"
	FieldCategory   = "category"
	FieldAmount     = "amount_cents"
)

// Components defines standard component names.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentAuth    = "auth"
	ComponentRecords = "records"
	ComponentStore   = "store"
	ComponentEvents  = "events"
	ComponentWorker  = "worker"
)

// Operations defines standard operation names.
const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpList   = "list"
	OpAudit  = "audit"
)
