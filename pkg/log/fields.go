package log

// Request fields written by GinMiddleware.
const (
	FieldRequestID = "request_id"
	FieldMethod    = "method"
	FieldPath      = "path"
	FieldStatus    = "status"
	FieldLatency   = "latency_ms"
	FieldClientIP  = "client_ip"
)

// Actor keys; they double as gin context keys set by pkg/middleware.
const (
	FieldUserID   = "user_id"
	FieldUsername = "username"
)

const (
	FieldService  = "service"
	FieldInstance = "instance"
)

// Delivery fields.
const (
	FieldConnID   = "conn_id"
	FieldChatID   = "chat_id"
	FieldPlatform = "platform"
)

// Audit entries carry log_type=audit so they can be routed separately.
const (
	FieldLogType = "log_type"
	LogTypeAudit = "audit"
)
