package audit

import (
	"context"

	"github.com/dnlflores/starter-ios-app-backend/pkg/log"
)

// Audit actions for the realtime delivery service.
const (
	ActionAuth             = "ws.auth"
	ActionAuthFailed       = "ws.auth_failed"
	ActionDisconnect       = "ws.disconnect"
	ActionDeviceRegister   = "device.register"
	ActionDeviceUnregister = "device.unregister"
)

// Field constants for audit entries.
const (
	FieldAction = "action"
	FieldDetail = "detail"
)

// Log emits a structured audit log entry via the context logger.
func Log(ctx context.Context, action string, userID int64, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Int64(log.FieldUserID, userID).
		Msg(msg)
}

// LogWithDetail emits an audit log with extra detail field.
func LogWithDetail(ctx context.Context, action string, userID int64, detail string, msg string) {
	l := log.Ctx(ctx)
	l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Int64(log.FieldUserID, userID).
		Str(FieldDetail, detail).
		Msg(msg)
}
