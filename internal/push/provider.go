package push

import (
	"context"
	"net/http"
)

// Notification is the provider-neutral alert sent to every device of a user.
type Notification struct {
	Title string
	Body  string
	Sound string
	Badge int
	Data  map[string]string
}

// Failure is a per-device rejection. Status follows HTTP semantics; zero means
// the request never got a response.
type Failure struct {
	Device string
	Status int
	Reason string
}

// Reasons that mean the token will never be accepted again. FCM's
// InvalidArgument is absent: it also covers oversized or malformed payloads.
var permanentReasons = map[string]struct{}{
	"BadDeviceToken":         {},
	"DeviceTokenNotForTopic": {},
	"Unregistered":           {},
	"SenderIdMismatch":       {},
}

// Permanent reports whether the token should be deactivated.
func (f Failure) Permanent() bool {
	if f.Status == http.StatusGone {
		return true
	}
	if f.Status == http.StatusBadRequest {
		_, ok := permanentReasons[f.Reason]
		return ok
	}
	return false
}

type Result struct {
	Sent   int
	Failed []Failure
}

// Provider delivers one notification to a batch of device tokens of a single platform.
// A returned error means the whole batch failed; per-device rejections are in Result.Failed.
type Provider interface {
	Name() string
	Send(ctx context.Context, n Notification, tokens []string) (*Result, error)
}
