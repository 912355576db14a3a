package domain

import (
	"time"
)

type Platform string

const (
	PlatformIOS     Platform = "ios"
	PlatformAndroid Platform = "android"
)

// ParsePlatform defaults an empty value to ios.
func ParsePlatform(s string) (Platform, bool) {
	switch Platform(s) {
	case "":
		return PlatformIOS, true
	case PlatformIOS, PlatformAndroid:
		return Platform(s), true
	default:
		return "", false
	}
}

// DeviceToken is a provider-issued push address for one installed client.
type DeviceToken struct {
	UserID    int64     `json:"user_id"`
	Token     string    `json:"device_token"`
	Platform  Platform  `json:"platform"`
	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
