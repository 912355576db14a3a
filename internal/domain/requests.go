package domain

// RegisterDeviceRequest is the body of POST /api/v1/devices.
type RegisterDeviceRequest struct {
	Token    string `json:"token" binding:"required"`
	Platform string `json:"platform" binding:"omitempty,oneof=ios android"`
}

type DeviceResponse struct {
	Token    string   `json:"token"`
	Platform Platform `json:"platform"`
	Active   bool     `json:"active"`
}

type OnlineUsersResponse struct {
	Users []int64 `json:"users"`
	Count int     `json:"count"`
}

type PresenceResponse struct {
	UserID int64 `json:"user_id"`
	Online bool  `json:"online"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	Connections int    `json:"connections"`
	OnlineUsers int    `json:"online_users"`
	Push        bool   `json:"push_enabled"`
}
