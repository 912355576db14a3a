package domain

import "strings"

// Identity is the read-only view of a user needed to compose notifications.
type Identity struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// DisplayName is "First Last" when both names are set, otherwise the username.
func (i *Identity) DisplayName() string {
	first := strings.TrimSpace(i.FirstName)
	last := strings.TrimSpace(i.LastName)
	if first != "" && last != "" {
		return first + " " + last
	}
	return i.Username
}
