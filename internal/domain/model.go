package domain

import (
	"time"
)

// DeviceTokenModel is the GORM model for device_tokens table.
type DeviceTokenModel struct {
	ID          uint      `gorm:"primaryKey"`
	UserID      int64     `gorm:"not null;uniqueIndex:idx_device_tokens_user_token;index:idx_device_tokens_user_active,priority:1"`
	DeviceToken string    `gorm:"type:varchar(255);not null;uniqueIndex:idx_device_tokens_user_token;index"`
	Platform    string    `gorm:"type:varchar(16);not null"`
	IsActive    bool      `gorm:"not null;index:idx_device_tokens_user_active,priority:2"`
	CreatedAt   time.Time `gorm:"autoCreateTime"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime"`
}

// TableName specifies the table name for DeviceTokenModel.
func (DeviceTokenModel) TableName() string {
	return "device_tokens"
}

func (m *DeviceTokenModel) ToDomain() *DeviceToken {
	return &DeviceToken{
		UserID:    m.UserID,
		Token:     m.DeviceToken,
		Platform:  Platform(m.Platform),
		Active:    m.IsActive,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// IdentityModel maps the users table owned by the REST layer. It is never migrated here.
type IdentityModel struct {
	ID        int64  `gorm:"primaryKey"`
	Username  string `gorm:"column:username"`
	FirstName string `gorm:"column:first_name"`
	LastName  string `gorm:"column:last_name"`
}

func (IdentityModel) TableName() string {
	return "users"
}

func (m *IdentityModel) ToDomain() *Identity {
	return &Identity{
		ID:        m.ID,
		Username:  m.Username,
		FirstName: m.FirstName,
		LastName:  m.LastName,
	}
}
