package model

import (
	"time"

	"gorm.io/datatypes"
)

// IdentityUserModel mirrors 'identity_users' in the identity provider's database.
type IdentityUserModel struct {
	ID           string                     `gorm:"type:varchar(64);primaryKey"`
	TenantID     string                     `gorm:"type:varchar(64);not null;default:public"`
	TimeJoined   time.Time                  `gorm:"not null"`
	LoginMethods []IdentityLoginMethodModel `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (IdentityUserModel) TableName() string {
	return "identity_users"
}

// IdentityLoginMethodModel mirrors 'identity_login_methods': one row per credential.
// Email/password rows are unique per (tenant, recipe, email); third-party rows per (third_party_id, third_party_user_id).
type IdentityLoginMethodModel struct {
	ID               uint   `gorm:"primaryKey"`
	UserID           string `gorm:"type:varchar(64);not null;index"`
	TenantID         string `gorm:"type:varchar(64);not null;default:public"`
	RecipeID         string `gorm:"type:varchar(32);not null"`
	Email            string `gorm:"type:varchar(320);not null;index"`
	PasswordHash     string `gorm:"type:varchar(255)"`
	ThirdPartyID     string `gorm:"type:varchar(32)"`
	ThirdPartyUserID string `gorm:"type:varchar(255)"`
	Verified         bool   `gorm:"not null;default:false"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName explicitly sets the table name for GORM.
func (IdentityLoginMethodModel) TableName() string {
	return "identity_login_methods"
}

// IdentitySessionModel mirrors 'identity_sessions'. Handle is a ULID.
type IdentitySessionModel struct {
	Handle             string            `gorm:"type:char(26);primaryKey"`
	UserID             string            `gorm:"type:varchar(64);not null;index"`
	TenantID           string            `gorm:"type:varchar(64);not null;default:public"`
	AccessTokenPayload datatypes.JSONMap `gorm:"type:jsonb"`
	CreatedAt          time.Time         `gorm:"not null"`
	ExpiresAt          time.Time         `gorm:"not null;index"`
	LastRefresh        time.Time         `gorm:"not null"`
	RevokedAt          *time.Time
}

// TableName explicitly sets the table name for GORM.
func (IdentitySessionModel) TableName() string {
	return "identity_sessions"
}

// IdentityTokenModel mirrors 'identity_tokens': hashed single-use tokens.
type IdentityTokenModel struct {
	TokenHash  string     `gorm:"type:char(64);primaryKey"`
	Kind       string     `gorm:"type:varchar(16);not null"`
	UserID     string     `gorm:"type:varchar(64);not null;index"`
	Email      string     `gorm:"type:varchar(320);not null"`
	ExpiresAt  time.Time  `gorm:"not null"`
	ConsumedAt *time.Time
	CreatedAt  time.Time
}

// TableName explicitly sets the table name for GORM.
func (IdentityTokenModel) TableName() string {
	return "identity_tokens"
}
