package entity

import (
	"time"
)

// Login method recipe identifiers reported by the identity provider.
const (
	RecipeEmailPassword = "emailpassword"
	RecipeThirdParty    = "thirdparty"
)

// ProviderTypeGoogle identifies Google as a third-party login method.
const ProviderTypeGoogle = "google"

// IdentityUser is the identity provider's view of an account.
type IdentityUser struct {
	ID           string
	Email        string
	TimeJoined   time.Time
	LoginMethods []LoginMethod
}

// LoginMethod is one way an identity can sign in.
type LoginMethod struct {
	RecipeID       string
	Email          string
	ThirdPartyID   string // e.g. "google"
	ThirdPartyUser string // subject at the third party
	Verified       bool
}

// HasEmailPassword reports whether the identity can sign in with a password.
func (u *IdentityUser) HasEmailPassword() bool {
	for _, m := range u.LoginMethods {
		if m.RecipeID == RecipeEmailPassword {
			return true
		}
	}

	return false
}

// IsEmailVerified reports whether any login method for email is verified.
func (u *IdentityUser) IsEmailVerified(email string) bool {
	for _, m := range u.LoginMethods {
		if m.Verified && (email == "" || m.Email == email) {
			return true
		}
	}

	return false
}

// SessionInfo is what the identity provider reports for one session handle.
type SessionInfo struct {
	Handle                 string
	UserID                 string // external identity id
	TimeCreated            time.Time
	SessionExpiryInSeconds int64 // 0 when the provider does not report a lifetime
	AccessTokenPayload     map[string]any
	LastRefresh            time.Time
}

// Session is an issued login: the handle plus the signed access token.
type Session struct {
	Handle      string
	UserID      string
	AccessToken string
	ExpiresAt   time.Time
	Payload     map[string]any
}

// SessionView is a session enriched with derived metadata for display.
type SessionView struct {
	Handle          string        `json:"sessionHandle"`
	UserID          string        `json:"userId"`
	CreatedAt       time.Time     `json:"createdAt"`
	LastActive      time.Time     `json:"lastActive"`
	ExpiresAt       time.Time     `json:"expiresAt"`
	IsExpired       bool          `json:"isExpired"`
	TimeUntilExpiry time.Duration `json:"timeUntilExpiry"`
	DeviceInfo      string        `json:"deviceInfo"`
	IPAddress       string        `json:"ipAddress"`
	UserAgent       string        `json:"userAgent,omitempty"`
	IsCurrent       bool          `json:"isCurrent"`
}

// SessionStatistics summarises the caller's active sessions.
type SessionStatistics struct {
	TotalActiveSessions  int    `json:"totalActiveSessions"`
	CurrentSessionHandle string `json:"currentSessionHandle"`
	UserID               string `json:"userId"`
}

// Access-token payload keys written at session creation.
const (
	PayloadRole            = "role"
	PayloadPermissions     = "permissions"
	PayloadEmailVerified   = "isEmailVerified"
	PayloadDeviceInfo      = "deviceInfo"
	PayloadIPAddress       = "ipAddress"
	PayloadUserAgent       = "userAgent"
	PayloadIssuedAt        = "iat"
	PayloadLocalUserID     = "localUserId"
	PayloadSessionHandle   = "sid"
	PayloadExternalSubject = "sub"
)
