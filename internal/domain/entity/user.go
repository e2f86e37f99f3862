// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// User is the local projection of an identity owned by the external identity provider.
// ExternalIdentityRef is the join key between the two stores.
type User struct {
	ID                  uuid.UUID
	ExternalIdentityRef string
	Email               string // normalized lowercase
	RoleID              uuid.UUID
	Role                *Role       // populated on reads that preload it
	Permissions         Permissions // additive to the role's permissions
	IsActive            bool
	IsEmailVerified     bool

	// Local fallback verification token, never serialized to clients.
	EmailVerificationToken   string
	EmailVerificationExpires *time.Time
	EmailVerificationSent    bool

	Profile       Profile
	Addresses     []*Address
	Preferences   Preferences
	VendorDetails *VendorDetails
	ActivityLog   ActivityLog

	LastLogin     *time.Time
	LoginAttempts int
	LockUntil     *time.Time

	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Profile holds display and contact data.
type Profile struct {
	FirstName   string
	LastName    string
	Phone       string
	Avatar      string
	DateOfBirth *time.Time
	Gender      string
}

// Preferences holds notification channel switches and locale choices.
type Preferences struct {
	Notifications NotificationPreferences
	Language      string
	Currency      string
}

type NotificationPreferences struct {
	Email bool
	SMS   bool
	Push  bool
}

// ActivityLog holds timestamps stamped by reconciliation events.
type ActivityLog struct {
	LastSeen          *time.Time
	EmailVerifiedAt   *time.Time
	PasswordChangedAt *time.Time
}

// DefaultPreferences are applied to every new account.
func DefaultPreferences() Preferences {
	return Preferences{
		Notifications: NotificationPreferences{Email: true, SMS: false, Push: true},
		Language:      "ar",
		Currency:      "EGP",
	}
}

// DefaultProfile fills missing names the same way signup always has: "User" and the current year.
func DefaultProfile(firstName, lastName string, now time.Time) Profile {
	if strings.TrimSpace(firstName) == "" {
		firstName = "User"
	}
	if strings.TrimSpace(lastName) == "" {
		lastName = strconv.Itoa(now.Year())
	}

	return Profile{FirstName: firstName, LastName: lastName}
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// HasPermission checks direct permissions first, then role permissions.
// Either tier containing "*" grants everything. A nil role only consults direct permissions.
func (u *User) HasPermission(role *Role, permission string) bool {
	if u.Permissions.Grants(permission) {
		return true
	}
	if role == nil {
		return false
	}

	return role.Permissions.Grants(permission)
}

// MarkEmailVerified applies the verified state. It reports false when the user was already
// verified, leaving EmailVerifiedAt untouched.
func (u *User) MarkEmailVerified(now time.Time) bool {
	if u.IsEmailVerified && u.ActivityLog.EmailVerifiedAt != nil {
		return false
	}

	u.IsEmailVerified = true
	u.ActivityLog.EmailVerifiedAt = &now
	u.EmailVerificationToken = ""
	u.EmailVerificationExpires = nil
	// vendors still need an admin decision
	if u.VendorDetails == nil || u.VendorDetails.StoreStatus == StoreStatusApproved {
		u.IsActive = true
	}

	return true
}

// IsLocked reports whether sign-in is blocked at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// RecordSignIn stamps a successful login and clears the brute-force counters.
func (u *User) RecordSignIn(now time.Time) {
	u.LastLogin = &now
	u.ActivityLog.LastSeen = &now
	u.LoginAttempts = 0
	u.LockUntil = nil
}

// SoftDelete deactivates the account and scrambles the email so it can be registered again.
func (u *User) SoftDelete(now time.Time) {
	u.IsActive = false
	u.Email = ScrambledEmail(u.Email, now)
	u.DeletedAt = &now
}

// ScrambledEmail is the email a soft-deleted account is renamed to.
func ScrambledEmail(email string, now time.Time) string {
	return fmt.Sprintf("deleted_%d_%s", now.UnixMilli(), email)
}

// IsVendor reports whether the user carries vendor sub-state.
func (u *User) IsVendor() bool {
	return u.VendorDetails != nil
}

// FullName joins first and last name.
func (u *User) FullName() string {
	return strings.TrimSpace(u.Profile.FirstName + " " + u.Profile.LastName)
}
