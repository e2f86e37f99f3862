package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// UserModel mirrors the 'users' table.
// email and external_identity_ref carry unique indexes; store_name is unique on lower(store_name)
// through a migration-defined expression index.
type UserModel struct {
	ID                  uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	ExternalIdentityRef string                      `gorm:"type:varchar(64);not null;uniqueIndex:uq_users_external_identity_ref"`
	Email               string                      `gorm:"type:varchar(320);not null;uniqueIndex:uq_users_email"`
	RoleID              uuid.UUID                   `gorm:"type:uuid;not null;index"`
	Role                *RoleModel                  `gorm:"foreignKey:RoleID"`
	Permissions         datatypes.JSONSlice[string] `gorm:"type:jsonb;not null"`
	IsActive            bool                        `gorm:"not null;default:false"`
	IsEmailVerified     bool                        `gorm:"not null;default:false"`

	EmailVerificationToken   string `gorm:"type:varchar(255)"`
	EmailVerificationExpires *time.Time
	EmailVerificationSent    bool `gorm:"not null;default:false"`

	FirstName   string `gorm:"type:varchar(100)"`
	LastName    string `gorm:"type:varchar(100)"`
	Phone       string `gorm:"type:varchar(32)"`
	Avatar      string `gorm:"type:text"`
	DateOfBirth *time.Time
	Gender      string `gorm:"type:varchar(16)"`

	Preferences datatypes.JSONType[PreferencesDocument] `gorm:"type:jsonb;not null"`

	StoreName             *string                                           `gorm:"type:varchar(120)"`
	StoreDescription      string                                            `gorm:"type:text"`
	StoreStatus           *string                                           `gorm:"type:varchar(16);index"`
	VerificationDocuments datatypes.JSONSlice[VerificationDocumentDocument] `gorm:"type:jsonb"`
	BankName              string                                            `gorm:"type:varchar(120)"`
	BankAccountNumber     string                                            `gorm:"type:varchar(64)"`
	BankAccountHolder     string                                            `gorm:"type:varchar(120)"`
	BankIBAN              string                                            `gorm:"column:bank_iban;type:varchar(34)"`
	ApprovedAt            *time.Time
	ApprovedBy            *uuid.UUID                                        `gorm:"type:uuid"`
	RejectedAt            *time.Time
	RejectedBy            *uuid.UUID                                        `gorm:"type:uuid"`
	RejectionReason       string                                            `gorm:"type:text"`

	LastSeen          *time.Time
	EmailVerifiedAt   *time.Time
	PasswordChangedAt *time.Time
	LastLogin         *time.Time
	LoginAttempts     int `gorm:"not null;default:0"`
	LockUntil         *time.Time

	Addresses []*AddressModel `gorm:"foreignKey:UserID"`

	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time  `gorm:"index"`
	UpdatedAt time.Time
}

// TableName explicitly sets the table name for GORM.
func (UserModel) TableName() string {
	return "users"
}

// PreferencesDocument is the JSONB shape of users.preferences.
type PreferencesDocument struct {
	Notifications struct {
		Email bool `json:"email"`
		SMS   bool `json:"sms"`
		Push  bool `json:"push"`
	} `json:"notifications"`
	Language string `json:"language"`
	Currency string `json:"currency"`
}

// VerificationDocumentDocument is one element of users.verification_documents.
type VerificationDocumentDocument struct {
	Type       string    `json:"type"`
	URL        string    `json:"url"`
	UploadedAt time.Time `json:"uploadedAt"`
}
