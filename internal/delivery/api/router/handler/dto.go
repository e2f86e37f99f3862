package handler

import (
	"time"

	"storefront/internal/domain/entity"
)

// --- Requests ---

type signUpRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName,omitempty" validate:"max=50"`
	LastName  string `json:"lastName,omitempty" validate:"max=50"`
	Phone     string `json:"phone,omitempty"`
}

type signInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type googleSignInRequest struct {
	IDToken string `json:"idToken" validate:"required"`
}

type passwordResetRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type passwordResetSubmitRequest struct {
	Token       string `json:"token" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

type updateProfileRequest struct {
	FirstName   *string    `json:"firstName,omitempty" validate:"omitempty,min=1,max=50"`
	LastName    *string    `json:"lastName,omitempty" validate:"omitempty,min=1,max=50"`
	Phone       *string    `json:"phone,omitempty"`
	Avatar      *string    `json:"avatar,omitempty" validate:"omitempty,url"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      *string    `json:"gender,omitempty" validate:"omitempty,oneof=male female other"`
}

type notificationPreferencesRequest struct {
	Email *bool `json:"email,omitempty"`
	SMS   *bool `json:"sms,omitempty"`
	Push  *bool `json:"push,omitempty"`
}

type updatePreferencesRequest struct {
	Notifications *notificationPreferencesRequest `json:"notifications,omitempty"`
	Language      *string                         `json:"language,omitempty" validate:"omitempty,min=2,max=5"`
	Currency      *string                         `json:"currency,omitempty" validate:"omitempty,len=3"`
}

type addressRequest struct {
	Type      string `json:"type,omitempty" validate:"omitempty,oneof=home work other"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Street    string `json:"street" validate:"required"`
	City      string `json:"city" validate:"required"`
	State     string `json:"state,omitempty"`
	ZipCode   string `json:"zipCode,omitempty"`
	Country   string `json:"country,omitempty"`
	Phone     string `json:"phone,omitempty"`
	IsDefault bool   `json:"isDefault"`
}

func (r *addressRequest) toEntity() *entity.Address {
	return &entity.Address{
		Type:      entity.AddressType(r.Type),
		FirstName: r.FirstName,
		LastName:  r.LastName,
		Street:    r.Street,
		City:      r.City,
		State:     r.State,
		ZipCode:   r.ZipCode,
		Country:   r.Country,
		Phone:     r.Phone,
		IsDefault: r.IsDefault,
	}
}

type bankAccountRequest struct {
	BankName      string `json:"bankName,omitempty"`
	AccountNumber string `json:"accountNumber,omitempty"`
	AccountHolder string `json:"accountHolder,omitempty"`
	IBAN          string `json:"iban,omitempty"`
}

type registerVendorRequest struct {
	Email            string              `json:"email" validate:"required"`
	Password         string              `json:"password" validate:"required"`
	FirstName        string              `json:"firstName,omitempty"`
	LastName         string              `json:"lastName,omitempty"`
	Phone            string              `json:"phone" validate:"required"`
	StoreName        string              `json:"storeName" validate:"required"`
	StoreDescription string              `json:"storeDescription,omitempty"`
	BankAccount      *bankAccountRequest `json:"bankAccount,omitempty"`
}

type rejectVendorRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type createAdminRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required"`
	FirstName string `json:"firstName" validate:"required"`
	LastName  string `json:"lastName" validate:"required"`
	AdminType string `json:"adminType" validate:"required"`
}

type resetUserPasswordRequest struct {
	NewPassword string `json:"newPassword" validate:"required"`
}

// --- Responses ---

// userResponse is the sanitised user: no tokens, no external identity reference.
type userResponse struct {
	ID              string                 `json:"id"`
	Email           string                 `json:"email"`
	Role            string                 `json:"role,omitempty"`
	Permissions     []string               `json:"permissions"`
	IsActive        bool                   `json:"isActive"`
	IsEmailVerified bool                   `json:"isEmailVerified"`
	Profile         profileResponse        `json:"profile"`
	Preferences     preferencesResponse    `json:"preferences"`
	Addresses       []*addressResponse     `json:"addresses,omitempty"`
	VendorDetails   *vendorDetailsResponse `json:"vendorDetails,omitempty"`
	ActivityLog     activityLogResponse    `json:"activityLog"`
	LastLogin       *time.Time             `json:"lastLogin,omitempty"`
	CreatedAt       time.Time              `json:"createdAt"`
	UpdatedAt       time.Time              `json:"updatedAt"`
}

type profileResponse struct {
	FirstName   string     `json:"firstName"`
	LastName    string     `json:"lastName"`
	Phone       string     `json:"phone,omitempty"`
	Avatar      string     `json:"avatar,omitempty"`
	DateOfBirth *time.Time `json:"dateOfBirth,omitempty"`
	Gender      string     `json:"gender,omitempty"`
}

type preferencesResponse struct {
	Notifications struct {
		Email bool `json:"email"`
		SMS   bool `json:"sms"`
		Push  bool `json:"push"`
	} `json:"notifications"`
	Language string `json:"language"`
	Currency string `json:"currency"`
}

type activityLogResponse struct {
	LastSeen          *time.Time `json:"lastSeen,omitempty"`
	EmailVerifiedAt   *time.Time `json:"emailVerifiedAt,omitempty"`
	PasswordChangedAt *time.Time `json:"passwordChangedAt,omitempty"`
}

type vendorDetailsResponse struct {
	StoreName       string     `json:"storeName"`
	StoreDesc       string     `json:"storeDescription,omitempty"`
	StoreStatus     string     `json:"storeStatus"`
	ApprovedAt      *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy      string     `json:"approvedBy,omitempty"`
	RejectedAt      *time.Time `json:"rejectedAt,omitempty"`
	RejectedBy      string     `json:"rejectedBy,omitempty"`
	RejectionReason string     `json:"rejectionReason,omitempty"`
}

type addressResponse struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	FirstName string    `json:"firstName,omitempty"`
	LastName  string    `json:"lastName,omitempty"`
	Street    string    `json:"street"`
	City      string    `json:"city"`
	State     string    `json:"state,omitempty"`
	ZipCode   string    `json:"zipCode,omitempty"`
	Country   string    `json:"country"`
	Phone     string    `json:"phone,omitempty"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	User          *userResponse `json:"user,omitempty"`
	AccessToken   string        `json:"accessToken"`
	SessionHandle string        `json:"sessionHandle"`
	ExpiresAt     time.Time     `json:"expiresAt"`
}

type createAdminResponse struct {
	ID                    string `json:"id"`
	Email                 string `json:"email"`
	Role                  string `json:"role"`
	ExternalIdentityRef   string `json:"externalIdentityRef"`
	Status                string `json:"status"`
	EmailVerificationSent bool   `json:"emailVerificationSent"`
}

func toUserResponse(u *entity.User) *userResponse {
	if u == nil {
		return nil
	}

	res := &userResponse{
		ID:              u.ID.String(),
		Email:           u.Email,
		Permissions:     []string(u.Permissions),
		IsActive:        u.IsActive,
		IsEmailVerified: u.IsEmailVerified,
		Profile: profileResponse{
			FirstName:   u.Profile.FirstName,
			LastName:    u.Profile.LastName,
			Phone:       u.Profile.Phone,
			Avatar:      u.Profile.Avatar,
			DateOfBirth: u.Profile.DateOfBirth,
			Gender:      u.Profile.Gender,
		},
		ActivityLog: activityLogResponse{
			LastSeen:          u.ActivityLog.LastSeen,
			EmailVerifiedAt:   u.ActivityLog.EmailVerifiedAt,
			PasswordChangedAt: u.ActivityLog.PasswordChangedAt,
		},
		LastLogin: u.LastLogin,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if res.Permissions == nil {
		res.Permissions = []string{}
	}
	if u.Role != nil {
		res.Role = u.Role.Name.String()
	}

	res.Preferences.Notifications.Email = u.Preferences.Notifications.Email
	res.Preferences.Notifications.SMS = u.Preferences.Notifications.SMS
	res.Preferences.Notifications.Push = u.Preferences.Notifications.Push
	res.Preferences.Language = u.Preferences.Language
	res.Preferences.Currency = u.Preferences.Currency

	for _, a := range u.Addresses {
		res.Addresses = append(res.Addresses, toAddressResponse(a))
	}

	if vd := u.VendorDetails; vd != nil {
		res.VendorDetails = &vendorDetailsResponse{
			StoreName:       vd.StoreName,
			StoreDesc:       vd.StoreDescription,
			StoreStatus:     string(vd.StoreStatus),
			ApprovedAt:      vd.ApprovedAt,
			RejectedAt:      vd.RejectedAt,
			RejectionReason: vd.RejectionReason,
		}
		if vd.ApprovedBy != nil {
			res.VendorDetails.ApprovedBy = vd.ApprovedBy.String()
		}
		if vd.RejectedBy != nil {
			res.VendorDetails.RejectedBy = vd.RejectedBy.String()
		}
	}

	return res
}

func toUserResponses(users []*entity.User) []*userResponse {
	out := make([]*userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}

	return out
}

func toAddressResponse(a *entity.Address) *addressResponse {
	return &addressResponse{
		ID:        a.ID.String(),
		Type:      string(a.Type),
		FirstName: a.FirstName,
		LastName:  a.LastName,
		Street:    a.Street,
		City:      a.City,
		State:     a.State,
		ZipCode:   a.ZipCode,
		Country:   a.Country,
		Phone:     a.Phone,
		IsDefault: a.IsDefault,
		CreatedAt: a.CreatedAt,
	}
}

func toAuthResponse(user *entity.User, session *entity.Session) *authResponse {
	return &authResponse{
		User:          toUserResponse(user),
		AccessToken:   session.AccessToken,
		SessionHandle: session.Handle,
		ExpiresAt:     session.ExpiresAt,
	}
}
