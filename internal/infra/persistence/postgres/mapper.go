package postgres

import (
	"storefront/internal/domain/entity"
	"storefront/internal/infra/persistence/model"

	"gorm.io/datatypes"
)

func toRoleDomain(data *model.RoleModel) *entity.Role {
	if data == nil {
		return nil
	}

	return &entity.Role{
		ID:          data.ID,
		Name:        entity.RoleName(data.Name),
		Description: data.Description,
		Permissions: entity.Permissions(data.Permissions),
		IsDefault:   data.IsDefault,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func fromRoleDomain(data *entity.Role) *model.RoleModel {
	return &model.RoleModel{
		ID:          data.ID,
		Name:        data.Name.String(),
		Description: data.Description,
		Permissions: datatypes.JSONSlice[string](data.Permissions.Normalize()),
		IsDefault:   data.IsDefault,
		CreatedAt:   data.CreatedAt,
		UpdatedAt:   data.UpdatedAt,
	}
}

func toAddressDomain(data *model.AddressModel) *entity.Address {
	if data == nil {
		return nil
	}

	return &entity.Address{
		ID:        data.ID,
		UserID:    data.UserID,
		Type:      entity.AddressType(data.Type),
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Street:    data.Street,
		City:      data.City,
		State:     data.State,
		ZipCode:   data.ZipCode,
		Country:   data.Country,
		Phone:     data.Phone,
		IsDefault: data.IsDefault,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

func fromAddressDomain(data *entity.Address) *model.AddressModel {
	return &model.AddressModel{
		ID:        data.ID,
		UserID:    data.UserID,
		Type:      string(data.Type),
		FirstName: data.FirstName,
		LastName:  data.LastName,
		Street:    data.Street,
		City:      data.City,
		State:     data.State,
		ZipCode:   data.ZipCode,
		Country:   data.Country,
		Phone:     data.Phone,
		IsDefault: data.IsDefault,
		CreatedAt: data.CreatedAt,
		UpdatedAt: data.UpdatedAt,
	}
}

func toUserDomain(data *model.UserModel) *entity.User {
	if data == nil {
		return nil
	}

	prefs := data.Preferences.Data()
	user := &entity.User{
		ID:                       data.ID,
		ExternalIdentityRef:      data.ExternalIdentityRef,
		Email:                    data.Email,
		RoleID:                   data.RoleID,
		Role:                     toRoleDomain(data.Role),
		Permissions:              entity.Permissions(data.Permissions),
		IsActive:                 data.IsActive,
		IsEmailVerified:          data.IsEmailVerified,
		EmailVerificationToken:   data.EmailVerificationToken,
		EmailVerificationExpires: data.EmailVerificationExpires,
		EmailVerificationSent:    data.EmailVerificationSent,
		Profile: entity.Profile{
			FirstName:   data.FirstName,
			LastName:    data.LastName,
			Phone:       data.Phone,
			Avatar:      data.Avatar,
			DateOfBirth: data.DateOfBirth,
			Gender:      data.Gender,
		},
		Preferences: entity.Preferences{
			Notifications: entity.NotificationPreferences{
				Email: prefs.Notifications.Email,
				SMS:   prefs.Notifications.SMS,
				Push:  prefs.Notifications.Push,
			},
			Language: prefs.Language,
			Currency: prefs.Currency,
		},
		ActivityLog: entity.ActivityLog{
			LastSeen:          data.LastSeen,
			EmailVerifiedAt:   data.EmailVerifiedAt,
			PasswordChangedAt: data.PasswordChangedAt,
		},
		LastLogin:     data.LastLogin,
		LoginAttempts: data.LoginAttempts,
		LockUntil:     data.LockUntil,
		DeletedAt:     data.DeletedAt,
		CreatedAt:     data.CreatedAt,
		UpdatedAt:     data.UpdatedAt,
	}

	if data.StoreStatus != nil {
		user.VendorDetails = toVendorDomain(data)
	}

	user.Addresses = make([]*entity.Address, 0, len(data.Addresses))
	for _, addr := range data.Addresses {
		user.Addresses = append(user.Addresses, toAddressDomain(addr))
	}

	return user
}

func toVendorDomain(data *model.UserModel) *entity.VendorDetails {
	vendor := &entity.VendorDetails{
		StoreDescription: data.StoreDescription,
		StoreStatus:      entity.StoreStatus(*data.StoreStatus),
		ApprovedAt:       data.ApprovedAt,
		ApprovedBy:       data.ApprovedBy,
		RejectedAt:       data.RejectedAt,
		RejectedBy:       data.RejectedBy,
		RejectionReason:  data.RejectionReason,
	}
	if data.StoreName != nil {
		vendor.StoreName = *data.StoreName
	}
	if data.BankName != "" || data.BankAccountNumber != "" || data.BankIBAN != "" {
		vendor.BankAccount = &entity.BankAccount{
			BankName:      data.BankName,
			AccountNumber: data.BankAccountNumber,
			AccountHolder: data.BankAccountHolder,
			IBAN:          data.BankIBAN,
		}
	}
	for _, doc := range data.VerificationDocuments {
		vendor.VerificationDocuments = append(vendor.VerificationDocuments, entity.VerificationDocument{
			Type:       doc.Type,
			URL:        doc.URL,
			UploadedAt: doc.UploadedAt,
		})
	}

	return vendor
}

// fromUserDomain maps every column except associations; addresses are saved through AddressRepository.
func fromUserDomain(data *entity.User) *model.UserModel {
	var prefs model.PreferencesDocument
	prefs.Notifications.Email = data.Preferences.Notifications.Email
	prefs.Notifications.SMS = data.Preferences.Notifications.SMS
	prefs.Notifications.Push = data.Preferences.Notifications.Push
	prefs.Language = data.Preferences.Language
	prefs.Currency = data.Preferences.Currency

	permissions := data.Permissions.Normalize()
	if permissions == nil {
		permissions = entity.Permissions{}
	}

	userM := &model.UserModel{
		ID:                       data.ID,
		ExternalIdentityRef:      data.ExternalIdentityRef,
		Email:                    data.Email,
		RoleID:                   data.RoleID,
		Permissions:              datatypes.JSONSlice[string](permissions),
		IsActive:                 data.IsActive,
		IsEmailVerified:          data.IsEmailVerified,
		EmailVerificationToken:   data.EmailVerificationToken,
		EmailVerificationExpires: data.EmailVerificationExpires,
		EmailVerificationSent:    data.EmailVerificationSent,
		FirstName:                data.Profile.FirstName,
		LastName:                 data.Profile.LastName,
		Phone:                    data.Profile.Phone,
		Avatar:                   data.Profile.Avatar,
		DateOfBirth:              data.Profile.DateOfBirth,
		Gender:                   data.Profile.Gender,
		Preferences:              datatypes.NewJSONType(prefs),
		LastSeen:                 data.ActivityLog.LastSeen,
		EmailVerifiedAt:          data.ActivityLog.EmailVerifiedAt,
		PasswordChangedAt:        data.ActivityLog.PasswordChangedAt,
		LastLogin:                data.LastLogin,
		LoginAttempts:            data.LoginAttempts,
		LockUntil:                data.LockUntil,
		DeletedAt:                data.DeletedAt,
		CreatedAt:                data.CreatedAt,
		UpdatedAt:                data.UpdatedAt,
	}

	if v := data.VendorDetails; v != nil {
		storeName := v.StoreName
		status := string(v.StoreStatus)
		userM.StoreName = &storeName
		userM.StoreStatus = &status
		userM.StoreDescription = v.StoreDescription
		userM.ApprovedAt = v.ApprovedAt
		userM.ApprovedBy = v.ApprovedBy
		userM.RejectedAt = v.RejectedAt
		userM.RejectedBy = v.RejectedBy
		userM.RejectionReason = v.RejectionReason
		if v.BankAccount != nil {
			userM.BankName = v.BankAccount.BankName
			userM.BankAccountNumber = v.BankAccount.AccountNumber
			userM.BankAccountHolder = v.BankAccount.AccountHolder
			userM.BankIBAN = v.BankAccount.IBAN
		}
		for _, doc := range v.VerificationDocuments {
			userM.VerificationDocuments = append(userM.VerificationDocuments, model.VerificationDocumentDocument{
				Type:       doc.Type,
				URL:        doc.URL,
				UploadedAt: doc.UploadedAt,
			})
		}
	}

	return userM
}
