package impl

import (
	"context"
	"log/slog"
	"strings"
	"time"

	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/errors"
	"storefront/internal/usecase"
	"storefront/internal/util"

	"github.com/google/uuid"
	"go.uber.org/fx"
)

type profileService struct {
	txManager   repository.TransactionManager
	userRepo    repository.UserRepository
	addressRepo repository.AddressRepository
	logger      *slog.Logger

	now func() time.Time
}

// ProfileServiceParams holds dependencies for the profile service, injected by Fx.
type ProfileServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	UserRepo    repository.UserRepository
	AddressRepo repository.AddressRepository
	Logger      *slog.Logger
}

// NewProfileService is the constructor for profileService.
func NewProfileService(params ProfileServiceParams) usecase.ProfileUsecase {
	return &profileService{
		txManager:   params.TxManager,
		userRepo:    params.UserRepo,
		addressRepo: params.AddressRepo,
		logger:      params.Logger,
		now:         time.Now,
	}
}

func (srv *profileService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *profileService) UpdateProfile(ctx context.Context, userID uuid.UUID, input usecase.UpdateProfileInput) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}

	p := &user.Profile
	if input.FirstName != nil {
		p.FirstName = util.SanitizeText(*input.FirstName)
	}
	if input.LastName != nil {
		p.LastName = util.SanitizeText(*input.LastName)
	}
	if input.Phone != nil {
		p.Phone = util.SanitizePhone(*input.Phone)
		if p.Phone != "" && !phonePattern.MatchString(p.Phone) {
			return nil, domainerrors.ErrValidationFailed.WithDetails("phone is invalid")
		}
	}
	if input.Avatar != nil {
		p.Avatar = strings.TrimSpace(*input.Avatar)
	}
	if input.DateOfBirth != nil {
		if input.DateOfBirth.After(srv.now()) {
			return nil, domainerrors.ErrValidationFailed.WithDetails("dateOfBirth must be in the past")
		}
		dob := *input.DateOfBirth
		p.DateOfBirth = &dob
	}
	if input.Gender != nil {
		p.Gender = strings.TrimSpace(*input.Gender)
	}

	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to update profile")
	}

	return user, nil
}

func (srv *profileService) UpdatePreferences(ctx context.Context, userID uuid.UUID, input usecase.UpdatePreferencesInput) (*entity.User, error) {
	user, err := srv.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load user")
	}

	prefs := &user.Preferences
	if input.EmailNotifications != nil {
		prefs.Notifications.Email = *input.EmailNotifications
	}
	if input.SMSNotifications != nil {
		prefs.Notifications.SMS = *input.SMSNotifications
	}
	if input.PushNotifications != nil {
		prefs.Notifications.Push = *input.PushNotifications
	}
	if input.Language != nil {
		prefs.Language = strings.TrimSpace(*input.Language)
	}
	if input.Currency != nil {
		prefs.Currency = strings.ToUpper(strings.TrimSpace(*input.Currency))
	}

	if err := srv.userRepo.Update(ctx, user); err != nil {
		return nil, errors.Wrap(err, "failed to update preferences")
	}

	return user, nil
}

func (srv *profileService) ListAddresses(ctx context.Context, userID uuid.UUID) ([]*entity.Address, error) {
	addresses, err := srv.addressRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to list addresses")
	}

	return addresses, nil
}

func (srv *profileService) AddAddress(ctx context.Context, userID uuid.UUID, address *entity.Address) (*entity.Address, error) {
	address.UserID = userID
	address.ApplyDefaults()
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		addressRepo := repoFactory.NewAddressRepository()

		if address.IsDefault {
			if err := addressRepo.ClearDefault(ctx, userID); err != nil {
				return errors.Wrap(err, "failed to clear default address")
			}
		}

		return errors.Wrap(addressRepo.Create(ctx, address), "failed to add address")
	})
	if err != nil {
		return nil, err
	}

	srv.log(ctx).Debug("Address added", slog.Any("userID", userID), slog.Any("addressID", address.ID))

	return address, nil
}

func (srv *profileService) UpdateAddress(ctx context.Context, userID uuid.UUID, address *entity.Address) (*entity.Address, error) {
	existing, err := srv.addressRepo.FindByID(ctx, userID, address.ID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to load address")
	}

	address.UserID = userID
	address.CreatedAt = existing.CreatedAt
	address.ApplyDefaults()
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	err = srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		addressRepo := repoFactory.NewAddressRepository()

		if address.IsDefault && !existing.IsDefault {
			if err := addressRepo.ClearDefault(ctx, userID); err != nil {
				return errors.Wrap(err, "failed to clear default address")
			}
		}

		return errors.Wrap(addressRepo.Update(ctx, address), "failed to update address")
	})
	if err != nil {
		return nil, err
	}

	return address, nil
}

func (srv *profileService) DeleteAddress(ctx context.Context, userID, addressID uuid.UUID) error {
	if err := srv.addressRepo.Delete(ctx, userID, addressID); err != nil {
		return errors.Wrap(err, "failed to delete address")
	}

	return nil
}

func validateAddress(a *entity.Address) error {
	if !a.Type.IsValid() {
		return domainerrors.ErrValidationFailed.WithDetails("type must be home, work or other")
	}

	a.Street = util.SanitizeText(a.Street)
	a.City = util.SanitizeText(a.City)
	if a.Street == "" || a.City == "" {
		return domainerrors.ErrValidationFailed.WithDetails("street and city are required")
	}

	a.Phone = util.SanitizePhone(a.Phone)
	if a.Phone != "" && !phonePattern.MatchString(a.Phone) {
		return domainerrors.ErrValidationFailed.WithDetails("phone is invalid")
	}

	return nil
}
