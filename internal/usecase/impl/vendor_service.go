package impl

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"storefront/config"
	deliverycontext "storefront/internal/delivery/context"
	"storefront/internal/domain/constants"
	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/domain/repository"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/infra/metrics"
	"storefront/internal/usecase"
	"storefront/internal/util"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/fx"
)

var (
	phonePattern         = regexp.MustCompile(`^\+?\d{7,15}$`)
	ibanPattern          = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z0-9]{10,30}$`)
	accountNumberPattern = regexp.MustCompile(`^\d{6,34}$`)
)

const (
	storeNameMaxLength        = 100
	storeDescriptionMaxLength = 1000
)

type vendorService struct {
	txManager   repository.TransactionManager
	userRepo    repository.UserRepository
	permissions usecase.PermissionUsecase
	provider    service.IdentityProvider
	hasher      service.PasswordHasher
	notifier    service.NotificationSender
	mailer      *verificationMailer
	validate    *validator.Validate
	pageSize    int
	maxPageSize int
	metrics     *metrics.Metrics
	logger      *slog.Logger

	now   func() time.Time
	async func(func())
}

// VendorServiceParams holds dependencies for the vendor service, injected by Fx.
type VendorServiceParams struct {
	fx.In

	TxManager   repository.TransactionManager
	UserRepo    repository.UserRepository
	Permissions usecase.PermissionUsecase
	Provider    service.IdentityProvider
	Hasher      service.PasswordHasher
	Notifier    service.NotificationSender
	Config      *config.Config
	Metrics     *metrics.Metrics `optional:"true"`
	Logger      *slog.Logger
}

// NewVendorService is the constructor for vendorService.
func NewVendorService(params VendorServiceParams) usecase.VendorUsecase {
	srv := &vendorService{
		txManager:   params.TxManager,
		userRepo:    params.UserRepo,
		permissions: params.Permissions,
		provider:    params.Provider,
		hasher:      params.Hasher,
		notifier:    params.Notifier,
		mailer: &verificationMailer{
			provider: params.Provider,
			notifier: params.Notifier,
			frontend: frontendConfig(params.Config),
			metrics:  params.Metrics,
			logger:   params.Logger,
		},
		validate:    validator.New(),
		pageSize:    10,
		maxPageSize: 100,
		metrics:     params.Metrics,
		logger:      params.Logger,
		now:         time.Now,
		async:       func(f func()) { go f() },
	}

	if params.Config != nil && params.Config.Vendor != nil {
		srv.pageSize = params.Config.Vendor.DefaultPageSize
		srv.maxPageSize = params.Config.Vendor.MaxPageSize
	}

	return srv
}

func (srv *vendorService) log(ctx context.Context) *slog.Logger {
	return deliverycontext.GetLoggerOrDefault(ctx, srv.logger)
}

func (srv *vendorService) Register(ctx context.Context, input usecase.RegisterVendorInput) (*entity.User, error) {
	input = sanitizeVendorInput(input)

	if err := srv.validateRegistration(ctx, input); err != nil {
		return nil, err
	}

	res, err := srv.provider.SignUp(ctx, constants.DefaultTenant, input.Email, input.Password)
	if err != nil {
		return nil, providerError("vendor sign up", err)
	}
	if err := signUpStatusError(res.Status); err != nil {
		return nil, err
	}

	externalID := res.User.ID
	srv.log(ctx).Info("Vendor identity created, recording local user",
		slog.String("external_id", externalID), slog.String("store_name", input.StoreName))

	role, err := srv.permissions.RoleByName(ctx, entity.RoleVendor)
	if err != nil {
		return nil, reconciliationFailure(srv.log(ctx), srv.metrics, opVendorSignUp, externalID, input.Email, err)
	}

	profile := entity.DefaultProfile(input.FirstName, input.LastName, srv.now())
	profile.Phone = input.Phone

	vendor := &entity.User{
		ExternalIdentityRef: externalID,
		Email:               input.Email,
		RoleID:              role.ID,
		Role:                role,
		Permissions:         entity.Permissions{entity.PermissionVendorBasic},
		IsActive:            false,
		IsEmailVerified:     false,
		Profile:             profile,
		Preferences:         entity.DefaultPreferences(),
		VendorDetails: &entity.VendorDetails{
			StoreName:        input.StoreName,
			StoreDescription: input.StoreDescription,
			StoreStatus:      entity.StoreStatusPending,
			BankAccount:      input.BankAccount,
		},
	}

	if err := srv.userRepo.Create(ctx, vendor); err != nil {
		return nil, reconciliationFailure(srv.log(ctx), srv.metrics, opVendorSignUp, externalID, input.Email, err,
			slog.String("store_name", input.StoreName))
	}

	srv.mailer.sendInBackground(ctx, vendor, srv.async)
	if err := srv.notifier.NotifyAdminsVendorPending(ctx, vendor.ID.String(), input.StoreName); err != nil {
		srv.metrics.NotificationFailed(string(service.NotificationVendorPending))
		srv.log(ctx).Warn("Failed to notify admins of pending vendor", slog.Any("vendorID", vendor.ID), slog.Any("error", err))
	}

	return vendor, nil
}

func sanitizeVendorInput(input usecase.RegisterVendorInput) usecase.RegisterVendorInput {
	input.Email = entity.NormalizeEmail(input.Email)
	input.FirstName = util.SanitizeText(input.FirstName)
	input.LastName = util.SanitizeText(input.LastName)
	input.Phone = util.SanitizePhone(input.Phone)
	input.StoreName = util.SanitizeText(input.StoreName)
	input.StoreDescription = strings.TrimSpace(input.StoreDescription)

	if bank := input.BankAccount; bank != nil {
		input.BankAccount = &entity.BankAccount{
			BankName:      util.SanitizeText(bank.BankName),
			AccountNumber: strings.ReplaceAll(strings.TrimSpace(bank.AccountNumber), " ", ""),
			AccountHolder: util.SanitizeText(bank.AccountHolder),
			IBAN:          strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(bank.IBAN), " ", "")),
		}
	}

	return input
}

// validateRegistration checks every field, including store-side uniqueness, before anything is created.
func (srv *vendorService) validateRegistration(ctx context.Context, input usecase.RegisterVendorInput) error {
	var problems []string

	if srv.validate.Var(input.Email, "required,email") != nil {
		problems = append(problems, "email is invalid")
	}
	if err := srv.hasher.ValidatePasswordStrength(input.Password); err != nil {
		if appErr, ok := domainerrors.AsAppError(err); ok && appErr.Details() != "" {
			problems = append(problems, "password: "+appErr.Details())
		} else {
			problems = append(problems, "password does not meet the strength policy")
		}
	}
	if input.Phone != "" && !phonePattern.MatchString(input.Phone) {
		problems = append(problems, "phone is invalid")
	}
	if input.StoreName == "" || len(input.StoreName) > storeNameMaxLength {
		problems = append(problems, "storeName is required and must be at most 100 characters")
	}
	if len(input.StoreDescription) > storeDescriptionMaxLength {
		problems = append(problems, "storeDescription must be at most 1000 characters")
	}
	if bank := input.BankAccount; bank != nil {
		if bank.BankName == "" || bank.AccountHolder == "" {
			problems = append(problems, "bankAccount requires bankName and accountHolder")
		}
		if bank.AccountNumber != "" && !accountNumberPattern.MatchString(bank.AccountNumber) {
			problems = append(problems, "bankAccount.accountNumber is invalid")
		}
		if bank.IBAN != "" && !ibanPattern.MatchString(bank.IBAN) {
			problems = append(problems, "bankAccount.iban is invalid")
		}
	}

	if len(problems) > 0 {
		return domainerrors.ErrValidationFailed.WithDetails(strings.Join(problems, "; "))
	}

	exists, err := srv.userRepo.ExistsByEmail(ctx, input.Email)
	if err != nil {
		return errors.Wrap(err, "failed to check email")
	}
	if exists {
		return domainerrors.ErrUserAlreadyExists
	}

	taken, err := srv.userRepo.StoreNameExists(ctx, input.StoreName)
	if err != nil {
		return errors.Wrap(err, "failed to check store name")
	}
	if taken {
		return domainerrors.ErrStoreNameTaken
	}

	return nil
}

func (srv *vendorService) Approve(ctx context.Context, actor *entity.User, vendorID uuid.UUID) (*entity.User, error) {
	vendor, err := srv.transition(ctx, actor, vendorID, func(v *entity.User, now time.Time) error {
		return v.ApproveVendor(actor.ID, now)
	})
	if err != nil {
		return nil, err
	}

	srv.metrics.VendorDecision(string(entity.StoreStatusApproved))
	srv.log(ctx).Info("Vendor approved", slog.Any("vendorID", vendor.ID), slog.Any("approvedBy", actor.ID))
	srv.notifyDecision(ctx, vendor, true, "")

	return vendor, nil
}

func (srv *vendorService) Reject(ctx context.Context, actor *entity.User, vendorID uuid.UUID, reason string) (*entity.User, error) {
	reason = strings.TrimSpace(reason)

	vendor, err := srv.transition(ctx, actor, vendorID, func(v *entity.User, now time.Time) error {
		return v.RejectVendor(actor.ID, reason, now)
	})
	if err != nil {
		return nil, err
	}

	srv.metrics.VendorDecision(string(entity.StoreStatusRejected))
	srv.log(ctx).Info("Vendor rejected", slog.Any("vendorID", vendor.ID), slog.Any("rejectedBy", actor.ID))
	srv.notifyDecision(ctx, vendor, false, reason)

	return vendor, nil
}

// transition applies a state change inside one local transaction. A failed guard writes nothing.
func (srv *vendorService) transition(ctx context.Context, actor *entity.User, vendorID uuid.UUID, apply func(*entity.User, time.Time) error) (*entity.User, error) {
	if err := srv.permissions.RequirePermission(ctx, actor, entity.PermissionApproveVendor); err != nil {
		return nil, err
	}

	var vendor *entity.User

	err := srv.txManager.Execute(ctx, func(repoFactory repository.RepositoryFactory) error {
		userRepo := repoFactory.NewUserRepository()

		v, err := findVendor(ctx, userRepo, vendorID)
		if err != nil {
			return err
		}
		if err := apply(v, srv.now()); err != nil {
			return err
		}
		if err := userRepo.Update(ctx, v); err != nil {
			return errors.Wrap(err, "failed to save vendor decision")
		}
		vendor = v

		return nil
	})
	if err != nil {
		return nil, err
	}

	return vendor, nil
}

func (srv *vendorService) notifyDecision(ctx context.Context, vendor *entity.User, approved bool, reason string) {
	if err := srv.notifier.SendVendorDecisionEmail(ctx, vendor.Email, vendor.VendorDetails.StoreName, approved, reason); err != nil {
		kind := service.NotificationVendorRejected
		if approved {
			kind = service.NotificationVendorApproved
		}
		srv.metrics.NotificationFailed(string(kind))
		srv.log(ctx).Warn("Failed to send vendor decision email", slog.Any("vendorID", vendor.ID), slog.Any("error", err))
	}
}

func (srv *vendorService) ListPending(ctx context.Context, actor *entity.User, page, limit int) (*usecase.VendorPage, error) {
	if err := srv.permissions.RequirePermission(ctx, actor, entity.PermissionApproveVendor); err != nil {
		return nil, err
	}

	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = srv.pageSize
	}
	limit = min(limit, srv.maxPageSize)

	pending := entity.StoreStatusPending
	verified := true

	vendors, total, err := srv.userRepo.List(ctx, repository.UserFilter{
		StoreStatus:     &pending,
		IsEmailVerified: &verified,
		Page:            page,
		Limit:           limit,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to list pending vendors")
	}

	return &usecase.VendorPage{
		Vendors: vendors,
		Pagination: usecase.Pagination{
			Total: total,
			Page:  page,
			Limit: limit,
			Pages: pageCount(total, limit),
		},
	}, nil
}

func (srv *vendorService) Get(ctx context.Context, actor *entity.User, vendorID uuid.UUID) (*entity.User, error) {
	if err := srv.permissions.RequirePermission(ctx, actor, entity.PermissionApproveVendor); err != nil {
		return nil, err
	}

	return findVendor(ctx, srv.userRepo, vendorID)
}

func findVendor(ctx context.Context, userRepo repository.UserRepository, vendorID uuid.UUID) (*entity.User, error) {
	user, err := userRepo.FindByID(ctx, vendorID)
	if errors.Is(err, domainerrors.ErrUserNotFound) {
		return nil, domainerrors.ErrVendorNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to load vendor")
	}
	if !user.IsVendor() {
		return nil, domainerrors.ErrVendorNotFound
	}

	return user, nil
}
