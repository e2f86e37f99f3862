package impl

import (
	"context"
	"testing"
	"time"

	"storefront/internal/domain/entity"
	domainerrors "storefront/internal/domain/errors"
	"storefront/internal/errors"
	"storefront/internal/mocks"
	"storefront/internal/usecase"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newProfileServiceForTest(users *mocks.UserRepository, addresses *mocks.AddressRepository) *profileService {
	srv := NewProfileService(ProfileServiceParams{
		TxManager: &mocks.TransactionManager{
			Factory: &mocks.RepositoryFactory{Users: users, Addresses: addresses},
		},
		UserRepo:    users,
		AddressRepo: addresses,
		Logger:      newDiscardLogger(),
	}).(*profileService)
	srv.now = func() time.Time { return fixedNow }

	return srv
}

func ptr[T any](v T) *T { return &v }

func TestProfileService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserRepository{}
	srv := newProfileServiceForTest(users, &mocks.AddressRepository{})

	user := testUser(testRole(entity.RoleCustomer))
	users.On("FindByID", ctx, user.ID).Return(user, nil)
	users.On("Update", ctx, user).Return(nil)

	dob := time.Date(1990, 5, 1, 0, 0, 0, 0, time.UTC)
	got, err := srv.UpdateProfile(ctx, user.ID, usecase.UpdateProfileInput{
		FirstName:   ptr("  Nour  "),
		Phone:       ptr("+20 (100) 555-0101"),
		DateOfBirth: &dob,
	})

	require.NoError(t, err)
	assert.Equal(t, "Nour", got.Profile.FirstName)
	assert.Equal(t, "User", got.Profile.LastName)
	assert.Equal(t, "+201005550101", got.Profile.Phone)
	assert.Equal(t, dob, *got.Profile.DateOfBirth)
}

func TestProfileService_UpdateProfile_RejectsFutureBirthday(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserRepository{}
	srv := newProfileServiceForTest(users, &mocks.AddressRepository{})

	user := testUser(testRole(entity.RoleCustomer))
	users.On("FindByID", ctx, user.ID).Return(user, nil)

	_, err := srv.UpdateProfile(ctx, user.ID, usecase.UpdateProfileInput{DateOfBirth: ptr(fixedNow.Add(24 * time.Hour))})

	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)
	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestProfileService_UpdatePreferences(t *testing.T) {
	ctx := context.Background()
	users := &mocks.UserRepository{}
	srv := newProfileServiceForTest(users, &mocks.AddressRepository{})

	user := testUser(testRole(entity.RoleCustomer))
	users.On("FindByID", ctx, user.ID).Return(user, nil)
	users.On("Update", ctx, user).Return(nil)

	got, err := srv.UpdatePreferences(ctx, user.ID, usecase.UpdatePreferencesInput{
		SMSNotifications: ptr(true),
		Currency:         ptr("usd"),
	})

	require.NoError(t, err)
	assert.True(t, got.Preferences.Notifications.SMS)
	assert.True(t, got.Preferences.Notifications.Email)
	assert.Equal(t, "USD", got.Preferences.Currency)
	assert.Equal(t, "ar", got.Preferences.Language)
}

// addressStore is an in-memory stand-in that lets the default-address sequence be observed end to end.
type addressStore struct {
	items []*entity.Address
}

func (s *addressStore) wire(ctx context.Context, m *mocks.AddressRepository, userID uuid.UUID) {
	m.On("ClearDefault", ctx, userID).Run(func(mock.Arguments) {
		for _, a := range s.items {
			a.IsDefault = false
		}
	}).Return(nil)
	m.On("Create", ctx, mock.AnythingOfType("*entity.Address")).Run(func(args mock.Arguments) {
		a := args.Get(1).(*entity.Address)
		a.ID = uuid.New()
		s.items = append(s.items, a)
	}).Return(nil)
	m.On("FindByID", ctx, userID, mock.AnythingOfType("uuid.UUID")).Return(func(_ context.Context, _, id uuid.UUID) (*entity.Address, error) {
		for _, a := range s.items {
			if a.ID == id {
				c := *a

				return &c, nil
			}
		}

		return nil, domainerrors.ErrAddressNotFound
	})
	m.On("Update", ctx, mock.AnythingOfType("*entity.Address")).Run(func(args mock.Arguments) {
		updated := args.Get(1).(*entity.Address)
		for i, a := range s.items {
			if a.ID == updated.ID {
				s.items[i] = updated
			}
		}
	}).Return(nil)
}

func TestProfileService_AddressDefaultsStayUnique(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	addresses := &mocks.AddressRepository{}
	store := &addressStore{}
	store.wire(ctx, addresses, userID)
	srv := newProfileServiceForTest(&mocks.UserRepository{}, addresses)

	home, err := srv.AddAddress(ctx, userID, &entity.Address{Street: "1 Nile St", City: "Cairo", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, entity.AddressTypeHome, home.Type)
	assert.Equal(t, entity.DefaultCountry, home.Country)

	work, err := srv.AddAddress(ctx, userID, &entity.Address{Type: entity.AddressTypeWork, Street: "2 Tahrir Sq", City: "Cairo", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, 1, entity.CountDefaults(store.items))

	_, err = srv.AddAddress(ctx, userID, &entity.Address{Street: "3 Corniche", City: "Alexandria"})
	require.NoError(t, err)
	assert.Equal(t, 1, entity.CountDefaults(store.items))

	_, err = srv.UpdateAddress(ctx, userID, &entity.Address{ID: home.ID, Street: "1 Nile St", City: "Cairo", IsDefault: true})
	require.NoError(t, err)
	assert.Equal(t, 1, entity.CountDefaults(store.items))

	for _, a := range store.items {
		assert.Equal(t, a.ID == home.ID, a.IsDefault, "only the last default survives")
	}
	assert.NotEqual(t, home.ID, work.ID)
	// each clear-then-write pair ran in its own transaction
	assert.Equal(t, 4, srv.txManager.(*mocks.TransactionManager).Calls)
}

func TestProfileService_AddAddress_ClearFailureSkipsWrite(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	addresses := &mocks.AddressRepository{}
	srv := newProfileServiceForTest(&mocks.UserRepository{}, addresses)

	addresses.On("ClearDefault", ctx, userID).Return(errors.New("lock timeout"))

	_, err := srv.AddAddress(ctx, userID, &entity.Address{Street: "1 Nile St", City: "Cairo", IsDefault: true})

	require.ErrorContains(t, err, "failed to clear default address")
	addresses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestProfileService_AddAddress_Validation(t *testing.T) {
	ctx := context.Background()
	addresses := &mocks.AddressRepository{}
	srv := newProfileServiceForTest(&mocks.UserRepository{}, addresses)

	_, err := srv.AddAddress(ctx, uuid.New(), &entity.Address{Type: "castle", Street: "x", City: "y"})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	_, err = srv.AddAddress(ctx, uuid.New(), &entity.Address{Street: " ", City: "y"})
	assert.ErrorIs(t, err, domainerrors.ErrValidationFailed)

	assert.Empty(t, addresses.Calls)
}

func TestProfileService_DeleteAddress(t *testing.T) {
	ctx := context.Background()
	addresses := &mocks.AddressRepository{}
	srv := newProfileServiceForTest(&mocks.UserRepository{}, addresses)

	userID, addressID := uuid.New(), uuid.New()
	addresses.On("Delete", ctx, userID, addressID).Return(domainerrors.ErrAddressNotFound)

	assert.ErrorIs(t, srv.DeleteAddress(ctx, userID, addressID), domainerrors.ErrAddressNotFound)
}
