package repository

import "context"

// TransactionManager runs a unit of work inside one local database transaction.
// Calls to the identity provider made inside fn are not part of the transaction.
type TransactionManager interface {
	// Execute rolls back when fn returns an error or panics, and commits otherwise.
	Execute(ctx context.Context, fn func(txRepoFactory RepositoryFactory) error) error
}

// RepositoryFactory hands out repositories bound to the current transaction.
type RepositoryFactory interface {
	NewUserRepository() UserRepository
	NewRoleRepository() RoleRepository
	NewAddressRepository() AddressRepository
}
