package main

import (
	"context"

	"storefront/config"
	"storefront/internal/domain/lifecycle"
	"storefront/internal/domain/service"
	"storefront/internal/errors"
	"storefront/internal/infra/auth"
	"storefront/internal/infra/identity"
	logs "storefront/internal/infra/log"
	"storefront/internal/infra/notification"
	"storefront/internal/infra/persistence/postgres"
	"storefront/internal/infra/pubsub"
	"storefront/internal/usecase"
	"storefront/internal/usecase/impl"

	"go.uber.org/fx"
)

// withApp builds the dependency graph the maintenance commands need, starts it,
// fills targets through fx.Populate and runs fn before stopping the graph again.
func withApp(ctx context.Context, fn func(ctx context.Context) error, targets ...any) error {
	app := fx.New(
		fx.NopLogger,
		fx.Provide(
			config.New,
			logs.New,
			func() context.Context { return ctx },
			postgres.New,
			fx.Annotate(
				postgres.NewIdentity,
				fx.ResultTags(`name:"identity"`),
			),
			postgres.NewUserRepository,
			postgres.NewRoleRepository,
			postgres.NewTransactionManager,
			auth.NewBcryptHasher,
			auth.NewJWTService,
			notification.NewEventSender,
			fx.Annotate(
				identity.New,
				fx.As(fx.Self()),
				fx.As(new(service.IdentityProvider)),
			),
			impl.NewPermissionService,
			impl.NewReconciliationService,
			impl.NewMaintenanceService,
		),
		pubsub.Module,
		fx.Invoke(registerIdentityHooks),
		fx.Populate(targets...),
	)
	if err := app.Err(); err != nil {
		return errors.Wrap(err, "build application graph")
	}

	startCtx, cancel := context.WithTimeout(ctx, lifecycle.DefaultTimeout)
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return errors.Wrap(err, "start application graph")
	}

	runErr := fn(ctx)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), lifecycle.DefaultTimeout)
	defer stopCancel()
	if err := app.Stop(stopCtx); err != nil && runErr == nil {
		return errors.Wrap(err, "stop application graph")
	}

	return runErr
}

func registerIdentityHooks(client *identity.Client, reconciler usecase.IdentityReconciler) {
	client.RegisterHooks(service.IdentityHooks{
		SignUp:            reconciler,
		SignIn:            reconciler,
		EmailVerification: reconciler,
		PasswordReset:     reconciler,
	})
}
