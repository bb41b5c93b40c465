package main

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/dharz/dharz-ai/internal/config"
	"github.com/dharz/dharz-ai/internal/domain"
	"github.com/dharz/dharz-ai/internal/domain/user"
	"github.com/dharz/dharz-ai/internal/utils/platformerrors"
)

// dataInitializer seeds reference data on startup.
type dataInitializer struct {
	users *user.Service
	log   zerolog.Logger
}

// Install creates the bootstrap admin account when one is configured.
// Restarts are idempotent: an existing account is left untouched.
func (d *dataInitializer) Install(ctx context.Context, cfg *config.Config) error {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return nil
	}

	_, err := d.users.Register(ctx, user.RegisterInput{
		Name:     cfg.AdminName,
		Email:    cfg.AdminEmail,
		Password: cfg.AdminPassword,
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		if platformerrors.TypeOf(err) == platformerrors.ErrorTypeConflict {
			d.log.Debug().Str("email", cfg.AdminEmail).Msg("admin account already exists")
			return nil
		}
		return err
	}

	d.log.Info().Str("email", cfg.AdminEmail).Msg("created bootstrap admin account")
	return nil
}
