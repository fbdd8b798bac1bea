package server

import (
	"context"
	"fmt"
	"time"

	"github.com/odrpress/go-session-server/internal/config"
	"github.com/odrpress/go-session-server/principals"
	"github.com/rs/zerolog/log"
)

// InitialiseSystem ensures the seed admin principal exists. The seed
// credentials come from configuration; when unset, seeding is skipped and
// the back-office has no accounts until one is provisioned out of band.
func (s *Server) InitialiseSystem(cfg config.Config) error {
	email := cfg.GetSeedAdminEmail()
	password := cfg.GetSeedAdminPassword()
	if email == "" || password == "" {
		log.Info().Msg("seed admin not configured, skipping bootstrap")
		return nil
	}

	ctx := context.Background()

	if existing, err := s.repos.Principals.GetByEmail(ctx, email); err == nil && existing != nil {
		log.Debug().Str("email", email).Msg("seed admin already exists")
		return nil
	}

	// A weak seed password fails the bootstrap rather than landing in the
	// credential store.
	if err := principals.ValidatePasswordStrength(password); err != nil {
		return fmt.Errorf("[InitialiseSystem] seed admin password: %w", err)
	}

	hash, err := principals.HashPassword(password, cfg.GetBcryptCost())
	if err != nil {
		return fmt.Errorf("[InitialiseSystem] hash seed admin password: %w", err)
	}

	admin := &principals.Principal{
		Email:        email,
		Name:         cfg.GetSeedAdminName(),
		PasswordHash: hash,
		Role:         principals.RoleAdmin,
		Status:       principals.StatusActive,
		CreatedAt:    time.Now(),
	}
	if err := s.repos.Principals.Upsert(ctx, admin); err != nil {
		return fmt.Errorf("[InitialiseSystem] create seed admin: %w", err)
	}

	log.Info().Str("email", email).Msg("seed admin created")
	return nil
}
