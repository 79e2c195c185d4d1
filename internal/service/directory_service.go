package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/models"
	"github.com/mayor-schedule-api/internal/repository"
)

// directoryService is the concrete implementation of DirectoryService
type directoryService struct {
	repo repository.UserRepository
	log  zerolog.Logger
}

// newDirectoryService creates a new DirectoryService
func newDirectoryService(repo repository.UserRepository, log zerolog.Logger) *directoryService {
	return &directoryService{
		repo: repo,
		log:  log.With().Str("service", "directory").Logger(),
	}
}

// Register creates the caller's account record with role pending and status
// pending_approval. Re-registering an existing identity is a no-op.
func (s *directoryService) Register(ctx context.Context, id string, req *models.RegisterRequest) (*models.User, error) {
	if id == "" {
		return nil, models.ErrUnauthenticated
	}

	user := &models.User{
		ID:     id,
		Email:  req.Email,
		Name:   req.Name,
		Role:   models.RolePending,
		Status: models.StatusPendingApproval,
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	created, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if created == nil {
		return nil, models.ErrNotFound
	}

	s.log.Info().Str("user_id", id).Msg("User registered, awaiting approval")
	return created, nil
}

// GetUser retrieves a user record by identity.
func (s *directoryService) GetUser(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.ErrNotFound
	}
	return user, nil
}

// ListUsers retrieves all user records.
func (s *directoryService) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.repo.List(ctx)
}

// UpdateUser changes a user's role and/or status (approve, suspend,
// reactivate). Empty fields are left untouched.
func (s *directoryService) UpdateUser(ctx context.Context, id string, req *models.UpdateUserRequest) error {
	if req.Role == "" && req.Status == "" {
		return fmt.Errorf("%w: role or status required", models.ErrInvalidInput)
	}
	if req.Role != "" && !models.ValidRole(req.Role) {
		return fmt.Errorf("%w: unknown role %q", models.ErrInvalidInput, req.Role)
	}
	if req.Status != "" && !models.ValidStatus(req.Status) {
		return fmt.Errorf("%w: unknown status %q", models.ErrInvalidInput, req.Status)
	}

	if err := s.repo.UpdateRoleStatus(ctx, id, req.Role, req.Status); err != nil {
		return err
	}

	s.log.Info().
		Str("user_id", id).
		Str("role", string(req.Role)).
		Str("status", string(req.Status)).
		Msg("User role/status updated")
	return nil
}

// RegisterToken records a push endpoint for the user. Tokens accumulate
// with union semantics; concurrent registrations from several devices never
// overwrite each other.
func (s *directoryService) RegisterToken(ctx context.Context, userID, token string) error {
	if userID == "" {
		return models.ErrUnauthenticated
	}
	if token == "" {
		return fmt.Errorf("%w: token required", models.ErrInvalidInput)
	}
	return s.repo.AddPushToken(ctx, userID, token)
}

// BootstrapAdmin promotes the caller to the first administrator. Exactly one
// caller can ever win; everyone after the winner's commit gets
// ErrAdminExists.
func (s *directoryService) BootstrapAdmin(ctx context.Context, callerID string) error {
	if callerID == "" {
		return models.ErrUnauthenticated
	}

	if err := s.repo.PromoteFirstAdmin(ctx, callerID); err != nil {
		return err
	}

	s.log.Info().Str("user_id", callerID).Msg("First administrator bootstrapped")
	return nil
}
