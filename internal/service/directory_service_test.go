package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/mayor-schedule-api/internal/mocks"
	"github.com/mayor-schedule-api/internal/models"
)

func newTestDirectory(users *mocks.MockUserRepository) *directoryService {
	return newDirectoryService(users, zerolog.Nop())
}

func TestDirectory_RegisterStartsPending(t *testing.T) {
	users := mocks.NewMockUserRepository()
	s := newTestDirectory(users)

	user, err := s.Register(context.Background(), "uid-1", &models.RegisterRequest{Email: "a@example.com", Name: "A"})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.Role != models.RolePending || user.Status != models.StatusPendingApproval {
		t.Errorf("new account must await approval, got role=%s status=%s", user.Role, user.Status)
	}
}

func TestDirectory_RegisterIsIdempotent(t *testing.T) {
	users := mocks.NewMockUserRepository()
	s := newTestDirectory(users)
	ctx := context.Background()

	if _, err := s.Register(ctx, "uid-1", &models.RegisterRequest{Email: "a@example.com"}); err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	// Admin approves the account.
	if err := s.UpdateUser(ctx, "uid-1", &models.UpdateUserRequest{Role: models.RoleSecretary, Status: models.StatusActive}); err != nil {
		t.Fatalf("UpdateUser failed: %v", err)
	}

	// A repeat registration from the same identity must not downgrade it.
	again, err := s.Register(ctx, "uid-1", &models.RegisterRequest{Email: "a@example.com"})
	if err != nil {
		t.Fatalf("repeat Register failed: %v", err)
	}
	if again.Role != models.RoleSecretary || again.Status != models.StatusActive {
		t.Errorf("repeat registration downgraded the account: role=%s status=%s", again.Role, again.Status)
	}
}

func TestDirectory_RegisterRequiresIdentity(t *testing.T) {
	s := newTestDirectory(mocks.NewMockUserRepository())
	if _, err := s.Register(context.Background(), "", &models.RegisterRequest{}); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestDirectory_UpdateUserValidation(t *testing.T) {
	users := mocks.NewMockUserRepository()
	s := newTestDirectory(users)
	ctx := context.Background()
	users.Create(ctx, &models.User{ID: "uid-1", Role: models.RolePending, Status: models.StatusPendingApproval})

	cases := []models.UpdateUserRequest{
		{},
		{Role: "king"},
		{Status: "banished"},
	}
	for _, req := range cases {
		if err := s.UpdateUser(ctx, "uid-1", &req); !errors.Is(err, models.ErrInvalidInput) {
			t.Errorf("req %+v: expected ErrInvalidInput, got %v", req, err)
		}
	}

	if err := s.UpdateUser(ctx, "missing", &models.UpdateUserRequest{Role: models.RoleMayor}); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("expected ErrNotFound for unknown user, got %v", err)
	}
}

func TestDirectory_BootstrapAdminSingleWinner(t *testing.T) {
	users := mocks.NewMockUserRepository()
	s := newTestDirectory(users)
	ctx := context.Background()

	const callers = 8
	errs := make([]error, callers)
	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = s.BootstrapAdmin(ctx, "uid-"+string(rune('a'+i)))
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, err := range errs {
		switch {
		case err == nil:
			winners++
		case errors.Is(err, models.ErrAdminExists):
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	if winners != 1 {
		t.Fatalf("expected exactly one bootstrap winner, got %d", winners)
	}

	admins := 0
	for _, u := range users.Users {
		if u.Role == models.RoleAdmin {
			admins++
			if u.Status != models.StatusActive {
				t.Error("the bootstrapped admin must be active")
			}
		}
	}
	if admins != 1 {
		t.Errorf("expected exactly one admin record, got %d", admins)
	}

	// Any later attempt stays rejected.
	if err := s.BootstrapAdmin(ctx, "late-caller"); !errors.Is(err, models.ErrAdminExists) {
		t.Errorf("expected ErrAdminExists after bootstrap, got %v", err)
	}
}

func TestDirectory_RegisterTokenUnion(t *testing.T) {
	users := mocks.NewMockUserRepository()
	s := newTestDirectory(users)
	ctx := context.Background()
	users.Create(ctx, &models.User{ID: "mayor-1", Role: models.RoleMayor, Status: models.StatusActive})

	// Two devices, one of them registering twice.
	for _, token := range []string{"phone", "tablet", "phone"} {
		if err := s.RegisterToken(ctx, "mayor-1", token); err != nil {
			t.Fatalf("RegisterToken failed: %v", err)
		}
	}

	tokens, err := users.ListTokensForRole(ctx, models.RoleMayor)
	if err != nil {
		t.Fatalf("ListTokensForRole failed: %v", err)
	}
	if len(tokens) != 2 {
		t.Errorf("expected 2 distinct tokens, got %v", tokens)
	}
}

func TestDirectory_RegisterTokenValidation(t *testing.T) {
	s := newTestDirectory(mocks.NewMockUserRepository())
	ctx := context.Background()

	if err := s.RegisterToken(ctx, "", "token"); !errors.Is(err, models.ErrUnauthenticated) {
		t.Errorf("expected ErrUnauthenticated, got %v", err)
	}
	if err := s.RegisterToken(ctx, "uid-1", ""); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
}
