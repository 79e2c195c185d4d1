package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mayor-schedule-api/internal/models"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims *Claims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return raw
}

func TestParseToken(t *testing.T) {
	claims := &Claims{
		UserID: "uid-1",
		Email:  "a@example.com",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	got, err := ParseToken(signToken(t, testSecret, claims), testSecret)
	if err != nil {
		t.Fatalf("ParseToken failed: %v", err)
	}
	if got.UserID != "uid-1" || got.Email != "a@example.com" {
		t.Errorf("unexpected claims: %+v", got)
	}
}

func TestParseToken_Rejections(t *testing.T) {
	valid := &Claims{
		UserID: "uid-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	expired := &Claims{
		UserID: "uid-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}
	noIdentity := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}

	cases := []struct {
		name string
		raw  string
	}{
		{"wrong secret", signToken(t, "other-secret", valid)},
		{"expired", signToken(t, testSecret, expired)},
		{"no identity claim", signToken(t, testSecret, noIdentity)},
		{"garbage", "not.a.token"},
	}
	for _, tc := range cases {
		if _, err := ParseToken(tc.raw, testSecret); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
}

func TestCanAccess(t *testing.T) {
	cases := []struct {
		name  string
		user  *models.User
		roles []models.Role
		want  bool
	}{
		{"nil user", nil, []models.Role{models.RoleAdmin}, false},
		{"active with matching role", &models.User{Role: models.RoleMayor, Status: models.StatusActive}, []models.Role{models.RoleMayor}, true},
		{"active with one of several roles", &models.User{Role: models.RoleSecretary, Status: models.StatusActive}, []models.Role{models.RoleSecretary, models.RoleMayor, models.RoleAdmin}, true},
		{"active with wrong role", &models.User{Role: models.RolePending, Status: models.StatusActive}, []models.Role{models.RoleAdmin}, false},
		{"suspended admin", &models.User{Role: models.RoleAdmin, Status: models.StatusSuspended}, []models.Role{models.RoleAdmin}, false},
		{"pending approval", &models.User{Role: models.RoleMayor, Status: models.StatusPendingApproval}, []models.Role{models.RoleMayor}, false},
	}
	for _, tc := range cases {
		if got := CanAccess(tc.user, tc.roles...); got != tc.want {
			t.Errorf("%s: CanAccess = %v, want %v", tc.name, got, tc.want)
		}
	}
}
