package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"one-os/internal/models"
	"one-os/internal/testutil"
)

func newAuth(t *testing.T) *AuthService {
	t.Helper()
	return NewAuthService(testutil.DB(t), testutil.JWTSecret, time.Hour)
}

func TestRegisterLoginAuthenticate(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	user, token, err := svc.Register(ctx, " Owner@Agency.com ", "hunter22", "Owner")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "owner@agency.com" {
		t.Fatalf("Email: want=%q got=%q", "owner@agency.com", user.Email)
	}
	if user.Role != models.RoleAdmin {
		t.Fatalf("Role: first user should be admin, got=%q", user.Role)
	}

	session, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if session.UserID != user.ID || session.Email != user.Email {
		t.Fatalf("Authenticate: unexpected session %+v", session)
	}

	second, _, err := svc.Register(ctx, "member@agency.com", "pw123456", "Member")
	if err != nil {
		t.Fatalf("Register second: %v", err)
	}
	if second.Role != models.RoleMember {
		t.Fatalf("Role: want=%q got=%q", models.RoleMember, second.Role)
	}

	if _, _, err := svc.Login(ctx, "owner@agency.com", "hunter22"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if _, _, err := svc.Login(ctx, "owner@agency.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login wrong password: want ErrInvalidCredentials got=%v", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@agency.com", "x"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("Login unknown user: want ErrInvalidCredentials got=%v", err)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()
	if _, _, err := svc.Register(ctx, "a@b.com", "pw", "A"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, _, err := svc.Register(ctx, "A@B.com", "pw", "A"); !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("Register duplicate: want ErrEmailTaken got=%v", err)
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()

	_, token, err := svc.Register(ctx, "a@b.com", "pw", "A")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	session, err := svc.Authenticate(ctx, token)
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if err := svc.Logout(ctx, session); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if err := svc.Logout(ctx, session); err != nil {
		t.Fatalf("Logout twice: %v", err)
	}
	if _, err := svc.Authenticate(ctx, token); !errors.Is(err, ErrTokenRevoked) {
		t.Fatalf("Authenticate after logout: want ErrTokenRevoked got=%v", err)
	}
}

func TestAuthenticateRejectsExpiredAndForeignTokens(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()
	user := &models.User{Email: "a@b.com", Role: models.RoleMember}
	user.ID = "user-1"

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := svc.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	svc.now = time.Now
	if _, err := svc.Authenticate(ctx, expired); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: want ErrInvalidToken got=%v", err)
	}

	other := NewAuthService(testutil.DB(t), "another-secret-0123456789abcdef0123", time.Hour)
	foreign, _, err := other.GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}
	if _, err := svc.Authenticate(ctx, foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign token: want ErrInvalidToken got=%v", err)
	}
}

func TestPurgeExpired(t *testing.T) {
	svc := newAuth(t)
	ctx := context.Background()
	_ = svc.Logout(ctx, &Session{TokenID: "old", ExpiresAt: time.Now().Add(-time.Hour)})
	_ = svc.Logout(ctx, &Session{TokenID: "new", ExpiresAt: time.Now().Add(time.Hour)})

	n, err := svc.PurgeExpired(ctx)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 1 {
		t.Fatalf("PurgeExpired: want=1 got=%d", n)
	}
}
