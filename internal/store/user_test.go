package store

import (
	"testing"

	"kbpress/internal/models"
)

func TestUserStore_CreateAndAuthenticate(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "user-auth@test.local"
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE email = $1", email) })

	u, err := s.Create(email, "s3cret-pass", "Auth Tester", models.RoleEditor)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if u.Role != models.RoleEditor {
		t.Errorf("role = %q", u.Role)
	}
	if !u.Needs2FASetup() {
		t.Error("new user must need 2FA setup")
	}

	found, err := s.FindByEmail(email)
	if err != nil || found == nil {
		t.Fatalf("FindByEmail: %v, %v", found, err)
	}

	if !s.CheckPassword(found, "s3cret-pass") {
		t.Error("correct password rejected")
	}
	if s.CheckPassword(found, "wrong") {
		t.Error("wrong password accepted")
	}
}

func TestUserStore_TOTPLifecycle(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	email := "user-totp@test.local"
	t.Cleanup(func() { db.Exec("DELETE FROM users WHERE email = $1", email) })

	u, err := s.Create(email, "pass", "TOTP Tester", models.RoleAdmin)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := s.SetTOTPSecret(u.ID, "JBSWY3DPEHPK3PXP"); err != nil {
		t.Fatalf("SetTOTPSecret: %v", err)
	}
	if err := s.EnableTOTP(u.ID); err != nil {
		t.Fatalf("EnableTOTP: %v", err)
	}

	enabled, _ := s.FindByID(u.ID)
	if !enabled.TOTPEnabled || enabled.TOTPSecret == nil {
		t.Fatalf("totp not enabled: %+v", enabled)
	}
	if enabled.Needs2FASetup() {
		t.Error("enrolled user must not need setup")
	}

	if err := s.ResetTOTP(u.ID); err != nil {
		t.Fatalf("ResetTOTP: %v", err)
	}
	reset, _ := s.FindByID(u.ID)
	if reset.TOTPEnabled || reset.TOTPSecret != nil {
		t.Fatalf("totp not reset: %+v", reset)
	}
}

func TestUserStore_FindMissing(t *testing.T) {
	db := testDB(t)
	s := NewUserStore(db)

	u, err := s.FindByEmail("does-not-exist@test.local")
	if err != nil || u != nil {
		t.Fatalf("missing user: %v, %v", u, err)
	}
}
