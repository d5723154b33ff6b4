package validator

import "testing"

func TestValidateEmail(t *testing.T) {
	if err := ValidateEmail("budi@example.com"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, email := range []string{"", "not-an-email", "a@b", "a b@c.com"} {
		if err := ValidateEmail(email); err == nil {
			t.Errorf("expected error for %q", email)
		}
	}
}

func TestValidateUsername(t *testing.T) {
	if err := ValidateUsername("toko_maju_88"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, username := range []string{"", "ab", "has space", "has-dash!"} {
		if err := ValidateUsername(username); err == nil {
			t.Errorf("expected error for %q", username)
		}
	}
}

func TestValidateRole(t *testing.T) {
	if err := ValidateRole("buyer"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateRole("seller"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateRole("admin"); err == nil {
		t.Fatal("expected error for admin role")
	}
}

func TestValidateAccountNumber(t *testing.T) {
	if err := ValidateAccountNumber("1234567890"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, number := range []string{"", "12345", "12345678901234567890123", "12-34-56"} {
		if err := ValidateAccountNumber(number); err == nil {
			t.Errorf("expected error for %q", number)
		}
	}
}
