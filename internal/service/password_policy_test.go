package service

import (
	"errors"
	"testing"

	"github.com/techphorix/w-store-sub004/internal/config"
	"github.com/techphorix/w-store-sub004/internal/i18n"
)

func TestValidatePassword(t *testing.T) {
	policy := config.PasswordPolicyConfig{MinLength: 8, RequireUpper: true, RequireLower: true, RequireNumber: true}

	cases := map[string]string{
		"Ab1":       "error.password_min_length",
		"abcdefg1":  "error.password_require_upper",
		"ABCDEFG1":  "error.password_require_lower",
		"Abcdefgh":  "error.password_require_number",
		"Passw0rd!": "",
	}
	for password, wantKey := range cases {
		err := ValidatePassword(policy, password)
		if wantKey == "" {
			if err != nil {
				t.Fatalf("%q should pass, got %v", password, err)
			}
			continue
		}
		if !errors.Is(err, ErrWeakPassword) {
			t.Fatalf("%q want ErrWeakPassword got %v", password, err)
		}
		var policyErr PasswordPolicyError
		if !errors.As(err, &policyErr) || policyErr.Key() != wantKey {
			t.Fatalf("%q want key %s got %v", password, wantKey, err)
		}
	}

	if err := ValidatePassword(config.PasswordPolicyConfig{}, "x"); err != nil {
		t.Fatalf("disabled policy should accept anything, got %v", err)
	}
}

func TestPasswordPolicyErrorLocalized(t *testing.T) {
	err := ValidatePassword(config.PasswordPolicyConfig{MinLength: 12}, "short")
	var policyErr PasswordPolicyError
	if !errors.As(err, &policyErr) {
		t.Fatalf("want PasswordPolicyError got %v", err)
	}
	if got := policyErr.Localized(i18n.LocaleEN); got != "Password must be at least 12 characters" {
		t.Fatalf("unexpected message %q", got)
	}
}
