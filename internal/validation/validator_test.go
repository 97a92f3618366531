// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package validation

import (
	"strings"
	"testing"
)

type ruleForm struct {
	Name            string `validate:"required,max=200"`
	Severity        string `validate:"omitempty,oneof=low medium high critical"`
	CooldownMinutes int    `validate:"gte=0,lte=10080"`
}

type userForm struct {
	Email string `validate:"required,email"`
	Role  string `validate:"required,role"`
}

func TestValidateStructPasses(t *testing.T) {
	if err := ValidateStruct(&ruleForm{Name: "burst watch", Severity: "high"}); err != nil {
		t.Errorf("ValidateStruct() = %v, want nil", err)
	}
	if err := ValidateStruct(&ruleForm{Name: "no severity"}); err != nil {
		t.Errorf("omitempty severity should pass, got %v", err)
	}
}

func TestValidateStructFieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		input     interface{}
		wantField string
		wantTag   string
	}{
		{"missing name", &ruleForm{}, "Name", "required"},
		{"bad severity", &ruleForm{Name: "x", Severity: "urgent"}, "Severity", "oneof"},
		{"cooldown negative", &ruleForm{Name: "x", CooldownMinutes: -1}, "CooldownMinutes", "gte"},
		{"cooldown too large", &ruleForm{Name: "x", CooldownMinutes: 99999}, "CooldownMinutes", "lte"},
		{"bad email", &userForm{Email: "nope", Role: "ADMIN"}, "Email", "email"},
		{"unknown role", &userForm{Email: "a@b.example", Role: "SUPERUSER"}, "Role", "role"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(tt.input)
			if err == nil {
				t.Fatal("expected validation failure")
			}
			fields := err.Fields()
			if len(fields) != 1 {
				t.Fatalf("got %d field errors, want 1: %v", len(fields), err)
			}
			if fields[0].Field != tt.wantField || fields[0].Tag != tt.wantTag {
				t.Errorf("field=%s tag=%s, want %s/%s", fields[0].Field, fields[0].Tag, tt.wantField, tt.wantTag)
			}
		})
	}
}

func TestValidateStructRoleCaseInsensitive(t *testing.T) {
	if err := ValidateStruct(&userForm{Email: "a@b.example", Role: "editor"}); err != nil {
		t.Errorf("lowercase role should validate, got %v", err)
	}
}

func TestRequestErrorDetails(t *testing.T) {
	t.Run("single field", func(t *testing.T) {
		err := ValidateStruct(&ruleForm{})
		details := err.Details()
		if details["field"] != "Name" || details["tag"] != "required" {
			t.Errorf("details = %v", details)
		}
	})

	t.Run("multiple fields", func(t *testing.T) {
		err := ValidateStruct(&userForm{})
		details := err.Details()
		fields, ok := details["fields"].([]map[string]interface{})
		if !ok {
			t.Fatalf("details[fields] = %T", details["fields"])
		}
		if len(fields) != 2 {
			t.Errorf("got %d field entries, want 2", len(fields))
		}
	})
}

func TestErrorMessages(t *testing.T) {
	err := ValidateStruct(&userForm{Email: "nope", Role: "ADMIN"})
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "valid email address") {
		t.Errorf("Error() = %q", err.Error())
	}

	err = ValidateStruct(&userForm{Email: "a@b.example", Role: "SUPERUSER"})
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "VIEWER, EDITOR, ADMIN") {
		t.Errorf("Error() = %q", err.Error())
	}
}
