package dto

import (
	"strings"
	"testing"

	"github.com/gin-gonic/gin/binding"
)

func TestRegisterRequestBinding(t *testing.T) {
	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr string
	}{
		{
			name: "valid",
			req: RegisterRequest{
				FullName: "Alice Example",
				Email:    "alice@example.com",
				Username: "alice",
				Password: "s3cret-password",
			},
		},
		{
			name: "bad email",
			req: RegisterRequest{
				FullName: "Alice Example",
				Email:    "not-an-email",
				Username: "alice",
				Password: "s3cret-password",
			},
			wantErr: "email",
		},
		{
			name: "username with symbols",
			req: RegisterRequest{
				FullName: "Alice Example",
				Email:    "alice@example.com",
				Username: "al!ce",
				Password: "s3cret-password",
			},
			wantErr: "alphanum",
		},
		{
			name: "password without digits",
			req: RegisterRequest{
				FullName: "Alice Example",
				Email:    "alice@example.com",
				Username: "alice",
				Password: "onlyletterspassword",
			},
			wantErr: "password",
		},
		{
			name: "short password",
			req: RegisterRequest{
				FullName: "Alice Example",
				Email:    "alice@example.com",
				Username: "alice",
				Password: "a1",
			},
			wantErr: "min",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := binding.Validator.ValidateStruct(&tt.req)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("expected valid request, got %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected a validation error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error mentioning %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidationMessages(t *testing.T) {
	err := binding.Validator.ValidateStruct(&RegisterRequest{
		FullName: "Alice Example",
		Email:    "not-an-email",
		Username: "alice",
		Password: "s3cret-password",
	})
	if err == nil {
		t.Fatal("expected a validation error")
	}

	messages := ValidationMessages(err)
	if len(messages) != 1 {
		t.Fatalf("expected one message, got %d: %v", len(messages), messages)
	}
	if !strings.Contains(messages[0], "valid email") {
		t.Fatalf("unexpected message: %q", messages[0])
	}
}
