package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateUserRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreateUserRequest
		wantErr bool
	}{
		{
			name: "valid",
			req:  CreateUserRequest{Name: "Rita", Email: "rita@example.com", Password: "correct-horse", Role: RoleRecruiter},
		},
		{
			name:    "missing name",
			req:     CreateUserRequest{Email: "rita@example.com", Password: "correct-horse", Role: RoleRecruiter},
			wantErr: true,
		},
		{
			name:    "bad email",
			req:     CreateUserRequest{Name: "Rita", Email: "rita", Password: "correct-horse", Role: RoleRecruiter},
			wantErr: true,
		},
		{
			name:    "short password",
			req:     CreateUserRequest{Name: "Rita", Email: "rita@example.com", Password: "short", Role: RoleRecruiter},
			wantErr: true,
		},
		{
			name:    "unknown role",
			req:     CreateUserRequest{Name: "Rita", Email: "rita@example.com", Password: "correct-horse", Role: "OWNER"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	assert.NoError(t, (&LoginRequest{Email: "ivan@example.com", Password: "x"}).Validate())
	assert.Error(t, (&LoginRequest{Email: "ivan@example.com"}).Validate())
	assert.Error(t, (&LoginRequest{Email: "not-an-email", Password: "x"}).Validate())
}
