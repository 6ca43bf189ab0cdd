package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"todoTracker/internal/repository/user/inmemory"
	"todoTracker/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubIssuer struct {
	issued []string
	err    error
}

func (s *stubIssuer) Issue(email string) (string, time.Time, error) {
	if s.err != nil {
		return "", time.Time{}, s.err
	}
	s.issued = append(s.issued, email)
	return "token-for-" + email, time.Unix(1700000000, 0), nil
}

func newAuthService(issuer *stubIssuer) *service.AuthService {
	return service.NewAuthService(inmemory.NewUserStorage(), issuer).WithHashCost(bcrypt.MinCost)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	issuer := &stubIssuer{}
	svc := newAuthService(issuer)

	token, err := svc.Register(ctx, "  Alice@Example.com ", "secret1")
	require.NoError(t, err)
	assert.Equal(t, "token-for-alice@example.com", token.Token)
	assert.Equal(t, time.Unix(1700000000, 0), token.ExpiresAt)

	t.Run("same email in another case is taken", func(t *testing.T) {
		_, err := svc.Register(ctx, "ALICE@example.com", "other-pass")
		isBusinessError(t, err, service.CodeEmailTaken)
	})

	t.Run("issuer failure is not a business error", func(t *testing.T) {
		failing := newAuthService(&stubIssuer{err: errors.New("sign failed")})
		_, err := failing.Register(ctx, "bob@example.com", "secret1")
		require.Error(t, err)

		var businessErr *service.BusinessError
		assert.False(t, errors.As(err, &businessErr))
	})
}

func TestAuthService_Login(t *testing.T) {
	ctx := context.Background()
	issuer := &stubIssuer{}
	svc := newAuthService(issuer)

	_, err := svc.Register(ctx, "alice@example.com", "secret1")
	require.NoError(t, err)

	tests := []struct {
		name     string
		email    string
		password string
		wantErr  bool
	}{
		{name: "valid", email: "alice@example.com", password: "secret1"},
		{name: "email case ignored", email: "Alice@Example.COM", password: "secret1"},
		{name: "wrong password", email: "alice@example.com", password: "secret2", wantErr: true},
		{name: "unknown user", email: "nobody@example.com", password: "secret1", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, err := svc.Login(ctx, tt.email, tt.password)
			if tt.wantErr {
				isBusinessError(t, err, service.CodeInvalidCredentials)
				assert.Nil(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "token-for-alice@example.com", token.Token)
		})
	}
}
