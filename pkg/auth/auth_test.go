package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookdesk/library-service/pkg/auth"
)

func TestTokenRoundTrip(t *testing.T) {
	t.Parallel()
	cfg := auth.JWT{Secret: "test-secret", TTL: time.Hour}

	token, expiresAt, err := auth.NewToken("staff-1", cfg)
	require.NoError(t, err)
	require.WithinDuration(t, time.Now().Add(cfg.TTL), expiresAt, time.Minute)

	claims, err := auth.ParseToken(token, []byte(cfg.Secret))
	require.NoError(t, err)
	require.Equal(t, "staff-1", claims.StaffID)
	require.Equal(t, "staff-1", claims.Subject)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()
	token, _, err := auth.NewToken("staff-1", auth.JWT{Secret: "one", TTL: time.Hour})
	require.NoError(t, err)

	_, err = auth.ParseToken(token, []byte("two"))
	require.Error(t, err)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()
	token, _, err := auth.NewToken("staff-1", auth.JWT{Secret: "one", TTL: -time.Minute})
	require.NoError(t, err)

	_, err = auth.ParseToken(token, []byte("one"))
	require.Error(t, err)
}

func TestStaffContext(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	require.Empty(t, auth.StaffID(ctx))

	ctx = auth.SetStaffContext(ctx, "staff-42")
	require.Equal(t, "staff-42", auth.StaffID(ctx))
}
