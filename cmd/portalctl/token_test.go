package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	jwttoken "empverify/internal/jwt_token"
)

func TestTokenCmd_IssuesValidatableToken(t *testing.T) {
	t.Setenv("JWT_SIGNING_KEY", "portalctl-test-key")
	t.Setenv("JWT_ISSUER", "empverify")
	t.Setenv("JWT_AUDIENCE", "empverify-api")

	var out bytes.Buffer
	cmd := tokenCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--subject", "hr-7", "--role", "hr_admin", "--ttl", "5m"})
	require.NoError(t, cmd.Execute())

	svc := jwttoken.NewJWTService("portalctl-test-key", "empverify", "empverify-api")
	claims, err := svc.ValidateToken(strings.TrimSpace(out.String()))
	require.NoError(t, err)
	assert.Equal(t, "hr-7", claims.Subject)
	assert.Equal(t, "hr_admin", claims.Role)
}

func TestTokenCmd_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "missing subject", args: []string{"--role", "verifier"}, want: "--subject is required"},
		{name: "unknown role", args: []string{"--subject", "v-1", "--role", "auditor"}, want: "--role must be"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd := tokenCmd()
			cmd.SetOut(&bytes.Buffer{})
			cmd.SetErr(&bytes.Buffer{})
			cmd.SetArgs(tt.args)
			err := cmd.Execute()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
