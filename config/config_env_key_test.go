package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanonicalizeEnvKey_UsesExistingCamelCaseKeys(t *testing.T) {
	existing := map[string]any{
		"postgres": map[string]any{
			"sslMode": "disable",
			"master": map[string]any{
				"userName": "user",
			},
		},
		"identityPostgres": map[string]any{
			"sslMode": "disable",
		},
		"session": map[string]any{
			"accessTokenTTL": "1h",
		},
		"secretKey": map[string]any{
			"access": "",
		},
	}

	tests := []struct {
		envKey string
		want   string
	}{
		{envKey: "POSTGRES_SSLMODE", want: "postgres.sslMode"},
		{envKey: "POSTGRES_MASTER_USERNAME", want: "postgres.master.userName"},
		{envKey: "IDENTITYPOSTGRES_SSLMODE", want: "identityPostgres.sslMode"},
		{envKey: "SESSION_ACCESSTOKENTTL", want: "session.accessTokenTTL"},
		{envKey: "SECRETKEY_ACCESS", want: "secretKey.access"},
		{envKey: "NEW_FEATURE_FLAG", want: "new.feature.flag"},
	}

	for _, tt := range tests {
		t.Run(tt.envKey, func(t *testing.T) {
			assert.Equal(t, tt.want, canonicalizeEnvKey(tt.envKey, existing))
		})
	}
}

func TestApplyDefaults_FillsMissingSections(t *testing.T) {
	cfg := &Config{}

	applyDefaults(cfg)

	require.NotNil(t, cfg.Session)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.Lifetime)
	assert.Equal(t, cfg.Session.Lifetime, cfg.Session.AccessTokenTTL)
	assert.Equal(t, 24*time.Hour, cfg.Tokens.EmailVerificationTTL)
	assert.Equal(t, 10, cfg.Vendor.DefaultPageSize)
	assert.Equal(t, "noop", cfg.PubSub.Provider)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
	assert.Equal(t, defaultMaxRequestBodySize, cfg.HTTP.MaxRequestBodySize)
}

func TestBuildReplicasFromEnv(t *testing.T) {
	t.Setenv("IDENTITYPOSTGRES_REPLICAS_0_HOST", "replica-0")
	t.Setenv("IDENTITYPOSTGRES_REPLICAS_0_PORT", "5433")
	t.Setenv("IDENTITYPOSTGRES_REPLICAS_0_USERNAME", "reader")

	replicas := buildReplicasFromEnv("IDENTITYPOSTGRES")

	require.Len(t, replicas, 1)
	assert.Equal(t, "replica-0", replicas[0].Host)
	assert.Equal(t, "5433", replicas[0].Port)
	assert.Equal(t, "reader", replicas[0].UserName)
}
