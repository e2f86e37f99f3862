package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/pkg/errors"
	"github.com/slighter12/go-lib/database/postgres"
)

const (
	defaultPath                   = "."
	defaultMaxRequestBodySize     = "100KB"
	defaultSessionLifetime        = 7 * 24 * time.Hour
	defaultSessionListConcurrency = 8
)

type Config struct {
	Env struct {
		Env         string `json:"env" yaml:"env"`
		ServiceName string `json:"serviceName" yaml:"serviceName"`
		Debug       bool   `json:"debug" yaml:"debug"`
		Log         Log    `json:"log" yaml:"log"`
	} `json:"env" yaml:"env"`

	HTTP struct {
		Port               int      `json:"port" yaml:"port"`
		MaxRequestBodySize string   `json:"maxRequestBodySize" yaml:"maxRequestBodySize"`
		AllowOrigins       []string `json:"allowOrigins" yaml:"allowOrigins"`
		Timeouts           struct {
			ReadTimeout       time.Duration `json:"readTimeout" yaml:"readTimeout"`
			ReadHeaderTimeout time.Duration `json:"readHeaderTimeout" yaml:"readHeaderTimeout"`
			WriteTimeout      time.Duration `json:"writeTimeout" yaml:"writeTimeout"`
			IdleTimeout       time.Duration `json:"idleTimeout" yaml:"idleTimeout"`
		} `json:"timeouts" yaml:"timeouts"`
	} `json:"http" yaml:"http"`

	// Postgres is the local user record store.
	Postgres *postgres.DBConn `json:"postgres" yaml:"postgres" mapstructure:"postgres"`

	// IdentityPostgres is the identity provider's own store; it never shares transactions with Postgres.
	IdentityPostgres *postgres.DBConn `json:"identityPostgres" yaml:"identityPostgres" mapstructure:"identityPostgres"`

	SecretKey struct {
		Access string `json:"access" yaml:"access"`
	} `json:"secretKey" yaml:"secretKey"`

	Session *SessionConfig `json:"session" yaml:"session"`

	GoogleOAuth *GoogleOAuthConfig `json:"googleOAuth" yaml:"googleOAuth"`

	Auth *AuthConfig `json:"auth" yaml:"auth"`

	PasswordStrength *PasswordStrengthConfig `json:"passwordStrength" yaml:"passwordStrength"`

	Tokens *TokensConfig `json:"tokens" yaml:"tokens"`

	Frontend *FrontendConfig `json:"frontend" yaml:"frontend"`

	Vendor *VendorConfig `json:"vendor" yaml:"vendor"`

	RateLimit *RateLimitConfig `json:"rateLimit" yaml:"rateLimit"`

	RoleCache *RoleCacheConfig `json:"roleCache" yaml:"roleCache"`

	Bootstrap *BootstrapConfig `json:"bootstrap" yaml:"bootstrap"`

	Metrics *MetricsConfig `json:"metrics" yaml:"metrics"`

	// Firebase configuration for admin push notifications
	Firebase *FirebaseConfig `json:"firebase" yaml:"firebase"`

	// Mail configuration for the mail worker
	Mail *MailConfig `json:"mail" yaml:"mail"`

	// PubSub configuration for notification events
	PubSub *PubSubConfig `json:"pubsub" yaml:"pubsub"`
}

type GoogleOAuthConfig struct {
	ClientID string `json:"clientId" yaml:"clientId"`
}

// SessionConfig controls identity provider sessions.
type SessionConfig struct {
	// Lifetime of a session handle; the default matches the provider's 7 days.
	Lifetime time.Duration `json:"lifetime" yaml:"lifetime"`
	// AccessTokenTTL bounds each signed access token.
	AccessTokenTTL time.Duration `json:"accessTokenTTL" yaml:"accessTokenTTL"`
	// ListConcurrency bounds the per-handle fan-out when listing sessions.
	ListConcurrency int `json:"listConcurrency" yaml:"listConcurrency"`
}

// AuthConfig defines authentication-related configuration
type AuthConfig struct {
	BcryptCost       int           `json:"bcryptCost" yaml:"bcryptCost"`
	MaxLoginAttempts int           `json:"maxLoginAttempts" yaml:"maxLoginAttempts"`
	LockDuration     time.Duration `json:"lockDuration" yaml:"lockDuration"`
}

// PasswordStrengthConfig defines password strength requirements
type PasswordStrengthConfig struct {
	MinLength        int  `json:"minLength" yaml:"minLength"`
	RequireUppercase bool `json:"requireUppercase" yaml:"requireUppercase"`
	RequireLowercase bool `json:"requireLowercase" yaml:"requireLowercase"`
	RequireNumbers   bool `json:"requireNumbers" yaml:"requireNumbers"`
	RequireSpecial   bool `json:"requireSpecial" yaml:"requireSpecial"`
	MaxLength        int  `json:"maxLength" yaml:"maxLength"`
}

// TokensConfig sets verification and reset token lifetimes.
type TokensConfig struct {
	EmailVerificationTTL time.Duration `json:"emailVerificationTTL" yaml:"emailVerificationTTL"`
	PasswordResetTTL     time.Duration `json:"passwordResetTTL" yaml:"passwordResetTTL"`
}

// FrontendConfig is used to build links placed in emails and redirects.
type FrontendConfig struct {
	BaseURL           string `json:"baseUrl" yaml:"baseUrl"`
	VerifyEmailPath   string `json:"verifyEmailPath" yaml:"verifyEmailPath"`
	VerifySuccessPath string `json:"verifySuccessPath" yaml:"verifySuccessPath"`
	VerifyErrorPath   string `json:"verifyErrorPath" yaml:"verifyErrorPath"`
	ResetPasswordPath string `json:"resetPasswordPath" yaml:"resetPasswordPath"`
}

type VendorConfig struct {
	DefaultPageSize int `json:"defaultPageSize" yaml:"defaultPageSize"`
	MaxPageSize     int `json:"maxPageSize" yaml:"maxPageSize"`
}

// RateLimitConfig throttles password-reset requests per client IP.
type RateLimitConfig struct {
	PasswordResetPerSecond float64 `json:"passwordResetPerSecond" yaml:"passwordResetPerSecond"`
	PasswordResetBurst     int     `json:"passwordResetBurst" yaml:"passwordResetBurst"`
}

type RoleCacheConfig struct {
	TTL time.Duration `json:"ttl" yaml:"ttl"`
}

// BootstrapConfig seeds the first super admin.
type BootstrapConfig struct {
	SuperAdminEmail    string `json:"superAdminEmail" yaml:"superAdminEmail"`
	SuperAdminPassword string `json:"superAdminPassword" yaml:"superAdminPassword"`
}

type MetricsConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled"`
	Path    string `json:"path" yaml:"path"`
}

type Log struct {
	Pretty bool   `json:"pretty" yaml:"pretty"`
	Level  string `json:"level" yaml:"level"`
}

// FirebaseConfig defines Firebase configuration for push notifications
type FirebaseConfig struct {
	ProjectID       string `json:"projectId" yaml:"projectId"`
	CredentialsPath string `json:"credentialsPath" yaml:"credentialsPath"`
	AdminTopic      string `json:"adminTopic" yaml:"adminTopic"`
}

// MailConfig is the SMTP relay used by the mail worker.
type MailConfig struct {
	Host     string `json:"host" yaml:"host"`
	Port     int    `json:"port" yaml:"port"`
	Username string `json:"username" yaml:"username"`
	Password string `json:"password" yaml:"password"`
	From     string `json:"from" yaml:"from"`
}

// PubSubConfig defines Pub/Sub configuration for event publishing
type PubSubConfig struct {
	// Provider type: "noop", "local" for local HTTP or "google" for Google Pub/Sub
	Provider string `json:"provider" yaml:"provider"`

	// Google Cloud project ID (for google provider)
	ProjectID string `json:"projectId" yaml:"projectId"`

	// Pub/Sub topic ID (for google provider)
	TopicID string `json:"topicId" yaml:"topicId"`

	// Local HTTP endpoint for development (for local provider)
	LocalEndpoint string `json:"localEndpoint" yaml:"localEndpoint"`

	// PushAudience is the expected audience of push OIDC tokens (worker side)
	PushAudience string `json:"pushAudience" yaml:"pushAudience"`
}

// LoadWithEnv loads .yaml files through koanf.
func LoadWithEnv[T any](currEnv string, configPath ...string) (*T, error) {
	cfg := new(T)
	koanfInstance := koanf.New(".")

	// Build list of paths to search for config file
	searchPaths := []string{defaultPath}
	if len(configPath) != 0 {
		pwd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "os.Getwd")
		}
		for _, path := range configPath {
			abs := filepath.Join(pwd, path)
			searchPaths = append(searchPaths, abs)
		}
	}

	// Try to find and load the config file
	var configFile string
	var found bool
	for _, path := range searchPaths {
		candidate := filepath.Join(path, currEnv+".yaml")
		if _, err := os.Stat(candidate); err == nil {
			configFile = candidate
			found = true

			break
		}
	}

	if !found {
		return nil, errors.Errorf("config file %s.yaml not found in any search path", currEnv)
	}

	// Load YAML config file
	if err := koanfInstance.Load(file.Provider(configFile), yaml.Parser()); err != nil {
		return nil, errors.Wrapf(err, "read %s config failed", currEnv)
	}

	existingConfigMap := koanfInstance.Raw()

	// Load environment variables
	if err := koanfInstance.Load(env.Provider(".", env.Opt{
		TransformFunc: func(k, v string) (string, any) {
			// Convert ENV_VAR_NAME to path and align each segment with existing YAML keys.
			// Example: POSTGRES_SSLMODE -> postgres.sslMode (not postgres.sslmode)
			key := canonicalizeEnvKey(k, existingConfigMap)

			return key, v
		},
	}), nil); err != nil {
		return nil, errors.Wrap(err, "load env variables failed")
	}

	// Unmarshal into the config struct (case-insensitive to match env vars)
	if err := koanfInstance.UnmarshalWithConf("", cfg, koanf.UnmarshalConf{
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           cfg,
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
			),
			MatchName: func(mapKey, fieldName string) bool {
				// Case-insensitive matching for env var overrides
				return strings.EqualFold(mapKey, fieldName)
			},
		},
	}); err != nil {
		return nil, errors.Wrapf(err, "unmarshal %s config failed", currEnv)
	}

	return cfg, nil
}

func New() (*Config, error) {
	cfg, err := LoadWithEnv[Config]("config", "config", "../config", "../../config")
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)

	// Build replicas from environment variables (POSTGRES_REPLICAS_0_HOST, POSTGRES_REPLICAS_0_PORT, etc.)
	if cfg.Postgres != nil {
		cfg.Postgres.Replicas = buildReplicasFromEnv("POSTGRES")
	}
	if cfg.IdentityPostgres != nil {
		cfg.IdentityPostgres.Replicas = buildReplicasFromEnv("IDENTITYPOSTGRES")
	}

	return cfg, nil
}

// applyDefaults fills optional sections so callers never nil-check them.
func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.HTTP.MaxRequestBodySize) == "" {
		cfg.HTTP.MaxRequestBodySize = defaultMaxRequestBodySize
	}
	if cfg.Session == nil {
		cfg.Session = &SessionConfig{}
	}
	if cfg.Session.Lifetime <= 0 {
		cfg.Session.Lifetime = defaultSessionLifetime
	}
	if cfg.Session.AccessTokenTTL <= 0 {
		cfg.Session.AccessTokenTTL = cfg.Session.Lifetime
	}
	if cfg.Session.ListConcurrency <= 0 {
		cfg.Session.ListConcurrency = defaultSessionListConcurrency
	}
	if cfg.Auth == nil {
		cfg.Auth = &AuthConfig{}
	}
	if cfg.PasswordStrength == nil {
		cfg.PasswordStrength = &PasswordStrengthConfig{MinLength: 8, RequireLowercase: true, RequireNumbers: true, MaxLength: 128}
	}
	if cfg.Tokens == nil {
		cfg.Tokens = &TokensConfig{}
	}
	if cfg.Tokens.EmailVerificationTTL <= 0 {
		cfg.Tokens.EmailVerificationTTL = 24 * time.Hour
	}
	if cfg.Tokens.PasswordResetTTL <= 0 {
		cfg.Tokens.PasswordResetTTL = time.Hour
	}
	if cfg.Frontend == nil {
		cfg.Frontend = &FrontendConfig{}
	}
	if cfg.Frontend.VerifyEmailPath == "" {
		cfg.Frontend.VerifyEmailPath = "/auth/verify-email"
	}
	if cfg.Frontend.VerifySuccessPath == "" {
		cfg.Frontend.VerifySuccessPath = "/auth/email-verified"
	}
	if cfg.Frontend.VerifyErrorPath == "" {
		cfg.Frontend.VerifyErrorPath = "/auth/verify-email-error"
	}
	if cfg.Frontend.ResetPasswordPath == "" {
		cfg.Frontend.ResetPasswordPath = "/auth/reset-password"
	}
	if cfg.Vendor == nil {
		cfg.Vendor = &VendorConfig{}
	}
	if cfg.Vendor.DefaultPageSize <= 0 {
		cfg.Vendor.DefaultPageSize = 10
	}
	if cfg.Vendor.MaxPageSize <= 0 {
		cfg.Vendor.MaxPageSize = 100
	}
	if cfg.RateLimit == nil {
		cfg.RateLimit = &RateLimitConfig{PasswordResetPerSecond: 0.2, PasswordResetBurst: 5}
	}
	if cfg.RoleCache == nil {
		cfg.RoleCache = &RoleCacheConfig{TTL: 5 * time.Minute}
	}
	if cfg.Bootstrap == nil {
		cfg.Bootstrap = &BootstrapConfig{}
	}
	if cfg.Metrics == nil {
		cfg.Metrics = &MetricsConfig{}
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = "/metrics"
	}
	if cfg.Firebase == nil {
		cfg.Firebase = &FirebaseConfig{}
	}
	if cfg.Mail == nil {
		cfg.Mail = &MailConfig{}
	}
	if cfg.PubSub == nil {
		cfg.PubSub = &PubSubConfig{Provider: "noop"}
	}
}

func canonicalizeEnvKey(rawKey string, existing map[string]any) string {
	segments := strings.Split(strings.ToLower(rawKey), "_")
	canonical := make([]string, 0, len(segments))
	current := existing

	for _, segment := range segments {
		if segment == "" {
			continue
		}

		if matched, next, ok := findExistingSegment(current, segment); ok {
			canonical = append(canonical, matched)
			current = next
		} else {
			canonical = append(canonical, segment)
			current = nil
		}
	}

	return strings.Join(canonical, ".")
}

func findExistingSegment(current map[string]any, segment string) (matched string, next map[string]any, ok bool) {
	if len(current) == 0 {
		return "", nil, false
	}

	needle := normalizeToken(segment)
	for key, value := range current {
		if normalizeToken(key) != needle {
			continue
		}

		child, _ := value.(map[string]any)

		return key, child, true
	}

	return "", nil, false
}

func normalizeToken(s string) string {
	var normalized strings.Builder
	normalized.Grow(len(s))

	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			continue
		}
		normalized.WriteRune(unicode.ToLower(r))
	}

	return normalized.String()
}

// buildReplicasFromEnv builds the replicas slice from environment variables.
// Format: {prefix}_REPLICAS_{index}_{HOST|PORT|USERNAME|PASSWORD}, e.g. POSTGRES_REPLICAS_0_HOST.
func buildReplicasFromEnv(prefix string) []postgres.ConnectionConfig {
	var replicas []postgres.ConnectionConfig

	for i := 0; ; i++ {
		key := prefix + "_REPLICAS_" + strconv.Itoa(i) + "_"

		host := os.Getenv(key + "HOST")
		port := os.Getenv(key + "PORT")
		if host == "" || port == "" {
			break
		}

		replicas = append(replicas, postgres.ConnectionConfig{
			Host:     host,
			Port:     port,
			UserName: os.Getenv(key + "USERNAME"),
			Password: os.Getenv(key + "PASSWORD"),
		})
	}

	return replicas
}
