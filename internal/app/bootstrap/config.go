// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/staffdir/internal/app/system/accesstoken"
	"github.com/dalemusser/staffdir/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// DefaultBcryptCost is the hashing work factor when none is configured.
const DefaultBcryptCost = 12

// appConfigKeys defines the configuration keys for the staff directory.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, bcrypt_cost, etc.
//   - Environment variables: STAFFDIR_MONGO_URI, STAFFDIR_BCRYPT_COST, etc.
//   - Command-line flags: --mongo_uri, --bcrypt_cost, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "staffdir", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},

	{Name: "bcrypt_cost", Default: DefaultBcryptCost, Desc: "bcrypt work factor for new passwords (4-31)"},

	{Name: "access_token_secret", Default: "", Desc: "HMAC secret for signed access tokens (32+ bytes); empty disables them"},
	{Name: "access_token_ttl", Default: "15m", Desc: "Lifetime of an access token"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	{Name: "timeout_short", Default: "5s", Desc: "Timeout for single-document reads and writes"},
	{Name: "timeout_medium", Default: "10s", Desc: "Timeout for user creation and schema setup"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// Precedence is flags > env > files > defaults. App keys use the
// STAFFDIR_ environment prefix.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "STAFFDIR", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		BcryptCost: appValues.Int("bcrypt_cost"),

		AccessTokenSecret: appValues.String("access_token_secret"),
		AccessTokenTTL:    appValues.Duration("access_token_ttl", 15*time.Minute),

		AuditLogAuth:  appValues.String("audit_log_auth"),
		AuditLogAdmin: appValues.String("audit_log_admin"),

		TimeoutShort:  appValues.Duration("timeout_short", 5*time.Second),
		TimeoutMedium: appValues.Duration("timeout_medium", 10*time.Second),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig rejects configuration that would fail later at runtime,
// such as a malformed MongoDB URI or a bcrypt cost bcrypt itself would
// refuse.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	if appCfg.MongoDatabase == "" {
		return fmt.Errorf("mongo_database must be set")
	}
	if appCfg.MongoMinPoolSize > appCfg.MongoMaxPoolSize {
		return fmt.Errorf("mongo_min_pool_size (%d) exceeds mongo_max_pool_size (%d)",
			appCfg.MongoMinPoolSize, appCfg.MongoMaxPoolSize)
	}
	if appCfg.BcryptCost < bcrypt.MinCost || appCfg.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d, got %d",
			bcrypt.MinCost, bcrypt.MaxCost, appCfg.BcryptCost)
	}
	if appCfg.AccessTokenSecret != "" {
		if len(appCfg.AccessTokenSecret) < accesstoken.MinSecretLength {
			return fmt.Errorf("access_token_secret: %w", accesstoken.ErrWeakSecret)
		}
		if appCfg.AccessTokenTTL <= 0 {
			return fmt.Errorf("access_token_ttl must be positive, got %s", appCfg.AccessTokenTTL)
		}
	}
	for key, mode := range map[string]string{
		"audit_log_auth":  appCfg.AuditLogAuth,
		"audit_log_admin": appCfg.AuditLogAdmin,
	} {
		if !auditlog.ValidMode(mode) {
			return fmt.Errorf("%s must be one of %v, got %q", key, auditlog.Modes, mode)
		}
	}
	if appCfg.BcryptCost < DefaultBcryptCost && coreCfg != nil && coreCfg.Env == "prod" {
		logger.Warn("bcrypt_cost is below the recommended default",
			zap.Int("bcrypt_cost", appCfg.BcryptCost),
			zap.Int("recommended", DefaultBcryptCost))
	}
	return nil
}
