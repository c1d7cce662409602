// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/staffdir/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup applies the configured request timeouts. It runs after the
// database is connected and the schema is in place.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	timeouts.Configure(timeouts.Config{
		Short:  appCfg.TimeoutShort,
		Medium: appCfg.TimeoutMedium,
	})
	cfg := timeouts.Current()

	logger.Info("timeouts configured",
		zap.Duration("short", cfg.Short),
		zap.Duration("medium", cfg.Medium),
		zap.Int("bcrypt_cost", appCfg.BcryptCost))
	return nil
}
