// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"

	healthfeature "github.com/dalemusser/staffdir/internal/app/features/health"
	usersfeature "github.com/dalemusser/staffdir/internal/app/features/users"
	"github.com/dalemusser/staffdir/internal/app/store/audit"
	userstore "github.com/dalemusser/staffdir/internal/app/store/users"
	"github.com/dalemusser/staffdir/internal/app/system/accesstoken"
	"github.com/dalemusser/staffdir/internal/app/system/auditlog"
	"github.com/dalemusser/staffdir/internal/app/system/ratelimit"
	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// BuildHandler constructs the root HTTP handler for the staff directory.
//
// WAFFLE calls this after configuration, DB connection, schema setup and
// Startup have completed. The user store receives the bcrypt cost here,
// once, and keeps it for its lifetime.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	r := chi.NewRouter()

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	auditLog := auditlog.New(audit.New(deps.MongoDatabase), logger, auditlog.Config{
		Auth:  appCfg.AuditLogAuth,
		Admin: appCfg.AuditLogAdmin,
	})

	var tokens *accesstoken.Issuer
	if appCfg.AccessTokenSecret != "" {
		var err error
		tokens, err = accesstoken.NewIssuer(appCfg.AccessTokenSecret, appCfg.AccessTokenTTL)
		if err != nil {
			return nil, err
		}
	} else {
		logger.Info("access_token_secret not set; access tokens disabled")
	}

	store := userstore.New(deps.MongoDatabase, appCfg.BcryptCost)
	usersHandler := usersfeature.NewHandler(store, ratelimit.NewLoginLimiter(), auditLog, tokens, logger)
	r.Mount("/users", usersfeature.Routes(usersHandler))

	return r, nil
}
