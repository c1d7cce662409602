// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig covers the HTTP listener, TLS, logging and CORS.
// Everything specific to the staff directory lives here and is passed to
// every lifecycle hook.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// BcryptCost is the work factor used when a user is first stored.
	// It is read once here and never consulted again at runtime.
	BcryptCost int

	// Access tokens. An empty secret disables them and GET /users/me.
	AccessTokenSecret string
	AccessTokenTTL    time.Duration

	// Audit logging destinations: "all", "db", "log" or "off"
	AuditLogAuth  string
	AuditLogAdmin string

	// Request timeouts (see internal/app/system/timeouts)
	TimeoutShort  time.Duration
	TimeoutMedium time.Duration
}
