// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/communityhub/internal/app/system/ratelimit"
	"github.com/dalemusser/communityhub/internal/app/system/workers"
	"go.mongodb.org/mongo-driver/mongo"
)

// DBDeps holds database/back-end dependencies for the app.
type DBDeps struct {
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// Services is allocated by ConnectDB and filled in by Startup, so
	// BuildHandler and Shutdown see what Startup created.
	Services *Services
}

// Services are process-wide helpers with background goroutines.
type Services struct {
	Limiter *ratelimit.AuthLimiter
	Workers *workers.Runner
}
