// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/waffle/pantry/storage"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	"github.com/dalemusser/stratasite/internal/app/system/events"
	"github.com/dalemusser/stratasite/internal/app/system/images"
	"github.com/dalemusser/stratasite/internal/app/system/querycache"
)

// DBDeps holds database and backend dependencies for this WAFFLE app.
//
// This struct is created in ConnectDB and passed to subsequent lifecycle
// hooks: EnsureSchema, Startup, BuildHandler, and Shutdown. Besides the raw
// MongoDB handles it carries the document gateway and the in-process pieces
// built on top of it, so every hook sees the same bus, cache, and uploader.
type DBDeps struct {
	// MongoDB client and database
	MongoClient   *mongo.Client
	MongoDatabase *mongo.Database

	// FileStorage for uploaded images (local disk or S3, per config)
	FileStorage storage.Store

	// Docs is the document gateway over MongoDB. All site content goes
	// through it so every mutation publishes a change event on Bus.
	Docs docstore.Store
	Bus  *events.Bus

	// Cache backs the entity stores' read paths.
	Cache *querycache.Cache

	// Uploader stores image files and records them for the orphan sweep.
	Uploader images.Uploader
}
