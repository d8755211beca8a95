// internal/app/system/tasks/jobs.go
package tasks

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
	projectstore "github.com/dalemusser/stratasite/internal/app/store/projects"
	"github.com/dalemusser/stratasite/internal/app/system/images"
)

// Uploads younger than this are never swept. Keeps the sweep from racing a
// project save that uploaded its images but has not written its document yet.
const uploadSweepMinAge = 24 * time.Hour

// FileDeleter removes a stored file by path. Satisfied by the waffle storage
// backends.
type FileDeleter interface {
	Delete(ctx context.Context, path string) error
}

// OrphanUploadSweepJob creates a job that removes stored image files no
// project references anymore. A file becomes an orphan when a project save
// replaces its image, or when a save uploads files and then fails before its
// document is written.
func OrphanUploadSweepJob(docs docstore.Store, files FileDeleter, logger *zap.Logger) Job {
	return Job{
		Name:     "orphan-upload-sweep",
		Interval: 6 * time.Hour,
		Run: func(ctx context.Context) error {
			cutoff := time.Now().UTC().Add(-uploadSweepMinAge)
			uploads, err := docs.Query(ctx, images.UploadsCollection, []docstore.Condition{
				{Field: docstore.FieldCreatedAt, Op: "<", Value: cutoff},
			}, nil)
			if err != nil {
				return err
			}
			if len(uploads) == 0 {
				return nil
			}

			referenced, err := referencedImageURLs(ctx, docs)
			if err != nil {
				return err
			}

			var removed int
			for _, up := range uploads {
				url, _ := up["url"].(string)
				if url == "" || referenced[url] {
					continue
				}
				if path, ok := up["path"].(string); ok && path != "" {
					if err := files.Delete(ctx, path); err != nil {
						logger.Warn("failed to delete orphaned upload file",
							zap.String("path", path),
							zap.Error(err))
						continue
					}
				}
				if err := docs.Delete(ctx, images.UploadsCollection, up.ID()); err != nil {
					logger.Warn("failed to delete upload record",
						zap.String("id", up.ID()),
						zap.Error(err))
					continue
				}
				removed++
			}

			if removed > 0 {
				logger.Info("swept orphaned uploads",
					zap.Int("removed", removed),
					zap.Int("candidates", len(uploads)))
			}
			return nil
		},
	}
}

// referencedImageURLs collects every image URL the projects collection still
// points at: the main image and all gallery entries.
func referencedImageURLs(ctx context.Context, docs docstore.Store) (map[string]bool, error) {
	projectDocs, err := docs.GetAll(ctx, projectstore.Collection)
	if err != nil {
		return nil, err
	}

	referenced := make(map[string]bool)
	add := func(v any) {
		if url, ok := v.(string); ok && url != "" {
			referenced[url] = true
		}
	}
	for _, doc := range projectDocs {
		add(doc["image"])
		add(doc["imageUrl"])
		var gallery []any
		switch items := doc["gallery"].(type) {
		case []any:
			gallery = items
		case primitive.A:
			gallery = items
		case []docstore.Document:
			for _, item := range items {
				gallery = append(gallery, item)
			}
		}
		for _, item := range gallery {
			switch entry := item.(type) {
			case map[string]any:
				add(entry["url"])
			case bson.M:
				add(entry["url"])
			case docstore.Document:
				add(entry["url"])
			}
		}
	}
	return referenced, nil
}
