// Package images stores uploaded image files and hands back their public
// URLs. Every stored file is also recorded in the "uploads" collection so
// the background sweep can find files no project references anymore.
package images

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"

	"github.com/dalemusser/stratasite/internal/app/store/docstore"
)

// UploadsCollection is the gateway collection upload records are written to.
const UploadsCollection = "uploads"

// PendingUpload is one image file waiting to be stored.
type PendingUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Data        io.Reader
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	Upload(ctx context.Context, up *PendingUpload) (string, error)
}

// StorageUploader implements Uploader on a storage backend (local disk or
// S3, per config).
type StorageUploader struct {
	files storage.Store
	docs  docstore.Store
	now   func() time.Time
}

// NewStorageUploader returns an uploader writing files to files and upload
// records through docs.
func NewStorageUploader(files storage.Store, docs docstore.Store) *StorageUploader {
	return &StorageUploader{
		files: files,
		docs:  docs,
		now:   time.Now,
	}
}

// Upload writes the file under images/YYYY/MM/<unique name> and records it
// in the uploads collection. The sweep relies on that record, so if the
// record cannot be written the stored file is removed again.
func (u *StorageUploader) Upload(ctx context.Context, up *PendingUpload) (string, error) {
	now := u.now().UTC()
	ext := filepath.Ext(up.Filename)
	path := fmt.Sprintf("images/%04d/%02d/%s%s", now.Year(), int(now.Month()), uuid.NewString()[:8], ext)

	contentType := up.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	opts := &storage.PutOptions{
		ContentType: contentType,
	}
	if err := u.files.Put(ctx, path, up.Data, opts); err != nil {
		return "", fmt.Errorf("put %s: %w", path, err)
	}

	url := u.files.URL(path)

	_, err := u.docs.Add(ctx, UploadsCollection, docstore.Document{
		"url":         url,
		"path":        path,
		"filename":    up.Filename,
		"contentType": contentType,
		"size":        up.Size,
	})
	if err != nil {
		_ = u.files.Delete(ctx, path)
		return "", fmt.Errorf("record upload %s: %w", path, err)
	}

	return url, nil
}
