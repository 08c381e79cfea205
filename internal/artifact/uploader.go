// Package artifact uploads build outputs to an S3-compatible object store.
//
// Two things flow through here: step artifact_paths globs, uploaded right
// after the owning step finishes, and whole-build log pushes driven by the
// push-logs command. Uploads are best-effort; a broken artifact store does
// not fail a build whose steps passed.
//
// Object keys take the form <slug>/<build-id>/<relative-path>.
//
// Credentials come from the environment variables named in
// [config.ArtifactConfig]; values are read at client construction and
// never logged.
package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"stepline/internal/build"
	"stepline/internal/config"
)

// ErrNoCredentials is a sentinel error indicating the credential
// environment variables are unset. Callers should surface the variable
// names, which are part of the error text.
var ErrNoCredentials = errors.New("artifact store credentials not set")

// ErrNotConfigured is a sentinel error indicating no artifact store
// endpoint/bucket is configured.
var ErrNotConfigured = errors.New("artifact store not configured")

// Uploader pushes files to the configured object store.
type Uploader struct {
	client *minio.Client
	bucket string
	slug   string
}

// NewUploader builds an [Uploader] from config, reading credentials from
// the environment variables the config names.
//
// Returns [ErrNotConfigured] when no endpoint/bucket is set and
// [ErrNoCredentials] when the credential variables are empty.
func NewUploader(cfg config.ArtifactConfig) (*Uploader, error) {
	if !cfg.Enabled() {
		return nil, ErrNotConfigured
	}

	accessKey := os.Getenv(cfg.AccessKeyEnv)
	secretKey := os.Getenv(cfg.SecretKeyEnv)
	if accessKey == "" || secretKey == "" {
		return nil, fmt.Errorf("%w (expected %s and %s)", ErrNoCredentials, cfg.AccessKeyEnv, cfg.SecretKeyEnv)
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create artifact client: %w", err)
	}

	return &Uploader{
		client: client,
		bucket: cfg.Bucket,
		slug:   cfg.Slug,
	}, nil
}

// ObjectKey builds the store key for a file within a build.
func ObjectKey(slug, buildID, relPath string) string {
	return path.Join(slug, buildID, filepath.ToSlash(relPath))
}

// UploadGlobs expands the glob patterns and uploads every matching
// regular file. It returns the object keys written. Patterns matching
// nothing are not an error; that is the normal case for a failed step
// that produced no artifacts.
func (u *Uploader) UploadGlobs(ctx context.Context, buildID string, patterns []string) ([]string, error) {
	var keys []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return keys, fmt.Errorf("bad artifact pattern %q: %w", pattern, err)
		}
		for _, match := range matches {
			info, err := os.Stat(match)
			if err != nil || info.IsDir() {
				continue
			}
			key, err := u.uploadFile(ctx, buildID, match, match)
			if err != nil {
				return keys, err
			}
			keys = append(keys, key)
		}
	}
	return keys, nil
}

// PushLogs uploads every recorded step log of a build.
func (u *Uploader) PushLogs(ctx context.Context, b *build.Build, buildDir string) ([]string, error) {
	var keys []string
	for _, step := range b.Steps {
		if step.LogPath == "" {
			continue
		}
		key, err := u.uploadFile(ctx, b.ID, filepath.Join(buildDir, step.LogPath), step.LogPath)
		if err != nil {
			return keys, err
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func (u *Uploader) uploadFile(ctx context.Context, buildID, localPath, relPath string) (string, error) {
	key := ObjectKey(u.slug, buildID, relPath)
	_, err := u.client.FPutObject(ctx, u.bucket, key, localPath, minio.PutObjectOptions{})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", localPath, err)
	}
	return key, nil
}
