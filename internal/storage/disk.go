package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/uniuri"
)

// connectionProbePath is the fixed object path TestConnection writes to.
const connectionProbePath = ".crewdesk-connection-test"

// Disk is a handle to one storage backend.
type Disk interface {
	// Name returns the disk name (public, s3 or wasabi).
	Name() string
	// Put stores data under the given path, overwriting an existing object.
	Put(ctx context.Context, objectPath string, data []byte) error
	// Get reads the object at the given path.
	Get(ctx context.Context, objectPath string) ([]byte, error)
	// Delete removes the object at the given path.
	Delete(ctx context.Context, objectPath string) error
	// URL returns the public URL for the given path.
	URL(objectPath string) string
}

// newDisk constructs the disk named by cfg.Disk.
func newDisk(cfg Config, local config.Storage) (Disk, error) {
	switch cfg.Disk {
	case DiskS3:
		return newObjectDisk(objectDiskParams{
			name:     DiskS3,
			endpoint: cfg.S3Endpoint(),
			key:      cfg.S3.Key,
			secret:   cfg.S3.Secret,
			bucket:   cfg.S3.Bucket,
			region:   cfg.S3.Region,
			baseURL:  cfg.S3.URL,
		})
	case DiskWasabi:
		return newObjectDisk(objectDiskParams{
			name:     DiskWasabi,
			endpoint: cfg.WasabiEndpoint(),
			key:      cfg.Wasabi.Key,
			secret:   cfg.Wasabi.Secret,
			bucket:   cfg.Wasabi.Bucket,
			region:   cfg.Wasabi.Region,
			baseURL:  cfg.Wasabi.URL,
			root:     cfg.Wasabi.Root,
		})
	default:
		return newLocalDisk(local), nil
	}
}

// localDisk stores files on the local filesystem under a public root.
type localDisk struct {
	root    string
	baseURL string
}

func newLocalDisk(cfg config.Storage) *localDisk {
	root := cfg.PublicPath
	if root == "" {
		root = "./storage/public"
	}

	return &localDisk{
		root:    root,
		baseURL: cfg.PublicURL,
	}
}

func (d *localDisk) Name() string { return DiskPublic }

func (d *localDisk) Put(_ context.Context, objectPath string, data []byte) error {
	full := filepath.Join(d.root, filepath.FromSlash(objectPath))

	if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
		return errors.Wrap(err, "failed to create storage directory")
	}

	return errors.Wrap(os.WriteFile(full, data, 0o640), "failed to write file")
}

func (d *localDisk) Get(_ context.Context, objectPath string) ([]byte, error) {
	data, err := os.ReadFile(filepath.Join(d.root, filepath.FromSlash(objectPath)))

	return data, errors.Wrap(err, "failed to read file")
}

func (d *localDisk) Delete(_ context.Context, objectPath string) error {
	return errors.Wrap(
		os.Remove(filepath.Join(d.root, filepath.FromSlash(objectPath))),
		"failed to delete file",
	)
}

func (d *localDisk) URL(objectPath string) string {
	return strings.TrimSuffix(d.baseURL, "/") + "/" + strings.TrimPrefix(objectPath, "/")
}

// objectDisk talks to an S3-compatible backend (AWS S3 or Wasabi).
type objectDisk struct {
	name    string
	client  *minio.Client
	bucket  string
	baseURL string
	root    string
	secure  bool
}

type objectDiskParams struct {
	name     string
	endpoint string
	key      string
	secret   string
	bucket   string
	region   string
	baseURL  string
	root     string
}

// defaultAWSEndpoint is used when the configured endpoint was cleared.
const defaultAWSEndpoint = "s3.amazonaws.com"

func newObjectDisk(p objectDiskParams) (*objectDisk, error) {
	if p.bucket == "" {
		return nil, errors.New("storage bucket is not configured")
	}

	endpoint := p.endpoint
	if endpoint == "" {
		endpoint = defaultAWSEndpoint
	}

	host, secure := splitEndpoint(endpoint)

	client, err := minio.New(host, &minio.Options{
		Creds:  credentials.NewStaticV4(p.key, p.secret, ""),
		Secure: secure,
		Region: p.region,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create storage client")
	}

	return &objectDisk{
		name:    p.name,
		client:  client,
		bucket:  p.bucket,
		baseURL: p.baseURL,
		root:    p.root,
		secure:  secure,
	}, nil
}

// splitEndpoint strips the scheme from an endpoint URL; a plain host is
// treated as https.
func splitEndpoint(endpoint string) (host string, secure bool) {
	switch {
	case strings.HasPrefix(endpoint, "https://"):
		return strings.TrimPrefix(endpoint, "https://"), true
	case strings.HasPrefix(endpoint, "http://"):
		return strings.TrimPrefix(endpoint, "http://"), false
	default:
		return endpoint, true
	}
}

func (d *objectDisk) objectName(objectPath string) string {
	if d.root == "" {
		return strings.TrimPrefix(objectPath, "/")
	}

	return path.Join(d.root, strings.TrimPrefix(objectPath, "/"))
}

func (d *objectDisk) Name() string { return d.name }

func (d *objectDisk) Put(ctx context.Context, objectPath string, data []byte) error {
	_, err := d.client.PutObject(
		ctx,
		d.bucket,
		d.objectName(objectPath),
		bytes.NewReader(data),
		int64(len(data)),
		minio.PutObjectOptions{},
	)

	return errors.Wrap(err, "failed to put object")
}

func (d *objectDisk) Get(ctx context.Context, objectPath string) ([]byte, error) {
	obj, err := d.client.GetObject(ctx, d.bucket, d.objectName(objectPath), minio.GetObjectOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "failed to get object")
	}
	defer obj.Close() //nolint:errcheck

	data, err := io.ReadAll(obj)

	return data, errors.Wrap(err, "failed to read object")
}

func (d *objectDisk) Delete(ctx context.Context, objectPath string) error {
	return errors.Wrap(
		d.client.RemoveObject(ctx, d.bucket, d.objectName(objectPath), minio.RemoveObjectOptions{}),
		"failed to remove object",
	)
}

func (d *objectDisk) URL(objectPath string) string {
	if d.baseURL != "" {
		return strings.TrimSuffix(d.baseURL, "/") + "/" + strings.TrimPrefix(objectPath, "/")
	}

	scheme := "https"
	if !d.secure {
		scheme = "http"
	}

	return fmt.Sprintf("%s://%s/%s/%s",
		scheme, d.client.EndpointURL().Host, d.bucket, d.objectName(objectPath))
}

// TestConnection writes a probe value to a fixed path on the disk, reads it
// back, deletes it and reports whether the round trip returned exactly what
// was written. Any error during write, read or delete yields false; this is a
// connectivity smoke test, not a correctness guarantee.
func TestConnection(ctx context.Context, d Disk) bool {
	probe := []byte(fmt.Sprintf("crewdesk-probe %d %s", time.Now().UnixNano(), uniuri.New()))

	if err := d.Put(ctx, connectionProbePath, probe); err != nil {
		log.Warn().Err(err).Str("disk", d.Name()).Msg("storage probe write failed")
		return false
	}

	readBack, err := d.Get(ctx, connectionProbePath)
	if err != nil {
		log.Warn().Err(err).Str("disk", d.Name()).Msg("storage probe read failed")
		return false
	}

	if err := d.Delete(ctx, connectionProbePath); err != nil {
		log.Warn().Err(err).Str("disk", d.Name()).Msg("storage probe delete failed")
		return false
	}

	return bytes.Equal(probe, readBack)
}
