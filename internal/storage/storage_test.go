package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crewdesk/crewdesk/internal/config"
)

func TestResolveConfigDiskMapping(t *testing.T) {
	testCases := []struct {
		name        string
		storageType string
		wantDisk    string
	}{
		{"local maps to public", "local", DiskPublic},
		{"aws_s3 maps to s3", "aws_s3", DiskS3},
		{"wasabi maps to wasabi", "wasabi", DiskWasabi},
		{"unknown maps to public", "dropbox", DiskPublic},
		{"missing maps to public", "", DiskPublic},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			values := map[string]string{}
			if tc.storageType != "" {
				values[KeyStorageType] = tc.storageType
			}

			cfg := ResolveConfig(values, nil)
			assert.Equal(t, tc.wantDisk, cfg.Disk)
		})
	}
}

func TestResolveConfigDefaults(t *testing.T) {
	cfg := ResolveConfig(nil, nil)

	assert.Equal(t, DiskPublic, cfg.Disk)
	assert.Equal(t, DefaultAllowedFileTypes, cfg.AllowedFileTypes)
	assert.Equal(t, DefaultMaxFileSizeMB, cfg.MaxFileSizeMB)
}

func TestResolveConfigRootValues(t *testing.T) {
	rootValues := map[string]string{
		KeyAllowedFileTypes: "pdf,docx",
		KeyMaxFileSizeMB:    "25",
	}

	cfg := ResolveConfig(nil, rootValues)

	assert.Equal(t, "pdf,docx", cfg.AllowedFileTypes)
	assert.Equal(t, 25, cfg.MaxFileSizeMB)

	t.Run("unparsable size keeps default", func(t *testing.T) {
		cfg := ResolveConfig(nil, map[string]string{KeyMaxFileSizeMB: "huge"})
		assert.Equal(t, DefaultMaxFileSizeMB, cfg.MaxFileSizeMB)
	})
}

func TestS3Endpoint(t *testing.T) {
	testCases := []struct {
		name     string
		endpoint string
		want     string
	}{
		{"aws endpoint is cleared", "https://s3.eu-west-1.amazonaws.com", ""},
		{"custom endpoint passes through", "https://minio.internal:9000", "https://minio.internal:9000"},
		{"empty endpoint stays empty", "", ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Config{S3: S3Config{Endpoint: tc.endpoint}}
			assert.Equal(t, tc.want, cfg.S3Endpoint())
		})
	}
}

func TestWasabiEndpoint(t *testing.T) {
	t.Run("synthesized from region", func(t *testing.T) {
		cfg := Config{Wasabi: WasabiConfig{Region: "eu-central-1"}}
		assert.Equal(t, "https://s3.eu-central-1.wasabisys.com", cfg.WasabiEndpoint())
	})

	t.Run("region defaults to us-east-1", func(t *testing.T) {
		cfg := Config{}
		assert.Equal(t, "https://s3.us-east-1.wasabisys.com", cfg.WasabiEndpoint())
	})

	t.Run("configured url wins", func(t *testing.T) {
		cfg := Config{Wasabi: WasabiConfig{URL: "https://s3.wasabi.example", Region: "eu-central-1"}}
		assert.Equal(t, "https://s3.wasabi.example", cfg.WasabiEndpoint())
	})
}

func TestSplitEndpoint(t *testing.T) {
	testCases := []struct {
		endpoint   string
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.eu-central-1.wasabisys.com", "s3.eu-central-1.wasabisys.com", true},
		{"http://minio.internal:9000", "minio.internal:9000", false},
		{"s3.amazonaws.com", "s3.amazonaws.com", true},
	}

	for _, tc := range testCases {
		t.Run(tc.endpoint, func(t *testing.T) {
			host, secure := splitEndpoint(tc.endpoint)
			assert.Equal(t, tc.wantHost, host)
			assert.Equal(t, tc.wantSecure, secure)
		})
	}
}

func TestLocalDiskRoundTrip(t *testing.T) {
	disk := newLocalDisk(config.Storage{
		PublicPath: t.TempDir(),
		PublicURL:  "http://localhost:8080/storage",
	})

	ctx := context.Background()

	require.NoError(t, disk.Put(ctx, "uploads/hello.txt", []byte("hello")))

	data, err := disk.Get(ctx, "uploads/hello.txt")
	require.NoError(t, err)
	assert.Equal(t, []byte("hello"), data)

	assert.Equal(t, "http://localhost:8080/storage/uploads/hello.txt", disk.URL("uploads/hello.txt"))

	require.NoError(t, disk.Delete(ctx, "uploads/hello.txt"))

	_, err = disk.Get(ctx, "uploads/hello.txt")
	require.Error(t, err)
}

// failingDisk fails a selected operation to exercise TestConnection error paths.
type failingDisk struct {
	inner      Disk
	failPut    bool
	failGet    bool
	failDelete bool
	corrupt    bool
}

func (d *failingDisk) Name() string { return "failing" }

func (d *failingDisk) Put(ctx context.Context, p string, data []byte) error {
	if d.failPut {
		return errors.New("put failed")
	}

	return d.inner.Put(ctx, p, data)
}

func (d *failingDisk) Get(ctx context.Context, p string) ([]byte, error) {
	if d.failGet {
		return nil, errors.New("get failed")
	}

	data, err := d.inner.Get(ctx, p)
	if err == nil && d.corrupt {
		data = append([]byte("corrupted:"), data...)
	}

	return data, err
}

func (d *failingDisk) Delete(ctx context.Context, p string) error {
	if d.failDelete {
		return errors.New("delete failed")
	}

	return d.inner.Delete(ctx, p)
}

func (d *failingDisk) URL(p string) string { return d.inner.URL(p) }

func TestConnectionRoundTrip(t *testing.T) {
	ctx := context.Background()

	t.Run("successful round trip", func(t *testing.T) {
		disk := newLocalDisk(config.Storage{PublicPath: t.TempDir()})
		assert.True(t, TestConnection(ctx, disk))
	})

	t.Run("write failure returns false", func(t *testing.T) {
		disk := &failingDisk{inner: newLocalDisk(config.Storage{PublicPath: t.TempDir()}), failPut: true}
		assert.False(t, TestConnection(ctx, disk))
	})

	t.Run("read failure returns false", func(t *testing.T) {
		disk := &failingDisk{inner: newLocalDisk(config.Storage{PublicPath: t.TempDir()}), failGet: true}
		assert.False(t, TestConnection(ctx, disk))
	})

	t.Run("delete failure returns false", func(t *testing.T) {
		disk := &failingDisk{inner: newLocalDisk(config.Storage{PublicPath: t.TempDir()}), failDelete: true}
		assert.False(t, TestConnection(ctx, disk))
	})

	t.Run("mismatched read-back returns false", func(t *testing.T) {
		disk := &failingDisk{inner: newLocalDisk(config.Storage{PublicPath: t.TempDir()}), corrupt: true}
		assert.False(t, TestConnection(ctx, disk))
	})
}

func TestActiveDiskFallback(t *testing.T) {
	svc := NewService(nil, config.Storage{PublicPath: t.TempDir()})

	t.Run("s3 without bucket falls back to public", func(t *testing.T) {
		disk := svc.ActiveDisk(Config{Disk: DiskS3})
		assert.Equal(t, DiskPublic, disk.Name())
	})

	t.Run("public config yields public disk", func(t *testing.T) {
		disk := svc.ActiveDisk(Config{Disk: DiskPublic})
		assert.Equal(t, DiskPublic, disk.Name())
	})

	t.Run("wasabi with bucket yields wasabi disk", func(t *testing.T) {
		disk := svc.ActiveDisk(Config{
			Disk:   DiskWasabi,
			Wasabi: WasabiConfig{Bucket: "crewdesk-files", Region: "eu-central-1"},
		})
		assert.Equal(t, DiskWasabi, disk.Name())
	})
}
