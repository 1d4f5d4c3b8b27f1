// Package storage resolves per-tenant file storage configuration and provides
// disk handles for the resolved backend. Configuration is an explicit value
// object handed to disk constructors; nothing in this package mutates global
// state, so concurrent requests for different tenants cannot observe each
// other's credentials.
package storage

import (
	"strings"
)

// Disk names.
const (
	// DiskPublic is the local public filesystem disk, also the safe fallback.
	DiskPublic = "public"
	// DiskS3 is the AWS S3 disk.
	DiskS3 = "s3"
	// DiskWasabi is the Wasabi (S3-compatible) disk.
	DiskWasabi = "wasabi"
)

// Setting keys read from the tenant settings table.
const (
	KeyStorageType = "storage_type"

	KeyAWSKey      = "aws_key"
	KeyAWSSecret   = "aws_secret"
	KeyAWSBucket   = "aws_bucket"
	KeyAWSRegion   = "aws_region"
	KeyAWSURL      = "aws_url"
	KeyAWSEndpoint = "aws_endpoint"

	KeyWasabiKey    = "wasabi_key"
	KeyWasabiSecret = "wasabi_secret"
	KeyWasabiBucket = "wasabi_bucket"
	KeyWasabiRegion = "wasabi_region"
	KeyWasabiURL    = "wasabi_url"
	KeyWasabiRoot   = "wasabi_root"

	KeyAllowedFileTypes = "allowed_file_types"
	KeyMaxFileSizeMB    = "max_file_size_mb"
)

// Defaults applied when a setting is absent.
const (
	DefaultAllowedFileTypes = "jpg,jpeg,png,webp,gif,pdf,doc,docx,csv,txt,zip,mp4,mp3"
	DefaultMaxFileSizeMB    = 2
	DefaultWasabiRegion     = "us-east-1"
)

// SettingKeys is the full key set the resolver reads for an owning account.
var SettingKeys = []string{
	KeyStorageType,
	KeyAWSKey, KeyAWSSecret, KeyAWSBucket, KeyAWSRegion, KeyAWSURL, KeyAWSEndpoint,
	KeyWasabiKey, KeyWasabiSecret, KeyWasabiBucket, KeyWasabiRegion, KeyWasabiURL, KeyWasabiRoot,
}

// RootSettingKeys are read from the tenant root, not the owning account.
var RootSettingKeys = []string{KeyAllowedFileTypes, KeyMaxFileSizeMB}

// S3Config holds AWS S3 credentials and addressing.
type S3Config struct {
	Key      string
	Secret   string
	Bucket   string
	Region   string
	URL      string
	Endpoint string
}

// WasabiConfig holds Wasabi credentials and addressing.
type WasabiConfig struct {
	Key    string
	Secret string
	Bucket string
	Region string
	URL    string
	Root   string
}

// Config is the resolved storage configuration for one tenant.
type Config struct {
	Disk             string
	AllowedFileTypes string
	MaxFileSizeMB    int
	S3               S3Config
	Wasabi           WasabiConfig
}

// S3Endpoint returns the effective S3 endpoint. An endpoint containing
// "amazonaws.com" is cleared so the client falls back to default AWS endpoint
// resolution; any other non-empty value is an S3-compatible custom endpoint.
func (c Config) S3Endpoint() string {
	if c.S3.Endpoint == "" || strings.Contains(c.S3.Endpoint, "amazonaws.com") {
		return ""
	}

	return c.S3.Endpoint
}

// WasabiEndpoint returns the effective Wasabi endpoint, synthesized from the
// region when not configured.
func (c Config) WasabiEndpoint() string {
	if c.Wasabi.URL != "" {
		return c.Wasabi.URL
	}

	region := c.Wasabi.Region
	if region == "" {
		region = DefaultWasabiRegion
	}

	return "https://s3." + region + ".wasabisys.com"
}
