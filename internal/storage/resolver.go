package storage

import (
	"strconv"

	"github.com/rs/zerolog/log"

	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/db/models"
	"github.com/crewdesk/crewdesk/internal/tenant"
)

// Service resolves storage configuration per request and builds disk handles.
type Service struct {
	tenants *tenant.Resolver
	local   config.Storage
}

// NewService creates a storage service on top of a tenant resolver.
func NewService(tenants *tenant.Resolver, local config.Storage) *Service {
	return &Service{
		tenants: tenants,
		local:   local,
	}
}

// ConfigFor resolves the storage configuration for the given user. A nil user
// takes the cached global path. Resolution never fails: missing or broken
// settings degrade to the public disk with default limits.
func (s *Service) ConfigFor(u *models.User) Config {
	var values map[string]string

	if ownerID, ok := s.tenants.OwnerID(u); ok {
		values = s.tenants.Settings(ownerID, SettingKeys)
	} else {
		values = s.tenants.GlobalSettings(SettingKeys)
	}

	var rootValues map[string]string
	if rootID, ok := s.tenants.RootID(); ok {
		rootValues = s.tenants.Settings(rootID, RootSettingKeys)
	}

	return ResolveConfig(values, rootValues)
}

// ResolveConfig maps raw setting values to a storage Config.
// storage_type local|aws_s3|wasabi maps to disk public|s3|wasabi; unknown or
// missing values default to public. Allowed file types and the size limit come
// from the tenant root values with hardcoded fallbacks.
func ResolveConfig(values, rootValues map[string]string) Config {
	cfg := Config{
		Disk:             DiskPublic,
		AllowedFileTypes: DefaultAllowedFileTypes,
		MaxFileSizeMB:    DefaultMaxFileSizeMB,
	}

	switch values[KeyStorageType] {
	case "aws_s3":
		cfg.Disk = DiskS3
	case "wasabi":
		cfg.Disk = DiskWasabi
	case "local":
		cfg.Disk = DiskPublic
	}

	cfg.S3 = S3Config{
		Key:      values[KeyAWSKey],
		Secret:   values[KeyAWSSecret],
		Bucket:   values[KeyAWSBucket],
		Region:   values[KeyAWSRegion],
		URL:      values[KeyAWSURL],
		Endpoint: values[KeyAWSEndpoint],
	}

	cfg.Wasabi = WasabiConfig{
		Key:    values[KeyWasabiKey],
		Secret: values[KeyWasabiSecret],
		Bucket: values[KeyWasabiBucket],
		Region: values[KeyWasabiRegion],
		URL:    values[KeyWasabiURL],
		Root:   values[KeyWasabiRoot],
	}

	if v := rootValues[KeyAllowedFileTypes]; v != "" {
		cfg.AllowedFileTypes = v
	}

	if v := rootValues[KeyMaxFileSizeMB]; v != "" {
		if size, err := strconv.Atoi(v); err == nil && size > 0 {
			cfg.MaxFileSizeMB = size
		}
	}

	return cfg
}

// ActiveDisk builds the disk the resolved configuration names. On any
// construction failure it logs the error and returns the public disk instead;
// it never reports an error to the caller.
func (s *Service) ActiveDisk(cfg Config) Disk {
	disk, err := newDisk(cfg, s.local)
	if err != nil {
		log.Warn().Err(err).Str("disk", cfg.Disk).Msg("falling back to public disk")
		return newLocalDisk(s.local)
	}

	return disk
}

// DiskFor resolves the configuration for a user and returns its active disk.
func (s *Service) DiskFor(u *models.User) Disk {
	return s.ActiveDisk(s.ConfigFor(u))
}
