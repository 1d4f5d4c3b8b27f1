// Package tenant resolves which account owns the settings a request should
// use. In multi-tenant (SaaS) mode the superadmin account owns the global
// settings, a company account owns its own settings and every other account
// inherits from the account that created it. In single-tenant mode the single
// company account takes the root position.
package tenant

import (
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/db/controller/setting"
	"github.com/crewdesk/crewdesk/internal/db/models"
)

const (
	// globalCachePrefix prefixes cache keys for the unauthenticated path.
	// The requested key set is part of the key: storage and mail resolution
	// ask for different sets and must not overwrite each other's entry.
	globalCachePrefix = "tenant:global-settings:"

	// cacheTTL bounds how stale the cached global settings may get.
	cacheTTL = 300 * time.Second
)

func globalCacheKey(keys []string) string {
	return globalCachePrefix + strings.Join(keys, ",")
}

// Resolver resolves tenant-owning accounts and loads their settings.
type Resolver struct {
	db          *gorm.DB
	multiTenant bool

	mu    sync.Mutex
	cache map[string]cacheEntry
	// now is swappable for tests.
	now func() time.Time
}

type cacheEntry struct {
	values    map[string]string
	expiresAt time.Time
}

// NewResolver creates a new tenant resolver.
func NewResolver(db *gorm.DB, multiTenant bool) *Resolver {
	return &Resolver{
		db:          db,
		multiTenant: multiTenant,
		cache:       make(map[string]cacheEntry),
		now:         time.Now,
	}
}

// OwnerID returns the settings-owning account for the given user.
// The second return value is false when no owner can be resolved (nil user,
// or a non-root account without a creator); callers must fall back to
// defaults in that case.
func (r *Resolver) OwnerID(u *models.User) (uint64, bool) {
	if u == nil {
		return 0, false
	}

	if r.multiTenant {
		switch u.Type {
		case models.UserTypeSuperAdmin, models.UserTypeCompany:
			return u.ID, true
		default:
			if u.CreatedBy == nil {
				return 0, false
			}

			return *u.CreatedBy, true
		}
	}

	if u.Type == models.UserTypeCompany {
		return u.ID, true
	}

	if u.CreatedBy == nil {
		return 0, false
	}

	return *u.CreatedBy, true
}

// RootID returns the tenant-root account that owns instance-wide settings
// such as allowed file types and the upload size limit. In multi-tenant mode
// this is the superadmin account, in single-tenant mode the company account.
func (r *Resolver) RootID() (uint64, bool) {
	rootType := models.UserTypeSuperAdmin
	if !r.multiTenant {
		rootType = models.UserTypeCompany
	}

	if r.db == nil {
		log.Warn().Msg("tenant root lookup skipped, no database")
		return 0, false
	}

	var root models.User
	if err := r.db.Where("type = ?", rootType).Order("id ASC").First(&root).Error; err != nil {
		log.Warn().Err(err).Str("type", string(rootType)).Msg("tenant root lookup failed")
		return 0, false
	}

	return root.ID, true
}

// Settings loads the given keys for an owning account. Any failure yields an
// empty map; lookup errors are logged and never propagated.
func (r *Resolver) Settings(ownerID uint64, keys []string) map[string]string {
	values, err := setting.GetMany(r.db, ownerID, keys)
	if err != nil {
		log.Warn().Err(err).Uint64("owner_id", ownerID).Msg("tenant settings lookup failed")
		return map[string]string{}
	}

	return values
}

// GlobalSettings loads the given keys for the tenant root, caching the result
// for five minutes. This serves the unauthenticated path (login page assets,
// public storage resolution) where no per-request owner exists.
func (r *Resolver) GlobalSettings(keys []string) map[string]string {
	cacheKey := globalCacheKey(keys)

	r.mu.Lock()
	entry, ok := r.cache[cacheKey]
	r.mu.Unlock()

	if ok && r.now().Before(entry.expiresAt) {
		return entry.values
	}

	rootID, ok := r.RootID()
	if !ok {
		return map[string]string{}
	}

	values := r.Settings(rootID, keys)

	r.mu.Lock()
	r.cache[cacheKey] = cacheEntry{
		values:    values,
		expiresAt: r.now().Add(cacheTTL),
	}
	r.mu.Unlock()

	return values
}

// ClearCache drops the cached global settings. Settings-update handlers call
// this so changes take effect without waiting out the TTL.
func (r *Resolver) ClearCache() {
	r.mu.Lock()
	r.cache = make(map[string]cacheEntry)
	r.mu.Unlock()
}
