package daemon

import (
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/crewdesk/crewdesk/internal/auth"
	"github.com/crewdesk/crewdesk/internal/config"
	"github.com/crewdesk/crewdesk/internal/db/models"
)

// allPermissions is every permission the handlers check.
var allPermissions = []string{
	auth.PermEmployeeList, auth.PermEmployeeCreate, auth.PermEmployeeUpdate, auth.PermEmployeeDelete,
	auth.PermContractList, auth.PermContractCreate, auth.PermContractUpdate, auth.PermContractDelete,
	auth.PermPayrollList, auth.PermPayrollCreate, auth.PermPayrollGenerate, auth.PermPayrollFinalize,
	auth.PermPayrollDelete,
	auth.PermJobList, auth.PermJobCreate, auth.PermJobUpdate, auth.PermJobDelete, auth.PermJobModerate,
	auth.PermApplicationList, auth.PermApplicationUpdate, auth.PermApplicationDelete,
	auth.PermCouponList, auth.PermCouponCreate, auth.PermCouponUpdate, auth.PermCouponDelete,
	auth.PermMeetingList, auth.PermMeetingCreate, auth.PermMeetingUpdate, auth.PermMeetingDelete,
	auth.PermSettingsManage,
}

// rolePermissions maps each system role to its permission names.
var rolePermissions = map[string][]string{
	"superadmin": allPermissions,
	"company":    allPermissions,
	"hr": {
		auth.PermEmployeeList, auth.PermEmployeeCreate, auth.PermEmployeeUpdate,
		auth.PermContractList, auth.PermContractCreate, auth.PermContractUpdate,
		auth.PermPayrollList, auth.PermPayrollCreate, auth.PermPayrollGenerate,
		auth.PermJobList, auth.PermJobCreate, auth.PermJobUpdate,
		auth.PermApplicationList, auth.PermApplicationUpdate,
		auth.PermMeetingList, auth.PermMeetingCreate, auth.PermMeetingUpdate, auth.PermMeetingDelete,
	},
	"employee": {
		auth.PermContractList,
		auth.PermMeetingList,
	},
}

func seed(cfg *config.Config, db *gorm.DB) {
	seedPermissions(db)
	seedRoles(db)
	seedRootUser(cfg, db)
}

// seedPermissions inserts any permission the database does not know yet.
func seedPermissions(db *gorm.DB) {
	for _, name := range allPermissions {
		resource, action, _ := strings.Cut(name, ".")

		var count int64
		db.Model(&models.Permission{}).Where(models.WhereNameIs, name).Count(&count)

		if count > 0 {
			continue
		}

		err := db.Create(&models.Permission{
			Name:     name,
			Resource: resource,
			Action:   action,
		}).Error
		if err != nil {
			log.Error().Err(err).Str("permission", name).Msg("failed to seed permission")
		}
	}
}

// seedRoles inserts the system roles and their permission mappings.
func seedRoles(db *gorm.DB) {
	for name, permissions := range rolePermissions {
		var role models.Role
		err := db.Where(models.WhereNameIs, name).First(&role).Error
		if err != nil {
			role = models.Role{
				Name:     name,
				IsSystem: true,
			}

			if err := db.Create(&role).Error; err != nil {
				log.Error().Err(err).Str("role", name).Msg("failed to seed role")
				continue
			}
		}

		for _, permName := range permissions {
			var perm models.Permission
			if err := db.Where(models.WhereNameIs, permName).First(&perm).Error; err != nil {
				continue
			}

			var count int64
			db.Model(&models.RolePermission{}).
				Where("role_id = ? AND permission_id = ?", role.ID, perm.ID).
				Count(&count)

			if count > 0 {
				continue
			}

			if err := db.Create(&models.RolePermission{RoleID: role.ID, PermissionID: perm.ID}).Error; err != nil {
				log.Error().Err(err).Str("role", name).Str("permission", permName).
					Msg("failed to seed role permission")
			}
		}
	}
}

// seedRootUser creates the tenant root account when the user table is empty.
// In multi-tenant mode this is a superadmin, otherwise the single company.
func seedRootUser(cfg *config.Config, db *gorm.DB) {
	var count int64
	db.Model(&models.User{}).Count(&count)

	if count > 0 {
		return
	}

	roleName := "superadmin"
	userType := models.UserTypeSuperAdmin

	if !cfg.MultiTenant {
		roleName = "company"
		userType = models.UserTypeCompany
	}

	var role models.Role
	if err := db.Where(models.WhereNameIs, roleName).First(&role).Error; err != nil {
		log.Error().Err(err).Str("role", roleName).Msg("root role missing, skipping root user seed")
		return
	}

	err := db.Create(
		&models.User{
			Username: "admin",
			Email:    "admin@localhost",
			Password: models.HashPassword("changeme"),
			Active:   true,
			Type:     userType,
			RoleID:   role.ID,
		},
	).Error
	if err != nil {
		log.Error().Err(err).Msg("failed to seed root user")
		return
	}

	log.Warn().Msg("seeded initial admin user with default password, change it immediately")
}
