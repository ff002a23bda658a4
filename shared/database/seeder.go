package database

import (
	"log"

	"launchpulse-backend/shared/config"
	"launchpulse-backend/shared/database/models"
	utils "launchpulse-backend/shared/utils/auth"

	"github.com/lib/pq"
)

// SeedDatabase seeds the database with initial data
func SeedDatabase() error {
	log.Println("🌱 Checking database seed data...")

	permissionsCreated, err := seedPermissions()
	if err != nil {
		return err
	}

	rolesCreated, err := seedSystemRoles()
	if err != nil {
		return err
	}

	if permissionsCreated > 0 || rolesCreated > 0 {
		log.Printf("✅ Database seeding completed (%d permissions, %d roles created)", permissionsCreated, rolesCreated)
	} else {
		log.Println("✅ Database seed data is up to date")
	}

	// Create super admin from config
	if err := CreateSuperAdminFromConfig(); err != nil {
		return err
	}

	return nil
}

// seedPermissions creates the permission catalog. Permission names follow
// the resource.action convention; admin.full is the wildcard.
func seedPermissions() (int, error) {
	permissions := []models.Permission{
		{Name: models.PermissionAdminFull, Description: "Wildcard access to every resource and action", Resource: "admin", Action: "full"},
		{Name: "organization.read", Description: "View organization details", Resource: "organization", Action: "read"},
		{Name: "organization.update", Description: "Update organization settings", Resource: "organization", Action: "update"},
		{Name: "organization.delete", Description: "Delete an organization", Resource: "organization", Action: "delete"},
		{Name: "members.read", Description: "View organization members", Resource: "members", Action: "read"},
		{Name: "members.invite", Description: "Invite users to the organization", Resource: "members", Action: "invite"},
		{Name: "members.manage", Description: "Change member roles and statuses", Resource: "members", Action: "manage"},
		{Name: "roles.read", Description: "View roles", Resource: "roles", Action: "read"},
		{Name: "roles.manage", Description: "Create and delete roles", Resource: "roles", Action: "manage"},
		{Name: "permissions.manage", Description: "Edit role permission assignments", Resource: "permissions", Action: "manage"},
		{Name: "audit.read", Description: "View audit logs", Resource: "audit", Action: "read"},
		{Name: "audit.export", Description: "Export audit logs", Resource: "audit", Action: "export"},
	}

	created := 0
	for _, permission := range permissions {
		var existing models.Permission
		result := DB.Where("name = ?", permission.Name).First(&existing)
		if result.Error != nil {
			if err := DB.Create(&permission).Error; err != nil {
				return created, err
			}
			created++
		}
	}

	return created, nil
}

// seedSystemRoles creates the non-deletable system roles
func seedSystemRoles() (int, error) {
	systemRoles := []models.Role{
		{
			Name:         "Owner",
			Description:  "Organization owner with unrestricted access",
			Permissions:  pq.StringArray{models.PermissionAdminFull},
			IsSystemRole: true,
		},
		{
			Name:        "Admin",
			Description: "Organization administrator",
			Permissions: pq.StringArray{
				"organization.read", "organization.update", "organization.delete",
				"members.read", "members.invite", "members.manage",
				"roles.read", "roles.manage", "permissions.manage",
				"audit.read", "audit.export",
			},
			IsSystemRole: true,
		},
		{
			Name:        "Manager",
			Description: "Manager with member and audit visibility",
			Permissions: pq.StringArray{
				"organization.read",
				"members.read", "members.invite",
				"roles.read",
				"audit.read",
			},
			IsSystemRole: true,
		},
		{
			Name:        "Member",
			Description: "Standard member with read access",
			Permissions: pq.StringArray{
				"organization.read",
				"members.read",
			},
			IsSystemRole: true,
		},
	}

	created := 0
	for _, role := range systemRoles {
		var existing models.Role
		result := DB.Where("name = ?", role.Name).First(&existing)
		if result.Error != nil {
			if err := DB.Create(&role).Error; err != nil {
				return created, err
			}
			created++
		}
	}

	return created, nil
}

// CreateSuperAdminFromConfig creates super admin using config values
func CreateSuperAdminFromConfig() error {
	cfg := config.GetConfig()
	return CreateSuperAdmin(cfg.SuperAdminEmail, cfg.SuperAdminPassword, "Super Admin")
}

// CreateSuperAdmin creates the super admin user with an owned organization
func CreateSuperAdmin(email, password, name string) error {
	var existingUser models.User
	if err := DB.Where("email = ?", email).First(&existingUser).Error; err == nil {
		log.Println("Super admin already exists")
		return nil
	}

	hashedPassword, err := utils.HashPassword(password)
	if err != nil {
		return err
	}

	superAdminUser := models.User{
		Email:    email,
		Password: hashedPassword,
		Name:     name,
		Status:   "ACTIVE",
	}

	if err := DB.Create(&superAdminUser).Error; err != nil {
		return err
	}

	var ownerRole models.Role
	if err := DB.Where("name = ?", "Owner").First(&ownerRole).Error; err != nil {
		return err
	}

	var adminOrg models.Organization
	if err := DB.Where("slug = ?", "launchpulse").First(&adminOrg).Error; err != nil {
		adminOrg = models.Organization{
			Name:             "LaunchPulse",
			Slug:             "launchpulse",
			Description:      "Platform administration organization",
			SubscriptionTier: "enterprise",
			MaxUsers:         100,
		}
		if err := DB.Create(&adminOrg).Error; err != nil {
			return err
		}
	}

	membership := models.Membership{
		UserID:         superAdminUser.ID,
		OrganizationID: adminOrg.ID,
		RoleID:         ownerRole.ID,
		Status:         models.MembershipStatusActive,
	}
	if err := DB.Create(&membership).Error; err != nil {
		return err
	}

	log.Printf("✅ Super admin created: %s", email)
	return nil
}
