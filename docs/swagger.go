// Package docs LaunchPulse admin API documentation
package docs

// Swagger documentation info
// @title LaunchPulse Admin API
// @version 1.0
// @description Organization, membership, role and audit administration for LaunchPulse

// @contact.name API Support
// @contact.email support@launchpulse.io

// @host localhost:8001
// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

// @tag.name organizations
// @tag.description Organization management
// @tag.name members
// @tag.description Membership and invitation management
// @tag.name roles
// @tag.description Role management
// @tag.name permissions
// @tag.description Permission catalog and role permission matrix
// @tag.name audit-logs
// @tag.description Audit trail queries and CSV export
