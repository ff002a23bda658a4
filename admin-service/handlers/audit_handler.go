package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"launchpulse-backend/shared/database/models"
	"launchpulse-backend/shared/rbac"
	"launchpulse-backend/shared/store"
)

const csvHeader = "Timestamp,User,Action,Resource Type,Resource ID,Severity,IP Address,Details"

// GetAuditLogs returns one page of an organization's audit trail
// @Summary Get audit logs
// @Description Get an organization's audit log entries, newest first
// @Tags audit-logs
// @Accept json
// @Produce json
// @Param organization_id query string true "Organization ID" format(uuid)
// @Param limit query int false "Page size (default: 50)"
// @Param offset query int false "Offset (default: 0)"
// @Security BearerAuth
// @Success 200 {object} map[string]interface{}
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /audit-logs [get]
func (h *Handler) GetAuditLogs(c *gin.Context) {
	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid or missing organization_id",
			"message": err.Error(),
		})
		return
	}

	if _, err := h.svc.RequirePermission(c, "audit.read", orgID); err != nil {
		respondError(c, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(rbac.DefaultAuditPageSize)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, total, err := h.svc.GetAuditLogs(c.Request.Context(), orgID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"items": entries,
			"total": total,
		},
	})
}

// ExportAuditLogs streams the filtered audit trail as CSV
// @Summary Export audit logs as CSV
// @Description Export an organization's audit log entries matching the filters as a CSV attachment
// @Tags audit-logs
// @Accept json
// @Produce text/csv
// @Param organization_id query string true "Organization ID" format(uuid)
// @Param action query string false "Filter by action label"
// @Param severity query string false "Filter by severity (info, warning, error)"
// @Param start_date query string false "Start date (YYYY-MM-DD)"
// @Param end_date query string false "End date (YYYY-MM-DD, inclusive)"
// @Param search query string false "Search across action, resource and resource id"
// @Security BearerAuth
// @Success 200 {string} string "CSV data"
// @Failure 400 {object} map[string]string "Invalid date format"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Insufficient permissions"
// @Router /audit-logs/export [get]
func (h *Handler) ExportAuditLogs(c *gin.Context) {
	orgID, err := uuid.Parse(c.Query("organization_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid or missing organization_id",
			"message": err.Error(),
		})
		return
	}

	if _, err := h.svc.RequirePermission(c, "audit.export", orgID); err != nil {
		respondError(c, err)
		return
	}

	filter := store.AuditLogFilter{
		Action:   c.Query("action"),
		Severity: c.Query("severity"),
		Search:   c.Query("search"),
	}

	if raw := c.Query("start_date"); raw != "" {
		startDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid start_date, expected YYYY-MM-DD",
				"message": err.Error(),
			})
			return
		}
		filter.StartDate = &startDate
	}
	if raw := c.Query("end_date"); raw != "" {
		endDate, err := time.Parse("2006-01-02", raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "Invalid end_date, expected YYYY-MM-DD",
				"message": err.Error(),
			})
			return
		}
		filter.EndDate = &endDate
	}

	entries, err := h.svc.ExportAuditLogs(c.Request.Context(), orgID, filter)
	if err != nil {
		respondError(c, err)
		return
	}

	csv := buildAuditCSV(entries)
	filename := fmt.Sprintf("audit-logs-%s.csv", time.Now().UTC().Format("2006-01-02"))

	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.String(http.StatusOK, csv)
}

// buildAuditCSV renders entries as quoted CSV with the details blob
// serialized as escaped JSON.
func buildAuditCSV(entries []models.AuditLog) string {
	var sb strings.Builder
	sb.WriteString(csvHeader)
	sb.WriteString("\n")

	for i, entry := range entries {
		if i > 0 {
			sb.WriteString("\n")
		}

		user := "System"
		if entry.User != nil && entry.User.Email != "" {
			user = entry.User.Email
		}

		detailsJSON, err := json.Marshal(entry.Details)
		if err != nil {
			detailsJSON = []byte("{}")
		}

		fields := []string{
			entry.CreatedAt.UTC().Format(time.RFC3339),
			user,
			entry.Action,
			entry.Resource,
			entry.ResourceID,
			entry.Severity,
			entry.IPAddress,
			string(detailsJSON),
		}

		quoted := make([]string, len(fields))
		for j, field := range fields {
			quoted[j] = `"` + strings.ReplaceAll(field, `"`, `""`) + `"`
		}
		sb.WriteString(strings.Join(quoted, ","))
	}
	return sb.String()
}
