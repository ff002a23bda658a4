package query

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	defaultPage  = 1
	defaultLimit = 10
	maxLimit     = 100
)

// FilterParams represents the standard list query parameters
type FilterParams struct {
	Filters map[string]string `json:"filters"`
	Sort    SortParams        `json:"sort"`
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
	Search  string            `json:"search"`
}

// SortParams represents sorting parameters
type SortParams struct {
	Field string `json:"field"`
	Order string `json:"order"`
}

// PaginationResponse represents pagination metadata
type PaginationResponse struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
}

// ParseQueryParams extracts standardized list parameters from a request.
// Filters use the filters[field]=value form, sorting uses sort[field] and
// sort[order].
func ParseQueryParams(c *gin.Context) FilterParams {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(defaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultLimit)))

	if page < 1 {
		page = defaultPage
	}
	if limit < 1 {
		limit = 1
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	filters := make(map[string]string)
	for key, values := range c.Request.URL.Query() {
		if strings.HasPrefix(key, "filters[") && strings.HasSuffix(key, "]") {
			fieldName := key[8 : len(key)-1]
			if len(values) > 0 && values[0] != "" {
				filters[fieldName] = values[0]
			}
		}
	}

	sortField := c.DefaultQuery("sort[field]", "created_at")
	sortOrder := c.DefaultQuery("sort[order]", "desc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "desc"
	}

	return FilterParams{
		Filters: filters,
		Sort:    SortParams{Field: sortField, Order: sortOrder},
		Page:    page,
		Limit:   limit,
		Search:  c.Query("search"),
	}
}

// ApplyFilters adds equality conditions for whitelisted filter fields
func ApplyFilters(dbQuery *gorm.DB, filters map[string]string, allowedFields map[string]string) *gorm.DB {
	for field, value := range filters {
		if column, allowed := allowedFields[field]; allowed && value != "" {
			dbQuery = dbQuery.Where(fmt.Sprintf("%s = ?", column), value)
		}
	}
	return dbQuery
}

// ApplySearch adds a case-insensitive substring match across the given columns
func ApplySearch(dbQuery *gorm.DB, search string, searchFields []string) *gorm.DB {
	if search == "" || len(searchFields) == 0 {
		return dbQuery
	}

	conditions := make([]string, len(searchFields))
	args := make([]interface{}, len(searchFields))
	for i, field := range searchFields {
		conditions[i] = fmt.Sprintf("%s ILIKE ?", field)
		args[i] = "%" + search + "%"
	}

	return dbQuery.Where(strings.Join(conditions, " OR "), args...)
}

// ApplySort orders by a whitelisted column, newest-first by default
func ApplySort(dbQuery *gorm.DB, sort SortParams, allowedSortFields map[string]string) *gorm.DB {
	if column, allowed := allowedSortFields[sort.Field]; allowed {
		return dbQuery.Order(fmt.Sprintf("%s %s", column, strings.ToUpper(sort.Order)))
	}
	return dbQuery.Order("created_at DESC")
}

// ApplyPagination applies limit/offset paging
func ApplyPagination(dbQuery *gorm.DB, page, limit int) *gorm.DB {
	return dbQuery.Offset((page - 1) * limit).Limit(limit)
}

// BuildPaginationResponse creates pagination metadata
func BuildPaginationResponse(page, limit int, total int64) PaginationResponse {
	totalPages := (total + int64(limit) - 1) / int64(limit)

	return PaginationResponse{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < int(totalPages),
		HasPrev:    page > 1,
	}
}
