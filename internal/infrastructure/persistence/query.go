package persistence

import (
	"strings"

	"github.com/bizdesk/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// paginate applies validated ordering plus offset/limit to a query
func paginate(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string) *gorm.DB {
	field := ValidateSortField(filter.OrderBy, allowed, defaultField)
	query = query.Order(field + " " + ValidateSortOrder(filter.OrderDir))

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// likePattern escapes LIKE wildcards in user input and wraps it for a contains match
func likePattern(search string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.TrimSpace(search)) + "%"
}

// applyDateRange restricts column to the filter's From/To bounds
func applyDateRange(query *gorm.DB, column string, filter shared.Filter) *gorm.DB {
	if filter.From != nil {
		query = query.Where(column+" >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where(column+" <= ?", *filter.To)
	}
	return query
}

// findPage counts all rows matched by query, then loads one ordered page into dest
func findPage(query *gorm.DB, filter shared.Filter, allowed map[string]bool, defaultField string, dest any) (int64, error) {
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return 0, err
	}
	if err := paginate(query, filter, allowed, defaultField).Find(dest).Error; err != nil {
		return 0, err
	}
	return total, nil
}
