package persistence

import (
	"fmt"
	"strings"

	"github.com/exportexpress/backoffice/internal/domain/shared"
	"gorm.io/gorm"
)

// applySearch adds a case-insensitive substring match over columns
func applySearch(query *gorm.DB, search string, columns ...string) *gorm.DB {
	search = strings.TrimSpace(search)
	if search == "" || len(columns) == 0 {
		return query
	}
	pattern := "%" + strings.ToLower(search) + "%"
	clauses := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		clauses[i] = "LOWER(" + col + ") LIKE ?"
		args[i] = pattern
	}
	return query.Where("("+strings.Join(clauses, " OR ")+")", args...)
}

// applyDateRange bounds column by the filter's From and To
func applyDateRange(query *gorm.DB, filter shared.Filter, column string) *gorm.DB {
	if filter.From != nil {
		query = query.Where(column+" >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where(column+" <= ?", *filter.To)
	}
	return query
}

// applyEquals adds equality conditions for the recognised filter keys present in filter.
// columns maps filter keys to column names.
func applyEquals(query *gorm.DB, filter shared.Filter, columns map[string]string) *gorm.DB {
	for key, column := range columns {
		if value, ok := filter.Filters[key]; ok {
			query = query.Where(column+" = ?", value)
		}
	}
	return query
}

// applyPaging orders by a whitelisted column and applies offset and limit.
// Unknown columns fall back to created_at, and anything but asc sorts descending.
func applyPaging(query *gorm.DB, filter shared.Filter, allowed map[string]bool) *gorm.DB {
	column := strings.TrimSpace(filter.OrderBy)
	if !allowed[column] {
		column = "created_at"
	}
	direction := "DESC"
	if strings.EqualFold(strings.TrimSpace(filter.OrderDir), "asc") {
		direction = "ASC"
	}
	query = query.Order(fmt.Sprintf("%s %s", column, direction))
	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

// orderSortColumns whitelists the order_by values accepted for orders
var orderSortColumns = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"order_number":   true,
	"customer_name":  true,
	"status":         true,
	"payment_status": true,
	"priority":       true,
	"final_amount":   true,
	"shipped_at":     true,
	"delivered_at":   true,
}

var paymentSortColumns = map[string]bool{
	"id":           true,
	"created_at":   true,
	"updated_at":   true,
	"payment_code": true,
	"type":         true,
	"status":       true,
	"method":       true,
	"amount":       true,
	"initiated_at": true,
	"completed_at": true,
	"due_date":     true,
}

var shipmentSortColumns = map[string]bool{
	"id":                      true,
	"created_at":              true,
	"updated_at":              true,
	"shipment_code":           true,
	"current_phase":           true,
	"current_status":          true,
	"transport_mode":          true,
	"destination_country":     true,
	"estimated_delivery_date": true,
	"actual_delivery_date":    true,
	"total_cost":              true,
}
