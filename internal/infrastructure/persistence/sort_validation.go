package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// MemberSortFields contains allowed sort fields for company members
var MemberSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"role":       true,
}

// CategorySortFields contains allowed sort fields for categories
var CategorySortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
}

// ProductSortFields contains allowed sort fields for products
var ProductSortFields = map[string]bool{
	"id":             true,
	"created_at":     true,
	"updated_at":     true,
	"sku":            true,
	"name":           true,
	"category_id":    true,
	"purchase_price": true,
	"sale_price":     true,
	"quantity":       true,
	"min_stock":      true,
}

// PartnerSortFields contains allowed sort fields for suppliers and customers
var PartnerSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"name":       true,
	"email":      true,
}

// MovementSortFields contains allowed sort fields for stock movements
var MovementSortFields = map[string]bool{
	"created_at":     true,
	"type":           true,
	"quantity":       true,
	"reference_type": true,
}

// OrderSortFields contains allowed sort fields for purchase orders
var OrderSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"number":        true,
	"order_date":    true,
	"supplier_name": true,
	"status":        true,
	"total":         true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"created_at":    true,
	"updated_at":    true,
	"number":        true,
	"issue_date":    true,
	"due_date":      true,
	"customer_name": true,
	"status":        true,
	"total":         true,
}

// BillingTransactionSortFields contains allowed sort fields for the billing ledger
var BillingTransactionSortFields = map[string]bool{
	"created_at": true,
	"type":       true,
	"amount":     true,
}

// TicketSortFields contains allowed sort fields for support tickets
var TicketSortFields = map[string]bool{
	"created_at": true,
	"updated_at": true,
	"subject":    true,
	"priority":   true,
	"department": true,
	"status":     true,
}
