package trade

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"slices"

	appshared "github.com/bizdesk/backend/internal/application/shared"
	"github.com/bizdesk/backend/internal/domain/catalog"
	"github.com/bizdesk/backend/internal/domain/identity"
	"github.com/bizdesk/backend/internal/domain/inventory"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// buildLines resolves the requested items against live products. price
// supplies the unit price when the request leaves it empty.
func buildLines(
	ctx context.Context,
	productRepo catalog.ProductRepository,
	companyID uuid.UUID,
	items []LineRequest,
	price func(*catalog.Product) decimal.Decimal,
) ([]trade.Line, error) {
	ids := make([]uuid.UUID, 0, len(items))
	for _, item := range items {
		if !slices.Contains(ids, item.ProductID) {
			ids = append(ids, item.ProductID)
		}
	}

	products, err := productRepo.FindByIDs(ctx, companyID, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]*catalog.Product, len(products))
	for i := range products {
		byID[products[i].ID] = &products[i]
	}

	lines := make([]trade.Line, 0, len(items))
	for _, item := range items {
		p, ok := byID[item.ProductID]
		if !ok {
			return nil, shared.NewDomainError("INVALID_PRODUCT", fmt.Sprintf("Product %s not found", item.ProductID))
		}
		unit := price(p)
		if item.UnitPrice != nil {
			unit = *item.UnitPrice
		}
		lines = append(lines, trade.Line{
			ProductID:   p.ID,
			ProductName: p.Name,
			Quantity:    item.Quantity,
			UnitPrice:   unit,
		})
	}
	return lines, nil
}

// stockMove is one product quantity change caused by a document
type stockMove struct {
	productID uuid.UUID
	quantity  int64
}

// lockOrder returns the moves sorted by product ID so concurrent documents
// lock product rows in the same order.
func lockOrder(moves []stockMove) []stockMove {
	sorted := slices.Clone(moves)
	slices.SortStableFunc(sorted, func(a, b stockMove) int {
		return bytes.Compare(a.productID[:], b.productID[:])
	})
	return sorted
}

// applyMoves books one movement per move inside the caller's transaction
func applyMoves(
	ctx context.Context,
	ledger appshared.StockLedger,
	repos appshared.TransactionalRepositories,
	companyID uuid.UUID,
	moves []stockMove,
	template inventory.MovementRequest,
) ([]*inventory.StockMovement, error) {
	movements := make([]*inventory.StockMovement, 0, len(moves))
	for _, m := range lockOrder(moves) {
		req := template
		req.ProductID = m.productID
		req.Quantity = m.quantity
		movement, err := ledger.ApplyInTx(ctx, repos, companyID, req)
		if err != nil {
			return nil, err
		}
		movements = append(movements, movement)
	}
	return movements, nil
}

// loadSettings returns the company settings or the defaults when none are stored
func loadSettings(ctx context.Context, repo identity.SettingsRepository, companyID uuid.UUID) (*identity.CompanySettings, error) {
	settings, err := repo.FindByCompany(ctx, companyID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return identity.NewCompanySettings(companyID), nil
		}
		return nil, err
	}
	return settings, nil
}
