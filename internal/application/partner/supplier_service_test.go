package partner

import (
	"context"
	"errors"
	"testing"

	"github.com/bizdesk/backend/internal/domain/partner"
	"github.com/bizdesk/backend/internal/domain/shared"
	"github.com/bizdesk/backend/tests/testutil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestSupplierService_Create(t *testing.T) {
	ctx := context.Background()
	companyID, userID := uuid.New(), uuid.New()

	tests := []struct {
		name     string
		req      ContactRequest
		exists   bool
		wantCode string
	}{
		{name: "valid", req: ContactRequest{Name: "Acme", Email: "Sales@Acme.test"}},
		{name: "no email skips uniqueness", req: ContactRequest{Name: "Acme"}},
		{name: "duplicate email", req: ContactRequest{Name: "Acme", Email: "sales@acme.test"}, exists: true, wantCode: "ALREADY_EXISTS"},
		{name: "blank name", req: ContactRequest{Name: " "}, wantCode: "INVALID_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(testutil.MockSupplierRepository)
			svc := NewSupplierService(repo)
			repo.On("ExistsByEmail", ctx, companyID, "sales@acme.test", (*uuid.UUID)(nil)).Return(tt.exists, nil).Maybe()
			repo.On("Create", ctx, mock.AnythingOfType("*partner.Supplier")).Return(nil).Maybe()

			resp, err := svc.Create(ctx, companyID, userID, tt.req)

			if tt.wantCode != "" {
				var domainErr *shared.DomainError
				require.True(t, errors.As(err, &domainErr))
				assert.Equal(t, tt.wantCode, domainErr.Code)
				repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Acme", resp.Name)
			if tt.req.Email == "" {
				repo.AssertNotCalled(t, "ExistsByEmail", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			} else {
				assert.Equal(t, "sales@acme.test", resp.Email)
			}
		})
	}
}

func TestSupplierService_Update(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	contact, err := partner.NewContact("Acme", "", "", "", "", "")
	require.NoError(t, err)
	supplier := partner.NewSupplier(companyID, contact)

	repo := new(testutil.MockSupplierRepository)
	svc := NewSupplierService(repo)
	repo.On("FindByID", ctx, companyID, supplier.ID).Return(supplier, nil).Once()
	repo.On("ExistsByEmail", ctx, companyID, "ap@acme.test", &supplier.ID).Return(false, nil).Once()
	repo.On("Save", ctx, supplier).Return(nil).Once()

	resp, err := svc.Update(ctx, companyID, supplier.ID, ContactRequest{Name: "Acme Ltd", Email: "ap@acme.test", Phone: "+1 555"})

	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", resp.Name)
	assert.Equal(t, "+1 555", resp.Phone)
	assert.Equal(t, 2, resp.Version)
	repo.AssertExpectations(t)
}

func TestSupplierService_GetAndDelete(t *testing.T) {
	ctx := context.Background()
	companyID, id := uuid.New(), uuid.New()
	repo := new(testutil.MockSupplierRepository)
	svc := NewSupplierService(repo)

	repo.On("FindByID", ctx, companyID, id).Return(nil, shared.ErrNotFound).Once()
	_, err := svc.GetByID(ctx, companyID, id)
	assert.True(t, shared.IsNotFound(err))

	repo.On("Delete", ctx, companyID, id).Return(nil).Once()
	assert.NoError(t, svc.Delete(ctx, companyID, id))
}

func TestSupplierService_List(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	repo := new(testutil.MockSupplierRepository)
	svc := NewSupplierService(repo)

	suppliers := []partner.Supplier{
		*partner.NewSupplier(companyID, partner.Contact{Name: "A"}),
		*partner.NewSupplier(companyID, partner.Contact{Name: "B"}),
	}
	repo.On("FindAll", ctx, companyID, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Search == "ac" && f.Page == 1 && f.PageSize == 20
	})).Return(suppliers, int64(2), nil).Once()

	page, err := svc.List(ctx, companyID, ListFilter{Search: "ac"})

	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)
	assert.Equal(t, "B", page.Items[1].Name)
}
