package partner

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewContact(t *testing.T) {
	tests := []struct {
		name    string
		cname   string
		email   string
		wantErr bool
	}{
		{"valid with email", "Acme Ltd", "Sales@Acme.io", false},
		{"valid without email", "Acme Ltd", "", false},
		{"empty name", "  ", "", true},
		{"bad email", "Acme", "not-an-email", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := NewContact(tt.cname, tt.email, "", "", "", "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Acme Ltd", c.Name)
		})
	}

	c, err := NewContact("Acme", " Sales@Acme.io ", "", "", "", "")
	require.NoError(t, err)
	assert.Equal(t, "sales@acme.io", c.Email)
}

func TestSupplierAndCustomer(t *testing.T) {
	companyID := uuid.New()
	contact, err := NewContact("Acme", "", "", "", "", "")
	require.NoError(t, err)

	s := NewSupplier(companyID, contact)
	assert.True(t, s.BelongsTo(companyID))

	updated, _ := NewContact("Acme Group", "", "", "", "", "")
	s.Update(updated)
	assert.Equal(t, "Acme Group", s.Name)
	assert.Equal(t, 2, s.Version)

	cu := NewCustomer(companyID, contact)
	assert.Equal(t, "Acme", cu.Name)
	assert.NotEqual(t, uuid.Nil, cu.ID)
}
