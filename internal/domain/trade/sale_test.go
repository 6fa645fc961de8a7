package trade

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testItems(amounts ...string) []SaleItem {
	items := make([]SaleItem, len(amounts))
	for i, a := range amounts {
		items[i] = SaleItem{
			ProductName: "Full Cream Milk 1L",
			Quantity:    decimal.NewFromInt(1),
			Rate:        decimal.RequireFromString(a),
			Amount:      decimal.RequireFromString(a),
		}
	}
	return items
}

func TestNewCreditSale(t *testing.T) {
	t.Run("totals line items and starts pending", func(t *testing.T) {
		sale, err := NewCreditSale(uuid.New(), time.Now(), testItems("60", "45.50"))
		require.NoError(t, err)
		assert.Equal(t, SalePaymentStatusPending, sale.PaymentStatus)
		assert.True(t, sale.TotalAmount.Equal(decimal.RequireFromString("105.50")))
		assert.True(t, sale.IsBillable())
	})

	t.Run("requires a customer and at least one item", func(t *testing.T) {
		_, err := NewCreditSale(uuid.Nil, time.Now(), testItems("60"))
		assert.Error(t, err)

		_, err = NewCreditSale(uuid.New(), time.Now(), nil)
		assert.Error(t, err)
	})
}

func TestNewCashSale(t *testing.T) {
	t.Run("cash and QR sales settle immediately", func(t *testing.T) {
		for _, saleType := range []SaleType{SaleTypeCash, SaleTypeQR} {
			sale, err := NewCashSale(saleType, time.Now(), testItems("30"))
			require.NoError(t, err)
			assert.Equal(t, SalePaymentStatusCompleted, sale.PaymentStatus)
			assert.Nil(t, sale.CustomerID)
			assert.False(t, sale.IsBillable())
		}
	})

	t.Run("credit is not an anonymous sale type", func(t *testing.T) {
		_, err := NewCashSale(SaleTypeCredit, time.Now(), testItems("30"))
		assert.Error(t, err)
	})
}

func TestSaleBillingTransitions(t *testing.T) {
	t.Run("pending to billed and back", func(t *testing.T) {
		sale, err := NewCreditSale(uuid.New(), time.Now(), testItems("60"))
		require.NoError(t, err)

		require.NoError(t, sale.MarkBilled())
		assert.Equal(t, SalePaymentStatusBilled, sale.PaymentStatus)
		assert.False(t, sale.IsBillable())

		sale.RevertToPending()
		assert.Equal(t, SalePaymentStatusPending, sale.PaymentStatus)
		assert.True(t, sale.IsBillable())
	})

	t.Run("billing a billed sale fails", func(t *testing.T) {
		sale, err := NewCreditSale(uuid.New(), time.Now(), testItems("60"))
		require.NoError(t, err)
		require.NoError(t, sale.MarkBilled())
		assert.Error(t, sale.MarkBilled())
	})
}
