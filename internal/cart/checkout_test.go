package cart

import (
	"net/url"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestShippingRule(t *testing.T) {
	assert.True(t, Shipping(0, decimal.Zero).IsZero())
	assert.True(t, Shipping(1, decimal.NewFromInt(50000)).Equal(decimal.NewFromInt(8000)))
	assert.True(t, Shipping(1, decimal.NewFromInt(50001)).IsZero())
	assert.True(t, Shipping(2, decimal.NewFromInt(12000)).Equal(decimal.NewFromInt(8000)))
}

func TestSummarize(t *testing.T) {
	items := []LineItem{
		{Producto: product(1, "Whey", 15000), Quantity: 2},
	}
	s := Summarize(items)
	assert.True(t, s.Subtotal.Equal(decimal.NewFromInt(30000)))
	assert.True(t, s.Shipping.Equal(decimal.NewFromInt(8000)))
	assert.True(t, s.Total.Equal(decimal.NewFromInt(38000)))

	empty := Summarize(nil)
	assert.True(t, empty.Total.IsZero())
}

func TestBuildWhatsAppMessage(t *testing.T) {
	contact := Contact{FullName: "Ana Pérez", CiRuc: "1234567", Address: "Av. España 100"}
	items := []LineItem{
		{Producto: product(1, "Whey Gold", 250000), Quantity: 2, SaborSeleccionado: flavor(3, "Vainilla")},
		{Producto: product(2, "Creatina", 120000), Quantity: 1},
	}
	msg := BuildWhatsAppMessage(contact, items, Summarize(items))
	lines := strings.Split(msg, "\n")

	require.Len(t, lines, 12)
	assert.Equal(t, "Nuevo pedido desde la web", lines[0])
	assert.Equal(t, "Nombre: Ana Pérez", lines[1])
	assert.Equal(t, "CI/RUC: 1234567", lines[2])
	assert.Equal(t, "Dirección: Av. España 100", lines[3])
	assert.Equal(t, "", lines[4])
	assert.Equal(t, "Items:", lines[5])
	assert.Equal(t, "1. Whey Gold | Sabor: Vainilla | Cant: 2 | Gs. 500.000", lines[6])
	assert.Equal(t, "2. Creatina | Cant: 1 | Gs. 120.000", lines[7])
	assert.Equal(t, "", lines[8])
	assert.Equal(t, "Subtotal: Gs. 620.000", lines[9])
	assert.Equal(t, "Envío: Gratis", lines[10])
	assert.Equal(t, "Total: Gs. 620.000", lines[11])
}

func TestWhatsAppURL(t *testing.T) {
	got := WhatsAppURL("+595 981-000 000", "Hola & chau\nTotal: 10")
	assert.True(t, strings.HasPrefix(got, "https://wa.me/595981000000?text="))
	assert.NotContains(t, got, "+")
	assert.Contains(t, got, "%20")

	u, err := url.Parse(got)
	require.NoError(t, err)
	assert.Equal(t, "Hola & chau\nTotal: 10", u.Query().Get("text"))
}

func TestCheckoutValidation(t *testing.T) {
	items := []LineItem{{Producto: product(1, "Whey", 15000), Quantity: 1}}

	_, err := Checkout(Contact{FullName: "Ana", CiRuc: " ", Address: "x"}, items, "595981000000")
	assert.ErrorIs(t, err, ErrIncompleteContact)

	full := Contact{FullName: "Ana", CiRuc: "123", Address: "x"}
	_, err = Checkout(full, nil, "595981000000")
	assert.ErrorIs(t, err, ErrEmptyCart)

	order, err := Checkout(full, items, "+595 981 000000")
	require.NoError(t, err)
	assert.True(t, order.Summary.Total.Equal(decimal.NewFromInt(23000)))
	assert.Contains(t, order.URL, "https://wa.me/595981000000?text=")
}

func TestContactStoreToleratesCorruptData(t *testing.T) {
	storage := NewMemoryStorage()
	cs := NewContactStore(storage, nil)
	assert.Equal(t, Contact{}, cs.Load())

	require.NoError(t, storage.SetItem(ContactKey, "not-json"))
	assert.Equal(t, Contact{}, cs.Load())

	cs.Save(Contact{FullName: "Ana", CiRuc: "1", Address: "Calle 1"})
	raw, _, _ := storage.GetItem(ContactKey)
	assert.JSONEq(t, `{"fullName":"Ana","ciRuc":"1","address":"Calle 1"}`, raw)
	assert.Equal(t, "Ana", cs.Load().FullName)
}
