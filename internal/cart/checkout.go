package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode"

	"github.com/proteinapura/storefront/pkg/currency"
	"github.com/proteinapura/storefront/pkg/logger"
	"github.com/shopspring/decimal"
)

// ContactKey is where the checkout form is remembered.
const ContactKey = "pp_checkout"

var (
	ErrIncompleteContact = errors.New("nombre, CI/RUC y dirección son obligatorios")
	ErrEmptyCart         = errors.New("el carrito está vacío")
)

var (
	freeShippingOver = decimal.NewFromInt(50000)
	flatShippingFee  = decimal.NewFromInt(8000)
)

// Contact is the shopper data sent along with a WhatsApp order.
type Contact struct {
	FullName string `json:"fullName"`
	CiRuc    string `json:"ciRuc"`
	Address  string `json:"address"`
}

func (c Contact) complete() bool {
	return strings.TrimSpace(c.FullName) != "" &&
		strings.TrimSpace(c.CiRuc) != "" &&
		strings.TrimSpace(c.Address) != ""
}

// ContactStore remembers the checkout form between runs.
type ContactStore struct {
	storage Storage
	logg    *logger.Logger
}

func NewContactStore(storage Storage, logg *logger.Logger) *ContactStore {
	if logg == nil {
		logg = logger.Nop()
	}
	return &ContactStore{storage: storage, logg: logg}
}

// Load returns the saved contact, or the zero value when nothing usable is stored.
func (c *ContactStore) Load() Contact {
	ctx := c.logg.WithField(context.Background(), "storage_key", ContactKey)
	raw, ok, err := c.storage.GetItem(ContactKey)
	if err != nil {
		c.logg.Error(ctx, "checkout.load_contact", err)
		return Contact{}
	}
	if !ok {
		return Contact{}
	}
	var contact Contact
	if err := json.Unmarshal([]byte(raw), &contact); err != nil {
		c.logg.Warn(ctx, "ignoring unreadable checkout contact")
		return Contact{}
	}
	return contact
}

func (c *ContactStore) Save(contact Contact) {
	ctx := c.logg.WithField(context.Background(), "storage_key", ContactKey)
	raw, err := json.Marshal(contact)
	if err != nil {
		c.logg.Error(ctx, "checkout.encode_contact", err)
		return
	}
	if err := c.storage.SetItem(ContactKey, string(raw)); err != nil {
		c.logg.Error(ctx, "checkout.save_contact", err)
	}
}

// Summary is the money breakdown shown before checkout.
type Summary struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Shipping decimal.Decimal `json:"shipping"`
	Total    decimal.Decimal `json:"total"`
}

// Shipping is free for an empty cart or a subtotal above 50.000, otherwise a flat 8.000.
func Shipping(lines int, subtotal decimal.Decimal) decimal.Decimal {
	if lines == 0 || subtotal.GreaterThan(freeShippingOver) {
		return decimal.Zero
	}
	return flatShippingFee
}

func Summarize(items []LineItem) Summary {
	sub := subtotal(items)
	ship := Shipping(len(items), sub)
	return Summary{Subtotal: sub, Shipping: ship, Total: sub.Add(ship)}
}

// BuildWhatsAppMessage renders the order text sent to the store.
func BuildWhatsAppMessage(contact Contact, items []LineItem, summary Summary) string {
	lines := []string{
		"Nuevo pedido desde la web",
		"Nombre: " + contact.FullName,
		"CI/RUC: " + contact.CiRuc,
		"Dirección: " + contact.Address,
		"",
		"Items:",
	}
	for i, item := range items {
		sabor := ""
		if item.SaborSeleccionado != nil {
			sabor = " | Sabor: " + item.SaborSeleccionado.Descripcion
		}
		lines = append(lines, fmt.Sprintf("%d. %s%s | Cant: %d | %s",
			i+1, item.Producto.Nombre, sabor, item.Quantity, currency.Format(item.LineTotal())))
	}
	lines = append(lines,
		"",
		"Subtotal: "+currency.Format(summary.Subtotal),
		"Envío: "+currency.FormatShipping(summary.Shipping),
		"Total: "+currency.Format(summary.Total),
	)
	return strings.Join(lines, "\n")
}

// WhatsAppURL builds a wa.me link for phone with message prefilled.
func WhatsAppURL(phone, message string) string {
	digits := strings.Map(func(r rune) rune {
		if unicode.IsDigit(r) && r < unicode.MaxASCII {
			return r
		}
		return -1
	}, phone)
	text := strings.ReplaceAll(url.QueryEscape(message), "+", "%20")
	return "https://wa.me/" + digits + "?text=" + text
}

// Order is a checkout ready to be sent.
type Order struct {
	Contact Contact `json:"contact"`
	Summary Summary `json:"summary"`
	Message string  `json:"message"`
	URL     string  `json:"url"`
}

// Checkout validates the contact and cart and builds the WhatsApp order.
func Checkout(contact Contact, items []LineItem, phone string) (*Order, error) {
	if !contact.complete() {
		return nil, ErrIncompleteContact
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}
	summary := Summarize(items)
	message := BuildWhatsAppMessage(contact, items, summary)
	return &Order{
		Contact: contact,
		Summary: summary,
		Message: message,
		URL:     WhatsAppURL(phone, message),
	}, nil
}
