package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/proteinapura/storefront/internal/cart"
	"github.com/proteinapura/storefront/pkg/currency"
	"github.com/proteinapura/storefront/pkg/db/models"
)

const usage = `usage: storefront [-storage path] <command> [flags]

commands:
  products [-category id] [-featured] [-limit n] [-q text]
  product -id id
  categories
  flavors
  cart add -product id [-flavor id]
  cart remove -product id [-flavor id]
  cart set -product id [-flavor id] -qty n
  cart clear
  cart show
  checkout [-name text] [-ci text] [-address text]
`

var errUsage = errors.New("invalid usage")

type catalogReader interface {
	ListActiveProducts(ctx context.Context) ([]models.ProductDetail, error)
	ListProductsByCategory(ctx context.Context, categoryID int64) ([]models.ProductDetail, error)
	ListFeaturedProducts(ctx context.Context, limit int) ([]models.ProductDetail, error)
	SearchProducts(ctx context.Context, query string) ([]models.ProductDetail, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	ListFlavors(ctx context.Context) ([]models.Flavor, error)
	GetProduct(ctx context.Context, id int64) (*models.ProductDetail, error)
}

type client struct {
	catalog  catalogReader
	cart     *cart.Store
	contacts *cart.ContactStore
	phone    string
	out      io.Writer
}

func (c *client) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "products":
		return c.products(ctx, args[1:])
	case "product":
		return c.product(ctx, args[1:])
	case "categories":
		return c.categories(ctx)
	case "flavors":
		return c.flavors(ctx)
	case "cart":
		return c.cartCommand(ctx, args[1:])
	case "checkout":
		return c.checkout(args[1:])
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}
}

func (c *client) products(ctx context.Context, args []string) error {
	fs := newFlagSet("products")
	category := fs.Int64("category", 0, "category id")
	featured := fs.Bool("featured", false, "only products on sale")
	limit := fs.Int("limit", 0, "featured limit")
	query := fs.String("q", "", "search text")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	var (
		items []models.ProductDetail
		err   error
	)
	switch {
	case strings.TrimSpace(*query) != "":
		items, err = c.catalog.SearchProducts(ctx, *query)
	case *category > 0:
		items, err = c.catalog.ListProductsByCategory(ctx, *category)
	case *featured:
		items, err = c.catalog.ListFeaturedProducts(ctx, *limit)
	default:
		items, err = c.catalog.ListActiveProducts(ctx)
	}
	if err != nil {
		return err
	}
	if len(items) == 0 {
		fmt.Fprintln(c.out, "No se encontraron productos")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCTO\tCATEGORIA\tPRECIO\tOFERTA")
	for _, p := range items {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", p.ID, p.Nombre, categoryName(p), currency.Format(p.Precio), offerLabel(p))
	}
	return tw.Flush()
}

func (c *client) product(ctx context.Context, args []string) error {
	fs := newFlagSet("product")
	id := fs.Int64("id", 0, "product id")
	if err := fs.Parse(args); err != nil || *id <= 0 {
		return errUsage
	}
	p, err := c.catalog.GetProduct(ctx, *id)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "%s (#%d)\n", p.Nombre, p.ID)
	fmt.Fprintf(c.out, "Categoría: %s\n", categoryName(*p))
	fmt.Fprintf(c.out, "Precio: %s\n", currency.Format(p.Precio))
	if p.IsOferta {
		fmt.Fprintf(c.out, "Antes: %s (ahorrás %s)\n", currency.Format(currency.ListPrice(p.Precio)), currency.Format(currency.Savings(p.Precio)))
	}
	if p.Descripcion != nil && *p.Descripcion != "" {
		fmt.Fprintln(c.out, *p.Descripcion)
	}
	if len(p.SaboresInfo) > 0 {
		names := make([]string, 0, len(p.SaboresInfo))
		for _, f := range p.SaboresInfo {
			names = append(names, fmt.Sprintf("%s (%d)", f.Descripcion, f.ID))
		}
		fmt.Fprintf(c.out, "Sabores: %s\n", strings.Join(names, ", "))
	}
	return nil
}

func (c *client) categories(ctx context.Context) error {
	items, err := c.catalog.ListCategories(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCATEGORIA")
	for _, cat := range items {
		fmt.Fprintf(tw, "%d\t%s\n", cat.ID, cat.Descripcion)
	}
	return tw.Flush()
}

func (c *client) flavors(ctx context.Context) error {
	items, err := c.catalog.ListFlavors(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSABOR")
	for _, f := range items {
		fmt.Fprintf(tw, "%d\t%s\n", f.ID, f.Descripcion)
	}
	return tw.Flush()
}

func (c *client) cartCommand(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	sub, args := args[0], args[1:]

	fs := newFlagSet("cart " + sub)
	productID := fs.Int64("product", 0, "product id")
	flavorID := fs.Int64("flavor", 0, "flavor id")
	qty := fs.Int("qty", 0, "quantity")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}
	var flavor *int64
	if *flavorID > 0 {
		flavor = flavorID
	}

	switch sub {
	case "add":
		if *productID <= 0 {
			return errUsage
		}
		p, err := c.catalog.GetProduct(ctx, *productID)
		if err != nil {
			return err
		}
		var chosen *models.Flavor
		if flavor != nil {
			if chosen = findFlavor(p.SaboresInfo, *flavor); chosen == nil {
				return fmt.Errorf("el sabor %d no está disponible para %s", *flavor, p.Nombre)
			}
		}
		c.cart.AddToCart(*p, chosen)
	case "remove":
		if *productID <= 0 {
			return errUsage
		}
		c.cart.RemoveFromCart(*productID, flavor)
	case "set":
		if *productID <= 0 {
			return errUsage
		}
		c.cart.UpdateQuantity(*productID, flavor, *qty)
	case "clear":
		c.cart.ClearCart()
	case "show":
	default:
		return fmt.Errorf("%w: unknown cart command %q", errUsage, sub)
	}
	return c.showCart()
}

func (c *client) showCart() error {
	items := c.cart.Items()
	if len(items) == 0 {
		fmt.Fprintln(c.out, "El carrito está vacío")
		return nil
	}

	tw := tabwriter.NewWriter(c.out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPRODUCTO\tSABOR\tCANT\tTOTAL")
	for _, item := range items {
		sabor := "-"
		if item.SaborSeleccionado != nil {
			sabor = item.SaborSeleccionado.Descripcion
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", item.Producto.ID, item.Producto.Nombre, sabor, item.Quantity, currency.Format(item.LineTotal()))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	summary := cart.Summarize(items)
	fmt.Fprintf(c.out, "\nArtículos: %d\n", c.cart.CartItemsCount())
	fmt.Fprintf(c.out, "Subtotal: %s\n", currency.Format(summary.Subtotal))
	fmt.Fprintf(c.out, "Envío: %s\n", currency.FormatShipping(summary.Shipping))
	fmt.Fprintf(c.out, "Total: %s\n", currency.Format(summary.Total))
	return nil
}

// checkout fills missing contact fields from the saved contact and keeps the result for next time.
func (c *client) checkout(args []string) error {
	fs := newFlagSet("checkout")
	name := fs.String("name", "", "full name")
	ci := fs.String("ci", "", "CI or RUC")
	address := fs.String("address", "", "delivery address")
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	contact := c.contacts.Load()
	if v := strings.TrimSpace(*name); v != "" {
		contact.FullName = v
	}
	if v := strings.TrimSpace(*ci); v != "" {
		contact.CiRuc = v
	}
	if v := strings.TrimSpace(*address); v != "" {
		contact.Address = v
	}
	c.contacts.Save(contact)

	order, err := cart.Checkout(contact, c.cart.Items(), c.phone)
	if err != nil {
		return err
	}
	fmt.Fprintln(c.out, order.Message)
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, order.URL)
	return nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

func findFlavor(flavors []models.Flavor, id int64) *models.Flavor {
	for i := range flavors {
		if flavors[i].ID == id {
			f := flavors[i]
			return &f
		}
	}
	return nil
}

func categoryName(p models.ProductDetail) string {
	if p.CategoriaInfo == nil {
		return "-"
	}
	return p.CategoriaInfo.Descripcion
}

func offerLabel(p models.ProductDetail) string {
	if !p.IsOferta {
		return ""
	}
	return "antes " + currency.Format(currency.ListPrice(p.Precio))
}
