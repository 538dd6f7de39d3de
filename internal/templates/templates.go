package templates

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/billforge/core/bill"
	"github.com/dmitrymomot/billforge/core/registry"
	"github.com/dmitrymomot/billforge/pkg/amountwords"
	"github.com/dmitrymomot/billforge/pkg/qrcode"
)

// Template ids.
const (
	Template1 = "template1"
	Template2 = "template2"
	Generic   = "generic"
)

//go:embed html/*.html
var files embed.FS

var funcs = template.FuncMap{
	"inr":  amountwords.Grouped,
	"num":  formatNumber,
	"date": formatDate,
}

// Option configures Register.
type Option func(*options)

type options struct {
	qrSize int
}

// WithQRSize sets the pixel size of invoice QR codes.
func WithQRSize(size int) Option {
	return func(o *options) { o.qrSize = size }
}

// Register parses the embedded layouts and adds them to reg.
func Register(reg *registry.Registry[bill.Bill], opts ...Option) error {
	o := options{qrSize: 128}
	for _, opt := range opts {
		opt(&o)
	}

	t, err := template.New("bills").Funcs(funcs).ParseFS(files, "html/*.html")
	if err != nil {
		return fmt.Errorf("templates: parse: %w", err)
	}

	fuel := string(bill.TypeFuel)
	rent := string(bill.TypeRent)
	other := string(bill.TypeOther)

	reg.Register(fuel, Template1, component(t, "fuel/template1", fuelView(0)),
		registry.WithName("Standard Fuel Bill"),
		registry.WithDescription("Compact station receipt"),
		registry.AsDefault(),
	)
	reg.Register(fuel, Template2, component(t, "fuel/template2", fuelView(o.qrSize)),
		registry.WithName("Detailed Fuel Bill"),
		registry.WithDescription("Itemised receipt with an invoice QR code"),
	)
	reg.Register(rent, Template1, component(t, "rent/template1", rentView),
		registry.WithName("Standard Rent Receipt"),
		registry.WithDescription("Single paragraph acknowledgement"),
		registry.AsDefault(),
	)
	reg.Register(rent, Template2, component(t, "rent/template2", rentView),
		registry.WithName("Detailed Rent Receipt"),
		registry.WithDescription("Tabular receipt with PAN details"),
	)
	reg.Register(other, Generic, component(t, "other/generic", genericView),
		registry.WithName("Generic Bill"),
		registry.WithDescription("Key and value table"),
		registry.AsDefault(),
	)
	return nil
}

// component binds a named layout and its view builder into a renderer.
func component(t *template.Template, name string, view func(bill.Bill) (any, error)) registry.Renderer[bill.Bill] {
	return registry.RendererFunc[bill.Bill](func(b bill.Bill) templ.Component {
		return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
			data, err := view(b)
			if err != nil {
				return err
			}
			return t.ExecuteTemplate(w, name, data)
		})
	})
}

type fuelData struct {
	Fuel    bill.Fuel
	ShowTax bool
	QRCode  template.URL
}

func fuelView(qrSize int) func(bill.Bill) (any, error) {
	return func(b bill.Bill) (any, error) {
		if b.Fuel == nil {
			return nil, fmt.Errorf("templates: %w: fuel details missing", bill.ErrInvalidType)
		}
		f := *b.Fuel
		d := fuelData{
			Fuel:    f,
			ShowTax: f.TaxOption != "" && f.TaxOption != bill.TaxNone && f.TaxNumber != "",
		}
		if qrSize > 0 {
			uri, err := qrcode.GenerateBase64Image(invoiceSummary(f), qrSize)
			if err != nil {
				return nil, fmt.Errorf("templates: invoice qr: %w", err)
			}
			d.QRCode = template.URL(uri)
		}
		return d, nil
	}
}

// invoiceSummary is the text encoded in the fuel invoice QR code.
func invoiceSummary(f bill.Fuel) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Station: %s\n", f.StationName)
	if f.InvoiceNumber != "" {
		fmt.Fprintf(&b, "Receipt: %s\n", f.InvoiceNumber)
	}
	fmt.Fprintf(&b, "Date: %s %s\n", f.Date, f.Time)
	fmt.Fprintf(&b, "Volume: %s L\n", formatNumber(f.Volume))
	fmt.Fprintf(&b, "Amount: Rs %s", amountwords.Grouped(f.Total))
	return b.String()
}

type rentData struct {
	Rent          bill.Rent
	AmountInWords string
	ShowPAN       bool
}

func rentView(b bill.Bill) (any, error) {
	if b.Rent == nil {
		return nil, fmt.Errorf("templates: %w: rent details missing", bill.ErrInvalidType)
	}
	r := *b.Rent
	return rentData{
		Rent:          r,
		AmountInWords: amountwords.Rupees(r.RentAmount),
		ShowPAN:       r.ShowPAN && r.PAN != "",
	}, nil
}

type row struct {
	Key   string
	Value string
}

type genericData struct {
	Name string
	Rows []row
}

func genericView(b bill.Bill) (any, error) {
	keys := slices.Sorted(maps.Keys(b.Data))
	rows := make([]row, 0, len(keys))
	for _, k := range keys {
		rows = append(rows, row{Key: k, Value: fmt.Sprint(b.Data[k])})
	}
	return genericData{Name: b.Name, Rows: rows}, nil
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// formatDate prints an ISO date as "02 January 2006" and passes anything
// else through unchanged.
func formatDate(s string) string {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return s
	}
	return t.Format("02 January 2006")
}
