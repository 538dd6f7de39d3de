package bill

import (
	"fmt"
	"time"
)

// Type is the kind of document a bill represents.
type Type string

const (
	TypeFuel  Type = "fuel"
	TypeRent  Type = "rent"
	TypeOther Type = "other"
)

// Types lists every supported bill type.
func Types() []Type { return []Type{TypeFuel, TypeRent, TypeOther} }

// Valid reports whether t is a supported bill type.
func (t Type) Valid() bool {
	switch t {
	case TypeFuel, TypeRent, TypeOther:
		return true
	}
	return false
}

// Tax identification printed on fuel bills.
const (
	TaxNone = "none"
	TaxGST  = "GST No."
	TaxTIN  = "TIN No."
)

// Bill is a saved bill document owned by a user.
// Exactly one of Fuel, Rent or Data is used, depending on Type.
type Bill struct {
	ID         string         `json:"id"`
	UserID     string         `json:"userId"`
	Type       Type           `json:"billType" validate:"required,bill_type"`
	Name       string         `json:"name" validate:"max=200"`
	TemplateID string         `json:"template,omitempty" validate:"omitempty,max=64"`
	Fuel       *Fuel          `json:"fuel,omitempty"`
	Rent       *Rent          `json:"rent,omitempty"`
	Data       map[string]any `json:"data,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
	UpdatedAt  time.Time      `json:"updatedAt"`
}

// Fuel holds the fields of a fuel station receipt.
type Fuel struct {
	Brand          string  `json:"brand,omitempty" bson:"brand" validate:"max=100"`
	StationName    string  `json:"fsName" bson:"fsName" validate:"required,max=200"`
	StationAddress string  `json:"fsAddress" bson:"fsAddress" validate:"required,max=500"`
	StationTel     string  `json:"fsTel,omitempty" bson:"fsTel" validate:"omitempty,phone"`
	Rate           float64 `json:"fsRate" bson:"fsRate" validate:"gt=0"`
	Total          float64 `json:"fsTotal" bson:"fsTotal" validate:"gt=0"`
	Volume         float64 `json:"fsVolume" bson:"fsVolume" validate:"gte=0"`
	Date           string  `json:"fsDate" bson:"fsDate" validate:"required,datetime=2006-01-02"`
	Time           string  `json:"fsTime,omitempty" bson:"fsTime" validate:"omitempty,datetime=15:04"`
	CustomerName   string  `json:"csName,omitempty" bson:"csName" validate:"max=200"`
	VehicleNumber  string  `json:"vehNumber,omitempty" bson:"vehNumber" validate:"max=32"`
	VehicleType    string  `json:"vehType,omitempty" bson:"vehType" validate:"max=32"`
	PaymentType    string  `json:"paymentType,omitempty" bson:"paymentType" validate:"max=32"`
	InvoiceNumber  string  `json:"invoiceNumber,omitempty" bson:"invoiceNumber" validate:"max=64"`
	TaxOption      string  `json:"taxOption,omitempty" bson:"taxOption" validate:"omitempty,tax_option"`
	TaxNumber      string  `json:"taxNumber,omitempty" bson:"taxNumber" validate:"max=32"`
}

// Rent holds the fields of a rent receipt.
type Rent struct {
	LandlordName    string  `json:"landlordName" bson:"landlordName" validate:"required,max=200"`
	TenantName      string  `json:"tenantName" bson:"tenantName" validate:"required,max=200"`
	RentAmount      float64 `json:"rentAmount" bson:"rentAmount" validate:"gt=0"`
	PropertyAddress string  `json:"propertyAddress" bson:"propertyAddress" validate:"required,max=500"`
	PeriodStart     string  `json:"periodStart" bson:"periodStart" validate:"required,datetime=2006-01-02"`
	PeriodEnd       string  `json:"periodEnd" bson:"periodEnd" validate:"required,datetime=2006-01-02"`
	PaymentDate     string  `json:"paymentDate,omitempty" bson:"paymentDate" validate:"omitempty,datetime=2006-01-02"`
	PaymentMethod   string  `json:"paymentMethod,omitempty" bson:"paymentMethod" validate:"max=32"`
	ReceiptNumber   string  `json:"receiptNumber,omitempty" bson:"receiptNumber" validate:"max=64"`
	LandlordAddress string  `json:"landlordAddress,omitempty" bson:"landlordAddress" validate:"max=500"`
	PAN             string  `json:"panNumber,omitempty" bson:"panNumber" validate:"omitempty,pan"`
	ShowPAN         bool    `json:"showPanDetails,omitempty" bson:"showPanDetails"`
}

// DefaultName returns the name given to a bill saved without one.
func DefaultName(t Type, now time.Time) string {
	date := now.Format("02 Jan 2006")
	switch t {
	case TypeFuel:
		return fmt.Sprintf("Fuel Bill - %s", date)
	case TypeRent:
		return fmt.Sprintf("Rent Receipt - %s", date)
	default:
		return fmt.Sprintf("Bill - %s", date)
	}
}

// Amount returns the headline amount of the bill: the fuel total or the rent.
func (b Bill) Amount() float64 {
	switch {
	case b.Type == TypeFuel && b.Fuel != nil:
		return b.Fuel.Total
	case b.Type == TypeRent && b.Rent != nil:
		return b.Rent.RentAmount
	}
	return 0
}
