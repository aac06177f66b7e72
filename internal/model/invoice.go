package model

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus enum
type InvoiceStatus string

const (
	StatusDraft   InvoiceStatus = "draft"
	StatusPending InvoiceStatus = "pending"
	StatusPaid    InvoiceStatus = "paid"
	StatusOverdue InvoiceStatus = "overdue"
)

// Valid reports whether s is one of the known statuses.
func (s InvoiceStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPending, StatusPaid, StatusOverdue:
		return true
	}
	return false
}

// Sender is the issuing business as printed on the invoice.
type Sender struct {
	Name       string `json:"name"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address"`
	Phone      string `json:"phone,omitempty"`
	TaxNumber  string `json:"taxNumber,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Recipient is the billed party.
type Recipient struct {
	BusinessName string `json:"businessName"`
	Address      string `json:"address"`
	Optional     string `json:"optional,omitempty"` // additional shipping info
}

type Item struct {
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
}

// Amount is quantity × rate.
func (i Item) Amount() decimal.Decimal {
	return i.Quantity.Mul(i.Rate)
}

// ItemLabels are the column headings of the item table.
type ItemLabels struct {
	Description string `json:"description"`
	Quantity    string `json:"quantity"`
	Price       string `json:"price"`
	Amount      string `json:"amount"`
}

func DefaultItemLabels() ItemLabels {
	return ItemLabels{
		Description: "DESCRIPTION",
		Quantity:    "QTY",
		Price:       "PRICE",
		Amount:      "AMOUNT",
	}
}

// InvoiceForm is the editable content of an invoice. Drafts, invoice records and the
// autosave sessions all carry it.
type InvoiceForm struct {
	Number       string          `json:"number"`
	Logo         string          `json:"logo,omitempty"`
	Date         time.Time       `json:"date"`
	DueDate      time.Time       `json:"dueDate"`
	PaymentTerms string          `json:"paymentTerms,omitempty"`
	PONumber     string          `json:"poNumber,omitempty"`
	Currency     string          `json:"currency"`
	From         Sender          `json:"from"`
	To           Recipient       `json:"to"`
	Items        []Item          `json:"items"`
	Tax          decimal.Decimal `json:"tax"` // percent
	Shipping     decimal.Decimal `json:"shipping"`
	Discount     decimal.Decimal `json:"discount"`
	AmountPaid   decimal.Decimal `json:"amountPaid"`
	Notes        string          `json:"notes"`
	Terms        string          `json:"terms,omitempty"`
	ItemLabels   ItemLabels      `json:"itemLabels"`
	OptionalFields
	SelectedBankAccountID string `json:"selectedBankAccountId,omitempty"`
}

// Subtotal is Σ quantity × rate.
func (f InvoiceForm) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range f.Items {
		sum = sum.Add(item.Amount())
	}
	return sum
}

// TaxAmount is the subtotal multiplied by the tax percentage.
func (f InvoiceForm) TaxAmount() decimal.Decimal {
	return f.Subtotal().Mul(f.Tax).Div(decimal.NewFromInt(100))
}

// Total is subtotal × (1 + tax/100) + shipping − discount.
func (f InvoiceForm) Total() decimal.Decimal {
	return f.Subtotal().Add(f.TaxAmount()).Add(f.Shipping).Sub(f.Discount)
}

// BalanceDue is the total minus what has already been paid.
func (f InvoiceForm) BalanceDue() decimal.Decimal {
	return f.Total().Sub(f.AmountPaid)
}

// Clone returns a deep copy; items and optional values are not shared.
func (f InvoiceForm) Clone() InvoiceForm {
	out := f
	if f.Items != nil {
		out.Items = append([]Item(nil), f.Items...)
	}
	out.OptionalFields = f.OptionalFields.Clone()
	return out
}

// Invoice is a committed invoice record.
type Invoice struct {
	ID     string        `json:"id"`
	Status InvoiceStatus `json:"status"`
	InvoiceForm
	// ActiveFields is nil only for records written before active fields were tracked.
	ActiveFields []string   `json:"activeFields"`
	WorkspaceID  string     `json:"workspaceId"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

func (i *Invoice) RecordID() string { return i.ID }
func (i *Invoice) Scope() string    { return i.WorkspaceID }

// Active returns the record's active set, deriving it from stored values when the
// record predates active field tracking.
func (i Invoice) Active() []string {
	if i.ActiveFields == nil {
		return DeriveActiveFields(i.OptionalFields)
	}
	return CanonicalFields(i.ActiveFields)
}

// Effective is the view every reader must consume: optional fields outside the active
// set are absent regardless of what is stored.
func (i Invoice) Effective() Invoice {
	active := i.Active()
	out := i
	out.InvoiceForm = i.InvoiceForm.Effective(active)
	out.ActiveFields = active
	return out
}

// Normalize brings a record into its canonical stored form: UTC millisecond dates,
// canonical active set, inactive optional values dropped, default labels filled in.
func (i *Invoice) Normalize() {
	i.ActiveFields = i.Active()
	i.InvoiceForm = i.InvoiceForm.Effective(i.ActiveFields)
	i.InvoiceForm.normalize()
	i.CreatedAt = CanonicalTime(i.CreatedAt)
	if i.UpdatedAt != nil {
		t := CanonicalTime(*i.UpdatedAt)
		i.UpdatedAt = &t
	}
}

func (f *InvoiceForm) normalize() {
	f.Date = CanonicalTime(f.Date)
	f.DueDate = CanonicalTime(f.DueDate)
	if f.ItemLabels == (ItemLabels{}) {
		f.ItemLabels = DefaultItemLabels()
	}
	if f.Items == nil {
		f.Items = []Item{}
	}
}

// CanonicalTime is the single representation dates are compared and stored in.
func CanonicalTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.UTC().Truncate(time.Millisecond)
}

// SameContent reports whether two records are equal once both are normalized,
// ignoring updatedAt.
func SameContent(a, b Invoice) bool {
	a, b = a.copy(), b.copy()
	a.Normalize()
	b.Normalize()
	a.UpdatedAt, b.UpdatedAt = nil, nil
	left, err := json.Marshal(a)
	if err != nil {
		return false
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

// Copy returns a deep copy of the record.
func (i Invoice) Copy() Invoice {
	return i.copy()
}

func (i Invoice) copy() Invoice {
	out := i
	out.InvoiceForm = i.InvoiceForm.Clone()
	if i.ActiveFields != nil {
		out.ActiveFields = append([]string{}, i.ActiveFields...)
	}
	if i.UpdatedAt != nil {
		t := *i.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}
