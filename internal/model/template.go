package model

import "time"

type CustomField struct {
	ID          string   `json:"id"`
	Label       string   `json:"label"`
	Type        string   `json:"type"` // text, number, date, select
	Placeholder string   `json:"placeholder,omitempty"`
	Required    bool     `json:"required,omitempty"`
	Options     []string `json:"options,omitempty"`
	Section     string   `json:"section"` // business, customer, invoice, items, custom
}

type ItemColumn struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Type     string `json:"type"`
	Required bool   `json:"required,omitempty"`
	Show     bool   `json:"show"`
}

type Section struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Show  bool   `json:"show"`
	Order int    `json:"order"`
}

// Template describes the layout of a rendered invoice.
type Template struct {
	ID           string        `json:"id"`
	WorkspaceID  string        `json:"workspaceId"`
	Name         string        `json:"name"`
	IsDefault    bool          `json:"isDefault"`
	CustomFields []CustomField `json:"customFields"`
	ItemColumns  []ItemColumn  `json:"itemColumns"`
	Sections     []Section     `json:"sections"`
	CreatedAt    time.Time     `json:"createdAt"`
}

func (t *Template) RecordID() string       { return t.ID }
func (t *Template) Scope() string          { return t.WorkspaceID }
func (t *Template) Default() bool          { return t.IsDefault }
func (t *Template) SetDefault(v bool)      { t.IsDefault = v }
func (t *Template) SetWorkspace(id string) { t.WorkspaceID = id }
func (t *Template) Stamp(id string, at time.Time) {
	t.ID, t.CreatedAt = id, at
}

// StandardTemplate is seeded into workspaces that have no template yet.
func StandardTemplate() Template {
	return Template{
		Name:      "Standard Invoice Template",
		IsDefault: true,
		CustomFields: []CustomField{
			{ID: "terms-net30", Label: "Payment Terms", Type: "text", Section: "invoice", Placeholder: "Net 30"},
			{ID: "po-number", Label: "PO Number", Type: "text", Section: "invoice", Placeholder: "Purchase Order Number"},
		},
		ItemColumns: []ItemColumn{
			{ID: "description", Label: "Description", Type: "text", Required: true, Show: true},
			{ID: "quantity", Label: "Quantity", Type: "number", Required: true, Show: true},
			{ID: "rate", Label: "Rate", Type: "number", Required: true, Show: true},
			{ID: "amount", Label: "Amount", Type: "number", Required: true, Show: true},
		},
		Sections: []Section{
			{ID: "logo", Name: "Logo", Show: true, Order: 0},
			{ID: "title", Name: "Invoice Title", Show: true, Order: 1},
			{ID: "business", Name: "Business Details", Show: true, Order: 2},
			{ID: "customer", Name: "Customer Details", Show: true, Order: 3},
			{ID: "dates", Name: "Dates & Numbers", Show: true, Order: 4},
			{ID: "items", Name: "Items", Show: true, Order: 5},
			{ID: "totals", Name: "Totals", Show: true, Order: 6},
			{ID: "notes", Name: "Notes", Show: true, Order: 7},
			{ID: "terms", Name: "Terms", Show: true, Order: 8},
		},
	}
}
