package model

import "time"

// Draft is the single un-finalized invoice kept while a new invoice is being written.
// It carries its own active set so no global flag state is needed.
type Draft struct {
	ID          string `json:"id"`
	WorkspaceID string `json:"workspaceId"`
	InvoiceForm
	ActiveFields []string  `json:"activeFields"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Active returns the draft's active set, falling back to the derived one when the draft
// was stored without it.
func (d Draft) Active() []string {
	if d.ActiveFields == nil {
		return DeriveActiveFields(d.OptionalFields)
	}
	return CanonicalFields(d.ActiveFields)
}

// Normalize mirrors Invoice.Normalize for drafts.
func (d *Draft) Normalize() {
	d.ActiveFields = d.Active()
	d.InvoiceForm = d.InvoiceForm.Effective(d.ActiveFields)
	d.InvoiceForm.normalize()
	d.UpdatedAt = CanonicalTime(d.UpdatedAt)
}
