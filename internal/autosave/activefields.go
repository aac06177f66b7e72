package autosave

import (
	"fmt"

	"invoicer/internal/model"
)

// toggle switches field on or off in form and returns the new active set. Enabling keeps
// an existing value and otherwise starts from ""; disabling stores the absent sentinel.
func toggle(form *model.InvoiceForm, active []string, field string, enabled bool) ([]string, error) {
	if !model.IsOptionalField(field) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownField, field)
	}

	next := make([]string, 0, len(active)+1)
	for _, f := range active {
		if f != field {
			next = append(next, f)
		}
	}
	if enabled {
		next = append(next, field)
		if form.Get(field) == nil {
			form.Set(field, model.String(""))
		}
	} else {
		form.Set(field, nil)
		if field == model.FieldBankDetails {
			form.SelectedBankAccountID = ""
		}
	}
	return model.CanonicalFields(next), nil
}

// conform makes a form coming from the form layer agree with the session's active set:
// inactive values are dropped and active ones are never absent.
func conform(form model.InvoiceForm, active []string) model.InvoiceForm {
	out := form.Effective(active)
	for _, f := range active {
		if out.Get(f) == nil {
			out.Set(f, model.String(""))
		}
	}
	return out
}

// draftActiveFields resolves the active set a stored draft is hydrated with: its own set,
// else the legacy global key, else the set derived from its values.
func draftActiveFields(d model.Draft, legacy []string, hasLegacy bool) []string {
	switch {
	case d.ActiveFields != nil:
		return model.CanonicalFields(d.ActiveFields)
	case hasLegacy:
		return model.CanonicalFields(legacy)
	default:
		return model.DeriveActiveFields(d.OptionalFields)
	}
}
