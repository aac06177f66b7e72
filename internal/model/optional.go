package model

// Optional field names, in display order.
const (
	FieldGST                = "gst"
	FieldTaxID              = "taxId"
	FieldVATNumber          = "vatNumber"
	FieldCustomerID         = "customerId"
	FieldReferenceNumber    = "referenceNumber"
	FieldProjectCode        = "projectCode"
	FieldBankDetails        = "bankDetails"
	FieldTermsAndConditions = "termsAndConditions"
)

// OptionalFieldNames lists every field that can be switched on and off.
var OptionalFieldNames = []string{
	FieldGST,
	FieldTaxID,
	FieldVATNumber,
	FieldCustomerID,
	FieldReferenceNumber,
	FieldProjectCode,
	FieldBankDetails,
	FieldTermsAndConditions,
}

// OptionalFields holds the values of the optional fields. A nil pointer is the absent
// sentinel and is distinct from an empty string.
type OptionalFields struct {
	GST                *string `json:"gst,omitempty"`
	TaxID              *string `json:"taxId,omitempty"`
	VATNumber          *string `json:"vatNumber,omitempty"`
	CustomerID         *string `json:"customerId,omitempty"`
	ReferenceNumber    *string `json:"referenceNumber,omitempty"`
	ProjectCode        *string `json:"projectCode,omitempty"`
	BankDetails        *string `json:"bankDetails,omitempty"`
	TermsAndConditions *string `json:"termsAndConditions,omitempty"`
}

// IsOptionalField reports whether name is a known optional field.
func IsOptionalField(name string) bool {
	for _, n := range OptionalFieldNames {
		if n == name {
			return true
		}
	}
	return false
}

func (o *OptionalFields) slot(name string) **string {
	switch name {
	case FieldGST:
		return &o.GST
	case FieldTaxID:
		return &o.TaxID
	case FieldVATNumber:
		return &o.VATNumber
	case FieldCustomerID:
		return &o.CustomerID
	case FieldReferenceNumber:
		return &o.ReferenceNumber
	case FieldProjectCode:
		return &o.ProjectCode
	case FieldBankDetails:
		return &o.BankDetails
	case FieldTermsAndConditions:
		return &o.TermsAndConditions
	}
	return nil
}

// Get returns the raw stored value of an optional field; nil means absent.
func (o OptionalFields) Get(name string) *string {
	if s := o.slot(name); s != nil {
		return *s
	}
	return nil
}

// Set stores value (nil for absent). It returns false for unknown names.
func (o *OptionalFields) Set(name string, value *string) bool {
	s := o.slot(name)
	if s == nil {
		return false
	}
	*s = value
	return true
}

// Clone copies the struct without sharing the pointed-to strings.
func (o OptionalFields) Clone() OptionalFields {
	var out OptionalFields
	for _, name := range OptionalFieldNames {
		if v := o.Get(name); v != nil {
			out.Set(name, String(*v))
		}
	}
	return out
}

// Filter keeps only the values of fields in active.
func (o OptionalFields) Filter(active []string) OptionalFields {
	var out OptionalFields
	for _, name := range active {
		if v := o.Get(name); v != nil {
			out.Set(name, String(*v))
		}
	}
	return out
}

// Effective returns a copy of the form whose optional fields outside active are absent.
func (f InvoiceForm) Effective(active []string) InvoiceForm {
	out := f.Clone()
	out.OptionalFields = f.OptionalFields.Filter(active)
	if !ContainsField(active, FieldBankDetails) {
		out.SelectedBankAccountID = ""
	}
	return out
}

// DeriveActiveFields infers the active set from non-empty values. It is the read path
// for records stored before active fields were tracked.
func DeriveActiveFields(o OptionalFields) []string {
	active := []string{}
	for _, name := range OptionalFieldNames {
		if v := o.Get(name); v != nil && *v != "" {
			active = append(active, name)
		}
	}
	return active
}

// CanonicalFields drops unknown and duplicate names and orders the rest like
// OptionalFieldNames. The result is never nil.
func CanonicalFields(fields []string) []string {
	out := []string{}
	for _, name := range OptionalFieldNames {
		if ContainsField(fields, name) {
			out = append(out, name)
		}
	}
	return out
}

func ContainsField(fields []string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// String returns a pointer to a copy of s.
func String(s string) *string {
	return &s
}
