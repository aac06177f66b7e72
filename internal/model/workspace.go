package model

import "time"

// DefaultWorkspaceName is used for the workspace created when none exist.
const DefaultWorkspaceName = "Personal Workspace"

// BusinessDetails are the fallback sender details of a workspace.
type BusinessDetails struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Address    string `json:"address"`
	Phone      string `json:"phone"`
	TaxNumber  string `json:"taxNumber"`
	PostalCode string `json:"postalCode"`
	Logo       string `json:"logo,omitempty"`
}

// Sender converts the details into the invoice "from" block.
func (b BusinessDetails) Sender() Sender {
	return Sender{
		Name:       b.Name,
		Email:      b.Email,
		Address:    b.Address,
		Phone:      b.Phone,
		TaxNumber:  b.TaxNumber,
		PostalCode: b.PostalCode,
	}
}

// Workspace scopes every other entity.
type Workspace struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	BusinessDetails BusinessDetails `json:"businessDetails"`
	Logo            string          `json:"logo,omitempty"`
	IsPersonal      bool            `json:"isPersonal,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
}
