package model

import "time"

type Customer struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspaceId"`
	BusinessName string    `json:"businessName"`
	Email        string    `json:"email"`
	Address      string    `json:"address"`
	Phone        string    `json:"phone,omitempty"`
	Notes        string    `json:"notes,omitempty"`
	IsDefault    bool      `json:"isDefault"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (c *Customer) RecordID() string       { return c.ID }
func (c *Customer) Scope() string          { return c.WorkspaceID }
func (c *Customer) Default() bool          { return c.IsDefault }
func (c *Customer) SetDefault(v bool)      { c.IsDefault = v }
func (c *Customer) SetWorkspace(id string) { c.WorkspaceID = id }
func (c *Customer) Stamp(id string, at time.Time) {
	c.ID, c.CreatedAt = id, at
}

// Recipient converts the customer into the invoice "to" block.
func (c Customer) Recipient() Recipient {
	return Recipient{BusinessName: c.BusinessName, Address: c.Address}
}

// Business is a sender profile of a workspace.
type Business struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspaceId"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	Address     string    `json:"address"`
	Phone       string    `json:"phone"`
	TaxNumber   string    `json:"taxNumber"`
	PostalCode  string    `json:"postalCode"`
	Logo        string    `json:"logo,omitempty"`
	IsDefault   bool      `json:"isDefault"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (b *Business) RecordID() string       { return b.ID }
func (b *Business) Scope() string          { return b.WorkspaceID }
func (b *Business) Default() bool          { return b.IsDefault }
func (b *Business) SetDefault(v bool)      { b.IsDefault = v }
func (b *Business) SetWorkspace(id string) { b.WorkspaceID = id }
func (b *Business) Stamp(id string, at time.Time) {
	b.ID, b.CreatedAt = id, at
}

func (b Business) Sender() Sender {
	return Sender{
		Name:       b.Name,
		Email:      b.Email,
		Address:    b.Address,
		Phone:      b.Phone,
		TaxNumber:  b.TaxNumber,
		PostalCode: b.PostalCode,
	}
}

type BankAccount struct {
	ID            string    `json:"id"`
	WorkspaceID   string    `json:"workspaceId"`
	Name          string    `json:"name"`
	BankName      string    `json:"bankName"`
	AccountNumber string    `json:"accountNumber"`
	AccountName   string    `json:"accountName"`
	SwiftCode     string    `json:"swiftCode,omitempty"`
	IFSCCode      string    `json:"ifscCode,omitempty"`
	RoutingNumber string    `json:"routingNumber,omitempty"`
	IsDefault     bool      `json:"isDefault"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (a *BankAccount) RecordID() string       { return a.ID }
func (a *BankAccount) Scope() string          { return a.WorkspaceID }
func (a *BankAccount) Default() bool          { return a.IsDefault }
func (a *BankAccount) SetDefault(v bool)      { a.IsDefault = v }
func (a *BankAccount) SetWorkspace(id string) { a.WorkspaceID = id }
func (a *BankAccount) Stamp(id string, at time.Time) {
	a.ID, a.CreatedAt = id, at
}
