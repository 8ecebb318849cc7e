package helloasso

import (
	"fmt"
	"time"
)

// PaymentState enumerates the payment lifecycle states of the HelloAsso v5
// API. The set is closed: the transformer refuses states outside it.
type PaymentState string

const (
	StatePending    PaymentState = "Pending"
	StateAuthorized PaymentState = "Authorized"
	StateRefused    PaymentState = "Refused"
	StateRegistered PaymentState = "Registered"
	StateRefunded   PaymentState = "Refunded"
	StateRefunding  PaymentState = "Refunding"
	StateContested  PaymentState = "Contested"
)

// Payer identifies who made a payment.
type Payer struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// Item is one order line covered by a payment. Amount is in centimes.
type Item struct {
	Name   string `json:"name"`
	Amount int64  `json:"amount"`
	State  string `json:"state"`
}

// Order ties a payment back to the order that produced it.
type Order struct {
	ID   int64     `json:"id"`
	Date time.Time `json:"date"`
}

// Payment is one payment record as returned by the v5 payments endpoint.
// Amount is in centimes.
type Payment struct {
	ID     int64        `json:"id"`
	Amount int64        `json:"amount"`
	Date   time.Time    `json:"date"`
	State  PaymentState `json:"state"`
	Payer  Payer        `json:"payer"`
	Items  []Item       `json:"items"`
	Order  Order        `json:"order"`
}

// validate reports the first structural problem with a decoded payment.
// Optional sub-objects may be absent, but a record without an id, date or
// state cannot be exported.
func (p *Payment) validate() error {
	if p.ID == 0 {
		return fmt.Errorf("payment missing id")
	}
	if p.Date.IsZero() {
		return fmt.Errorf("payment %d: missing date", p.ID)
	}
	if p.State == "" {
		return fmt.Errorf("payment %d: missing state", p.ID)
	}
	return nil
}

// pagination is the paging envelope returned with each payments page.
type pagination struct {
	PageSize          int    `json:"pageSize"`
	TotalCount        int    `json:"totalCount"`
	PageIndex         int    `json:"pageIndex"`
	TotalPages        int    `json:"totalPages"`
	ContinuationToken string `json:"continuationToken"`
}

// paymentsPage is one page of the payments listing.
type paymentsPage struct {
	Data       []Payment   `json:"data"`
	Pagination *pagination `json:"pagination"`
}

// tokenResponse is the OAuth2 token endpoint payload.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}
