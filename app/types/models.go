package types

import (
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusSuccessful Status = "successful"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
	StatusRefunded   Status = "refunded"
)

func (s Status) IsTerminal() bool {
	switch s {
	case StatusSuccessful, StatusFailed, StatusExpired, StatusRefunded:
		return true
	default:
		return false
	}
}

func (s Status) IsKnown() bool {
	return s == StatusPending || s.IsTerminal()
}

type PaymentMethod string

const (
	PaymentMethodCard      PaymentMethod = "card"
	PaymentMethodPromptPay PaymentMethod = "promptpay"
)

type CustomerData struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

type CreatePaymentRequest struct {
	PlanID        string        `json:"planId"`
	PaymentMethod PaymentMethod `json:"paymentMethod"`
	PaymentSource string        `json:"paymentSource,omitempty"`
	CustomerData  *CustomerData `json:"customerData,omitempty"`
}

type PaymentResult struct {
	PaymentID string          `json:"paymentId"`
	ChargeID  string          `json:"chargeId"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	Status    Status          `json:"status"`
	QRCodeURL string          `json:"qr_code_url,omitempty"`
	ExpiresAt string          `json:"expires_at,omitempty"`
}

type SubscriptionRef struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

type PaymentStatus struct {
	ID            string           `json:"id"`
	Status        Status           `json:"status"`
	Amount        decimal.Decimal  `json:"amount"`
	Currency      string           `json:"currency"`
	PaymentMethod string           `json:"paymentMethod"`
	Description   string           `json:"description"`
	PlanName      string           `json:"planName"`
	Organization  string           `json:"organization"`
	Subscription  *SubscriptionRef `json:"subscription,omitempty"`
	CreatedAt     string           `json:"createdAt"`
	UpdatedAt     string           `json:"updatedAt"`
}

type PaymentHistoryItem struct {
	ID            string          `json:"id"`
	PlanName      string          `json:"planName"`
	Organization  string          `json:"organization"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	PaymentMethod string          `json:"paymentMethod"`
	Status        Status          `json:"status"`
	Description   string          `json:"description"`
	CreatedAt     string          `json:"createdAt"`
	UpdatedAt     string          `json:"updatedAt"`
}

type HistoryOptions struct {
	Limit  int
	Offset int
	Status Status
}

type HistoryPage struct {
	Items   []PaymentHistoryItem `json:"items"`
	Total   int                  `json:"total"`
	Limit   int                  `json:"limit"`
	Offset  int                  `json:"offset"`
	HasMore bool                 `json:"hasMore"`
}

type PaymentMethodInfo struct {
	Type        string   `json:"type"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Enabled     bool     `json:"enabled"`
	Currencies  []string `json:"currencies,omitempty"`
}

type Feature struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type SubscriptionPayment struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Method      string          `json:"method"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	PaidAt      string          `json:"paidAt"`
}

type SubscriptionStatus string

const (
	SubscriptionActive    SubscriptionStatus = "active"
	SubscriptionCancelled SubscriptionStatus = "cancelled"
	SubscriptionExpired   SubscriptionStatus = "expired"
)

type Subscription struct {
	ID                  string               `json:"id"`
	PlanID              string               `json:"planId"`
	PlanName            string               `json:"planName"`
	PlanDescription     string               `json:"planDescription"`
	Organization        string               `json:"organization"`
	OrganizationContact string               `json:"organizationContact,omitempty"`
	Price               decimal.Decimal      `json:"price"`
	Duration            int                  `json:"duration"`
	Status              SubscriptionStatus   `json:"status"`
	StartDate           string               `json:"startDate"`
	EndDate             string               `json:"endDate"`
	DaysRemaining       int                  `json:"daysRemaining"`
	IsActive            bool                 `json:"isActive"`
	IsExpired           bool                 `json:"isExpired"`
	Features            []Feature            `json:"features"`
	Payment             *SubscriptionPayment `json:"payment,omitempty"`
	CreatedAt           string               `json:"createdAt"`
	UpdatedAt           string               `json:"updatedAt"`
}

type SubscriptionStats struct {
	TotalSubscriptions     int             `json:"totalSubscriptions"`
	ActiveSubscriptions    int             `json:"activeSubscriptions"`
	ExpiredSubscriptions   int             `json:"expiredSubscriptions"`
	CancelledSubscriptions int             `json:"cancelledSubscriptions"`
	TotalSpent             decimal.Decimal `json:"totalSpent"`
	Currency               string          `json:"currency"`
}

type Owner struct {
	OwnerID     string `json:"owner_id"`
	OrgName     string `json:"org_name"`
	Email       string `json:"email,omitempty"`
	Description string `json:"description,omitempty"`
	ContactInfo string `json:"contact_info,omitempty"`
	Logo        string `json:"logo,omitempty"`
	PlanCount   int    `json:"plan_count,omitempty"`
	MemberCount int    `json:"member_count,omitempty"`
}

type Plan struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id,omitempty"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Duration    int             `json:"duration"`
	IsActive    bool            `json:"is_active"`
	Features    []Feature       `json:"features,omitempty"`
}
