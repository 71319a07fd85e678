package types

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/portal-payments/app/apierror"
)

const (
	MinPlanNameLength        = 2
	MinPlanDescriptionLength = 10
	MaxPlanDurationDays      = 3650
	MinResetPasswordLength   = 8

	RevenuePeriod6Months  = "6months"
	RevenuePeriod12Months = "12months"
)

var MaxPlanPrice = decimal.NewFromInt(999999)

// OwnerFeature is a feature defined by an owner. Plans reference features by id.
type OwnerFeature struct {
	ID          string `json:"feature_id"`
	OwnerID     string `json:"owner_id,omitempty"`
	Name        string `json:"name"`
	Description string `json:"description"`
	CreatedAt   string `json:"create_at,omitempty"`
	UpdatedAt   string `json:"update_at,omitempty"`
}

type FeatureInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

func (f *FeatureInput) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
}

func (f *FeatureInput) Validate() error {
	if f.Name == "" {
		return apierror.Validation("name", "Feature name is required")
	}
	if f.Description == "" {
		return apierror.Validation("description", "Feature description is required")
	}
	return nil
}

// OwnerPlan is a plan as the owner dashboard manages it.
type OwnerPlan struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Duration    int             `json:"duration"`
	Features    []string        `json:"features"`
	CreatedAt   string          `json:"createdAt,omitempty"`
	UpdatedAt   string          `json:"updatedAt,omitempty"`
}

type PlanInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Duration    int             `json:"duration"`
	Features    []string        `json:"features"`
}

func (p *PlanInput) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Description = strings.TrimSpace(p.Description)
	features := make([]string, 0, len(p.Features))
	for _, id := range p.Features {
		if id = strings.TrimSpace(id); id != "" {
			features = append(features, id)
		}
	}
	p.Features = features
}

func (p *PlanInput) Validate() error {
	switch {
	case p.Name == "":
		return apierror.Validation("name", "Plan name is required")
	case p.Description == "":
		return apierror.Validation("description", "Plan description is required")
	case p.Price.IsNegative():
		return apierror.Validation("price", "Valid price is required")
	case p.Duration < 1:
		return apierror.Validation("duration", "Duration must be at least 1 day")
	case len(p.Features) == 0:
		return apierror.Validation("features", "At least one feature must be selected")
	case len([]rune(p.Name)) < MinPlanNameLength:
		return apierror.Validationf("name", "Plan name must be at least %d characters long", MinPlanNameLength)
	case len([]rune(p.Description)) < MinPlanDescriptionLength:
		return apierror.Validationf("description", "Plan description must be at least %d characters long", MinPlanDescriptionLength)
	case p.Price.GreaterThan(MaxPlanPrice):
		return apierror.Validation("price", "Price cannot exceed 999,999")
	case p.Duration > MaxPlanDurationDays:
		return apierror.Validation("duration", "Duration cannot exceed 10 years")
	}
	return nil
}

type DashboardStats struct {
	TotalRevenue           decimal.Decimal `json:"totalRevenue"`
	TotalMembers           int             `json:"totalMembers"`
	TotalPlans             int             `json:"totalPlans"`
	TotalFeatures          int             `json:"totalFeatures"`
	GrowthPercentage       float64         `json:"growthPercentage"`
	ActiveSubscriptions    int             `json:"activeSubscriptions"`
	CancelledSubscriptions int             `json:"cancelledSubscriptions"`
	RevenueThisMonth       decimal.Decimal `json:"revenueThisMonth"`
	RevenueLastMonth       decimal.Decimal `json:"revenueLastMonth"`
	NewPlansThisMonth      int             `json:"newPlansThisMonth"`
}

type RevenuePoint struct {
	Month   string          `json:"month"`
	Revenue decimal.Decimal `json:"revenue"`
}

func ValidRevenuePeriod(period string) bool {
	return period == RevenuePeriod6Months || period == RevenuePeriod12Months
}

// Subscriber is a member row of the owner dashboard.
type Subscriber struct {
	ID                string  `json:"id"`
	Email             string  `json:"email"`
	FullName          string  `json:"fullName,omitempty"`
	Phone             string  `json:"phone,omitempty"`
	PlanID            string  `json:"planId"`
	PlanName          string  `json:"planName,omitempty"`
	Status            string  `json:"status"`
	SubscriptionStart string  `json:"subscriptionStart"`
	SubscriptionEnd   *string `json:"subscriptionEnd"`
	CreatedAt         string  `json:"createdAt"`
}

type PlanMemberCount struct {
	PlanID      string `json:"planId"`
	PlanName    string `json:"planName"`
	MemberCount int    `json:"memberCount"`
}

type MemberContact struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}

type PlanStats struct {
	ID                  string          `json:"id"`
	Name                string          `json:"name"`
	Description         string          `json:"description"`
	Price               decimal.Decimal `json:"price"`
	Duration            int             `json:"duration"`
	TotalSubscriptions  int             `json:"totalSubscriptions"`
	ActiveSubscriptions int             `json:"activeSubscriptions"`
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	Members             []MemberContact `json:"members"`
}

type MemberPlan struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Duration  int             `json:"duration"`
	StartDate string          `json:"startDate"`
	EndDate   string          `json:"endDate"`
	Status    string          `json:"status"`
}

type MemberPayment struct {
	ID        string          `json:"id"`
	Amount    decimal.Decimal `json:"amount"`
	Status    string          `json:"status"`
	PlanName  string          `json:"planName"`
	CreatedAt string          `json:"createdAt"`
}

// MemberDetail is a member with current plan and payments, as the owner sees it.
type MemberDetail struct {
	ID             string          `json:"id"`
	FullName       string          `json:"fullName"`
	Email          string          `json:"email"`
	Phone          string          `json:"phone,omitempty"`
	CreatedAt      string          `json:"createdAt"`
	CurrentPlan    *MemberPlan     `json:"currentPlan,omitempty"`
	PaymentHistory []MemberPayment `json:"paymentHistory"`
	TotalSpent     decimal.Decimal `json:"totalSpent"`
}

type DeleteMemberResult struct {
	Message                string `json:"message"`
	CancelledSubscriptions int    `json:"cancelledSubscriptions"`
}

type EmailRequest struct {
	Email string `json:"email"`
}

func (r *EmailRequest) Normalize() {
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

func (r *EmailRequest) Validate() error {
	if r.Email == "" {
		return apierror.Validation("email", "Email is required")
	}
	if !ValidEmail(r.Email) {
		return apierror.Validation("email", "Please enter a valid email address")
	}
	return nil
}

type ResetTokenRequest struct {
	AccessToken string `json:"access_token"`
}

func (r *ResetTokenRequest) Validate() error {
	if strings.TrimSpace(r.AccessToken) == "" {
		return apierror.Validation("access_token", "Invalid reset link")
	}
	return nil
}

type ResetPasswordRequest struct {
	AccessToken string `json:"access_token"`
	Password    string `json:"password"`
}

func (r *ResetPasswordRequest) Validate() error {
	if strings.TrimSpace(r.AccessToken) == "" {
		return apierror.Validation("access_token", "Invalid reset link")
	}
	if strings.TrimSpace(r.Password) == "" {
		return apierror.Validation("password", "Password is required")
	}
	if len(r.Password) < MinResetPasswordLength {
		return apierror.Validationf("password", "Password must be at least %d characters long", MinResetPasswordLength)
	}
	return nil
}

// AuthCallbackRequest exchanges the tokens from an email confirmation link
// for a portal session.
type AuthCallbackRequest struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (r *AuthCallbackRequest) Validate() error {
	if strings.TrimSpace(r.AccessToken) == "" {
		return apierror.Validation("access_token", "Access token is required")
	}
	return nil
}
