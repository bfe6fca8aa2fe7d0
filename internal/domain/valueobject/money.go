package valueobject

import (
	"fmt"
	"math"

	"github.com/ties-together/marketplace-backend/internal/pkg/apperror"
)

const DefaultCurrency = "AUD"

type Money struct {
	Amount   float64
	Currency string
}

func NewMoney(amount float64, currency string) (Money, error) {
	if amount < 0 || math.IsNaN(amount) || math.IsInf(amount, 0) {
		return Money{}, apperror.New(apperror.ErrCodeValidation, "amount cannot be negative")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return Money{Amount: amount, Currency: currency}, nil
}

// Cents переводит сумму в минимальные единицы с округлением.
func (m Money) Cents() int64 {
	return int64(math.Round(m.Amount * 100))
}

func (m Money) String() string {
	return fmt.Sprintf("%s %.2f", m.Currency, m.Amount)
}

// PlatformFee комиссия платформы в центах.
func PlatformFee(subtotalCents int64, percent float64) int64 {
	return int64(math.Round(float64(subtotalCents) * percent / 100))
}

type BudgetType string

const (
	BudgetTypeFixed      BudgetType = "fixed"
	BudgetTypeHourly     BudgetType = "hourly"
	BudgetTypeNegotiable BudgetType = "negotiable"
)

// OfferBudget бюджет частного предложения.
type OfferBudget struct {
	Type     BudgetType
	Amount   *float64
	Currency string
}

func NewOfferBudget(budgetType string, amount *float64, currency string) (OfferBudget, error) {
	t := BudgetType(budgetType)
	switch t {
	case BudgetTypeFixed, BudgetTypeHourly, BudgetTypeNegotiable:
	default:
		return OfferBudget{}, apperror.New(apperror.ErrCodeValidation, "budget type must be fixed, hourly or negotiable")
	}
	if amount != nil && (*amount < 0 || math.IsNaN(*amount)) {
		return OfferBudget{}, apperror.New(apperror.ErrCodeValidation, "budget amount cannot be negative")
	}
	if t != BudgetTypeNegotiable && amount == nil {
		return OfferBudget{}, apperror.New(apperror.ErrCodeValidation, "budget amount is required for fixed and hourly offers")
	}
	if currency == "" {
		currency = DefaultCurrency
	}
	return OfferBudget{Type: t, Amount: amount, Currency: currency}, nil
}

// TotalFor считает итог для бронирования: почасовой бюджет умножается на длительность.
func (b OfferBudget) TotalFor(r TimeRange, hasTimes bool) float64 {
	if b.Amount == nil {
		return 0
	}
	if b.Type == BudgetTypeHourly && hasTimes {
		hours := r.Duration().Hours()
		return math.Round(*b.Amount*hours*100) / 100
	}
	return *b.Amount
}

type RoleType string

const (
	RoleTypeFreelancer RoleType = "freelancer"
	RoleTypeVendor     RoleType = "vendor"
	RoleTypeVenue      RoleType = "venue"
)

func NewRoleType(role string) (RoleType, error) {
	r := RoleType(role)
	switch r {
	case RoleTypeFreelancer, RoleTypeVendor, RoleTypeVenue:
		return r, nil
	}
	return "", apperror.New(apperror.ErrCodeValidation, "role type must be freelancer, vendor or venue")
}
