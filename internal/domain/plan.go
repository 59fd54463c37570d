package domain

import (
	"fmt"
	"math"
	"strings"
)

// MinimumQuantity is the smallest print run accepted at checkout.
const MinimumQuantity = 100

// SupportEmail is shown alongside pricing for custom quotes.
const SupportEmail = "support@cremailflow.com"

// MailerType identifies a print format.
type MailerType string

const (
	MailerTypeLetter        MailerType = "LETTER"
	MailerTypePostcardStd   MailerType = "POSTCARD_STD"
	MailerTypePostcardJumbo MailerType = "POSTCARD_JUMBO"
)

// MailerTypes lists the formats in catalog order.
var MailerTypes = []MailerType{MailerTypeLetter, MailerTypePostcardStd, MailerTypePostcardJumbo}

// PlanFeatures is included with every format.
var PlanFeatures = []string{"Full Color Print", "First Class Postage", "Smart Tracking", "Address Verification"}

// ParseMailerType matches a plan identifier case-insensitively.
func ParseMailerType(raw string) (MailerType, bool) {
	candidate := MailerType(strings.ToUpper(strings.TrimSpace(raw)))
	switch candidate {
	case MailerTypeLetter, MailerTypePostcardStd, MailerTypePostcardJumbo:
		return candidate, true
	default:
		return "", false
	}
}

// PricingPlan is the static catalog entry for a mailer format.
type PricingPlan struct {
	ID           MailerType `json:"id"`
	Name         string     `json:"name"`
	PricePerUnit float64    `json:"pricePerUnit"`
	Description  string     `json:"description"`
	Dimensions   string     `json:"dimensions"`
	Popular      bool       `json:"popular"`
	PaymentLink  string     `json:"paymentLink"`
}

// Total returns the order total in dollars rounded to cents.
func (p PricingPlan) Total(quantity int) float64 {
	if quantity <= 0 {
		return 0
	}
	return math.Round(float64(quantity)*p.PricePerUnit*100) / 100
}

// FormatTotal renders the total with two decimals.
func (p PricingPlan) FormatTotal(quantity int) string {
	return fmt.Sprintf("%.2f", p.Total(quantity))
}

// Plan returns the catalog entry for the given format.
func Plan(id MailerType) (PricingPlan, bool) {
	switch id {
	case MailerTypeLetter:
		return PricingPlan{
			ID:           MailerTypeLetter,
			Name:         "A. Letter Mailer",
			PricePerUnit: 0.79,
			Description:  "Formal introduction letter",
			Dimensions:   "#10 Envelope",
			PaymentLink:  "https://buy.stripe.com/4gM00ldzffJFdAa3PiefC00",
		}, true
	case MailerTypePostcardStd:
		return PricingPlan{
			ID:           MailerTypePostcardStd,
			Name:         "B. 6x9 Postcard",
			PricePerUnit: 0.99,
			Description:  "Standard size, most popular",
			Dimensions:   "6x9",
			Popular:      true,
			PaymentLink:  "https://buy.stripe.com/14A3cx2UBeFB9jU85yefC01",
		}, true
	case MailerTypePostcardJumbo:
		return PricingPlan{
			ID:           MailerTypePostcardJumbo,
			Name:         "C. 9x12 Postcard",
			PricePerUnit: 1.39,
			Description:  "Jumbo size for maximum impact",
			Dimensions:   "9x12",
			PaymentLink:  "https://buy.stripe.com/9B66oJ0Mt8hdanY5XqefC02",
		}, true
	default:
		return PricingPlan{}, false
	}
}

// PricingPlans returns the full catalog in display order.
func PricingPlans() []PricingPlan {
	plans := make([]PricingPlan, 0, len(MailerTypes))
	for _, id := range MailerTypes {
		if plan, ok := Plan(id); ok {
			plans = append(plans, plan)
		}
	}
	return plans
}
