package domain

import "strings"

const defaultLocation = "your target market"

// Option sets offered by the campaign setup form.
var (
	PropertyTypes = []string{"Retail", "Industrial", "Multi-family", "Office", "Flex", "Land"}
	OwnerTypes    = []string{"Individual Owner", "LLC Owner", "Portfolio / Multiple Properties", "Bank Owned"}
	PriceRanges   = []string{"Under $1M", "$1M - $2.5M", "$2.5M - $5M", "$5M - $10M", "$10M - $20M", "$20M+"}
)

// BuyingCriteria describes who a campaign targets and who is sending it.
type BuyingCriteria struct {
	PropertyType  string `json:"propertyType"`
	TargetState   string `json:"targetState"`
	TargetCity    string `json:"targetCity,omitempty"`
	MinSqFt       string `json:"minSqFt"`
	MinYearsOwned string `json:"minYearsOwned"`
	PriceRange    string `json:"priceRange"`
	OwnerType     string `json:"ownerType"`
	CompanyName   string `json:"companyName"`
	Website       string `json:"website,omitempty"`
	PhoneNumber   string `json:"phoneNumber,omitempty"`
	Email         string `json:"email,omitempty"`
	Logo          string `json:"logo,omitempty"`
}

// Location renders the target market as "City, ST", falling back to whichever part is present.
func (c BuyingCriteria) Location() string {
	city := strings.TrimSpace(c.TargetCity)
	state := strings.TrimSpace(c.TargetState)
	switch {
	case city != "" && state != "":
		return city + ", " + state
	case city != "":
		return city
	case state != "":
		return state
	default:
		return defaultLocation
	}
}

// HasLogo reports whether a logo has been attached.
func (c BuyingCriteria) HasLogo() bool {
	return strings.TrimSpace(c.Logo) != ""
}
