package services

import (
	"strings"
	"text/template"

	"github.com/cre-mailflow/api/internal/platform/textutil"
)

var designPromptTemplate = template.Must(template.New("design-prompt").Parse(`You are a professional commercial real estate copywriter.
Create 3 DISTINCT direct mail postcard concepts to send to {{.OwnerType}} owners of {{.PropertyType}} properties in {{.Location}}.

Buying Criteria:
- Buyer: {{.CompanyName}}
- Seeking: {{.PropertyType}}
- Budget: {{.PriceRange}}
- Min SqFt: {{.MinSqFt}}
- Min Ownership: {{.MinYearsOwned}} years

Output a JSON array with exactly 3 objects.
1. Concept 1: "Professional & Direct" (Style: modern) - Subtle, corporate tone.
2. Concept 2: "The Problem Solver" (Style: bold) - Focus on solving common ownership headaches (vacancy, management, capital improvements).
3. Concept 3: "Relationship / Local Expert" (Style: classic)

Each object must strictly follow this schema:
{
  "id": "design_1",
  "name": "Professional & Direct",
  "style": "modern",
  "front": {
    "headline": "Bold headline (max 7 words)",
    "subHeadline": "Short supporting line",
    "bodyCopy": "2-3 persuasive sentences enticing them to sell.",
    "cta": "Subtle call to action (NO 'SCAN' CTA on front)"
  },
  "back": {
    "headline": "Secondary headline for the back side",
    "benefits": ["Benefit 1", "Benefit 2", "Benefit 3", "Benefit 4"],
    "socialProof": "Credibility statement (e.g. Trusted by 500+ owners)",
    "testimonial": "Short 1-sentence quote",
    "guarantee": "Reassurance line (e.g. No fees, no obligation)",
    "secondaryCta": "Secondary CTA (e.g. Scan to visit website)"
  }
}

Return ONLY valid JSON, no markdown formatting, no commentary.
`))

type designPromptData struct {
	OwnerType     string
	PropertyType  string
	Location      string
	CompanyName   string
	PriceRange    string
	MinSqFt       string
	MinYearsOwned string
}

// BuildDesignPrompt renders the generation instruction for the supplied criteria.
// Blank fields render as empty text; a blank market renders as "your target market".
func BuildDesignPrompt(criteria BuyingCriteria) string {
	data := designPromptData{
		OwnerType:     textutil.NormalizeText(criteria.OwnerType),
		PropertyType:  textutil.NormalizeText(criteria.PropertyType),
		Location:      textutil.NormalizeText(criteria.Location()),
		CompanyName:   textutil.NormalizeText(criteria.CompanyName),
		PriceRange:    textutil.NormalizeText(criteria.PriceRange),
		MinSqFt:       textutil.NormalizeText(criteria.MinSqFt),
		MinYearsOwned: textutil.NormalizeText(criteria.MinYearsOwned),
	}

	var b strings.Builder
	// the template only references fields of designPromptData, so Execute cannot fail
	_ = designPromptTemplate.Execute(&b, data)
	return strings.TrimSpace(b.String())
}
