package domain

import (
	"errors"
	"fmt"
	"strings"
)

// DesignBatchSize is the number of concepts produced per generation request.
const DesignBatchSize = 3

// BenefitCount is the number of benefit bullets printed on the back of a mailer.
const BenefitCount = 4

// DesignStyle is the visual treatment applied to a mailer concept.
type DesignStyle string

const (
	DesignStyleModern  DesignStyle = "modern"
	DesignStyleBold    DesignStyle = "bold"
	DesignStyleClassic DesignStyle = "classic"
)

// Valid reports whether the style belongs to the supported set.
func (s DesignStyle) Valid() bool {
	switch s {
	case DesignStyleModern, DesignStyleBold, DesignStyleClassic:
		return true
	default:
		return false
	}
}

// ErrInvalidDesign is returned when a design does not satisfy the printable shape.
var ErrInvalidDesign = errors.New("design: invalid shape")

// MailerFront is the addressed side of the piece.
type MailerFront struct {
	Headline    string `json:"headline"`
	SubHeadline string `json:"subHeadline"`
	BodyCopy    string `json:"bodyCopy"`
	CTA         string `json:"cta"`
}

// MailerBack carries the supporting copy.
type MailerBack struct {
	Headline     string   `json:"headline"`
	Benefits     []string `json:"benefits"`
	SocialProof  string   `json:"socialProof"`
	Testimonial  string   `json:"testimonial"`
	Guarantee    string   `json:"guarantee"`
	SecondaryCTA string   `json:"secondaryCta"`
}

// MailerDesign is one candidate concept.
type MailerDesign struct {
	ID    string      `json:"id"`
	Name  string      `json:"name"`
	Style DesignStyle `json:"style"`
	Front MailerFront `json:"front"`
	Back  MailerBack  `json:"back"`
}

// Validate checks that every printable field is present and the style is supported.
func (d MailerDesign) Validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"id", d.ID},
		{"name", d.Name},
		{"front.headline", d.Front.Headline},
		{"front.subHeadline", d.Front.SubHeadline},
		{"front.bodyCopy", d.Front.BodyCopy},
		{"front.cta", d.Front.CTA},
		{"back.headline", d.Back.Headline},
		{"back.socialProof", d.Back.SocialProof},
		{"back.testimonial", d.Back.Testimonial},
		{"back.guarantee", d.Back.Guarantee},
		{"back.secondaryCta", d.Back.SecondaryCTA},
	}
	for _, field := range required {
		if strings.TrimSpace(field.value) == "" {
			return fmt.Errorf("%w: %s is required", ErrInvalidDesign, field.name)
		}
	}
	if !d.Style.Valid() {
		return fmt.Errorf("%w: unsupported style %q", ErrInvalidDesign, d.Style)
	}
	if len(d.Back.Benefits) != BenefitCount {
		return fmt.Errorf("%w: expected %d benefits, got %d", ErrInvalidDesign, BenefitCount, len(d.Back.Benefits))
	}
	for i, benefit := range d.Back.Benefits {
		if strings.TrimSpace(benefit) == "" {
			return fmt.Errorf("%w: benefit %d is empty", ErrInvalidDesign, i)
		}
	}
	return nil
}
