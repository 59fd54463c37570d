package services

import (
	domain "github.com/cre-mailflow/api/internal/domain"
)

// FallbackDesigns returns the fixed concept set used whenever generation is skipped or fails.
// Only the property type and target market vary; the result is deterministic.
func FallbackDesigns(criteria BuyingCriteria) []MailerDesign {
	propertyType := criteria.PropertyType
	location := criteria.Location()

	return []MailerDesign{
		{
			ID:    "fallback_1",
			Name:  "Professional & Direct",
			Style: domain.DesignStyleModern,
			Front: domain.MailerFront{
				Headline:    "Acquiring " + propertyType + " Assets",
				SubHeadline: "Fair Market Valuations",
				BodyCopy:    "We are actively expanding our portfolio in " + location + " and have identified your property as a strong fit.",
				CTA:         "Contact Us",
			},
			Back: domain.MailerBack{
				Headline:     "Why Sell Off-Market?",
				Benefits:     []string{"No Broker Fees", "As-Is Purchase", "Flexible Timeline", "Cash Closing"},
				SocialProof:  "Trusted by over 500 property owners since 2015.",
				Testimonial:  "Professional, fast, and effective.",
				Guarantee:    "No obligation — simple and affordable.",
				SecondaryCTA: "Visit our website for more info.",
			},
		},
		{
			ID:    "fallback_2",
			Name:  "The Problem Solver",
			Style: domain.DesignStyleBold,
			Front: domain.MailerFront{
				Headline:    "Tired of Management Headaches?",
				SubHeadline: "We Buy Complex Assets",
				BodyCopy:    "Deferred maintenance? High vacancy? Partnership disputes? We provide clean exits for challenging properties.",
				CTA:         "Get Solutions",
			},
			Back: domain.MailerBack{
				Headline:     "Simplify Your Exit Today",
				Benefits:     []string{"We Take On The Risk", "No Repairs Needed", "Guaranteed Closing", "We Handle Evictions"},
				SocialProof:  "Solving complex real estate problems for 10+ years.",
				Testimonial:  "They solved a 2-year probate issue in weeks.",
				Guarantee:    "100% Confidential Process.",
				SecondaryCTA: "Scan to see our track record.",
			},
		},
		{
			ID:    "fallback_3",
			Name:  "Local Expert",
			Style: domain.DesignStyleClassic,
			Front: domain.MailerFront{
				Headline:    "Your " + propertyType + " Partner",
				SubHeadline: "Building Community Value",
				BodyCopy:    "We specialize in unlocking value for owners like you. Let's discuss your asset's potential.",
				CTA:         "Visit Website",
			},
			Back: domain.MailerBack{
				Headline:     "A Partnership Approach",
				Benefits:     []string{"Market Expertise", "Confidential Process", "Owner-to-Owner", "Local Knowledge"},
				SocialProof:  "Over $50M in local assets acquired.",
				Testimonial:  "Fair price and smooth transaction.",
				Guarantee:    "Your satisfaction is our priority.",
				SecondaryCTA: "Learn more about us.",
			},
		},
	}
}
