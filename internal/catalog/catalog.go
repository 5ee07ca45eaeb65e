// Package catalog holds the fixed scoping catalog extracted from the HRCare
// FAQ document. The options are statically known and are not persisted or
// fetched from the server.
package catalog

// ProductAreas lists the selectable product-area filter values
var ProductAreas = []string{
	"Account Management",
	"Security & Compliance",
	"Identity & Access",
	"Finance & Billing",
	"Talent Acquisition",
	"Employee Lifecycle",
	"HR Operations",
	"Integration & API",
	"Analytics & Reporting",
	"Customer Support",
}

// Sections lists the selectable documentation-section filter values
var Sections = []string{
	"Account & Access",
	"Single Sign-On (SSO)",
	"Billing & Subscriptions",
	"Hiring & ATS",
	"Onboarding & Offboarding",
	"Time-off & Leave Management",
	"Payroll Integrations & Data",
	"Performance & Reviews",
	"Compensation Management",
	"Compliance & Security",
	"APIs & Developer Tools",
	"Integrations & Automations",
	"Reporting & Analytics",
	"Troubleshooting & Support",
}

// SuggestedQuestions are the canned prompts offered to the user
var SuggestedQuestions = []string{
	"How do I create an account?",
	"How do I invite users?",
	"What SSO providers are supported?",
	"How does billing work?",
	"How do I manage time-off requests?",
	"What payroll integrations are available?",
}

// ValidProductArea reports whether area is part of the catalog
func ValidProductArea(area string) bool {
	return contains(ProductAreas, area)
}

// ValidSection reports whether section is part of the catalog
func ValidSection(section string) bool {
	return contains(Sections, section)
}

func contains(options []string, value string) bool {
	for _, opt := range options {
		if opt == value {
			return true
		}
	}
	return false
}
