package algorithms

import "strings"

// Category groups notifications for filtering and per-category unread
// counters in the admin panel.
type Category string

const (
	CategoryUser         Category = "user"
	CategoryDonation     Category = "donation"
	CategoryDistribution Category = "distribution"
	CategoryStudent      Category = "student"
	CategoryEvent        Category = "event"
	CategoryAll          Category = "all"
)

// classificationRule matches on a notification's type and content.
// Several rules rely on substring sniffing inside free text, which is
// fragile; keeping them in one ordered table makes that visible and
// testable instead of scattering the checks across call sites.
type classificationRule struct {
	name     string
	matches  func(typ, content string) bool
	category Category
}

// Rule order matters: more than one rule can match, first match wins.
var classificationRules = []classificationRule{
	{
		name: "new scholar registration",
		matches: func(typ, content string) bool {
			return typ == "new_user" && strings.Contains(content, "scholar")
		},
		category: CategoryStudent,
	},
	{
		name: "new user registration",
		matches: func(typ, content string) bool {
			return typ == "new_user"
		},
		category: CategoryUser,
	},
	{
		name: "user profile update",
		matches: func(typ, content string) bool {
			return typ == "user_updated"
		},
		category: CategoryUser,
	},
	{
		name: "contact form",
		matches: func(typ, content string) bool {
			return typ == "contact_form"
		},
		category: CategoryUser,
	},
	{
		name: "event activity",
		matches: func(typ, content string) bool {
			return typ == "event_participant" || typ == "event_leave" || strings.Contains(typ, "event")
		},
		category: CategoryEvent,
	},
	{
		name: "scholar location",
		matches: func(typ, content string) bool {
			return typ == "scholar_location" || strings.Contains(typ, "location") || strings.Contains(content, "location")
		},
		category: CategoryStudent,
	},
	{
		name: "report card",
		matches: func(typ, content string) bool {
			return typ == "report_card" || containsFold(content, "report card")
		},
		category: CategoryStudent,
	},
	{
		name: "donation",
		matches: func(typ, content string) bool {
			return strings.Contains(typ, "donation") ||
				typ == "donation_verified" || typ == "donation_rejected" ||
				strings.Contains(content, "donation")
		},
		category: CategoryDonation,
	},
	{
		name: "distribution",
		matches: func(typ, content string) bool {
			return typ == "distribution"
		},
		category: CategoryDistribution,
	},
	{
		name: "student activity",
		matches: func(typ, content string) bool {
			return typ == "student_application" || strings.Contains(typ, "student") || strings.Contains(typ, "scholar")
		},
		category: CategoryStudent,
	},
}

// Classify maps a notification's type and content to one display category.
// Pure and deterministic; unmatched notifications fall through to
// CategoryAll, which is also the name of the unfiltered view tab.
func Classify(typ, content string) Category {
	for _, rule := range classificationRules {
		if rule.matches(typ, content) {
			return rule.category
		}
	}
	return CategoryAll
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
