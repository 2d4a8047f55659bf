package template

// The category of a template is a static platform decision: receipts and
// tickets must always reach the buyer, reminders honor the reminder opt-out,
// and everything else is treated as marketing. Membership lives here, owned
// by configuration, rather than on the stored definition.

var transactionalKeys = map[string]struct{}{
	"order_receipt":      {},
	"order_confirmation": {},
	"order_refund":       {},
	"ticket_delivery":    {},
	"rsvp_confirmation":  {},
	"password_reset":     {},
	"account_verify":     {},
	"payout_statement":   {},
}

var operationalKeys = map[string]struct{}{
	"event_reminder":        {},
	"rsvp_reminder":         {},
	"event_update":          {},
	"event_cancelled":       {},
	"waitlist_promotion":    {},
	"vendor_stall_reminder": {},
}

// CategoryFor returns the category for a template key. Unknown keys default
// to marketing, the most restrictive suppression class.
func CategoryFor(key string) Category {
	if _, ok := transactionalKeys[key]; ok {
		return CategoryTransactional
	}
	if _, ok := operationalKeys[key]; ok {
		return CategoryOperational
	}
	return CategoryMarketing
}
