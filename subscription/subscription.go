// Package subscription reflects a tenant's billing state so the UI can gate
// mutating actions while a subscription is delinquent or blocked.
//
// A 404 from the status endpoint means "no subscription" and is deliberately
// fail-open: writes stay enabled. This is a product decision inherited from
// the billing backend; do not flip it to fail-closed without confirming
// intended behavior.
package subscription

// WarningLevel values reported by the BFF. Only WarningBlocked is terminal.
const (
	WarningNone    = "none"
	WarningNotice  = "notice"
	WarningUrgent  = "urgent"
	WarningBlocked = "blocked"
)

// Status is the subscription document fetched per tenant.
type Status struct {
	Status             string `json:"status"`
	PlanID             string `json:"plan_id"`
	PlanName           string `json:"plan_name"`
	TrialDaysRemaining int    `json:"trial_days_remaining"`
	GraceDaysRemaining int    `json:"grace_days_remaining"`
	CanRead            bool   `json:"can_read"`
	CanWrite           bool   `json:"can_write"`
	CanAccessAdmin     bool   `json:"can_access_admin"`
	WarningLevel       string `json:"warning_level"`
}
