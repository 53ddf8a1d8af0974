// Package billing holds the subscription entitlement model of the platform.
//
// A billing Scope is either one independent doctor or one hospital. Each scope
// has at most one live Subscription pointing at a PlanConfig, whose limits are
// compared against a UsageSnapshot computed for the current calendar month.
// The result is a LimitSummary, which Evaluate turns into allow/deny
// GateDecisions for named actions.
//
// Everything in this package is side-effect free. Loading subscriptions, plans
// and usage happens in the application layer through the repository
// interfaces declared in repository.go.
package billing
