package sla

import (
	"time"

	"github.com/spec-kit/helpdesk-core/internal/config"
	"github.com/spec-kit/helpdesk-core/internal/domain"
)

// BreachResult is the outcome of one SLA evaluation.
type BreachResult struct {
	ResponseBreached   bool
	ResolutionBreached bool
	ElapsedHours       float64
}

// Breached reports whether either limit has been crossed.
func (r BreachResult) Breached() bool {
	return r.ResponseBreached || r.ResolutionBreached
}

// Evaluate determines whether the ticket's response and/or resolution
// SLA is breached at the given instant. Pure over its inputs: the
// elapsed time is business hours since creation, the response SLA
// only applies while no first response exists, and the resolution SLA
// is checked regardless of response state. Terminal tickets always
// come back clean; callers are expected to filter them out upstream.
func Evaluate(t *domain.Ticket, now time.Time, cfg config.SLAConfig, wh config.WorkingHoursConfig) BreachResult {
	if t.Status.Terminal() {
		return BreachResult{}
	}

	elapsed := BusinessHours(t.CreatedAt, now, wh)
	result := BreachResult{ElapsedHours: elapsed}

	th, ok := cfg.Thresholds[t.Priority]
	if !ok {
		return result
	}

	result.ResponseBreached = t.FirstResponseAt == nil && elapsed > th.ResponseHours
	result.ResolutionBreached = elapsed > th.ResolutionHours
	return result
}
