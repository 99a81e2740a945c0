// Package sla computes service-level-agreement deadlines.
package sla

import "time"

// DueDate returns the deadline for work starting at ref, given a customer's
// response window in whole hours. The addition is a fixed duration; calendars
// and business hours are not consulted. slaHours is assumed positive and
// validated upstream.
func DueDate(ref time.Time, slaHours int) time.Time {
	return ref.Add(time.Duration(slaHours) * time.Hour)
}
