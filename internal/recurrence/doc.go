// Package recurrence models repeat rules for household chores and expands
// them into concrete calendar dates.
//
// Two expanders exist on purpose:
//   - Expand steps through occurrences directly (used by bulk generation).
//   - ExpandByFilter walks candidate days and tests rule membership, the way
//     an RFC 5545 implementation evaluates an RRULE (used for calendar
//     interop and as a cross-check).
//
// Both must agree on the occurrence set for any rule and window; the test
// suite enforces this equivalence.
package recurrence
