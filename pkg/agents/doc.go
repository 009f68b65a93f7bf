// Package agents groups the ways agents are composed with one another.
//
// The delegate sub-package wraps an agent factory as a tool so that an
// orchestrating agent can hand a query to a specialist through its normal
// tool-calling mechanism.
package agents
