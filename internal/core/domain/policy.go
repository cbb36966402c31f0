package domain

import (
	"fmt"
	"strings"
)

// Policy is a scheduling discipline.
type Policy string

const (
	PolicyFCFS Policy = "FCFS" // first come first served
	PolicySJF  Policy = "SJF"  // shortest job first
	PolicyPSJF Policy = "PSJF" // preemptive shortest job first
	PolicyPRI  Policy = "PRI"  // static priority
	PolicyPPRI Policy = "PPRI" // preemptive static priority
	PolicyRR   Policy = "RR"   // round robin
)

// Policies lists every supported policy in a stable order.
var Policies = []Policy{PolicyFCFS, PolicySJF, PolicyPSJF, PolicyPRI, PolicyPPRI, PolicyRR}

// ParsePolicy parses a case-insensitive policy name.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToUpper(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedPolicy, s)
	}
	return p, nil
}

// Valid reports whether p is one of the supported policies.
func (p Policy) Valid() bool {
	for _, known := range Policies {
		if p == known {
			return true
		}
	}
	return false
}
