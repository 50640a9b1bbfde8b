package allocator

import (
	"fmt"
	"strings"
)

// Policy names a block placement rule.
type Policy string

const (
	// PolicyFirstFit places a process in the lowest-index block that can hold it.
	PolicyFirstFit Policy = "first-fit"
	// PolicyBestFit places a process in the feasible block with the smallest leftover.
	PolicyBestFit Policy = "best-fit"
	// PolicyWorstFit places a process in the feasible block with the largest leftover.
	PolicyWorstFit Policy = "worst-fit"
)

// Policies returns every supported policy in canonical order.
func Policies() []Policy {
	return []Policy{PolicyFirstFit, PolicyBestFit, PolicyWorstFit}
}

// ParsePolicy resolves a user supplied policy name.
func ParsePolicy(name string) (Policy, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	normalized = strings.NewReplacer("_", "", "-", "", " ", "").Replace(normalized)

	switch normalized {
	case "first", "firstfit":
		return PolicyFirstFit, nil
	case "best", "bestfit":
		return PolicyBestFit, nil
	case "worst", "worstfit":
		return PolicyWorstFit, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
}

// Title returns a human readable policy name.
func (p Policy) Title() string {
	switch p {
	case PolicyFirstFit:
		return "First Fit"
	case PolicyBestFit:
		return "Best Fit"
	case PolicyWorstFit:
		return "Worst Fit"
	}
	return string(p)
}

func (p Policy) selector() (selector, bool) {
	switch p {
	case PolicyFirstFit:
		return selectFirst, true
	case PolicyBestFit:
		return selectBest, true
	case PolicyWorstFit:
		return selectWorst, true
	}
	return nil, false
}
