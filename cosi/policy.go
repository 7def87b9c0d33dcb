package cosi

import "fmt"

// Policy decides whether enough members took part in a collective signature.
type Policy interface {
	Check(participants, total int) error
}

// DefaultPolicy tolerates up to ⌊(n-1)/3⌋ absent members.
var DefaultPolicy Policy = ByzantinePolicy{}

// CompletePolicy requires every member to sign.
type CompletePolicy struct{}

func (CompletePolicy) Check(participants, total int) error {
	if participants != total {
		return fmt.Errorf("complete policy: %d of %d members signed", participants, total)
	}
	return nil
}

// ThresholdPolicy requires at least T signers.
type ThresholdPolicy struct {
	T int
}

func (p ThresholdPolicy) Check(participants, total int) error {
	if p.T < 1 || p.T > total {
		return fmt.Errorf("threshold policy: threshold %d invalid for %d members", p.T, total)
	}
	if participants < p.T {
		return fmt.Errorf("threshold policy: %d of %d members signed, need %d", participants, total, p.T)
	}
	return nil
}

// ByzantinePolicy requires n - ⌊(n-1)/3⌋ signers.
type ByzantinePolicy struct{}

func (ByzantinePolicy) Check(participants, total int) error {
	need := total - (total-1)/3
	if participants < need {
		return fmt.Errorf("byzantine policy: %d of %d members signed, need %d", participants, total, need)
	}
	return nil
}

// ParsePolicy maps a configuration name to a policy. threshold is only used
// by "threshold".
func ParsePolicy(name string, threshold int) (Policy, error) {
	switch name {
	case "", "byzantine":
		return ByzantinePolicy{}, nil
	case "complete":
		return CompletePolicy{}, nil
	case "threshold":
		if threshold < 1 {
			return nil, fmt.Errorf("cosi: threshold policy needs a positive threshold, got %d", threshold)
		}
		return ThresholdPolicy{T: threshold}, nil
	default:
		return nil, fmt.Errorf("cosi: unknown policy %q", name)
	}
}
