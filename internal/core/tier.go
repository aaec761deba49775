package core

import "fmt"

// Tier is one of six ordered priority classes. Lower values are more
// favored: TierCritical is always served first by the scheduler.
type Tier int

const (
	TierCritical Tier = iota
	TierHigh
	TierMedium
	TierNormal
	TierLow
	TierBulk

	// NumTiers is the size of the closed tier enumeration.
	NumTiers = 6
)

// TotalTierWeight is the sum of all scheduler weights (32+16+8+4+2+1).
const TotalTierWeight = 63

var tierNames = [NumTiers]string{"critical", "high", "medium", "normal", "low", "bulk"}

var tierWeights = [NumTiers]int{32, 16, 8, 4, 2, 1}

// Valid reports whether t is a member of the tier enumeration.
func (t Tier) Valid() bool {
	return t >= TierCritical && t <= TierBulk
}

func (t Tier) String() string {
	if !t.Valid() {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// Weight returns the fixed scheduling weight for the tier.
func (t Tier) Weight() int {
	return tierWeights[t]
}

// ParseTier converts a config-level tier name.
func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if s == name {
			return Tier(i), nil
		}
	}
	return 0, fmt.Errorf("unknown tier: %q", s)
}
