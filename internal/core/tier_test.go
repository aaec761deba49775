package core

import "testing"

func TestTier_OrderAndWeights(t *testing.T) {
	if !(TierCritical < TierHigh && TierHigh < TierMedium && TierMedium < TierNormal &&
		TierNormal < TierLow && TierLow < TierBulk) {
		t.Fatal("tier ordering broken")
	}

	wantWeights := map[Tier]int{
		TierCritical: 32,
		TierHigh:     16,
		TierMedium:   8,
		TierNormal:   4,
		TierLow:      2,
		TierBulk:     1,
	}
	sum := 0
	for tier, want := range wantWeights {
		if got := tier.Weight(); got != want {
			t.Errorf("%s weight: got %d, want %d", tier, got, want)
		}
		sum += tier.Weight()
	}
	if sum != TotalTierWeight {
		t.Errorf("weight sum: got %d, want %d", sum, TotalTierWeight)
	}
}

func TestTier_Valid(t *testing.T) {
	for i := 0; i < NumTiers; i++ {
		if !Tier(i).Valid() {
			t.Errorf("tier %d should be valid", i)
		}
	}
	if Tier(-1).Valid() || Tier(NumTiers).Valid() {
		t.Error("out-of-range tiers must be invalid")
	}
}

func TestParseTier(t *testing.T) {
	for i := 0; i < NumTiers; i++ {
		tier := Tier(i)
		parsed, err := ParseTier(tier.String())
		if err != nil {
			t.Fatalf("round trip for %s: %v", tier, err)
		}
		if parsed != tier {
			t.Errorf("round trip for %s: got %s", tier, parsed)
		}
	}
	if _, err := ParseTier("ultra"); err == nil {
		t.Error("unknown tier name should fail")
	}
}

func TestParseProtocol(t *testing.T) {
	cases := []struct {
		in   string
		want Protocol
		ok   bool
	}{
		{"", ProtoUnspecified, true},
		{"tcp", ProtoTCP, true},
		{"udp", ProtoUDP, true},
		{"other", ProtoOther, true},
		{"icmp", ProtoUnspecified, false},
	}
	for _, tc := range cases {
		got, ok := ParseProtocol(tc.in)
		if got != tc.want || ok != tc.ok {
			t.Errorf("ParseProtocol(%q) = %v,%v want %v,%v", tc.in, got, ok, tc.want, tc.ok)
		}
	}
}
