package model

import "fmt"

// Tier is a problem difficulty tier, ordered from B5 (lowest) to D1.
type Tier string

const (
	TierB5 Tier = "B5"
	TierB4 Tier = "B4"
	TierB3 Tier = "B3"
	TierB2 Tier = "B2"
	TierB1 Tier = "B1"
	TierS5 Tier = "S5"
	TierS4 Tier = "S4"
	TierS3 Tier = "S3"
	TierS2 Tier = "S2"
	TierS1 Tier = "S1"
	TierG5 Tier = "G5"
	TierG4 Tier = "G4"
	TierG3 Tier = "G3"
	TierG2 Tier = "G2"
	TierG1 Tier = "G1"
	TierP5 Tier = "P5"
	TierP4 Tier = "P4"
	TierP3 Tier = "P3"
	TierP2 Tier = "P2"
	TierP1 Tier = "P1"
	TierD5 Tier = "D5"
	TierD4 Tier = "D4"
	TierD3 Tier = "D3"
	TierD2 Tier = "D2"
	TierD1 Tier = "D1"
)

var tierOrder = []Tier{
	TierB5, TierB4, TierB3, TierB2, TierB1,
	TierS5, TierS4, TierS3, TierS2, TierS1,
	TierG5, TierG4, TierG3, TierG2, TierG1,
	TierP5, TierP4, TierP3, TierP2, TierP1,
	TierD5, TierD4, TierD3, TierD2, TierD1,
}

var tierValues = func() map[Tier]int {
	m := make(map[Tier]int, len(tierOrder))
	for i, t := range tierOrder {
		m[t] = (i + 1) * 100
	}
	return m
}()

// Value returns the numeric rating a problem of this tier is worth.
func (t Tier) Value() int {
	return tierValues[t]
}

// ParseTier validates a tier string coming from a work item payload.
func ParseTier(s string) (Tier, error) {
	t := Tier(s)
	if _, ok := tierValues[t]; !ok {
		return "", fmt.Errorf("unknown tier %q", s)
	}
	return t, nil
}
