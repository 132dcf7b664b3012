package riskposture

import (
	"fmt"
	"io"
)

// Level is a qualitative risk tier derived from a score in [0,1].
type Level string

const (
	Low      Level = "LOW"
	Medium   Level = "MEDIUM"
	High     Level = "HIGH"
	Critical Level = "CRITICAL"
)

// Define the risk thresholds
const (
	mediumRiskThreshold   = 0.25
	highRiskThreshold     = 0.50
	criticalRiskThreshold = 0.75
)

// LevelFor maps a score onto its tier. Boundary values belong to the higher tier.
func LevelFor(score float64) Level {
	switch {
	case score >= criticalRiskThreshold:
		return Critical
	case score >= highRiskThreshold:
		return High
	case score >= mediumRiskThreshold:
		return Medium
	default:
		return Low
	}
}

// Function is a named score, one per risk dimension.
type Function struct {
	Name  string
	Score float64
}

// RiskPosture is a struct that represents a risk posture.
type RiskPosture struct {
	// Functions is the list of scored dimensions.
	Functions []Function
}

// NewRiskPosture creates a new RiskPosture with the given functions.
func NewRiskPosture(functions []Function) RiskPosture {
	return RiskPosture{
		Functions: functions,
	}
}

// FromScores builds a posture in canonical metric order; unknown keys are appended last.
func FromScores(scores map[string]float64) RiskPosture {
	var functions []Function
	seen := map[string]bool{}
	for _, key := range MetricKeys {
		if v, ok := scores[key]; ok {
			functions = append(functions, Function{Name: key, Score: v})
			seen[key] = true
		}
	}
	for key, v := range scores {
		if !seen[key] {
			functions = append(functions, Function{Name: key, Score: v})
		}
	}
	return NewRiskPosture(functions)
}

// RiskLevelCounts holds the number of functions per tier.
type RiskLevelCounts struct {
	Low      int
	Medium   int
	High     int
	Critical int
}

// CountRiskLevels counts the number of functions that fall into each tier.
func (rp *RiskPosture) CountRiskLevels() RiskLevelCounts {
	var counts RiskLevelCounts
	for _, function := range rp.Functions {
		switch LevelFor(function.Score) {
		case Critical:
			counts.Critical++
		case High:
			counts.High++
		case Medium:
			counts.Medium++
		default:
			counts.Low++
		}
	}
	return counts
}

// DisplayRiskLevels writes one line per tier count.
func (rp *RiskPosture) DisplayRiskLevels(w io.Writer) {
	c := rp.CountRiskLevels()
	fmt.Fprintf(w, "Critical: %d, High: %d, Medium: %d, Low: %d\n", c.Critical, c.High, c.Medium, c.Low)
}
