package analytics

import (
	"errors"
	"fmt"
	"math"

	"github.com/ignite/marketpulse/internal/datanorm"
)

// ErrInsufficientData is returned when spend or ROAS is unavailable.
var ErrInsufficientData = errors.New("spend and ROAS are required to project scaling")

// ErrInvalidIncrease is returned for a non-positive spend increase.
var ErrInvalidIncrease = errors.New("spend increase must be a positive percentage")

type efficiencyTier struct {
	maxIncreasePct float64
	loss           float64
}

// efficiencyTiers discount ROAS as spend grows: audiences saturate and
// marginal placements cost more.
var efficiencyTiers = []efficiencyTier{
	{maxIncreasePct: 25, loss: 0.05},
	{maxIncreasePct: 50, loss: 0.15},
	{maxIncreasePct: 100, loss: 0.25},
}

const (
	beyondTierLoss      = 0.35
	bestCaseLossFactor  = 0.5
	worstCaseLossFactor = 1.5
	maxLoss             = 0.9
)

// ScalingCaveat accompanies every projection.
const ScalingCaveat = "Heuristic estimate based on tiered efficiency-loss assumptions, not a prediction. Actual results depend on audience saturation and auction competition."

// Scenario is one band of a projection.
type Scenario struct {
	ROAS    float64 `json:"roas"`
	Revenue float64 `json:"revenue"`
	Profit  float64 `json:"profit"`
}

// ScalingProjection estimates the outcome of raising spend.
type ScalingProjection struct {
	IncreasePct    float64  `json:"increase_pct"`
	CurrentSpend   float64  `json:"current_spend"`
	CurrentROAS    float64  `json:"current_roas"`
	ProjectedSpend float64  `json:"projected_spend"`
	EfficiencyLoss float64  `json:"efficiency_loss"`
	BestCase       Scenario `json:"best_case"`
	ExpectedCase   Scenario `json:"expected_case"`
	WorstCase      Scenario `json:"worst_case"`
	Assumptions    []string `json:"assumptions"`
	Caveat         string   `json:"caveat"`
}

// EfficiencyLoss returns the ROAS discount for a spend increase.
func EfficiencyLoss(increasePct float64) float64 {
	for _, t := range efficiencyTiers {
		if increasePct <= t.maxIncreasePct {
			return t.loss
		}
	}
	return beyondTierLoss
}

// ProjectScaling applies the tiered efficiency loss to current ROAS and
// returns best, expected and worst-case profit bands.
func ProjectScaling(m Metrics, increasePct float64) (ScalingProjection, error) {
	if !finite(increasePct) || increasePct <= 0 {
		return ScalingProjection{}, ErrInvalidIncrease
	}
	spend, okSpend := m[datanorm.KeySpend]
	roas, okROAS := m[MetricROAS]
	if !okSpend || !okROAS || spend <= 0 {
		return ScalingProjection{}, ErrInsufficientData
	}

	loss := EfficiencyLoss(increasePct)
	projected := spend * (1 + increasePct/100)
	scenario := func(l float64) Scenario {
		r := roas * (1 - math.Min(l, maxLoss))
		revenue := projected * r
		return Scenario{ROAS: r, Revenue: revenue, Profit: revenue - projected}
	}

	return ScalingProjection{
		IncreasePct:    increasePct,
		CurrentSpend:   spend,
		CurrentROAS:    roas,
		ProjectedSpend: projected,
		EfficiencyLoss: loss,
		BestCase:       scenario(loss * bestCaseLossFactor),
		ExpectedCase:   scenario(loss),
		WorstCase:      scenario(loss * worstCaseLossFactor),
		Assumptions: []string{
			fmt.Sprintf("Spend rises %.0f%% from %.2f to %.2f", increasePct, spend, projected),
			fmt.Sprintf("ROAS degrades by %.0f%% at this scale (best case %.1f%%, worst case %.1f%%)", loss*100, loss*bestCaseLossFactor*100, math.Min(loss*worstCaseLossFactor, maxLoss)*100),
			"Conversion value and attribution stay constant",
			"Targeting and bidding strategy stay unchanged",
		},
		Caveat: ScalingCaveat,
	}, nil
}
