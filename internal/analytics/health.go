package analytics

import (
	"fmt"
	"sort"

	"github.com/ignite/marketpulse/internal/datanorm"
)

// Grade is the letter form of a health score.
type Grade string

const (
	GradeA Grade = "A"
	GradeB Grade = "B"
	GradeC Grade = "C"
	GradeD Grade = "D"
	GradeF Grade = "F"
)

// RiskLevel summarizes how many risk factors apply.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Risk factor codes.
const (
	RiskSinglePlatform        = "single_platform"
	RiskPlatformConcentration = "platform_concentration"
	RiskNegativeROI           = "negative_roi"
	RiskROASBelowBreakeven    = "roas_below_breakeven"
	RiskDecliningPerformance  = "declining_performance"
)

// Factor statuses. A component whose metric is missing is unavailable and
// scores nothing.
const (
	FactorExcellent   = "excellent"
	FactorGood        = "good"
	FactorFair        = "fair"
	FactorPoor        = "poor"
	FactorUnavailable = "unavailable"
)

type tier struct {
	min    float64
	points int
	status string
}

type component struct {
	name   string
	metric string
	max    int
	tiers  []tier // descending by min
	floor  int
}

// healthComponents are scored in this order. Points sum to at most 100.
var healthComponents = []component{
	{name: "ROI", metric: MetricROI, max: 30, floor: 5, tiers: []tier{
		{min: 100, points: 30, status: FactorExcellent},
		{min: 50, points: 22, status: FactorGood},
		{min: 0, points: 15, status: FactorFair},
	}},
	{name: "ROAS", metric: MetricROAS, max: 25, floor: 3, tiers: []tier{
		{min: 3, points: 25, status: FactorExcellent},
		{min: 1.5, points: 18, status: FactorGood},
		{min: 1, points: 10, status: FactorFair},
	}},
	{name: "CTR", metric: MetricCTR, max: 20, floor: 3, tiers: []tier{
		{min: 3, points: 20, status: FactorExcellent},
		{min: 2, points: 15, status: FactorGood},
		{min: 1, points: 10, status: FactorFair},
	}},
	{name: "CVR", metric: MetricCVR, max: 25, floor: 3, tiers: []tier{
		{min: 5, points: 25, status: FactorExcellent},
		{min: 3, points: 18, status: FactorGood},
		{min: 1, points: 10, status: FactorFair},
	}},
}

var gradeFloors = []struct {
	min   int
	grade Grade
}{
	{90, GradeA},
	{80, GradeB},
	{70, GradeC},
	{60, GradeD},
}

// Trajectory directions.
const (
	TrajectoryImproving = "improving"
	TrajectoryStable    = "stable"
	TrajectoryDeclining = "declining"
)

// stableBand is the relative change treated as flat.
const stableBand = 0.05

// trajectoryMetrics are tried in order when comparing against history.
var trajectoryMetrics = []string{datanorm.KeyRevenue, datanorm.KeyConversions, datanorm.KeyClicks}

// HistoricalComparison is the previous period's metrics for the same campaign.
type HistoricalComparison struct {
	Label    string  `json:"label,omitempty"`
	Previous Metrics `json:"previous"`
}

// HealthInput is everything the health scorer looks at.
type HealthInput struct {
	Metrics       Metrics
	PlatformSpend map[string]float64
	History       *HistoricalComparison
}

// Factor is one scored component.
type Factor struct {
	Name      string   `json:"name"`
	Metric    string   `json:"metric"`
	Value     *float64 `json:"value,omitempty"`
	Points    int      `json:"points"`
	MaxPoints int      `json:"max_points"`
	Status    string   `json:"status"`
}

// RiskFactor is one reason for concern.
type RiskFactor struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Trajectory compares the current period with the previous one.
type Trajectory struct {
	Metric    string  `json:"metric"`
	Previous  float64 `json:"previous"`
	Current   float64 `json:"current"`
	Change    float64 `json:"change"`
	Direction string  `json:"direction"`
}

// HealthAssessment is the scored health of a campaign.
type HealthAssessment struct {
	Score       int          `json:"score"`
	Grade       Grade        `json:"grade"`
	Factors     []Factor     `json:"factors"`
	RiskLevel   RiskLevel    `json:"risk_level"`
	RiskFactors []RiskFactor `json:"risk_factors"`
	Trajectory  *Trajectory  `json:"trajectory,omitempty"`
}

// ScoreHealth scores ROI, ROAS, CTR and CVR against fixed tiers and lists
// risk factors. The trajectory and the declining-performance risk are only
// evaluated when history is supplied.
func (e *Engine) ScoreHealth(in HealthInput) HealthAssessment {
	h := HealthAssessment{
		Factors:     make([]Factor, 0, len(healthComponents)),
		RiskFactors: []RiskFactor{},
	}

	for _, c := range healthComponents {
		f := scoreComponent(c, in.Metrics)
		h.Score += f.Points
		h.Factors = append(h.Factors, f)
	}
	h.Grade = gradeFor(h.Score)

	h.RiskFactors = append(h.RiskFactors, platformRisks(in.PlatformSpend, e.thresholds.ConcentrationShare)...)
	if roi, ok := in.Metrics[MetricROI]; ok && roi < 0 {
		h.RiskFactors = append(h.RiskFactors, RiskFactor{
			Code:    RiskNegativeROI,
			Message: fmt.Sprintf("campaign is losing money (ROI %.1f%%)", roi),
		})
	}
	if roas, ok := in.Metrics[MetricROAS]; ok && roas < 1 {
		h.RiskFactors = append(h.RiskFactors, RiskFactor{
			Code:    RiskROASBelowBreakeven,
			Message: fmt.Sprintf("ROAS %.2f is below break-even", roas),
		})
	}
	if in.History != nil {
		if tr := trajectory(in.Metrics, in.History.Previous); tr != nil {
			h.Trajectory = tr
			if tr.Change < -e.thresholds.DecliningRisk {
				h.RiskFactors = append(h.RiskFactors, RiskFactor{
					Code:    RiskDecliningPerformance,
					Message: fmt.Sprintf("%s fell %.1f%% against the previous period", tr.Metric, -tr.Change*100),
				})
			}
		}
	}

	switch n := len(h.RiskFactors); {
	case n == 0:
		h.RiskLevel = RiskLow
	case n == 1:
		h.RiskLevel = RiskMedium
	default:
		h.RiskLevel = RiskHigh
	}
	return h
}

func scoreComponent(c component, m Metrics) Factor {
	f := Factor{Name: c.name, Metric: c.metric, MaxPoints: c.max}
	v, ok := m[c.metric]
	if !ok {
		f.Status = FactorUnavailable
		return f
	}
	f.Value = &v
	for _, t := range c.tiers {
		if v >= t.min {
			f.Points, f.Status = t.points, t.status
			return f
		}
	}
	f.Points, f.Status = c.floor, FactorPoor
	return f
}

func gradeFor(score int) Grade {
	for _, g := range gradeFloors {
		if score >= g.min {
			return g.grade
		}
	}
	return GradeF
}

func platformRisks(spend map[string]float64, concentration float64) []RiskFactor {
	var platforms []string
	total := 0.0
	for p, v := range spend {
		if v > 0 {
			platforms = append(platforms, p)
			total += v
		}
	}
	sort.Strings(platforms)

	switch {
	case len(platforms) == 0:
		return nil
	case len(platforms) == 1:
		return []RiskFactor{{
			Code:    RiskSinglePlatform,
			Message: fmt.Sprintf("all spend is on %s", platforms[0]),
		}}
	}

	top := platforms[0]
	for _, p := range platforms[1:] {
		if spend[p] > spend[top] {
			top = p
		}
	}
	share := SafeRatio(spend[top], total)
	if share > concentration {
		return []RiskFactor{{
			Code:    RiskPlatformConcentration,
			Message: fmt.Sprintf("%s carries %.0f%% of spend", top, share*100),
		}}
	}
	return nil
}

func trajectory(current, previous Metrics) *Trajectory {
	for _, key := range trajectoryMetrics {
		cur, okCur := current[key]
		prev, okPrev := previous[key]
		if !okCur || !okPrev || prev <= 0 {
			continue
		}
		change := (cur - prev) / prev
		direction := TrajectoryStable
		switch {
		case change > stableBand:
			direction = TrajectoryImproving
		case change < -stableBand:
			direction = TrajectoryDeclining
		}
		return &Trajectory{Metric: key, Previous: prev, Current: cur, Change: change, Direction: direction}
	}
	return nil
}
