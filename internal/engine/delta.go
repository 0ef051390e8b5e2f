package engine

import "math"

// MetricDeltas is the turn-over-turn change shown on the metric cards.
type MetricDeltas struct {
	AvgHappiness float64 `json:"avg_happiness"`
	Unemployment float64 `json:"unemployment"`
	GDP          float64 `json:"gdp"`
	CrimeRate    float64 `json:"crime_rate"`
	Population   float64 `json:"population"`
	GovApproval  float64 `json:"gov_approval"`
}

// Delta returns cur - prev per metric, rounded to one decimal.
func Delta(prev, cur Metrics) MetricDeltas {
	return MetricDeltas{
		AvgHappiness: round1(cur.AvgHappiness - prev.AvgHappiness),
		Unemployment: round1(cur.Unemployment - prev.Unemployment),
		GDP:          round1(cur.GDP - prev.GDP),
		CrimeRate:    round1(cur.CrimeRate - prev.CrimeRate),
		Population:   round1(cur.Population - prev.Population),
		GovApproval:  round1(cur.GovApproval - prev.GovApproval),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
