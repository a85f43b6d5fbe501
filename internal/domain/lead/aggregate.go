package lead

import (
	"time"

	"github.com/shopspring/decimal"
)

// HighConversionThreshold is the probability above which a lead counts as likely to convert
const HighConversionThreshold = 70

// StageMetrics summarizes one pipeline stage
type StageMetrics struct {
	Stage          Status          `json:"stage"`
	Count          int             `json:"count"`
	TotalValue     decimal.Decimal `json:"total_value"`
	AvgTimeInStage float64         `json:"avg_time_in_stage"`
	ConversionRate float64         `json:"conversion_rate"`
}

// Summary holds board-wide totals
type Summary struct {
	Total         int             `json:"total"`
	Overdue       int             `json:"overdue"`
	Verified      int             `json:"verified"`
	AvgLeadScore  float64         `json:"avg_lead_score"`
	PipelineValue decimal.Decimal `json:"pipeline_value"`
}

// GroupByStage partitions leads by status. Every fixed stage has an entry,
// possibly empty; leads keep their input order inside a stage.
func GroupByStage(leads []Lead) map[Status][]Lead {
	groups := make(map[Status][]Lead, len(Stages))
	for _, s := range Stages {
		groups[s] = []Lead{}
	}
	for _, l := range leads {
		groups[l.Status] = append(groups[l.Status], l)
	}
	return groups
}

// Aggregate computes per-stage metrics in board order
func Aggregate(leads []Lead, now time.Time) []StageMetrics {
	groups := GroupByStage(leads)
	out := make([]StageMetrics, 0, len(Stages))
	for _, s := range Stages {
		out = append(out, stageMetrics(s, groups[s], now))
	}
	return out
}

func stageMetrics(stage Status, leads []Lead, now time.Time) StageMetrics {
	m := StageMetrics{Stage: stage, TotalValue: decimal.Zero}
	if len(leads) == 0 {
		return m
	}

	var days, likely int
	for i := range leads {
		m.TotalValue = m.TotalValue.Add(leads[i].Budget.Max)
		days += leads[i].TimeInStage(now)
		if leads[i].ConversionProbability > HighConversionThreshold {
			likely++
		}
	}

	n := float64(len(leads))
	m.Count = len(leads)
	m.AvgTimeInStage = float64(days) / n
	m.ConversionRate = float64(likely) / n * 100
	return m
}

// Summarize computes totals over the given leads
func Summarize(leads []Lead, now time.Time) Summary {
	s := Summary{Total: len(leads), PipelineValue: decimal.Zero}
	if len(leads) == 0 {
		return s
	}
	var score int
	for i := range leads {
		if leads[i].IsOverdueAt(now) {
			s.Overdue++
		}
		if leads[i].IsVerified() {
			s.Verified++
		}
		score += leads[i].LeadScore
		s.PipelineValue = s.PipelineValue.Add(leads[i].Budget.Max)
	}
	s.AvgLeadScore = float64(score) / float64(len(leads))
	return s
}
