package board

import (
	"math"
	"strings"

	"github.com/FangWolf96/corepoint-ingest/internal/config"
)

// ScopeRow is an aging summary over a slice of the board.
type ScopeRow struct {
	Scope  string  `json:"scope"`
	Count  int     `json:"count"`
	AvgAge float64 `json:"avg_age_days"`
}

// LaneRow is an aging summary for one lane. Lanes without cards are omitted.
type LaneRow struct {
	Lane   string  `json:"lane"`
	Count  int     `json:"count"`
	AvgAge float64 `json:"avg_age_days"`
}

// LabelRow is an aging summary for one label across active cards.
type LabelRow struct {
	Label  string  `json:"label"`
	Count  int     `json:"count"`
	AvgAge float64 `json:"avg_age_days"`
}

// QuotedStats aggregates quoted prices: pipeline is active cards, won is the
// Completed lane, lost is the Canceled lane.
type QuotedStats struct {
	PipelineCount int     `json:"pipeline_count"`
	PipelineTotal int     `json:"pipeline_total"`
	PipelineAvg   float64 `json:"pipeline_avg"`
	WonCount      int     `json:"won_count"`
	WonTotal      int     `json:"won_total"`
	WonAvg        float64 `json:"won_avg"`
	LostCount     int     `json:"lost_count"`
	LostTotal     int     `json:"lost_total"`
	LostAvg       float64 `json:"lost_avg"`
}

// Report is the full analysis of one board export.
type Report struct {
	ScopeRows []ScopeRow  `json:"scope"`
	LaneRows  []LaneRow   `json:"lanes"`
	Quoted    QuotedStats `json:"quoted"`
	LabelRows []LabelRow  `json:"labels"`
}

const allCardsScope = "All cards (excluding Completed/Canceled)"

// avgAge is the mean rounded to two decimals, 0 for an empty slice.
func avgAge(ages []int) float64 {
	if len(ages) == 0 {
		return 0
	}
	sum := 0
	for _, a := range ages {
		sum += a
	}
	return math.Round(float64(sum)/float64(len(ages))*100) / 100
}

func containsLabel(text, label string) bool {
	return strings.Contains(strings.ToLower(text), strings.ToLower(label))
}

// BuildReport computes aging and quoted-price statistics for the given cards.
// Age statistics skip the excluded columns; lane rows cover all cards so the
// Completed and Canceled lanes still show up when requested.
func BuildReport(cards []Card, cfg config.BoardConfig) *Report {
	excluded := make(map[string]bool, len(cfg.ExcludedColumns))
	for _, c := range cfg.ExcludedColumns {
		excluded[c] = true
	}

	var active []Card
	for _, c := range cards {
		if !excluded[c.Column] {
			active = append(active, c)
		}
	}

	rep := &Report{}

	activeAges := make([]int, 0, len(active))
	for _, c := range active {
		activeAges = append(activeAges, c.Age)
	}
	rep.ScopeRows = append(rep.ScopeRows, ScopeRow{
		Scope:  allCardsScope,
		Count:  len(active),
		AvgAge: avgAge(activeAges),
	})
	for _, label := range cfg.FocusedLabels {
		var ages []int
		for _, c := range active {
			if containsLabel(c.Text, label) {
				ages = append(ages, c.Age)
			}
		}
		rep.ScopeRows = append(rep.ScopeRows, ScopeRow{Scope: label, Count: len(ages), AvgAge: avgAge(ages)})
	}

	for _, lane := range cfg.RequestedLanes {
		var ages []int
		for _, c := range cards {
			if c.Column == lane {
				ages = append(ages, c.Age)
			}
		}
		if len(ages) > 0 {
			rep.LaneRows = append(rep.LaneRows, LaneRow{Lane: lane, Count: len(ages), AvgAge: avgAge(ages)})
		}
	}

	rep.Quoted = quotedStats(cards, active)

	for _, label := range cfg.AllLabels {
		var ages []int
		for _, c := range active {
			if containsLabel(c.Text, label) {
				ages = append(ages, c.Age)
			}
		}
		rep.LabelRows = append(rep.LabelRows, LabelRow{Label: label, Count: len(ages), AvgAge: avgAge(ages)})
	}

	return rep
}

func quotedStats(cards, active []Card) QuotedStats {
	pricesIn := func(cs []Card, column string) []int {
		var out []int
		for _, c := range cs {
			if c.Price == nil {
				continue
			}
			if column != "" && c.Column != column {
				continue
			}
			out = append(out, *c.Price)
		}
		return out
	}

	pipeline := pricesIn(active, "")
	won := pricesIn(cards, "Completed")
	lost := pricesIn(cards, "Canceled")

	sum := func(xs []int) int {
		s := 0
		for _, x := range xs {
			s += x
		}
		return s
	}
	mean := func(xs []int) float64 {
		if len(xs) == 0 {
			return 0
		}
		return math.Round(float64(sum(xs))/float64(len(xs))*100) / 100
	}

	return QuotedStats{
		PipelineCount: len(pipeline),
		PipelineTotal: sum(pipeline),
		PipelineAvg:   mean(pipeline),
		WonCount:      len(won),
		WonTotal:      sum(won),
		WonAvg:        mean(won),
		LostCount:     len(lost),
		LostTotal:     sum(lost),
		LostAvg:       mean(lost),
	}
}
