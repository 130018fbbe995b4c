package domain

// LeadFigures is the slice of a lead the pipeline aggregation needs.
type LeadFigures struct {
	Budget float64
	Status Status
}

// PipelineSummary is the aggregate view of a rep's lead set.
type PipelineSummary struct {
	PipelineValue     float64            `json:"pipelineValue"`
	WeightedValue     float64            `json:"weightedValue"`
	WinRate           float64            `json:"winRate"`
	AvgDealSize       float64            `json:"avgDealSize"`
	StageDistribution map[Status]int     `json:"stageDistribution"`
}

// Aggregate computes the pipeline summary over a set of leads. It is a pure
// function: budgets already collapsed to 0 for missing or junk input, no I/O.
func Aggregate(leads []LeadFigures) PipelineSummary {
	summary := PipelineSummary{
		StageDistribution: make(map[Status]int, len(knownStatuses)),
	}

	var won, lost int
	var wonValue float64

	for _, lead := range leads {
		summary.PipelineValue += lead.Budget
		summary.WeightedValue += lead.Budget * float64(Probability(lead.Status)) / 100
		summary.StageDistribution[lead.Status]++

		switch lead.Status {
		case StatusClosedWon:
			won++
			wonValue += lead.Budget
		case StatusClosedLost:
			lost++
		}
	}

	if won+lost > 0 {
		summary.WinRate = float64(won) / float64(won+lost)
	}
	if won > 0 {
		summary.AvgDealSize = wonValue / float64(won)
	}

	return summary
}
