package domain

import "testing"

func TestAggregate_PipelineAndWeightedValue(t *testing.T) {
	summary := Aggregate([]LeadFigures{
		{Budget: 1000, Status: StatusNew},
		{Budget: 2000, Status: StatusNegotiation},
		{Budget: 3000, Status: StatusClosedWon},
	})

	if summary.PipelineValue != 6000 {
		t.Fatalf("expected pipeline value 6000, got %v", summary.PipelineValue)
	}
	// 1000*10% + 2000*70% + 3000*100%
	if summary.WeightedValue != 4500 {
		t.Fatalf("expected weighted value 4500, got %v", summary.WeightedValue)
	}
	if summary.StageDistribution[StatusNew] != 1 || summary.StageDistribution[StatusNegotiation] != 1 || summary.StageDistribution[StatusClosedWon] != 1 {
		t.Fatalf("unexpected stage distribution %v", summary.StageDistribution)
	}
}

func TestAggregate_WinRate(t *testing.T) {
	summary := Aggregate([]LeadFigures{
		{Budget: 100, Status: StatusClosedWon},
		{Budget: 200, Status: StatusClosedWon},
		{Budget: 300, Status: StatusClosedWon},
		{Budget: 400, Status: StatusClosedLost},
	})

	if summary.WinRate != 0.75 {
		t.Fatalf("expected win rate 0.75, got %v", summary.WinRate)
	}
	if summary.AvgDealSize != 200 {
		t.Fatalf("expected avg deal size 200, got %v", summary.AvgDealSize)
	}
}

func TestAggregate_ZeroDenominators(t *testing.T) {
	summary := Aggregate([]LeadFigures{
		{Budget: 500, Status: StatusContacted},
	})

	if summary.WinRate != 0 {
		t.Fatalf("expected win rate 0 with no terminal leads, got %v", summary.WinRate)
	}
	if summary.AvgDealSize != 0 {
		t.Fatalf("expected avg deal size 0 with no won deals, got %v", summary.AvgDealSize)
	}
}

func TestAggregate_Empty(t *testing.T) {
	summary := Aggregate(nil)
	if summary.PipelineValue != 0 || summary.WeightedValue != 0 || summary.WinRate != 0 || summary.AvgDealSize != 0 {
		t.Fatalf("expected zero summary for empty lead set, got %+v", summary)
	}
}

func TestAggregate_UnknownStatusCountsAtFallbackProbability(t *testing.T) {
	summary := Aggregate([]LeadFigures{
		{Budget: 1000, Status: Status("imported")},
	})

	if summary.WeightedValue != 200 {
		t.Fatalf("expected weighted value 200 for unknown status, got %v", summary.WeightedValue)
	}
}
