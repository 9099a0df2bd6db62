package income_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andrescamacho/autobuild-go/internal/domain/income"
)

func TestTracker_AveragesGainPerGathererOverElapsedFrames(t *testing.T) {
	tracker := income.NewTracker()

	tracker.Update(income.Sample{Frame: 10, Minerals: 0, MineralGatherers: 4})
	rates := tracker.Update(income.Sample{Frame: 20, Minerals: 20, MineralGatherers: 4})

	// 10 empty frames, then a gain of 5 per gatherer over 10 frames
	assert.InDelta(t, 5.0/20.0, rates.MineralsPerFramePerGatherer, 1e-9)
	assert.Equal(t, 0.0, rates.GasPerFramePerGatherer)
}

func TestTracker_SpendingCountsAsNoIncome(t *testing.T) {
	tracker := income.NewTracker()

	tracker.Update(income.Sample{Frame: 1, Minerals: 100, MineralGatherers: 1})
	rates := tracker.Update(income.Sample{Frame: 2, Minerals: 50, MineralGatherers: 1})

	assert.InDelta(t, 50.0, rates.MineralsPerFramePerGatherer, 1e-9)
}

func TestTracker_KeepsRateWithoutGatherers(t *testing.T) {
	tracker := income.NewTracker()
	tracker.Update(income.Sample{Frame: 1, Gas: 8, GasGatherers: 1})

	rates := tracker.Update(income.Sample{Frame: 50, Gas: 8})

	assert.InDelta(t, 8.0, rates.GasPerFramePerGatherer, 1e-9)
	assert.Equal(t, rates, tracker.Rates())
}

func TestTracker_LongGapForgetsHistory(t *testing.T) {
	tracker := income.NewTracker()
	tracker.Update(income.Sample{Frame: 1, Minerals: 100, MineralGatherers: 1})

	rates := tracker.Update(income.Sample{Frame: 1 + income.AverageFrames + 1, Minerals: 200, MineralGatherers: 1})

	assert.Equal(t, 0.0, rates.MineralsPerFramePerGatherer)
}
