package income

// AverageFrames is the length of the moving average window.
const AverageFrames = 15 * 40

// Sample is one observation of our stockpile and gatherer assignment.
type Sample struct {
	Frame            int
	Minerals         float64
	Gas              float64
	MineralGatherers int
	GasGatherers     int
}

// Rates are per-frame, per-gatherer income averages.
type Rates struct {
	MineralsPerFramePerGatherer float64
	GasPerFramePerGatherer      float64
}

// history is a fixed-size moving window with a running sum.
type history struct {
	values []float64
	next   int
	count  int
	sum    float64
}

func newHistory(size int) *history {
	return &history{values: make([]float64, size)}
}

func (h *history) push(v float64) {
	if h.count == len(h.values) {
		h.sum -= h.values[h.next]
	} else {
		h.count++
	}
	h.values[h.next] = v
	h.sum += v
	h.next = (h.next + 1) % len(h.values)
}

// pushGain records a gain observed over n frames: the gain on the first
// frame followed by n-1 empty frames.
func (h *history) pushGain(v float64, n int) {
	if n <= 0 {
		return
	}
	if n > len(h.values) {
		for i := range h.values {
			h.values[i] = 0
		}
		h.next, h.count, h.sum = 0, len(h.values), 0
		return
	}
	h.push(v)
	for i := 1; i < n; i++ {
		h.push(0)
	}
}

func (h *history) average() float64 {
	if h.count == 0 {
		return 0
	}
	return h.sum / float64(h.count)
}

// Tracker measures gather rates from successive snapshots. Resource drops
// from spending count as zero income. A resource with no gatherers keeps its
// previous rate.
type Tracker struct {
	minerals     *history
	gas          *history
	prevMinerals float64
	prevGas      float64
	lastUpdate   int
	rates        Rates
}

// NewTracker returns a tracker averaging over AverageFrames.
func NewTracker() *Tracker {
	return &Tracker{
		minerals: newHistory(AverageFrames),
		gas:      newHistory(AverageFrames),
	}
}

// Update folds in a sample and returns the current rates.
func (t *Tracker) Update(s Sample) Rates {
	elapsed := s.Frame - t.lastUpdate
	t.lastUpdate = s.Frame

	if s.MineralGatherers > 0 {
		gain := max(s.Minerals-t.prevMinerals, 0) / float64(s.MineralGatherers)
		t.minerals.pushGain(gain, elapsed)
		t.rates.MineralsPerFramePerGatherer = t.minerals.average()
		t.prevMinerals = s.Minerals
	}
	if s.GasGatherers > 0 {
		gain := max(s.Gas-t.prevGas, 0) / float64(s.GasGatherers)
		t.gas.pushGain(gain, elapsed)
		t.rates.GasPerFramePerGatherer = t.gas.average()
		t.prevGas = s.Gas
	}
	return t.rates
}

// Rates returns the rates as of the last update.
func (t *Tracker) Rates() Rates {
	return t.rates
}
