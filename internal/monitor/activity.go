package monitor

// ActivityTracker keeps a rolling window of per-poll new-post counts and
// flags when the latest count represents a spike against the window's
// prior baseline.
type ActivityTracker struct {
	windowSize    int
	spikeThreshold float64
	counts        []int
}

// NewActivityTracker builds a tracker with the given window size and
// spike multiplier (count/baseline at or above this ratio, with a floor
// of 2 new posts, counts as a spike).
func NewActivityTracker(windowSize int, spikeThreshold float64) *ActivityTracker {
	if windowSize <= 0 {
		windowSize = 10
	}
	if spikeThreshold <= 0 {
		spikeThreshold = 2.0
	}
	return &ActivityTracker{windowSize: windowSize, spikeThreshold: spikeThreshold}
}

// Record appends count to the window and reports whether it constitutes
// a spike relative to the mean of the window BEFORE this count was
// added. The first three samples can never trigger a spike (no baseline yet).
func (t *ActivityTracker) Record(count int) (isSpike bool, spikeFactor float64) {
	if len(t.counts) < 3 {
		t.append(count)
		return false, 1.0
	}

	baseline := t.baseline()
	switch {
	case baseline > 0:
		spikeFactor = float64(count) / baseline
	case count > 0:
		spikeFactor = float64(count)
	default:
		spikeFactor = 1.0
	}

	t.append(count)

	isSpike = spikeFactor >= t.spikeThreshold && count >= 2
	return isSpike, round2(spikeFactor)
}

// Baseline returns the mean of the current window, 0 if empty.
func (t *ActivityTracker) Baseline() float64 {
	return round2(t.baseline())
}

func (t *ActivityTracker) baseline() float64 {
	if len(t.counts) == 0 {
		return 0
	}
	sum := 0
	for _, c := range t.counts {
		sum += c
	}
	return float64(sum) / float64(len(t.counts))
}

func (t *ActivityTracker) append(count int) {
	t.counts = append(t.counts, count)
	if len(t.counts) > t.windowSize {
		t.counts = t.counts[len(t.counts)-t.windowSize:]
	}
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
