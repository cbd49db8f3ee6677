package stats

// ChangePercent returns (current-previous)/previous*100, or 0 when there is
// no previous time.
func ChangePercent(current, previous int64) float64 {
	if previous == 0 {
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

// previousTotal recovers the previous period's total from the current total
// and the percentage change between them.
func previousTotal(current int64, changePercent float64) int64 {
	factor := 1 + changePercent/100
	if factor <= 0 {
		return 0
	}
	return int64(float64(current)/factor + 0.5)
}
