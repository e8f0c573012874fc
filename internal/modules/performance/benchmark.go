package performance

// normalizeBenchmark converts the benchmark's raw closes, restricted to the
// portfolio's admissible dates, into a percent-change series anchored at the
// first date. The first point is always exactly 0. The benchmark has no cash
// flows, so no TWR machinery is needed.
func normalizeBenchmark(benchmark priceTable, dates []string) []SeriesPoint {
	series := make([]SeriesPoint, 0, len(dates))

	var first float64
	for _, date := range dates {
		value, ok := benchmark.lookup(date)
		if !ok {
			// Admissible dates come from the benchmark's own calendar, so a
			// miss can only happen on malformed input; drop the date.
			continue
		}

		if len(series) == 0 {
			first = value
			series = append(series, SeriesPoint{Date: date, Value: value, ChangePercent: 0})
			continue
		}

		changePercent := 0.0
		if first != 0 {
			changePercent = (value - first) / first * 100
		}
		series = append(series, SeriesPoint{Date: date, Value: value, ChangePercent: changePercent})
	}

	return series
}
