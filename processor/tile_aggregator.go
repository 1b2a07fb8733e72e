package processor

// AggregateResults folds the per-tile statistics of completed tiles
// into run totals. Failed tiles contribute nothing. The fold is pure
// addition so the outcome does not depend on completion order, and a
// run with zero vegetation pixels yields all-zero percentages rather
// than NaN.
func AggregateResults(results []*TileResult) (*AggregateStats, float64) {
	agg := &AggregateStats{}
	var areaKm2 float64

	for _, res := range results {
		if res.Status != TileCompleted || res.Statistics == nil {
			continue
		}
		agg.TotalVegetationPixels += res.Statistics.TotalVegetationPixels
		agg.HealthyPixels += res.Statistics.HealthyPixels
		agg.StressedPixels += res.Statistics.StressedPixels
		agg.DecliningPixels += res.Statistics.DecliningPixels
		agg.DeadPixels += res.Statistics.DeadPixels
		areaKm2 += res.AreaKm2
	}

	if agg.TotalVegetationPixels > 0 {
		total := float64(agg.TotalVegetationPixels)
		agg.HealthyPercent = float64(agg.HealthyPixels) / total * 100.0
		agg.StressedPercent = float64(agg.StressedPixels) / total * 100.0
		agg.DecliningPercent = float64(agg.DecliningPixels) / total * 100.0
		agg.DeadPercent = float64(agg.DeadPixels) / total * 100.0
	}

	return agg, areaKm2
}
