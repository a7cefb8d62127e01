package report

import (
	"fmt"
	"io"

	"minex/analytics"
	"minex/service"
)

// Summary collects everything the text report renders.
type Summary struct {
	Stats       service.EngineStats
	Spread      analytics.SpreadMetrics
	Kyle        analytics.KyleLambdaResult
	Imbalance   analytics.ImbalanceMetrics
	Facts       analytics.FactMetrics
	Events      int
	WallTimeSec float64
	OutputDir   string
}

// Render writes the report to w.
func Render(w io.Writer, s Summary) error {
	line := func(format string, args ...any) {
		fmt.Fprintf(w, format+"\n", args...)
	}

	line("  ===========================================")
	line("  minex — Simulation Report")
	line("  ===========================================")
	line("")
	line("  Engine Statistics")
	line("  -----------------------------------------")
	line("  Total orders:    %d", s.Stats.TotalOrders)
	line("  Total trades:    %d", s.Stats.TotalTrades)
	line("  Total volume:    %d", s.Stats.TotalVolume)
	line("  Total cancels:   %d", s.Stats.TotalCancels)
	line("  Total rejects:   %d", s.Stats.TotalRejects)
	line("  Active orders:   %d", s.Stats.ActiveOrders)
	line("  Wall time:       %.2f sec", s.WallTimeSec)
	if s.WallTimeSec > 0 {
		line("  Throughput:      %.0f events/sec", float64(s.Events)/s.WallTimeSec)
	}

	line("")
	line("  Spread Decomposition (Huang-Stoll)")
	line("  -----------------------------------------")
	line("  Quoted spread:      %.2f ticks", s.Spread.AvgQuotedSpread)
	line("  Effective spread:   %.2f ticks", s.Spread.AvgEffectiveSpread)
	line("  Realized spread:    %.2f ticks", s.Spread.AvgRealizedSpread)
	line("  Price impact:       %.2f ticks", s.Spread.AvgPriceImpact)
	line("  Adverse selection:  %.2f%%", s.Spread.AdverseSelectionPct)

	line("")
	line("  Kyle's Lambda")
	line("  -----------------------------------------")
	line("  lambda:   %.6f", s.Kyle.Lambda)
	line("  R^2:      %.2f", s.Kyle.RSquared)
	line("  t-stat:   %.1f", s.Kyle.TStatistic)
	line("  N:        %d", s.Kyle.NumIntervals)

	line("")
	line("  Order Flow Imbalance")
	line("  -----------------------------------------")
	line("  OFI beta:  %.6f", s.Imbalance.OFIBeta)
	line("  OFI R^2:   %.2f", s.Imbalance.OFIRSquared)
	line("  Avg imbalance: %.3f", s.Imbalance.AvgVolumeImbalance)

	line("")
	line("  Stylized Facts")
	line("  -----------------------------------------")
	line("  Excess kurtosis:     %.2f", s.Facts.ReturnKurtosis)
	line("  AC(|r|, lag=1):      %.2f", s.Facts.AbsReturnACLag1)
	line("  AC(|r|, lag=5):      %.2f", s.Facts.AbsReturnACLag5)
	line("  AC(|r|, lag=10):     %.2f", s.Facts.AbsReturnACLag10)
	line("")
	for _, fc := range s.Facts.FactChecks {
		status := "  [x]"
		if !fc.Reproduced {
			status = "  [ ]"
		}
		line("%s %s -> %.2f (benchmark: %s)", status, fc.Name, fc.Value, fc.Benchmark)
	}

	line("")
	line("  ===========================================")
	line("")
	line("  Output files:")
	line("    %s/trades.csv", s.OutputDir)
	line("    %s/midprices.csv", s.OutputDir)
	line("    %s/spreads.csv", s.OutputDir)
	line("    %s/report.txt", s.OutputDir)
	line("    %s/metrics.prom", s.OutputDir)
	line("    %s/feed.bin", s.OutputDir)
	line("")

	return nil
}
