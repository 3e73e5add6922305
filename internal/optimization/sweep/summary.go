package sweep

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary describes the BestResult column of a sweep.
type Summary struct {
	Runs   int     `json:"runs"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	// Best is the first row reaching Min.
	Best Row `json:"best"`
}

// Summarize aggregates rows. Rows whose BestResult is undefined (negative)
// are skipped; with nothing left the zero Summary is returned.
func Summarize(rows []Row) Summary {
	results := make([]float64, 0, len(rows))
	kept := make([]Row, 0, len(rows))
	for _, r := range rows {
		if r.BestResult < 0 {
			continue
		}
		results = append(results, r.BestResult)
		kept = append(kept, r)
	}
	if len(results) == 0 {
		return Summary{}
	}

	s := Summary{
		Runs: len(results),
		Min:  floats.Min(results),
		Max:  floats.Max(results),
		Best: kept[floats.MinIdx(results)],
	}
	if len(results) == 1 {
		s.Mean = results[0]
		return s
	}
	s.Mean, s.StdDev = stat.MeanStdDev(results, nil)
	return s
}
