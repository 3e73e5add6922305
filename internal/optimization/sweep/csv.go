package sweep

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Header is the first CSV record.
var Header = []string{"PopulationSize", "Iterations", "c1", "c2", "BestResult", "TimeElapsed"}

// WriteCSV writes Header followed by one record per row. TimeElapsed is
// written in seconds.
func WriteCSV(w io.Writer, rows []Row) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return err
	}
	for _, r := range rows {
		rec := []string{
			strconv.Itoa(r.PopulationSize),
			strconv.Itoa(r.Iterations),
			formatFloat(r.C1),
			formatFloat(r.C2),
			formatFloat(r.BestResult),
			strconv.FormatFloat(r.TimeElapsed.Seconds(), 'f', 6, 64),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
