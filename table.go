package repperiods

import (
	"slices"

	"github.com/go-gota/gota/dataframe"
)

// Column names of a long-format table.
const (
	PeriodColumn    = "period"
	TimestepColumn  = "timestep"
	ValueColumn     = "value"
	RepPeriodColumn = "rep_period"
)

func hasColumn(df dataframe.DataFrame, name string) bool {
	return slices.Contains(df.Names(), name)
}

func intColumn(df dataframe.DataFrame, name string) ([]int, error) {
	v, err := df.Col(name).Int()
	if err != nil {
		return nil, invalidArgumentf("column %q must hold integers: %v", name, err)
	}
	return v, nil
}

func maxInt(v []int) int {
	if len(v) == 0 {
		return 0
	}
	return slices.Max(v)
}

func repeatInt(v, n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = v
	}
	return out
}
