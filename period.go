package repperiods

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// CombinePeriods flattens the period and timestep columns into a single
// timestep axis: timestep = (period - 1) * max(timestep) + timestep. The
// period column is dropped. A table without a period column is returned as is.
//
// The input is not modified.
func CombinePeriods(df dataframe.DataFrame) (dataframe.DataFrame, error) {
	if !hasColumn(df, TimestepColumn) {
		return df, schemaErrorf("column %q is required", TimestepColumn)
	}
	if !hasColumn(df, PeriodColumn) {
		return df, nil
	}
	timesteps, err := intColumn(df, TimestepColumn)
	if err != nil {
		return df, err
	}
	periods, err := intColumn(df, PeriodColumn)
	if err != nil {
		return df, err
	}
	maxT := maxInt(timesteps)
	for i := range timesteps {
		timesteps[i] = (periods[i]-1)*maxT + timesteps[i]
	}
	out := df.Mutate(series.New(timesteps, series.Int, TimestepColumn)).Drop(PeriodColumn)
	return out, out.Err
}

// SplitIntoPeriods cuts the timestep axis into periods of periodDuration
// timesteps. Any existing period column is combined first. The result starts
// with the period and timestep columns, followed by the remaining columns in
// their original order; both period and timestep are 1-based.
//
// A non-positive periodDuration puts every row into period 1 and leaves the
// timesteps untouched.
func SplitIntoPeriods(df dataframe.DataFrame, periodDuration int) (dataframe.DataFrame, error) {
	flat, err := CombinePeriods(df)
	if err != nil {
		return df, err
	}
	n := flat.Nrow()
	periods := repeatInt(1, n)
	if periodDuration > 0 {
		timesteps, err := intColumn(flat, TimestepColumn)
		if err != nil {
			return df, err
		}
		for i, t := range timesteps {
			periods[i] = (t-1)/periodDuration + 1
			timesteps[i] = (t-1)%periodDuration + 1
		}
		flat = flat.Mutate(series.New(timesteps, series.Int, TimestepColumn))
	}
	flat = flat.Mutate(series.New(periods, series.Int, PeriodColumn))

	order := []string{PeriodColumn, TimestepColumn}
	for _, name := range flat.Names() {
		if name != PeriodColumn && name != TimestepColumn {
			order = append(order, name)
		}
	}
	out := flat.Select(order)
	return out, out.Err
}
