package repperiods

import (
	"github.com/go-gota/gota/dataframe"
)

// AuxiliaryClusteringData describes the period structure of a split table.
type AuxiliaryClusteringData struct {
	// KeyColumns are all columns except period and value, in table order.
	KeyColumns []string
	// PeriodDuration is the largest timestep over all periods; every period
	// but the last has exactly this duration.
	PeriodDuration int
	// LastPeriodDuration is the largest timestep of the last period.
	LastPeriodDuration int
	NPeriods           int
}

// HasIncompletePeriod reports whether the last period is shorter than the rest.
func (a AuxiliaryClusteringData) HasIncompletePeriod() bool {
	return a.LastPeriodDuration != a.PeriodDuration
}

// FindAuxiliaryData validates a table produced by SplitIntoPeriods and
// derives its period structure.
func FindAuxiliaryData(df dataframe.DataFrame) (AuxiliaryClusteringData, error) {
	keys, err := validateAndFindKeys(df)
	if err != nil {
		return AuxiliaryClusteringData{}, err
	}
	if df.Nrow() == 0 {
		return AuxiliaryClusteringData{}, invalidArgumentf("table has no rows")
	}
	periods, err := intColumn(df, PeriodColumn)
	if err != nil {
		return AuxiliaryClusteringData{}, err
	}
	timesteps, err := intColumn(df, TimestepColumn)
	if err != nil {
		return AuxiliaryClusteringData{}, err
	}

	aux := AuxiliaryClusteringData{
		KeyColumns:     keys,
		NPeriods:       maxInt(periods),
		PeriodDuration: maxInt(timesteps),
	}
	for i, p := range periods {
		if p == aux.NPeriods {
			aux.LastPeriodDuration = max(aux.LastPeriodDuration, timesteps[i])
		}
	}
	return aux, nil
}

func validateAndFindKeys(df dataframe.DataFrame) ([]string, error) {
	if !hasColumn(df, TimestepColumn) || !hasColumn(df, ValueColumn) {
		return nil, schemaErrorf("columns %q and %q are required", TimestepColumn, ValueColumn)
	}
	if !hasColumn(df, PeriodColumn) {
		return nil, schemaErrorf("column %q is required, split the table into periods first", PeriodColumn)
	}
	var keys []string
	for _, name := range df.Names() {
		if name != PeriodColumn && name != ValueColumn {
			keys = append(keys, name)
		}
	}
	return keys, nil
}
