package repperiods

import (
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"
)

// TableToMatrix pivots a long table into a matrix with one row per distinct
// combination of keyColumns, in order of first appearance, and one column per
// period, ascending. Key combinations that lack a value in any period are
// dropped. The returned keys table holds the key columns of the surviving rows
// in matrix row order.
func TableToMatrix(df dataframe.DataFrame, keyColumns []string) (*mat.Dense, dataframe.DataFrame, error) {
	for _, name := range append([]string{PeriodColumn, ValueColumn}, keyColumns...) {
		if !hasColumn(df, name) {
			return nil, dataframe.DataFrame{}, schemaErrorf("column %q is required", name)
		}
	}
	periods, err := intColumn(df, PeriodColumn)
	if err != nil {
		return nil, dataframe.DataFrame{}, err
	}
	values := df.Col(ValueColumn).Float()
	records := make([][]string, len(keyColumns))
	for i, name := range keyColumns {
		records[i] = keyRecords(df.Col(name))
	}

	colOf := make(map[int]int)
	for _, p := range periods {
		colOf[p] = 0
	}
	for c, p := range slices.Sorted(maps.Keys(colOf)) {
		colOf[p] = c
	}

	var (
		rowOf    = make(map[string]int)
		firstRow []int
		cells    [][]float64
		key      strings.Builder
	)
	for r := range df.Nrow() {
		key.Reset()
		for _, rec := range records {
			key.WriteString(rec[r])
			key.WriteByte(0)
		}
		row, ok := rowOf[key.String()]
		if !ok {
			row = len(cells)
			rowOf[key.String()] = row
			firstRow = append(firstRow, r)
			cells = append(cells, nanRow(len(colOf)))
		}
		cells[row][colOf[periods[r]]] = values[r]
	}

	var keep []int
	for row := range cells {
		if !slices.ContainsFunc(cells[row], math.IsNaN) {
			keep = append(keep, row)
		}
	}
	if len(keep) == 0 {
		return nil, dataframe.DataFrame{}, invalidArgumentf("no key combination has a value in every period")
	}

	m := mat.NewDense(len(keep), len(colOf), nil)
	keyRows := make([]int, len(keep))
	for i, row := range keep {
		m.SetRow(i, cells[row])
		keyRows[i] = firstRow[row]
	}
	keys := df.Subset(keyRows).Select(keyColumns)
	return m, keys, keys.Err
}

// keyRecords renders s for row identity. Records formats floats with six
// decimals, so float keys are rendered at full precision instead.
func keyRecords(s series.Series) []string {
	if s.Type() != series.Float {
		return s.Records()
	}
	records := make([]string, s.Len())
	for i, v := range s.Float() {
		records[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return records
}

func nanRow(n int) []float64 {
	row := make([]float64, n)
	for i := range row {
		row[i] = math.NaN()
	}
	return row
}

// MatrixToTable unpivots m back into a long table. Column c of m becomes
// representative period c+1 and row r takes its keys from row r of keys. The
// output columns are rep_period, timestep, the other key columns and value,
// ordered by representative period and then key row. Missing (NaN) cells are
// skipped.
func MatrixToTable(m mat.Matrix, keys dataframe.DataFrame) (dataframe.DataFrame, error) {
	rows, cols := m.Dims()
	if keys.Nrow() != rows {
		return dataframe.DataFrame{}, invalidArgumentf("matrix has %d rows, keys have %d", rows, keys.Nrow())
	}
	if !hasColumn(keys, TimestepColumn) {
		return dataframe.DataFrame{}, schemaErrorf("column %q is required", TimestepColumn)
	}

	var (
		keyRows = make([]int, 0, rows*cols)
		reps    = make([]int, 0, rows*cols)
		values  = make([]float64, 0, rows*cols)
	)
	for c := range cols {
		for r := range rows {
			v := m.At(r, c)
			if math.IsNaN(v) {
				continue
			}
			keyRows = append(keyRows, r)
			reps = append(reps, c+1)
			values = append(values, v)
		}
	}

	out := []series.Series{
		series.New(reps, series.Int, RepPeriodColumn),
		keys.Col(TimestepColumn).Subset(keyRows),
	}
	for _, name := range keys.Names() {
		if name != TimestepColumn {
			out = append(out, keys.Col(name).Subset(keyRows))
		}
	}
	out = append(out, series.New(values, series.Float, ValueColumn))
	df := dataframe.New(out...)
	return df, df.Err
}
