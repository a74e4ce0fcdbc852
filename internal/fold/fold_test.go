package fold

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vis2table/internal/domain"
	"vis2table/internal/encoding"
)

func barResult(pairs ...string) *encoding.Result {
	m := encoding.NewBidirectionalMap()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.AddForward(pairs[i], pairs[i+1])
	}
	return &encoding.Result{Mark: domain.MarkBar, Mappings: m}
}

func salesFrame() *domain.Frame {
	rows := []domain.Row{}
	sales := map[string][]float64{"East": {10, 12, 15}, "West": {7, 9, 11}}
	for _, region := range []string{"East", "West"} {
		for i, year := range []float64{2020, 2021, 2022} {
			rows = append(rows, domain.Row{"region": region, "year": year, "sales": sales[region][i]})
		}
	}
	return domain.NewFrame([]string{"region", "year", "sales"}, rows)
}

func TestFold_GroupedBar(t *testing.T) {
	in := salesFrame()
	res := barResult(encoding.ColumnX, "region", encoding.PositionX, "year", encoding.LengthY, "sales")

	out, axes, err := FoldWithAxes(in, res)
	require.NoError(t, err)
	require.NotNil(t, axes)
	assert.Equal(t, Axes{Major: "region", Minor: "year", Data: "sales"}, *axes)

	assert.Equal(t, []string{"region", "2020", "2021", "2022"}, out.Columns)
	require.Len(t, out.Rows, 2)
	assert.Equal(t, domain.Row{"region": "East", "2020": 10.0, "2021": 12.0, "2022": 15.0}, out.Rows[0])
	assert.Equal(t, domain.Row{"region": "West", "2020": 7.0, "2021": 9.0, "2022": 11.0}, out.Rows[1])
}

func TestFold_EveryPairAppears(t *testing.T) {
	in := salesFrame()
	res := barResult(encoding.ColumnX, "region", encoding.PositionX, "year")

	out, err := Fold(in, res)
	require.NoError(t, err)

	byRegion := map[string]domain.Row{}
	for _, r := range out.Rows {
		byRegion[r["region"].(string)] = r
	}
	for _, r := range in.Rows {
		folded := byRegion[r["region"].(string)]
		require.NotNil(t, folded)
		year := map[float64]string{2020: "2020", 2021: "2021", 2022: "2022"}[r["year"].(float64)]
		assert.Equal(t, r["sales"], folded[year])
	}
}

func TestFold_MinorColumnOrder(t *testing.T) {
	in := domain.NewFrame([]string{"region", "year", "sales"}, []domain.Row{
		{"region": "East", "year": 2022.0, "sales": 15.0},
		{"region": "East", "year": 2021.0, "sales": 12.0},
		{"region": "East", "year": "avg", "sales": 2.0},
		{"region": "West", "year": 2022.0, "sales": 11.0},
		{"region": "East", "year": 2020.0, "sales": 10.0},
		{"region": "West", "year": 2020.0, "sales": 7.0},
	})
	res := barResult(encoding.ColumnX, "region", encoding.PositionX, "year")

	out, axes, err := FoldWithAxes(in, res)
	require.NoError(t, err)
	require.NotNil(t, axes)
	assert.Equal(t, "year", axes.Minor)
	assert.Equal(t, []string{"region", "2020", "2021", "2022", "avg"}, out.Columns)
	assert.Equal(t, domain.Row{"region": "West", "2022": 11.0, "2020": 7.0}, out.Rows[1])
}

func TestFold_PositionXFallback(t *testing.T) {
	in := domain.NewFrame([]string{"site", "variety", "yield"}, []domain.Row{
		{"site": "A", "variety": "v1", "yield": 1.5},
		{"site": "A", "variety": "v2", "yield": 2.5},
		{"site": "B", "variety": "v1", "yield": 3.5},
		{"site": "B", "variety": "v2", "yield": 4.5},
	})
	res := barResult(encoding.PositionX, "site", encoding.LengthY, "yield")

	out, err := Fold(in, res)
	require.NoError(t, err)
	assert.Equal(t, []string{"site", "v1", "v2"}, out.Columns)
	assert.Len(t, out.Rows, 2)
}

func TestFold_LineByColor(t *testing.T) {
	in := domain.NewFrame([]string{"symbol", "date", "price"}, []domain.Row{
		{"symbol": "MSFT", "date": "Jan 2000", "price": 39.81},
		{"symbol": "MSFT", "date": "Feb 2000", "price": 36.35},
		{"symbol": "AAPL", "date": "Jan 2000", "price": 25.94},
		{"symbol": "AAPL", "date": "Feb 2000", "price": 28.66},
	})
	m := encoding.NewBidirectionalMap()
	m.AddForward(encoding.PositionY, "price")
	m.AddForward(encoding.PositionX, "date")
	m.AddForward(encoding.Color, "symbol")

	out, err := Fold(in, &encoding.Result{Mark: domain.MarkLine, Mappings: m})
	require.NoError(t, err)
	assert.Equal(t, []string{"symbol", "Jan 2000", "Feb 2000"}, out.Columns)
	assert.Equal(t, domain.Row{"symbol": "AAPL", "Jan 2000": 25.94, "Feb 2000": 28.66}, out.Rows[1])
}

func TestFold_Unchanged(t *testing.T) {
	two := domain.NewFrame([]string{"a", "b"}, []domain.Row{{"a": "x", "b": 1.0}})
	four := domain.NewFrame([]string{"a", "b", "c", "d"}, []domain.Row{{"a": "x", "b": 1.0, "c": 2.0, "d": 3.0}})
	res := barResult(encoding.PositionX, "a")

	for name, in := range map[string]*domain.Frame{"two columns": two, "four columns": four} {
		t.Run(name, func(t *testing.T) {
			before := in.Clone()
			out, axes, err := FoldWithAxes(in, res)
			require.NoError(t, err)
			assert.Nil(t, axes)
			assert.Same(t, in, out)
			assert.Equal(t, before, out)
		})
	}
}

func TestFold_AmbiguousMinorAxis(t *testing.T) {
	// value repeats as often as the year, so both columns qualify as minor axis
	in := domain.NewFrame([]string{"region", "year", "sales"}, []domain.Row{
		{"region": "East", "year": 2020.0, "sales": 1.0},
		{"region": "East", "year": 2021.0, "sales": 2.0},
		{"region": "West", "year": 2020.0, "sales": 1.0},
		{"region": "West", "year": 2021.0, "sales": 2.0},
	})
	res := barResult(encoding.ColumnX, "region", encoding.PositionX, "year")

	out, axes, err := FoldWithAxes(in, res)
	require.NoError(t, err)
	assert.Nil(t, axes)
	assert.Same(t, in, out)
}

func TestFold_MissingAxisMapping(t *testing.T) {
	in := salesFrame()

	tests := []struct {
		name string
		res  *encoding.Result
	}{
		{name: "bar without position", res: barResult(encoding.LengthY, "sales")},
		{name: "line without color", res: &encoding.Result{Mark: domain.MarkLine, Mappings: encoding.NewBidirectionalMap()}},
		{name: "major not in columns", res: barResult(encoding.ColumnX, "country")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Fold(in, tt.res)
			var missing *domain.MissingAxisMappingError
			require.ErrorAs(t, err, &missing)
			assert.Same(t, in, out)
		})
	}
}

func TestFold_UnsupportedMarkPassesThrough(t *testing.T) {
	in := salesFrame()
	out, err := Fold(in, &encoding.Result{Mark: domain.MarkPoint, Mappings: encoding.NewBidirectionalMap(), Passthrough: true})
	require.NoError(t, err)
	assert.Same(t, in, out)
}

func TestFold_DuplicateMinorOverwrites(t *testing.T) {
	in := domain.NewFrame([]string{"g", "k", "v"}, []domain.Row{
		{"g": "a", "k": "x", "v": 1.0},
		{"g": "a", "k": "x", "v": 2.0},
		{"g": "a", "k": "y", "v": 3.0},
		{"g": "b", "k": "x", "v": 4.0},
	})
	res := barResult(encoding.ColumnX, "g")

	out, err := Fold(in, res)
	require.NoError(t, err)
	assert.Equal(t, domain.Row{"g": "a", "x": 2.0, "y": 3.0}, out.Rows[0])
	assert.Equal(t, domain.Row{"g": "b", "x": 4.0}, out.Rows[1])
}
