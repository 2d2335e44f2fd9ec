package core

// Series is an aggregated, label-ordered set of amounts for one month.
// Labels and Data share indices.
type Series struct {
	Month  MonthKey
	Labels []string
	Data   []Money
}

// Total sums the series.
func (s Series) Total() Money {
	var total Money
	for _, v := range s.Data {
		total = total.Add(v)
	}
	return total
}

// Units returns Data in currency units.
func (s Series) Units() []float64 {
	out := make([]float64, len(s.Data))
	for i, v := range s.Data {
		out[i] = v.Units()
	}
	return out
}

// Dataset is one chart dataset as consumed by the charting layer.
type Dataset struct {
	Label           string    `json:"label"`
	Data            []float64 `json:"data"`
	BackgroundColor []string  `json:"backgroundColor"`
	BorderColor     []string  `json:"borderColor"`
	BorderWidth     int       `json:"borderWidth"`
}

// ChartData is the chart-ready structure returned to the rendering layer.
type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}
