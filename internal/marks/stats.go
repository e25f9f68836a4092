package marks

import (
	"github.com/stemsi/marksheet-backend/internal/model"
)

// ChartMode orders the performance chart.
type ChartMode string

const (
	ChartByName       ChartMode = "name"
	ChartByPercentage ChartMode = "percentage"
)

// ParseChartMode returns ChartByPercentage for "percentage" and ChartByName otherwise.
func ParseChartMode(s string) ChartMode {
	if ChartMode(s) == ChartByPercentage {
		return ChartByPercentage
	}
	return ChartByName
}

// SubjectAverage is the class average for one subject.
type SubjectAverage struct {
	Subject string  `json:"subject"`
	Average float64 `json:"average"`
}

// Dataset is one subject's series across the charted students.
type Dataset struct {
	Label string    `json:"label"`
	Data  []float64 `json:"data"`
}

// PerformanceChart is the per-student bar chart: one label per student and one
// dataset per subject.
type PerformanceChart struct {
	Mode     ChartMode `json:"mode"`
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Chart bundles everything the dashboard charts need.
type Chart struct {
	Performance     PerformanceChart `json:"performance"`
	SubjectAverages []SubjectAverage `json:"subject_averages"`
	OverallAverage  float64          `json:"overall_average"`
	Topper          *model.Student   `json:"topper"`
}

// SubjectAverages averages each subject over all records, counting a missing mark
// as 0, rounded to one decimal. With no records every average is 0.
func SubjectAverages(records []model.Student, subjects []string) []SubjectAverage {
	out := make([]SubjectAverage, 0, len(subjects))
	for _, subj := range subjects {
		var sum float64
		for _, r := range records {
			sum += finite(r.Marks[subj])
		}
		var avg float64
		if len(records) > 0 {
			avg = sum / float64(len(records))
		}
		out = append(out, SubjectAverage{Subject: subj, Average: Round(avg, 1)})
	}
	return out
}

// OverallAverage is the mean of the subject averages, rounded to one decimal.
func OverallAverage(averages []SubjectAverage) float64 {
	if len(averages) == 0 {
		return 0
	}
	var sum float64
	for _, a := range averages {
		sum += a.Average
	}
	return Round(sum/float64(len(averages)), 1)
}

// Topper returns a copy of the first record holding the strictly highest
// percentage, or nil for an empty set.
func Topper(records []model.Student) *model.Student {
	if len(records) == 0 {
		return nil
	}
	best := records[0]
	for _, r := range records[1:] {
		if finite(r.Percentage) > finite(best.Percentage) {
			best = r
		}
	}
	top := best.Clone()
	return &top
}

// Performance orders the records for the chart mode and lays out one dataset per subject.
func (c *Composer) Performance(records []model.Student, subjects []string, mode ChartMode) PerformanceChart {
	ordered := c.chartOrder(records, mode)

	chart := PerformanceChart{
		Mode:     mode,
		Labels:   make([]string, 0, len(ordered)),
		Datasets: make([]Dataset, 0, len(subjects)),
	}
	for _, r := range ordered {
		chart.Labels = append(chart.Labels, r.Name)
	}
	for _, subj := range subjects {
		ds := Dataset{Label: subj, Data: make([]float64, 0, len(ordered))}
		for _, r := range ordered {
			ds.Data = append(ds.Data, finite(r.Marks[subj]))
		}
		chart.Datasets = append(chart.Datasets, ds)
	}
	return chart
}

// BuildChart computes the performance chart, subject averages, overall average and
// topper for the given records. The topper is picked in chart order so ties go to
// the student shown first.
func (c *Composer) BuildChart(records []model.Student, subjects []string, mode ChartMode) Chart {
	averages := SubjectAverages(records, subjects)
	return Chart{
		Performance:     c.Performance(records, subjects, mode),
		SubjectAverages: averages,
		OverallAverage:  OverallAverage(averages),
		Topper:          Topper(c.chartOrder(records, mode)),
	}
}

func (c *Composer) chartOrder(records []model.Student, mode ChartMode) []model.Student {
	if mode == ChartByPercentage {
		return c.DeriveView(records, ViewQuery{SortKey: SortByPercentage, SortDir: Desc})
	}
	return c.DeriveView(records, ViewQuery{SortKey: SortByName, SortDir: Asc})
}
