package report

import (
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/recfind/internal/core"
)

// TimestampLayout is the human readable time shown in reports.
const TimestampLayout = "02.01.2006 15:04:05"

// pageView is the flattened, string-only form of an Outcome used by the template.
type pageView struct {
	Query     string
	Type      string
	Total     string
	Generated string
	Datasets  []datasetView
	Failures  []failureView
}

type datasetView struct {
	DomID   string
	Name    string
	Count   string
	Columns []string
	Rows    [][]string
}

type failureView struct {
	Name   string
	Reason string
}

// HTML returns the standalone report document for outcome.
func HTML(outcome *core.Outcome, generatedAt time.Time) templ.Component {
	return page(newPageView(outcome, generatedAt))
}

func newPageView(outcome *core.Outcome, generatedAt time.Time) pageView {
	v := pageView{
		Query:     outcome.Query,
		Type:      outcome.Type.String(),
		Total:     strconv.Itoa(outcome.Total()),
		Generated: generatedAt.Format(TimestampLayout),
	}

	for i, d := range outcome.Datasets {
		columns := tableColumns(d)
		rows := make([][]string, 0, len(d.Rows))
		for _, r := range d.Rows {
			cells := make([]string, len(columns))
			for j, c := range columns {
				cells[j] = r.Get(c)
			}
			rows = append(rows, cells)
		}

		v.Datasets = append(v.Datasets, datasetView{
			DomID:   fmt.Sprintf("dataset_%d", i),
			Name:    d.Name,
			Count:   strconv.Itoa(len(d.Rows)),
			Columns: columns,
			Rows:    rows,
		})
	}

	for _, f := range outcome.Failures {
		v.Failures = append(v.Failures, failureView{Name: f.Name, Reason: f.Reason})
	}

	return v
}

// tableColumns returns the display fields of d, or the sorted union of the
// fields present in its rows when none are configured.
func tableColumns(d core.DatasetMatches) []string {
	if len(d.DisplayFields) > 0 {
		return d.DisplayFields
	}

	seen := make(map[string]struct{})
	var columns []string
	for _, r := range d.Rows {
		for _, f := range r.Fields() {
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			columns = append(columns, f)
		}
	}
	sort.Strings(columns)
	return columns
}
