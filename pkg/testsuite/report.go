package testsuite

import (
	"fmt"
	"io"

	"github.com/docker/go-units"
	"github.com/jedib0t/go-pretty/v6/table"

	"tctasks/pkg/color"
)

// Report collects the cases of one run in execution order.
type Report struct {
	Cases []Case
}

func (r Report) Passed() (n int) {
	for _, c := range r.Cases {
		if c.Passed() {
			n++
		}
	}
	return n
}

func (r Report) Failed() int {
	return len(r.Cases) - r.Passed()
}

// Err returns ErrCasesFailed, naming the count, when any case failed.
func (r Report) Err() error {
	if failed := r.Failed(); failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrCasesFailed, failed, len(r.Cases))
	}
	return nil
}

func stageCell(s Stage) string {
	if !s.Ran {
		return color.Skipped()
	}
	if s.Result.OK {
		return color.Status(true)
	}
	return fmt.Sprintf("%s (%d)", color.Status(false), s.Result.ExitCode)
}

// Write renders the report as a table.
func (r Report) Write(w io.Writer) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Case", "Frontend", "Backend", "Assembly"})

	for _, c := range r.Cases {
		size := "-"
		if c.Passed() {
			size = units.HumanSize(float64(c.AsmBytes))
		}
		t.AppendRow(table.Row{c.Name, stageCell(c.Frontend), stageCell(c.Backend), size})
	}

	t.AppendFooter(table.Row{"", "", "Passed", fmt.Sprintf("%d/%d", r.Passed(), len(r.Cases))})
	t.Render()
}
