package sink

import (
	"fmt"
	"io"
	"time"

	"github.com/olekukonko/tablewriter"

	"ScalpinMonitor/internal/model"
)

// Header summarizes the run for the console and snapshot log.
type Header struct {
	Iteration int
	Elapsed   time.Duration
	PerfLine  string
}

// Render prints the header and the row table to the console.
func (s *Sinks) Render(header Header, rows []model.Row) {
	if s.clearScreen {
		fmt.Fprint(s.out, "\033[2J\033[H")
	}
	writeHeader(s.out, header)
	renderTable(s.out, rows)
}

func writeHeader(w io.Writer, h Header) {
	fmt.Fprintf(w, "ScalpinMonitor | iter %d | elapsed %s", h.Iteration, h.Elapsed.Round(time.Second))
	if h.PerfLine != "" {
		fmt.Fprintf(w, " | %s", h.PerfLine)
	}
	fmt.Fprintln(w)
}

func renderTable(w io.Writer, rows []model.Row) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Exchange", "Asset", "Valor", "Anchor", "Profit %", "Acum %", "Mirror", "Acción"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT,
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})
	for _, r := range rows {
		table.Append([]string{
			r.Exchange,
			r.Asset,
			fmt.Sprintf("%.2f", r.ValorAnchor),
			r.Anchor,
			fmt.Sprintf("%+.4f", r.ProfitPct),
			fmt.Sprintf("%+.2f", r.AcumPct),
			r.Mirror,
			r.Accion,
		})
	}
	table.Render()
	if len(rows) == 0 {
		fmt.Fprintln(w, "(no balances above the value floor)")
	}
}
