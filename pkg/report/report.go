// Package report formats the outcome of an inventory cycle for operators,
// mirroring gswap-arb/pkg/reporter's text/JSON output split.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/nullbridge/relay-inventory/pkg/inventory"
)

// OutputFormat selects how a cycle report is rendered.
type OutputFormat string

const (
	FormatText OutputFormat = "text"
	FormatJSON OutputFormat = "json"
)

// CycleReport bundles the outcome of one inventory-management cycle: the
// rebalance plan (C4/C5) and the native-gas unwrap plan (C6).
type CycleReport struct {
	Timestamp time.Time
	Rebalance *inventory.RebalanceResult
	Unwrap    *inventory.UnwrapResult
}

// Reporter writes CycleReports to an io.Writer in the configured format.
type Reporter struct {
	output io.Writer
	format OutputFormat
}

// NewReporter creates a Reporter. A nil output defaults to os.Stdout.
func NewReporter(output io.Writer, format OutputFormat) *Reporter {
	if output == nil {
		output = os.Stdout
	}
	return &Reporter{output: output, format: format}
}

// Report writes one CycleReport.
func (r *Reporter) Report(cr CycleReport) {
	switch r.format {
	case FormatJSON:
		r.reportJSON(cr)
	default:
		r.reportText(cr)
	}
}

func (r *Reporter) reportText(cr CycleReport) {
	fmt.Fprintln(r.output)
	fmt.Fprintln(r.output, strings.Repeat("=", 72))
	fmt.Fprintf(r.output, "INVENTORY CYCLE  %s\n", cr.Timestamp.Format(time.RFC3339))
	fmt.Fprintln(r.output, strings.Repeat("=", 72))

	if cr.Rebalance != nil {
		fmt.Fprintf(r.output, "\nRebalances accepted: %d\n", len(cr.Rebalance.Accepted))
		for _, o := range cr.Rebalance.Accepted {
			fmt.Fprintf(r.output, "  chain %-6d  amount %-20s  executed=%-5v  tx=%s\n",
				o.Candidate.ChainID, humanize.BigComma(o.Candidate.Amount), o.Executed, shortHash(o.TxHash))
		}
		if len(cr.Rebalance.Unexecuted) > 0 {
			fmt.Fprintf(r.output, "Rebalances skipped: %d\n", len(cr.Rebalance.Unexecuted))
			for _, o := range cr.Rebalance.Unexecuted {
				fmt.Fprintf(r.output, "  chain %-6d  amount %-20s  reason=%s\n",
					o.Candidate.ChainID, humanize.BigComma(o.Candidate.Amount), o.SkipReason)
			}
		}
	}

	if cr.Unwrap != nil {
		fmt.Fprintf(r.output, "\nUnwraps accepted: %d\n", len(cr.Unwrap.Accepted))
		for _, o := range cr.Unwrap.Accepted {
			fmt.Fprintf(r.output, "  chain %-6d  amount %-20s  executed=%-5v  tx=%s\n",
				o.Candidate.ChainID, humanize.BigComma(o.Candidate.Amount), o.Executed, shortHash(o.TxHash))
		}
		if len(cr.Unwrap.Unexecuted) > 0 {
			fmt.Fprintf(r.output, "Unwraps skipped: %d\n", len(cr.Unwrap.Unexecuted))
			for _, o := range cr.Unwrap.Unexecuted {
				fmt.Fprintf(r.output, "  chain %-6d  amount %-20s  reason=%s\n",
					o.Candidate.ChainID, humanize.BigComma(o.Candidate.Amount), o.SkipReason)
			}
		}
	}

	fmt.Fprintln(r.output, strings.Repeat("-", 72))
}

func (r *Reporter) reportJSON(cr CycleReport) {
	encoder := json.NewEncoder(r.output)
	encoder.SetIndent("", "  ")
	encoder.Encode(cr)
}

func shortHash(h string) string {
	if len(h) <= 14 {
		return h
	}
	return h[:8] + "…" + h[len(h)-6:]
}
