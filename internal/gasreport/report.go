// Package gasreport prints the gas burnt by contract calls.
package gasreport

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/davecgh/go-spew/spew"
	"github.com/nftgas/gastest/common"
	"github.com/nftgas/gastest/core/types"
	"github.com/nftgas/gastest/params"
	"github.com/olekukonko/tablewriter"
)

const separator = "------------------"

// FormatNear renders a gas count converted to NEAR in plain decimal notation.
func FormatNear(count uint64) string {
	return strconv.FormatFloat(common.ToHighLevelUnit(count), 'f', -1, 64)
}

// Printer writes the human readable report.
type Printer struct {
	w    io.Writer
	dump *spew.ConfigState
}

// NewPrinter creates a printer writing to w.
func NewPrinter(w io.Writer) *Printer {
	return &Printer{
		w: w,
		dump: &spew.ConfigState{
			Indent:                  "    ",
			DisablePointerAddresses: true,
			DisableCapacities:       true,
			SortKeys:                true,
		},
	}
}

// Outcome prints a debug dump of the outcome of method.
func (p *Printer) Outcome(method string, outcome interface{}) {
	fmt.Fprintf(p.w, "%s outcome: ", method)
	p.dump.Fdump(p.w, outcome)
}

// Gas prints the gas burnt and its value in NEAR.
func (p *Printer) Gas(count uint64) {
	fmt.Fprintln(p.w, separator)
	fmt.Fprintf(p.w, "Gas burnt: %s\n", common.CommaGroup(count))
	fmt.Fprintf(p.w, "converted to NEAR: %s\n", FormatNear(count))
}

// Step is the gas accounting of one transaction.
type Step struct {
	Method      string   `json:"method"`
	GasBurnt    uint64   `json:"gas_burnt"`
	Gas         string   `json:"gas_burnt_grouped"`
	NEAR        float64  `json:"converted_to_near"`
	TokensBurnt string   `json:"tokens_burnt"`
	Status      string   `json:"status"`
	Logs        []string `json:"logs,omitempty"`
}

// Summary collects the steps of a run.
type Summary struct {
	Contract string `json:"contract,omitempty"`
	Steps    []Step `json:"steps"`
}

// Add records the outcome of method.
func (s *Summary) Add(method string, outcome *types.FinalExecutionOutcome) error {
	gas, err := outcome.TotalGasBurnt()
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	s.Steps = append(s.Steps, Step{
		Method:      method,
		GasBurnt:    gas,
		Gas:         common.CommaGroup(gas),
		NEAR:        common.ToHighLevelUnit(gas),
		TokensBurnt: outcome.TotalTokensBurnt().String(),
		Status:      outcome.Status.Kind,
		Logs:        outcome.Logs(),
	})
	return nil
}

// Total returns the gas burnt by all steps. It saturates instead of wrapping.
func (s *Summary) Total() uint64 {
	var total uint64
	for _, step := range s.Steps {
		if total+step.GasBurnt < total {
			return ^uint64(0)
		}
		total += step.GasBurnt
	}
	return total
}

// Render writes the steps as a table.
func (s *Summary) Render(w io.Writer) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Step", "Gas burnt", "TGas", "NEAR", "Status"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, step := range s.Steps {
		table.Append([]string{
			step.Method,
			step.Gas,
			strconv.FormatFloat(float64(step.GasBurnt)/params.TGas, 'f', 2, 64),
			FormatNear(step.GasBurnt),
			step.Status,
		})
	}
	total := s.Total()
	table.SetFooter([]string{
		"Total",
		common.CommaGroup(total),
		strconv.FormatFloat(float64(total)/params.TGas, 'f', 2, 64),
		FormatNear(total),
		"",
	})
	table.Render()
}

// WriteJSON writes the summary as an indented JSON document.
func (s *Summary) WriteJSON(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}
