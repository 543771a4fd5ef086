package ui

import (
	"fmt"

	"github.com/pterm/pterm"

	"github.com/punktf/punktf/pkg/deploy"
)

// RenderReport prints a deploy.Report as a result table followed by a
// one-line totals summary.
func RenderReport(report *deploy.Report) {
	header := fmt.Sprintf("Deployment %s", report.Profile)
	if report.DryRun {
		header += " (dry run)"
	}
	pterm.DefaultHeader.WithFullWidth().Println(header)

	data := pterm.TableData{{"Action", "Target", "Result"}}
	for _, res := range report.Results {
		data = append(data, []string{
			res.Action.Kind.String(),
			res.Action.TargetPath,
			resultCell(res),
		})
	}

	if err := pterm.DefaultTable.WithHasHeader().WithData(data).Render(); err != nil {
		pterm.Error.Printfln("failed to render report table: %v", err)
	}

	renderTotals(report)
}

func resultCell(res deploy.ActionResult) string {
	switch {
	case res.Err != nil:
		return pterm.Red(res.Err.Error())
	case res.Skipped:
		return pterm.Gray("skipped")
	default:
		return pterm.Green("ok")
	}
}

func renderTotals(report *deploy.Report) {
	var written, skipped, failed int
	for _, res := range report.Results {
		switch {
		case res.Err != nil:
			failed++
		case res.Skipped:
			skipped++
		default:
			written++
		}
	}

	if failed > 0 {
		pterm.Error.Printfln("%d written, %d skipped, %d failed (%s)", written, skipped, failed, report.Duration)
		return
	}

	pterm.Success.Printfln("%d written, %d skipped (%s)", written, skipped, report.Duration)
}
