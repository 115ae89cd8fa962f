package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/dmitrijs2005/tamperscan/internal/client/models"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

const (
	msgUploadFailed  = "An error occurred while processing your file"
	msgHistoryFailed = "Failed to load history. Please try again."
	msgNoHistory     = "No history yet"
	msgNoHistoryHint = "Perform some detections to see them appear here"
	msgSaveResults   = "Create Account to Save Results"
)

// renderResult prints a detection result the way the result page shows it.
// authenticated hides the hint to create an account.
func renderResult(w io.Writer, res models.DetectionResult, authenticated bool) {
	fmt.Fprintln(w, "Detection Results")
	if res.FileName != "" {
		fmt.Fprintf(w, "Results for: %s\n", res.FileName)
	}
	fmt.Fprintln(w)

	if res.IsOriginal() {
		fmt.Fprintln(w, text.FgGreen.Sprint("✅ Original Document"))
	} else {
		fmt.Fprintln(w, text.FgRed.Sprint("❌ Tampered Document"))
	}
	fmt.Fprintf(w, "Confidence Level: %s%%\n", formatConfidence(res.Confidence))
	fmt.Fprintln(w)

	if res.IsOriginal() {
		fmt.Fprintln(w, "No signs of tampering detected")
		fmt.Fprintln(w, "The document appears to be authentic with no signs of manipulation.")
	} else {
		fmt.Fprintln(w, "Potential tampering detected")
		fmt.Fprintln(w, "The document shows signs of potential tampering. Please verify with additional checks.")
	}

	if len(res.Details) > 0 {
		if b, err := json.MarshalIndent(res.Details, "", "  "); err == nil {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Detection Breakdown")
			fmt.Fprintln(w, string(b))
		}
	}

	if !authenticated {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "%s: type 'register'\n", msgSaveResults)
	}
}

// renderHistory prints the records as a table, newest first as received.
func renderHistory(w io.Writer, records []models.DetectionRecord) {
	if len(records) == 0 {
		fmt.Fprintln(w, text.FgYellow.Sprint(msgNoHistory))
		fmt.Fprintln(w, msgNoHistoryHint)
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"#", "Result", "Confidence", "Date", "File"})
	for i, r := range records {
		verdict := text.FgRed.Sprint(r.Result)
		if r.IsOriginal() {
			verdict = text.FgGreen.Sprint(r.Result)
		}
		t.AppendRow(table.Row{
			i + 1,
			verdict,
			formatConfidence(r.Confidence) + "% confidence",
			r.Timestamp.Local().Format("2006-01-02 15:04:05"),
			r.FileName(),
		})
	}
	t.Render()
}

// formatConfidence prints 87.5 as "87.5" and 90 as "90".
func formatConfidence(c float64) string {
	return strconv.FormatFloat(c, 'f', -1, 64)
}
