package cli

import (
	"fmt"
	"strconv"
	"time"

	"github.com/fatih/color"

	"github.com/itsm-lab/halosync/pkg/domain/model"
)

var (
	headingColor = color.New(color.Bold)
	okColor      = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	failColor    = color.New(color.FgRed)
)

// renderSummary prints the run outcome to the console
func renderSummary(s *model.Summary, parseOnly bool) {
	headingColor.Println("=== Import Summary ===")
	fmt.Printf("Actions processed: %s\n", formatNumber(s.Processed))
	fmt.Printf("Actions skipped (already exist): %s\n", formatNumber(s.Skipped))

	importedLabel := "Actions imported"
	if parseOnly {
		importedLabel = "Actions that would be imported"
	}
	okColor.Printf("%s: %s\n", importedLabel, formatNumber(s.Imported))

	if len(s.Failed) > 0 {
		failColor.Printf("Actions failed: %s\n", formatNumber(len(s.Failed)))
		for _, f := range s.Failed {
			failColor.Printf("  %s: %s\n", f.ActionID, f.Message)
		}
	} else {
		fmt.Println("Actions failed: 0")
	}

	if len(s.UnreadableFiles) > 0 {
		warnColor.Printf("Files that could not be read: %s\n", formatNumber(len(s.UnreadableFiles)))
		for _, name := range s.UnreadableFiles {
			warnColor.Printf("  %s\n", name)
		}
	}

	if s.Processed > 0 {
		headingColor.Println("=== Performance ===")
		fmt.Printf("Total runtime: %s\n", s.Runtime.Round(10*time.Millisecond))
		fmt.Printf("Time per record: %s\n", (s.Runtime / time.Duration(s.Processed)).Round(time.Millisecond))
		if len(s.FileDurations) > 0 {
			var total time.Duration
			for _, d := range s.FileDurations {
				total += d
			}
			avg := total / time.Duration(len(s.FileDurations))
			fmt.Printf("Average time per file: %s\n", avg.Round(10*time.Millisecond))
		}
	}
}

// formatNumber renders n with thousands separators
func formatNumber(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var out []byte
	for i, ch := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ',')
		}
		out = append(out, ch)
	}
	return string(out)
}
