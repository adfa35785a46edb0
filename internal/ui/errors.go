package ui

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"autograde/internal/domain"
	"autograde/internal/storage"
)

// ErrorViewer browses the failed testcases of a stored run in a TUI. Marking
// a failure resolved is saved back to storage.
type ErrorViewer struct {
	storage storage.Storage
}

// NewErrorViewer creates a new ErrorViewer
func NewErrorViewer(st storage.Storage) *ErrorViewer {
	return &ErrorViewer{storage: st}
}

// failedIndexes returns the positions of failed testcases in results.Details.
func failedIndexes(results *domain.SuiteResults) []int {
	var idx []int
	for i, d := range results.Details {
		if !d.Passed {
			idx = append(idx, i)
		}
	}
	return idx
}

// View displays failed testcases in an interactive TUI
func (ev *ErrorViewer) View(results *domain.SuiteResults) error {
	failed := failedIndexes(results)
	if len(failed) == 0 {
		color.Green("✓ No failed testcases found!")
		return nil
	}
	detail := func(n int) *domain.TestcaseResult { return &results.Details[failed[n]] }

	app := tview.NewApplication()

	list := tview.NewList().
		ShowSecondaryText(false).
		SetHighlightFullLine(true)

	listItemText := func(n int) string {
		d := detail(n)
		name := tview.Escape(fmt.Sprintf("%d: %s", d.ID, d.Name))
		if d.Resolved {
			return fmt.Sprintf("[gray]✓ [yellow]%d.[gray] %s[white]", n+1, name)
		}
		return fmt.Sprintf("[yellow]%d.[white] %s", n+1, name)
	}

	for n := range failed {
		list.AddItem(listItemText(n), "", 0, nil)
	}

	list.SetMainTextColor(tview.Styles.PrimaryTextColor).
		SetSelectedTextColor(tcell.ColorWhite).
		SetSelectedBackgroundColor(tcell.ColorDarkCyan).
		SetSecondaryTextColor(tview.Styles.SecondaryTextColor)

	statsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(false).
		SetWordWrap(false)

	detailsView := tview.NewTextView().
		SetDynamicColors(true).
		SetWrap(true).
		SetWordWrap(true)

	detailsContainer := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(detailsView, 0, 1, false).
		AddItem(tview.NewBox(), 2, 0, false)

	rightSide := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(statsView, 3, 0, false).
		AddItem(detailsContainer, 0, 1, false)

	flex := tview.NewFlex().
		SetDirection(tview.FlexColumn).
		AddItem(list, 0, 1, true).
		AddItem(rightSide, 0, 2, false)

	headerView := tview.NewTextView().
		SetTextAlign(tview.AlignCenter).
		SetDynamicColors(true)

	updateHeader := func() {
		unresolved := 0
		for n := range failed {
			if !detail(n).Resolved {
				unresolved++
			}
		}
		headerView.SetText(fmt.Sprintf(" Failed Testcases (%d total, %d unresolved) | Use ↑↓ to navigate, [yellow]R[white] to mark resolved, → to view details, ← to go back, Ctrl+C to exit ", len(failed), unresolved))
	}
	updateHeader()

	updateDetails := func() {
		n := list.GetCurrentItem()
		if n >= 0 && n < len(failed) {
			statsView.SetText(formatFailureStats(*detail(n)))
			detailsView.SetText(formatFailureDetails(*detail(n)))
			detailsView.ScrollToBeginning()
		}
	}

	// The last save error is reported after the TUI closes
	var saveErr error

	list.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyEnter, tcell.KeyRight:
			app.SetFocus(detailsView)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		case tcell.KeyRune:
			if event.Rune() == 'r' || event.Rune() == 'R' {
				n := list.GetCurrentItem()
				if n >= 0 && n < len(failed) {
					d := detail(n)
					d.Resolved = !d.Resolved
					list.SetItemText(n, listItemText(n), "")
					updateHeader()
					updateDetails()
					saveErr = ev.storage.Save(results)
				}
				return nil
			}
		}
		return event
	})

	detailsView.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		switch event.Key() {
		case tcell.KeyLeft, tcell.KeyEsc:
			app.SetFocus(list)
			return nil
		case tcell.KeyCtrlC:
			app.Stop()
			return nil
		}
		return event
	})

	list.SetChangedFunc(func(int, string, string, rune) {
		updateDetails()
	})
	updateDetails()

	mainLayout := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(headerView, 1, 0, false).
		AddItem(tview.NewBox(), 1, 0, false).
		AddItem(flex, 0, 1, true)

	if err := app.SetRoot(mainLayout, true).SetFocus(list).Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	if saveErr != nil {
		return fmt.Errorf("failed to save resolved status: %w", saveErr)
	}
	return nil
}

// formatFailureDetails formats a failed testcase using tview colour tags.
func formatFailureDetails(d domain.TestcaseResult) string {
	var b strings.Builder
	esc := tview.Escape

	fmt.Fprintf(&b, "[red]✗ Test %d: %s[white]\n\n", d.ID, esc(d.Name))
	fmt.Fprintf(&b, "[yellow]Result:[white] %s\n", esc(d.Message))
	fmt.Fprintf(&b, "[cyan]Points:[white] %s / %s\n\n", formatPoints(d.Earned), formatPoints(d.Points))

	if d.Error != "" {
		fmt.Fprintf(&b, "[yellow]Error:[white]\n%s\n\n", esc(d.Error))
	}

	failedLines := make(map[int]bool)
	ran := d.Reason == domain.ReasonTimeout.String() ||
		d.Reason == domain.ReasonOutputMismatch.String() ||
		d.Reason == domain.ReasonCheckFailed.String()
	for _, c := range d.Checks {
		if c.Passed || (!c.Resolved && !ran) {
			continue
		}
		failedLines[c.Line] = true
		status := "FAILED"
		if !c.Resolved {
			status = "NOT REACHED"
		}
		fmt.Fprintf(&b, "[red]Check %s[white] (%s, line %d)\n", status, esc(c.Label), c.Line+1)
		fmt.Fprintf(&b, "  Test: %s\n", esc(c.Test))
		if c.Comparator != "" && c.Resolved {
			tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
			fmt.Fprintf(tw, "  Left side:\t%s\tresolves to:\t%s\n", esc(c.Left), esc(c.LeftValue))
			fmt.Fprintf(tw, "  Right side:\t%s\tresolves to:\t%s\n", esc(c.Right), esc(c.RightValue))
			tw.Flush()
		}
		fmt.Fprintln(&b)
	}

	if d.CompileNotes != "" {
		fmt.Fprintf(&b, "[yellow]Compiler output:[white]\n%s\n\n", esc(d.CompileNotes))
	}

	if len(d.Code) > 0 {
		fmt.Fprintf(&b, "[yellow]Source:[white]\n")
		for i, line := range d.Code {
			if failedLines[i] {
				fmt.Fprintf(&b, "[red]> %3d  %s[white]\n", i+1, esc(line))
			} else {
				fmt.Fprintf(&b, "  %3d  %s\n", i+1, esc(line))
			}
		}
	}
	return b.String()
}

// formatFailureStats formats the header line for a failed testcase.
func formatFailureStats(d domain.TestcaseResult) string {
	suite := d.Suite
	if suite == "" {
		suite = "Unknown suite"
	}
	return fmt.Sprintf("[cyan]suite:[white] [yellow]%s[white]::[yellow]%s[white] [gray](%s)[white]\n",
		tview.Escape(suite), tview.Escape(d.Name), d.Reason)
}
