package ui

import (
	"fmt"
	"time"

	"wpbackup/pkg/models"
)

// PrintRunSummary prints the final report for a backup run: counts per
// record kind, then every accumulated failure and unresolved reference.
// Nothing recorded during the run is dropped from this report.
func PrintRunSummary(run *models.BackupRun) {
	elapsed := run.FinishedAt.Sub(run.StartedAt)

	if run.State == models.RunStateCompleted {
		fmt.Printf("\n%s Backed up %s in %s\n",
			Green("✓"),
			run.SiteURL,
			formatDuration(elapsed),
		)
	} else {
		fmt.Printf("\n%s Backup of %s failed after %s\n",
			Red("✗"),
			run.SiteURL,
			formatDuration(elapsed),
		)
	}

	fmt.Printf("  %s %d posts, %d authors, %d categories, %d tags, %d media\n",
		Dim("•"),
		run.Counts.Posts,
		run.Counts.Authors,
		run.Counts.Categories,
		run.Counts.Tags,
		run.Counts.Media,
	)

	if len(run.UnresolvedRefs) > 0 {
		fmt.Printf("  %s %d unresolved references kept as placeholders\n",
			Dim("•"),
			len(run.UnresolvedRefs),
		)
		for _, ref := range run.UnresolvedRefs {
			fmt.Printf("      %s\n", Dim(fmt.Sprintf("%s %d", ref.Kind, ref.ID)))
		}
	}

	if len(run.Failures) > 0 {
		fmt.Printf("  %s %d failures\n", Yellow("•"), len(run.Failures))
		for _, f := range run.Failures {
			fmt.Printf("      %s %s\n", Yellow(describeFailure(f)), Dim(f.Message))
		}
	}
}

// describeFailure renders the identifying half of a failure line.
func describeFailure(f models.Failure) string {
	switch f.Type {
	case models.FailureFetchExhausted:
		return fmt.Sprintf("[fetch] %s page %d:", f.Kind, f.Page)
	case models.FailureMediaDownload:
		return fmt.Sprintf("[download] media %d:", f.ID)
	case models.FailureWrite:
		return fmt.Sprintf("[write] %s %d:", f.Kind, f.ID)
	default:
		return fmt.Sprintf("[%s]", f.Type)
	}
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	} else if d < time.Hour {
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	} else {
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	}
}
