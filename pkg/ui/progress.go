package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/schollz/progressbar/v3"

	"wpbackup/pkg/models"
)

// phaseLabels maps backup phases to the description shown next to the bar.
var phaseLabels = map[models.Phase]string{
	models.PhaseAuthors:    "Fetching authors",
	models.PhaseTaxonomies: "Fetching taxonomies",
	models.PhaseMedia:      "Fetching media",
	models.PhasePosts:      "Archiving posts",
}

// PhaseProgress renders one progress bar per backup phase. It implements the
// orchestrator's Progress interface; the orchestrator drives phases one at a
// time, so a single active bar is enough.
type PhaseProgress struct {
	out io.Writer
	bar *progressbar.ProgressBar
}

// NewPhaseProgress creates a progress renderer writing to stderr, keeping
// stdout clean for the final summary.
func NewPhaseProgress() *PhaseProgress {
	return &PhaseProgress{out: os.Stderr}
}

// SetOutput redirects bar rendering, primarily for tests.
func (p *PhaseProgress) SetOutput(w io.Writer) {
	p.out = w
}

// StartPhase opens a bar for the phase. A total of zero means the collection
// probe failed, in which case the bar degrades to a spinner.
func (p *PhaseProgress) StartPhase(phase models.Phase, total int) {
	label, ok := phaseLabels[phase]
	if !ok {
		label = string(phase)
	}

	opts := []progressbar.Option{
		progressbar.OptionSetDescription(label),
		progressbar.OptionSetWriter(p.out),
		progressbar.OptionShowCount(),
	}

	if total <= 0 {
		total = -1
		opts = append(opts,
			progressbar.OptionSpinnerType(14),
			progressbar.OptionSetRenderBlankState(true),
		)
	} else {
		opts = append(opts, progressbar.OptionShowIts())
	}

	p.bar = progressbar.NewOptions(total, opts...)
}

// Record advances the active bar by one archived record.
func (p *PhaseProgress) Record(models.Phase) {
	if p.bar != nil {
		_ = p.bar.Add(1)
	}
}

// EndPhase finishes the active bar and moves rendering to a fresh line.
func (p *PhaseProgress) EndPhase(models.Phase) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
	fmt.Fprintln(p.out)
	p.bar = nil
}
