package indexer

import (
	"os"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
)

// ProgressReporter receives progress updates during an index run.
type ProgressReporter interface {
	Start(total int)
	Add(n int)
	Finish()
}

// IndexProgress renders a progress bar over embedded units.
type IndexProgress struct {
	enabled bool
	bar     *progressbar.ProgressBar
}

// NewIndexProgress creates a progress reporter; nil when disabled.
func NewIndexProgress(enabled bool) ProgressReporter {
	if !enabled {
		return nil
	}
	return &IndexProgress{enabled: true}
}

func (p *IndexProgress) Start(total int) {
	if !p.enabled || total <= 0 {
		return
	}
	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription("embedding"),
		progressbar.OptionSetWidth(32),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

func (p *IndexProgress) Add(n int) {
	if p.bar == nil {
		return
	}
	_ = p.bar.Add(n)
}

func (p *IndexProgress) Finish() {
	if p.bar == nil {
		return
	}
	_ = p.bar.Finish()
}

// DefaultProgressEnabled reports whether stderr is a terminal.
func DefaultProgressEnabled() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}
