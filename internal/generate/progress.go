package generate

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/schollz/progressbar/v3"
	"golang.org/x/term"
	"golang.org/x/time/rate"
)

// progress reports generated files either as a progress bar, or as rate-limited log lines if the writer is not a
// terminal.
type progress struct {
	bar       *progressbar.ProgressBar
	logger    *log.Logger
	sometimes *rate.Sometimes
	n         int
	done      atomic.Int64
}

func newProgress(w io.Writer, n int) *progress {
	p := &progress{n: n}

	if f, ok := w.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		p.bar = progressbar.NewOptions(n,
			progressbar.OptionSetDescription("generating"),
			progressbar.OptionSetWriter(w),
			progressbar.OptionSetWidth(10),
			progressbar.OptionThrottle(1*time.Second),
			progressbar.OptionShowCount(),
			progressbar.OptionSetItsString("files"),
			progressbar.OptionShowIts(),
			progressbar.OptionOnCompletion(func() {
				_, _ = fmt.Fprint(w, "\n")
			}),
			progressbar.OptionSpinnerType(14),
			progressbar.OptionFullWidth(),
			progressbar.OptionSetRenderBlankState(true))
		return p
	}

	p.logger = log.New(w, "", 0)
	p.sometimes = &rate.Sometimes{First: 1, Interval: 5 * time.Second}
	return p
}

func (p *progress) increment(name string) {
	done := p.done.Add(1)

	if p.bar != nil {
		_ = p.bar.Add(1)
		return
	}

	p.sometimes.Do(func() {
		p.logger.Printf("[%d/%d] generated %s", done, p.n, filepath.Base(name))
	})
}

func (p *progress) finish() {
	if p.bar != nil {
		_ = p.bar.Finish()
		return
	}

	p.logger.Printf("generated %d/%d files", p.done.Load(), p.n)
}
