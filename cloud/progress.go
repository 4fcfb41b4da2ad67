package cloud

import (
	"fmt"
	"io"
	"time"

	"golang.org/x/time/rate"
)

const progressInterval = 100 * time.Millisecond

// progress redraws a single status line in place. It stays silent when the
// total size is unknown.
type progress struct {
	out       io.Writer
	total     int64
	sometimes rate.Sometimes
}

func newProgress(out io.Writer, total int64) *progress {
	return &progress{
		out:       out,
		total:     total,
		sometimes: rate.Sometimes{Interval: progressInterval},
	}
}

func (p *progress) update(done int64) {
	if p.total <= 0 {
		return
	}
	p.sometimes.Do(func() { p.draw(done) })
}

func (p *progress) finish(done int64) {
	if p.total <= 0 {
		return
	}
	p.draw(done)
	fmt.Fprintln(p.out)
}

func (p *progress) draw(done int64) {
	percent := float64(done) * 100 / float64(p.total)
	fmt.Fprintf(p.out, "\rProgress: %.1f%% (%s MB)", percent, formatMB(done))
}
