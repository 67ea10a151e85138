package console

import (
	"io"
	"sync"
	"time"

	"github.com/pterm/pterm"
)

// Progress pacing. The bar is cosmetic and unrelated to request progress.
const (
	ProgressStep     = 4
	ProgressInterval = 80 * time.Millisecond
	progressMax      = 100
)

// Advance returns the next progress value, capped at 100.
func Advance(current int) int {
	if current >= progressMax {
		return progressMax
	}
	next := current + ProgressStep
	if next > progressMax {
		return progressMax
	}
	return next
}

// Progress animates a bar while a report is being acquired.
type Progress struct {
	bar  *pterm.ProgressbarPrinter
	done chan struct{}
	wg   sync.WaitGroup
	once sync.Once

	mu    sync.Mutex
	value int
}

// StartProgress starts a bar titled title on w.
func StartProgress(w io.Writer, title string) (*Progress, error) {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(progressMax).
		WithTitle(title).
		WithWriter(w).
		WithRemoveWhenDone(true).
		Start()
	if err != nil {
		return nil, err
	}

	p := &Progress{bar: bar, done: make(chan struct{})}
	p.wg.Add(1)
	go p.run()
	return p, nil
}

func (p *Progress) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(ProgressInterval)
	defer ticker.Stop()

	for {
		select {
		case <-p.done:
			return
		case <-ticker.C:
			p.mu.Lock()
			next := Advance(p.value)
			delta := next - p.value
			p.value = next
			p.mu.Unlock()

			if delta > 0 {
				p.bar.Add(delta)
			}
		}
	}
}

// Value returns the current progress percentage.
func (p *Progress) Value() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Stop halts the animation and clears the bar. It is safe to call more
// than once and from several goroutines.
func (p *Progress) Stop() {
	p.once.Do(func() {
		close(p.done)
		p.wg.Wait()
		_, _ = p.bar.Stop()
	})
}
