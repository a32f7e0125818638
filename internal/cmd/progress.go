package cmd

import (
	"fmt"
	"io"
	"sync"

	"github.com/dustin/go-humanize"
)

// progressPrinter 在同一行刷新传输进度，完成后换行
type progressPrinter struct {
	mu   sync.Mutex
	out  io.Writer
	last string
}

func newProgressPrinter(out io.Writer) *progressPrinter {
	return &progressPrinter{out: out}
}

func (p *progressPrinter) Report(name string, total, done int64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	line := formatProgress(name, total, done)
	if line == p.last {
		return
	}
	p.last = line
	fmt.Fprintf(p.out, "\r%s", line)
	if done >= total {
		fmt.Fprintln(p.out)
	}
}

func formatProgress(name string, total, done int64) string {
	percent := 100.0
	if total > 0 {
		percent = float64(done) * 100 / float64(total)
	}
	return fmt.Sprintf("%s  %s / %s  %5.1f%%", name, humanize.IBytes(uint64(done)), humanize.IBytes(uint64(total)), percent)
}
