package msg

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// ProgressBar counts finished build targets. Step may be called from many
// goroutines.
type ProgressBar struct {
	Total   int64
	Current int64
	Indent  int
	Start   time.Time
	W       io.Writer

	mu         sync.Mutex
	lastPrint  time.Time
	throbIndex int
}

var throbbers = []rune{'|', '/', '-', '\\'}

func NewProgressBar(total int64, indent int, w io.Writer) *ProgressBar {
	return &ProgressBar{
		Total:     total,
		Indent:    indent,
		Start:     time.Now(),
		W:         w,
		lastPrint: time.Now(),
	}
}

// Step marks one more target as done
func (pb *ProgressBar) Step() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.Current++

	if pb.Current >= pb.Total || time.Since(pb.lastPrint) > 40*time.Millisecond {
		pb.print(false)
		pb.lastPrint = time.Now()
	}
}

func (pb *ProgressBar) print(finish bool) {
	width := 40
	percent := float64(pb.Current) / float64(max(pb.Total, 1))
	if finish {
		percent = 1
	}

	filled := min(int(percent*float64(width)), width)
	bar := strings.Repeat("█", filled) + strings.Repeat("-", width-filled)

	throb := throbbers[pb.throbIndex%len(throbbers)]
	pb.throbIndex++
	if finish {
		throb = ' '
	}

	fmt.Fprintf(pb.W, "\r%s%6.f%% [%s] %d/%d %c",
		strings.Repeat(" ", pb.Indent),
		percent*100,
		bar,
		pb.Current,
		pb.Total,
		throb,
	)
}

// Finish draws the full bar and ends the line
func (pb *ProgressBar) Finish() {
	pb.mu.Lock()
	defer pb.mu.Unlock()
	pb.print(true)
	fmt.Fprintf(pb.W, " %s\n", time.Since(pb.Start).Round(time.Millisecond))
}
