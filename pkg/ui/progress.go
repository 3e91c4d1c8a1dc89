package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"xpurge/pkg/pipeline"
)

const (
	ProgressBar   = "█"
	ProgressEmpty = "░"
)

// StatusTracker prints pipeline progress line by line. It implements pipeline.Observer.
type StatusTracker struct {
	mu  sync.Mutex
	out io.Writer

	Acted        int
	Failed       int
	CurrentBatch int
	BatchSize    int
	BatchDone    int
	StartTime    time.Time
}

// NewStatusTracker creates a tracker writing to out
func NewStatusTracker(out io.Writer) *StatusTracker {
	return &StatusTracker{
		out:       out,
		StartTime: time.Now(),
	}
}

// BatchFetched starts a new batch
func (st *StatusTracker) BatchFetched(kind pipeline.Kind, batch, size int) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.CurrentBatch = batch
	st.BatchSize = size
	st.BatchDone = 0
	fmt.Fprintf(st.out, "%s batch %d: %d %s\n", Magenta("[FETCHED]"), batch, size, noun(kind, size))
}

// ActionDone reports one delete or unlike
func (st *StatusTracker) ActionDone(kind pipeline.Kind, id string, err error) {
	st.mu.Lock()
	defer st.mu.Unlock()

	st.BatchDone++
	if err != nil {
		st.Failed++
		label := "[FAILED]"
		if kind == pipeline.KindUnlike {
			label = "[SKIPPED]"
		}
		fmt.Fprintf(st.out, "%s %s %s\n", Red(label), Red(id), Dim(err.Error()))
		return
	}

	st.Acted++
	fmt.Fprintf(st.out, "%s %s %s\n", Green(pastTense(kind)), id, Dim(st.batchProgress()))
}

// batchProgress returns a progress bar for the current batch
func (st *StatusTracker) batchProgress() string {
	const width = 20
	filled := 0
	if st.BatchSize > 0 {
		filled = st.BatchDone * width / st.BatchSize
	}
	if filled > width {
		filled = width
	}

	bar := strings.Repeat(ProgressBar, filled) +
		strings.Repeat(ProgressEmpty, width-filled)

	return fmt.Sprintf("[%s] %d/%d", bar, st.BatchDone, st.BatchSize)
}

// Elapsed returns the time since tracking started
func (st *StatusTracker) Elapsed() time.Duration {
	return time.Since(st.StartTime)
}

// Rate returns the average actions per minute
func (st *StatusTracker) Rate() float64 {
	st.mu.Lock()
	defer st.mu.Unlock()

	elapsed := st.Elapsed().Minutes()
	if elapsed == 0 {
		return 0
	}
	return float64(st.Acted) / elapsed
}

// PrintSummary prints the totals of a finished run
func (st *StatusTracker) PrintSummary(kind pipeline.Kind, res pipeline.Result) {
	fmt.Fprintf(st.out, "\n%s %d %s in %d batches, %d skipped (%s)\n",
		Cyan("[DONE]"),
		res.Acted,
		pastTense(kind),
		res.Batches,
		res.Skipped,
		st.Elapsed().Round(time.Second))
	fmt.Fprintf(st.out, "%s last batch: fetched %d, acted on %d\n",
		Cyan("[DONE]"), res.BatchFetched, res.BatchActed)
}

func pastTense(kind pipeline.Kind) string {
	if kind == pipeline.KindUnlike {
		return "unliked"
	}
	return "deleted"
}

func noun(kind pipeline.Kind, n int) string {
	word := "post"
	if kind == pipeline.KindUnlike {
		word = "like"
	}
	if n != 1 {
		word += "s"
	}
	return word
}
