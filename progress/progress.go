package progress

import (
	"context"
	"sync"

	"github.com/pterm/pterm"

	"github.com/retrochat/ichat-recover/stats"
)

// Bar manages a progress bar tracking participants processed.
type Bar struct {
	pb      *pterm.ProgressbarPrinter
	total   int
	mu      sync.Mutex
	enabled bool
}

// New creates a progress bar over total participants. The bar only
// draws at info level; debug runs log individual steps instead.
func New(total int, logLevel string) *Bar {
	enabled := logLevel == "info" && total > 0

	bar := &Bar{
		total:   total,
		enabled: enabled,
	}

	if enabled {
		pb, _ := pterm.DefaultProgressbar.
			WithTotal(total).
			WithTitle("Recovering conversations").
			Start()

		bar.pb = pb

		pterm.Info.Printf("Participants to process: %d\n", total)
		pterm.Println()
	}

	return bar
}

// Update advances the bar based on the event type.
func (b *Bar) Update(evt stats.Event) {
	if !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch evt.Type {
	case stats.EventTypeParticipantDone:
		b.pb.Increment()

		if evt.Participant != "" {
			display := evt.Participant
			if len(display) > 40 {
				display = display[:37] + "..."
			}
			b.pb.UpdateTitle("Processed: " + display)
		}
	case stats.EventTypeError:
		// Show errors above the progress bar; totals land in the
		// final summary.
		if evt.Err != nil {
			pterm.Error.Printf("Error: %v\n", evt.Err)
		}
	}
}

// Stop finalizes the progress bar.
func (b *Bar) Stop() {
	if !b.enabled || b.pb == nil {
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pb.Current < b.total {
		b.pb.Current = b.total
	}

	b.pb.Stop()
	pterm.Success.Println("Recovery complete!")
}

// Subscriber returns when the event stream closes, stopping the bar.
func (b *Bar) Subscriber(ctx context.Context, events <-chan stats.Event) error {
	defer b.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt, ok := <-events:
			if !ok {
				return nil
			}
			b.Update(evt)
		}
	}
}

// Reporter couples the bar with a stats collector that prints the final
// per-run summary once the stream drains.
type Reporter struct {
	bar       *Bar
	collector *stats.Collector
}

// NewReporter subscribes the bar and the summary printer on stream.
func NewReporter(stream stats.EventStream, bar *Bar) *Reporter {
	reporter := &Reporter{
		bar:       bar,
		collector: stats.NewCollector(),
	}

	if bar != nil && bar.enabled {
		stream.SubscribeStats("progress-bar", bar.Subscriber)
		stream.SubscribeStats("progress-summary", reporter.collect)
	}

	return reporter
}

func (r *Reporter) collect(ctx context.Context, events <-chan stats.Event) error {
	r.collector.Run(ctx, events)

	summary := r.collector.Snapshot()

	pterm.Println()
	pterm.DefaultSection.Println("Recovery Summary")
	pterm.Info.Printf("Archives read: %d\n", summary.FilesRead)
	pterm.Info.Printf("Archives skipped: %d\n", summary.FilesSkipped)
	pterm.Info.Printf("Messages recovered: %d\n", summary.Messages)
	if summary.Filtered > 0 {
		pterm.Info.Printf("Messages filtered out: %d\n", summary.Filtered)
	}
	pterm.Info.Printf("Transcripts written: %d\n", summary.Rendered)
	if summary.Exported > 0 {
		pterm.Info.Printf("Mbox exports written: %d\n", summary.Exported)
	}
	pterm.Info.Printf("Errors: %d\n", summary.Errors)
	if summary.LastError != nil {
		pterm.Error.Printf("Last error: %v\n", summary.LastError)
	}

	return nil
}
