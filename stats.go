package hotbench

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
)

// Reporter writes the benchmark's human-readable statistics stream:
// periodic per-device progress lines during the run and an aggregate
// summary at the end. Diagnostics do not go here; they go to the
// structured log.
type Reporter struct {
	out io.Writer
}

// NewReporter creates a reporter writing to out.
func NewReporter(out io.Writer) *Reporter {
	return &Reporter{out: out}
}

// Banner prints a one-line run milestone to the statistics stream.
func (r *Reporter) Banner(msg string) {
	fmt.Fprintln(r.out, msg)
}

// Report prints one progress line per device, oldest first, then a
// blank separator, and rebaselines each device's per-interval delta.
func (r *Reporter) Report(devs []*Device) {
	for _, dev := range devs {
		fmt.Fprintf(r.out, "%-43.43s: %10d I/Os completed (+%d)\n",
			dev.Name, dev.IOCompleted, dev.IOCompleted-dev.PrevIOCompleted)
		dev.PrevIOCompleted = dev.IOCompleted
	}
	fmt.Fprintln(r.out)
}

// Summary prints the end-of-run aggregate totals.
func (r *Reporter) Summary(snap MetricsSnapshot) {
	elapsed := time.Duration(snap.UptimeNs).Round(time.Millisecond)

	fmt.Fprintf(r.out, "Run complete in %s\n", elapsed)
	fmt.Fprintf(r.out, "  reads:      %s I/Os, %s\n",
		humanize.Comma(int64(snap.ReadOps)), humanize.IBytes(snap.ReadBytes))
	fmt.Fprintf(r.out, "  throughput: %s IOPS, %s/s\n",
		humanize.CommafWithDigits(snap.ReadIOPS, 0), humanize.IBytes(uint64(snap.ReadBandwidth)))
	fmt.Fprintf(r.out, "  latency:    avg %s, p50 %s, p99 %s\n",
		time.Duration(snap.AvgLatencyNs).Round(time.Microsecond),
		time.Duration(snap.LatencyP50Ns).Round(time.Microsecond),
		time.Duration(snap.LatencyP99Ns).Round(time.Microsecond))
	fmt.Fprintf(r.out, "  errors:     %d read, %d submit\n",
		snap.ReadErrors, snap.SubmitFailures)
	fmt.Fprintf(r.out, "  devices:    %d attached, %d skipped, %d removed, %d unregistered\n",
		snap.ControllersAttached, snap.ControllersSkipped,
		snap.ControllersRemoved, snap.DevicesUnregistered)
}
