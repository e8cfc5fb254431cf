package hotbench

import (
	"bytes"
	"strings"
	"testing"
	"time"
)

func TestReportFormat(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	devs := []*Device{
		{Name: "CTRL-A               (SN-0001             )", IOCompleted: 1234, PrevIOCompleted: 1000},
		{Name: "CTRL-B               (SN-0002             )", IOCompleted: 56, PrevIOCompleted: 0},
	}

	r.Report(devs)

	want := "CTRL-A               (SN-0001             ):       1234 I/Os completed (+234)\n" +
		"CTRL-B               (SN-0002             ):         56 I/Os completed (+56)\n" +
		"\n"
	if buf.String() != want {
		t.Errorf("Report output mismatch\nwant:\n%q\ngot:\n%q", want, buf.String())
	}
}

func TestReportRebaselinesDeltas(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	dev := &Device{Name: "dev", IOCompleted: 100}
	r.Report([]*Device{dev})

	if dev.PrevIOCompleted != 100 {
		t.Errorf("Expected baseline 100 after report, got %d", dev.PrevIOCompleted)
	}

	// No progress since the last report: the delta must read zero.
	buf.Reset()
	r.Report([]*Device{dev})
	if !strings.Contains(buf.String(), "(+0)") {
		t.Errorf("Expected +0 delta, got %q", buf.String())
	}
}

func TestReportTruncatesLongNames(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	dev := &Device{Name: strings.Repeat("x", 60), IOCompleted: 1}
	r.Report([]*Device{dev})

	line, _, _ := strings.Cut(buf.String(), ":")
	if len(line) != 43 {
		t.Errorf("Expected name column width 43, got %d", len(line))
	}
}

func TestSummary(t *testing.T) {
	m := NewMetrics()
	start := time.Now()
	m.StartTime.Store(start.UnixNano())

	for i := 0; i < 10; i++ {
		m.RecordSubmit(4)
		m.RecordRead(4096, 250_000, true)
	}
	m.RecordSubmitFailure()
	m.RecordAttach()
	m.RecordSkip()
	m.StopTime.Store(start.Add(2 * time.Second).UnixNano())

	var buf bytes.Buffer
	NewReporter(&buf).Summary(m.Snapshot())
	out := buf.String()

	for _, want := range []string{
		"Run complete in 2s",
		"10 I/Os",
		"40 KiB",
		"5 IOPS",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected summary to contain %q, got:\n%s", want, out)
		}
	}

	if !strings.Contains(out, "0 read, 1 submit") {
		t.Errorf("Expected error counts in summary, got:\n%s", out)
	}
	if !strings.Contains(out, "1 attached, 1 skipped") {
		t.Errorf("Expected device counts in summary, got:\n%s", out)
	}
}
