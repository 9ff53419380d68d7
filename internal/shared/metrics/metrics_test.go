package metrics

import (
	"bytes"
	"strings"
	"testing"
)

func TestRenderIncludesIngestCounters(t *testing.T) {
	IncIngestStarted()
	IncIngestOrphanedObject()
	ObserveIngestDurationMs(150)
	ObserveIngestDurationMs(-5)

	out := Render()
	for _, want := range []string{
		"# TYPE ingest_started_total counter",
		"ingest_orphaned_objects_total ",
		"qa_sync_failed_total ",
		`ingest_duration_ms_bucket{le="100"}`,
		`ingest_duration_ms_bucket{le="+Inf"}`,
		"ingest_duration_ms_count ",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestHistogramBucketsAreCumulative(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 || snap.sum != 555 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts %v", snap.counts)
	}

	var buf bytes.Buffer
	writeHistogram(&buf, "h", "test", snap)
	out := buf.String()
	for _, want := range []string{`h_bucket{le="10"} 1`, `h_bucket{le="100"} 2`, `h_bucket{le="+Inf"} 3`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}
