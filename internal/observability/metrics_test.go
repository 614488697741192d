package observability

import (
	"testing"
	"time"
)

func TestNilMetricsSafe(t *testing.T) {
	var m *Metrics
	// Orchestrators call through a nil receiver when metrics are disabled.
	m.ObserveItem("ok")
	m.ObserveUpload("success")
	m.ObserveDownload(time.Second)
}

func TestObserve(t *testing.T) {
	m := New()
	m.ObserveItem("ok")
	m.ObserveItem("ok")
	m.ObserveItem("not_found")
	m.ObserveUpload("failure")
	m.ObserveDownload(250 * time.Millisecond)

	families, err := m.registry.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}

	counts := map[string]int{}
	for _, mf := range families {
		counts[mf.GetName()] = len(mf.GetMetric())
	}
	if counts["fragscrape_items_total"] != 2 {
		t.Errorf("items_total series = %d, want 2 statuses", counts["fragscrape_items_total"])
	}
	if counts["fragscrape_uploads_total"] != 1 {
		t.Errorf("uploads_total series = %d", counts["fragscrape_uploads_total"])
	}
	if counts["fragscrape_download_duration_seconds"] != 1 {
		t.Errorf("download histogram series = %d", counts["fragscrape_download_duration_seconds"])
	}
}
