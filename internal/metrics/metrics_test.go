package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNewRegistersOnGivenRegistry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ParsesTotal.WithLabelValues("en").Inc()
	m.ParsesTotal.WithLabelValues("he").Add(2)
	if got := testutil.ToFloat64(m.ParsesTotal.WithLabelValues("he")); got != 2 {
		t.Errorf("he parses = %v", got)
	}

	m.CatalogTextsTotal.Set(13)
	if got := testutil.ToFloat64(m.CatalogTextsTotal); got != 13 {
		t.Errorf("catalog gauge = %v", got)
	}

	families, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}
	if len(families) == 0 {
		t.Fatal("nothing registered")
	}
}

func TestUptime(t *testing.T) {
	m := New(prometheus.NewRegistry())
	if m.Uptime() < 0 {
		t.Errorf("uptime = %v", m.Uptime())
	}
}
