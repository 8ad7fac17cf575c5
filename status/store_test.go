package status_test

import (
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"i4.energy/across/cellgw/modem"
	"i4.energy/across/cellgw/status"
)

// The store is the reporter and byte counter the modem side writes to.
var (
	_ modem.Reporter    = (*status.Store)(nil)
	_ modem.ByteCounter = (*status.Store)(nil)
)

func TestStore_StartsIdle(t *testing.T) {
	store := status.NewStore(0, nil)

	snap := store.Snapshot()
	if snap.Status != "idle" {
		t.Errorf("expected idle status, got %q", snap.Status)
	}
	if len(snap.Log) != 0 {
		t.Errorf("expected empty log, got %q", snap.Log)
	}
}

func TestStore_SetStatus(t *testing.T) {
	store := status.NewStore(0, nil)

	store.SetStatus("checking_sim")
	if snap := store.Snapshot(); snap.Status != "checking_sim" {
		t.Errorf("expected checking_sim, got %q", snap.Status)
	}

	// An empty label would leave readers with nothing; it is ignored.
	store.SetStatus("")
	if snap := store.Snapshot(); snap.Status != "checking_sim" {
		t.Errorf("expected empty set to be ignored, got %q", snap.Status)
	}
}

func TestStore_LogEvictsOldestBytes(t *testing.T) {
	store := status.NewStore(100, nil)

	first := strings.Repeat("a", 50)
	second := strings.Repeat("b", 50)
	third := strings.Repeat("c", 50)
	store.AppendLog(first)
	store.AppendLog(second)
	store.AppendLog(third)

	snap := store.Snapshot()
	if snap.Log[0] != "[...]" {
		t.Fatalf("expected truncation marker first, got %q", snap.Log[0])
	}

	kept := 0
	for _, line := range snap.Log[1:] {
		kept += len(line)
	}
	if kept > 100 {
		t.Errorf("retained %d bytes, cap is 100", kept)
	}
	if snap.Log[len(snap.Log)-1] != third {
		t.Errorf("expected newest line kept, got %q", snap.Log[len(snap.Log)-1])
	}
	for _, line := range snap.Log[1:] {
		if line == first {
			t.Error("expected oldest line evicted")
		}
	}
}

func TestStore_OversizedLineKeepsTail(t *testing.T) {
	store := status.NewStore(100, nil)

	store.AppendLog(strings.Repeat("x", 40) + strings.Repeat("y", 110))

	snap := store.Snapshot()
	if snap.Log[0] != "[...]" {
		t.Fatalf("expected truncation marker first, got %q", snap.Log[0])
	}
	line := snap.Log[1]
	if len(line) != 100 {
		t.Errorf("expected 100-byte tail, got %d bytes", len(line))
	}
	if line != strings.Repeat("y", 100) {
		t.Errorf("expected the tail of the line, got %q", line)
	}
}

func TestStore_SnapshotIsIndependent(t *testing.T) {
	store := status.NewStore(0, nil)
	store.AppendLog(">> AT")
	store.AppendLog("<< OK")

	snap := store.Snapshot()
	store.AppendLog(">> AT+QIACT=1")
	if len(snap.Log) != 2 {
		t.Errorf("expected snapshot unaffected by later appends, got %q", snap.Log)
	}

	snap.Log[0] = "tampered"
	fresh := store.Snapshot()
	if fresh.Log[0] != ">> AT" {
		t.Errorf("expected store unaffected by snapshot mutation, got %q", fresh.Log[0])
	}
}

func TestStore_TransferTotals(t *testing.T) {
	store := status.NewStore(0, nil)

	store.AddSent(10)
	store.AddSent(4)
	store.AddReceived(25)

	snap := store.Snapshot()
	if snap.BytesSent != 14 {
		t.Errorf("expected 14 bytes sent, got %d", snap.BytesSent)
	}
	if snap.BytesReceived != 25 {
		t.Errorf("expected 25 bytes received, got %d", snap.BytesReceived)
	}
}

func TestStore_FeedsMetrics(t *testing.T) {
	metrics := status.NewMetrics(prometheus.NewRegistry())
	store := status.NewStore(100, metrics)

	store.AddSent(10)
	store.AddReceived(20)
	store.AppendLog(strings.Repeat("a", 80))
	store.AppendLog(strings.Repeat("b", 80))

	if got := testutil.ToFloat64(metrics.SerialBytes.WithLabelValues("sent")); got != 10 {
		t.Errorf("expected 10 sent bytes in metrics, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.SerialBytes.WithLabelValues("received")); got != 20 {
		t.Errorf("expected 20 received bytes in metrics, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.LogEvictions); got != 1 {
		t.Errorf("expected 1 log eviction, got %v", got)
	}
}
