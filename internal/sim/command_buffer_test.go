package sim

import (
	"testing"

	"trackerbot/internal/telemetry"
	"trackerbot/logging"
)

func TestCommandBufferWraparound(t *testing.T) {
	buffer := NewCommandBuffer(3, nil)
	cmds := []Command{{ActorID: "a"}, {ActorID: "b"}, {ActorID: "c"}}
	for _, cmd := range cmds {
		if !buffer.Push(cmd) {
			t.Fatalf("expected push to succeed for %+v", cmd)
		}
	}
	if buffer.Push(Command{ActorID: "overflow"}) {
		t.Fatalf("expected push to fail when buffer full")
	}
	drained := buffer.Drain()
	if len(drained) != len(cmds) {
		t.Fatalf("expected %d commands, got %d", len(cmds), len(drained))
	}
	for i, cmd := range drained {
		if cmd.ActorID != cmds[i].ActorID {
			t.Fatalf("expected drain order %v, got %v", cmds[i].ActorID, cmd.ActorID)
		}
	}

	buffer.Push(Command{ActorID: "d"})
	buffer.Drain()
	for _, cmd := range []Command{{ActorID: "e"}, {ActorID: "f"}, {ActorID: "g"}} {
		if !buffer.Push(cmd) {
			t.Fatalf("expected push to succeed after drain for %+v", cmd)
		}
	}
	wrapped := buffer.Drain()
	if len(wrapped) != 3 || wrapped[0].ActorID != "e" || wrapped[2].ActorID != "g" {
		t.Fatalf("unexpected order after wraparound: %+v", wrapped)
	}
	if buffer.Drain() != nil {
		t.Fatalf("expected empty drain to return nil")
	}
}

func TestCommandBufferReportsOccupancyAndOverflow(t *testing.T) {
	metrics := &logging.Metrics{}
	buffer := NewCommandBuffer(1, telemetry.WrapMetrics(metrics))
	if !buffer.Push(Command{ActorID: "one"}) {
		t.Fatalf("expected initial push to succeed")
	}
	if buffer.Push(Command{ActorID: "two"}) {
		t.Fatalf("expected push to fail when capacity exceeded")
	}
	snapshot := metrics.Snapshot()
	if snapshot[commandBufferOccupancyMetricKey] != 1 || snapshot[commandBufferOverflowMetricKey] != 1 {
		t.Fatalf("unexpected metrics %+v", snapshot)
	}
	buffer.Drain()
	if got := metrics.Snapshot()[commandBufferOccupancyMetricKey]; got != 0 {
		t.Fatalf("expected occupancy reset, got %d", got)
	}
}
