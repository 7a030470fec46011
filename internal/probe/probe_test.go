package probe

import (
	"testing"

	"github.com/rs/zerolog"

	"sensorstream/internal/snapshot"
	"sensorstream/pkg/config"
)

func TestCollect(t *testing.T) {
	p := New(config.ProbeConfig{}, zerolog.Nop())

	snap, err := p.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(snap.Nodes) == 0 {
		t.Fatal("Collect returned no nodes")
	}

	for _, node := range snap.Nodes {
		if node.Name == "" {
			t.Errorf("node of kind %s has empty name", node.Kind)
		}
		if node.SensorCount != len(node.Sensors) {
			t.Errorf("node %s: SensorCount %d != len(Sensors) %d", node.Name, node.SensorCount, len(node.Sensors))
		}
	}

	t.Logf("Collected %d nodes", len(snap.Nodes))
}

func TestCollect_DisabledKindsSkipped(t *testing.T) {
	off := false
	p := New(config.ProbeConfig{
		Storage: &off,
		Network: &off,
	}, zerolog.Nop())

	snap, err := p.Collect()
	if err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	for _, node := range snap.Nodes {
		if node.Kind == snapshot.KindStorage || node.Kind == snapshot.KindNetwork {
			t.Errorf("disabled kind %s present in snapshot", node.Kind)
		}
	}
}

func TestCollect_NetworkThroughputNeedsTwoSamples(t *testing.T) {
	p := New(config.ProbeConfig{}, zerolog.Nop())

	snap, err := p.Collect()
	if err != nil {
		t.Fatalf("first Collect failed: %v", err)
	}

	// First sample has no baseline, so throughput sensors are null.
	for _, node := range snap.NodesOfKind(snapshot.KindNetwork) {
		for _, s := range node.Sensors {
			if s.Type == snapshot.SensorThroughput && s.Value != nil {
				t.Errorf("first sample throughput %q should be null", s.Name)
			}
		}
	}

	snap, err = p.Collect()
	if err != nil {
		t.Fatalf("second Collect failed: %v", err)
	}

	for _, node := range snap.NodesOfKind(snapshot.KindNetwork) {
		for _, s := range node.Sensors {
			if s.Type == snapshot.SensorThroughput && s.Value == nil {
				t.Errorf("second sample throughput %q should have a value", s.Name)
			}
		}
	}
}

func TestFirstDigits(t *testing.T) {
	cases := map[string]string{
		"coretemp_core_0": "0",
		"core12_input":    "12",
		"package":         "",
	}
	for in, want := range cases {
		if got := firstDigits(in); got != want {
			t.Errorf("firstDigits(%q): got %q, want %q", in, got, want)
		}
	}
}
