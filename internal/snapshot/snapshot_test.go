package snapshot

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestParseKind(t *testing.T) {
	cases := []struct {
		in   string
		want Kind
		ok   bool
	}{
		{"cpu", KindCPU, true},
		{"CPU", KindCPU, true},
		{"gpu", KindGPU, true},
		{"GpuNvidia", KindGPU, true},
		{"gpuamd", KindGPU, true},
		{"gpuintel", KindGPU, true},
		{"storage", KindStorage, true},
		{"motherboard", KindMotherboard, true},
		{"toaster", KindOther, false},
	}
	for _, c := range cases {
		got, ok := ParseKind(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("ParseKind(%q): got (%v, %v), want (%v, %v)", c.in, got, ok, c.want, c.ok)
		}
	}
}

func sample() *Snapshot {
	return New([]HardwareNode{
		{Kind: KindCPU, Name: "AMD Ryapple 9", Sensors: []SensorReading{
			{Type: SensorTemperature, Name: "Core #1", Value: Float(42.37)},
		}},
		{Kind: KindStorage, Name: "sda", Sensors: []SensorReading{
			{Type: SensorLoad, Name: "Used Space", Value: Float(61.5)},
		}},
		{Kind: KindStorage, Name: "sdb"},
		{Kind: KindCPU, Name: "Second Socket"},
	})
}

func TestNew_DerivesSensorCount(t *testing.T) {
	s := sample()
	if s.Nodes[0].SensorCount != 1 {
		t.Errorf("SensorCount: got %d, want 1", s.Nodes[0].SensorCount)
	}
	if s.Nodes[2].SensorCount != 0 {
		t.Errorf("empty node SensorCount: got %d, want 0", s.Nodes[2].SensorCount)
	}
}

func TestKinds_FirstAppearanceOrderNoDuplicates(t *testing.T) {
	kinds := sample().Kinds()
	if len(kinds) != 2 {
		t.Fatalf("got %d kinds, want 2", len(kinds))
	}
	if kinds[0] != KindCPU || kinds[1] != KindStorage {
		t.Errorf("order: got %v", kinds)
	}
}

func TestNodeAt_PerKindIndexing(t *testing.T) {
	s := sample()

	node, ok := s.NodeAt(KindStorage, 1)
	if !ok || node.Name != "sdb" {
		t.Errorf("storage/1: got (%v, %v)", node, ok)
	}

	node, ok = s.NodeAt(KindCPU, 1)
	if !ok || node.Name != "Second Socket" {
		t.Errorf("cpu/1: got (%v, %v)", node, ok)
	}

	if _, ok := s.NodeAt(KindStorage, 5); ok {
		t.Error("storage/5: expected out-of-range miss")
	}
	if _, ok := s.NodeAt(KindGPU, 0); ok {
		t.Error("gpu/0: expected miss for absent kind")
	}
}

func TestJSONShape(t *testing.T) {
	s := sample()
	data, err := json.Marshal(s.Nodes[0])
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	for _, field := range []string{`"type":"cpu"`, `"name":"AMD Ryapple 9"`, `"sensorCount":1`, `"sensors":[`} {
		if !strings.Contains(string(data), field) {
			t.Errorf("marshaled node missing %s: %s", field, data)
		}
	}
}

func TestJSONNullValue(t *testing.T) {
	reading := SensorReading{Type: SensorFan, Name: "Fan 1"}
	data, err := json.Marshal(reading)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"value":null`) {
		t.Errorf("nil value should marshal as null: %s", data)
	}
}

func TestKindJSONRoundTrip(t *testing.T) {
	var k Kind
	if err := json.Unmarshal([]byte(`"GpuNvidia"`), &k); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if k != KindGPU {
		t.Errorf("vendor GPU token: got %v, want KindGPU", k)
	}

	data, err := json.Marshal(k)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"gpu"` {
		t.Errorf("marshal: got %s, want \"gpu\"", data)
	}
}
