package pathname

import (
	"testing"

	"sensorstream/internal/snapshot"
)

func TestSlug(t *testing.T) {
	cases := map[string]string{
		"CPU Core #1":      "cpucore1",
		"Fan Control (#2)": "fancontrol2",
		"Temp. Max":        "tempmax",
		"already-slugged":  "already-slugged",
	}
	for in, want := range cases {
		if got := Slug(in); got != want {
			t.Errorf("Slug(%q): got %q, want %q", in, got, want)
		}
	}
}

func TestNormalize_GPU(t *testing.T) {
	cases := []struct {
		name string
		typ  snapshot.SensorType
		want string
	}{
		{"GPU Fan 2", snapshot.SensorFan, "fan/2"},
		{"GPU Fan", snapshot.SensorFan, "fan/1"},
		{"D3D 3D", snapshot.SensorLoad, "d3d/3d"},
		{"D3D Video Decode", snapshot.SensorLoad, "d3d/videodecode"},
		{"GPU Power", snapshot.SensorPower, "power"},
		{"GPU Memory Used", snapshot.SensorData, "memoryused"},
		{"GPU Core", snapshot.SensorClock, "gpucore"},
	}
	for _, c := range cases {
		if got := Normalize(snapshot.KindGPU, c.typ, c.name); got != c.want {
			t.Errorf("Normalize(gpu, %v, %q): got %q, want %q", c.typ, c.name, got, c.want)
		}
	}
}

func TestNormalize_CPU(t *testing.T) {
	cases := []struct {
		name string
		typ  snapshot.SensorType
		want string
	}{
		{"Core #1", snapshot.SensorTemperature, "temperature/core1"},
		{"Core #2 VID", snapshot.SensorVoltage, "voltage/core2"},
		{"Core #3", snapshot.SensorClock, "clock/core3"},
		{"Core #4", snapshot.SensorFactor, "factor/core4"},
		{"CPU Core #5", snapshot.SensorLoad, "load/core5"},
		// Types without a dedicated core group fall back to load.
		{"Core #6", snapshot.SensorOther, "load/core6"},
		{"CPU Package", snapshot.SensorPower, "package/cpupackage"},
		{"Bus Speed", snapshot.SensorClock, "clock/busspeed"},
		{"CPU Total", snapshot.SensorLoad, "load/cputotal"},
	}
	for _, c := range cases {
		if got := Normalize(snapshot.KindCPU, c.typ, c.name); got != c.want {
			t.Errorf("Normalize(cpu, %v, %q): got %q, want %q", c.typ, c.name, got, c.want)
		}
	}
}

func TestNormalize_OtherKinds(t *testing.T) {
	got := Normalize(snapshot.KindStorage, snapshot.SensorLoad, "Used Space")
	if got != "load/usedspace" {
		t.Errorf("storage: got %q, want load/usedspace", got)
	}

	got = Normalize(snapshot.KindNetwork, snapshot.SensorThroughput, "Upload Speed")
	if got != "throughput/uploadspeed" {
		t.Errorf("network: got %q, want throughput/uploadspeed", got)
	}
}

func TestNormalize_CollidingNamesMerge(t *testing.T) {
	// Two raw names differing only in stripped punctuation land on the
	// same segment; this merge is intentional.
	a := Normalize(snapshot.KindMemory, snapshot.SensorData, "Memory Used")
	b := Normalize(snapshot.KindMemory, snapshot.SensorData, "Memory (Used)")
	if a != b {
		t.Errorf("expected collision, got %q and %q", a, b)
	}
}

func TestNormalizeQuery(t *testing.T) {
	got := NormalizeQuery([]string{"Temperature", "Core #1"})
	if got != "temperature/core1" {
		t.Errorf("got %q, want temperature/core1", got)
	}
}

func TestFirstNumber(t *testing.T) {
	if n := FirstNumber("core10"); n != 10 {
		t.Errorf("core10: got %d, want 10", n)
	}
	if n := FirstNumber("package"); n != -1 {
		t.Errorf("package: got %d, want -1", n)
	}
}

func TestStripDigits(t *testing.T) {
	if got := StripDigits("load/core12"); got != "load/core" {
		t.Errorf("got %q, want load/core", got)
	}
}
