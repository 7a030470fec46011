// Package probe samples local hardware via gopsutil and builds Snapshots for
// the transport. Each subsystem failure is tolerated independently: a probe
// that cannot read one device still reports the rest.
package probe

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	gnet "github.com/shirou/gopsutil/v3/net"

	"sensorstream/internal/snapshot"
	"sensorstream/pkg/config"
)

const bytesPerGB = 1024 * 1024 * 1024

// Prober collects hardware snapshots. It keeps the previous network counters
// so throughput sensors can report rates instead of lifetime totals.
type Prober struct {
	cfg config.ProbeConfig
	log zerolog.Logger

	mu       sync.Mutex
	prevNet  map[string]gnet.IOCountersStat
	prevTime time.Time
}

// New creates a Prober for the enabled hardware kinds.
func New(cfg config.ProbeConfig, log zerolog.Logger) *Prober {
	return &Prober{cfg: cfg, log: log}
}

// Collect walks the enabled subsystems and returns a fresh Snapshot.
func (p *Prober) Collect() (*snapshot.Snapshot, error) {
	var nodes []snapshot.HardwareNode

	if p.cfg.CPUEnabled() {
		if node, err := p.collectCPU(); err != nil {
			p.log.Warn().Err(err).Msg("CPU sampling failed")
		} else {
			nodes = append(nodes, node)
		}
	}
	if p.cfg.MemoryEnabled() {
		if node, err := p.collectMemory(); err != nil {
			p.log.Warn().Err(err).Msg("Memory sampling failed")
		} else {
			nodes = append(nodes, node)
		}
	}
	if p.cfg.StorageEnabled() {
		storage, err := p.collectStorage()
		if err != nil {
			p.log.Warn().Err(err).Msg("Storage sampling failed")
		}
		nodes = append(nodes, storage...)
	}
	if p.cfg.NetworkEnabled() {
		network, err := p.collectNetwork()
		if err != nil {
			p.log.Warn().Err(err).Msg("Network sampling failed")
		}
		nodes = append(nodes, network...)
	}
	if p.cfg.HostEnabled() {
		if node, err := p.collectHost(); err != nil {
			p.log.Warn().Err(err).Msg("Host sampling failed")
		} else {
			nodes = append(nodes, node)
		}
	}

	if len(nodes) == 0 {
		return nil, fmt.Errorf("no hardware nodes could be sampled")
	}
	return snapshot.New(nodes), nil
}

func (p *Prober) collectCPU() (snapshot.HardwareNode, error) {
	name := "CPU"
	infos, err := cpu.Info()
	if err == nil && len(infos) > 0 {
		name = infos[0].ModelName
	}

	var sensors []snapshot.SensorReading

	// Per-core and total load. Percent with zero interval reports usage
	// since the previous call, matching the refresh-tick cadence.
	perCore, err := cpu.Percent(0, true)
	if err != nil {
		return snapshot.HardwareNode{}, fmt.Errorf("reading CPU load: %w", err)
	}
	for i, v := range perCore {
		sensors = append(sensors, snapshot.SensorReading{
			Type:  snapshot.SensorLoad,
			Name:  fmt.Sprintf("CPU Core #%d", i+1),
			Value: snapshot.Float(v),
		})
	}
	if total, err := cpu.Percent(0, false); err == nil && len(total) > 0 {
		sensors = append(sensors, snapshot.SensorReading{
			Type:  snapshot.SensorLoad,
			Name:  "CPU Total",
			Value: snapshot.Float(total[0]),
		})
	}

	for i, info := range infos {
		sensors = append(sensors, snapshot.SensorReading{
			Type:  snapshot.SensorClock,
			Name:  fmt.Sprintf("Core #%d", i+1),
			Value: snapshot.Float(info.Mhz),
		})
	}

	sensors = append(sensors, p.cpuTemperatures()...)

	return snapshot.HardwareNode{
		Kind:    snapshot.KindCPU,
		Name:    name,
		Sensors: sensors,
	}, nil
}

// cpuTemperatures maps kernel thermal sensor keys onto core/package names.
// Missing thermal support yields no sensors, not an error.
func (p *Prober) cpuTemperatures() []snapshot.SensorReading {
	stats, err := host.SensorsTemperatures()
	if err != nil {
		p.log.Debug().Err(err).Msg("No temperature sensors available")
		return nil
	}

	var sensors []snapshot.SensorReading
	for _, stat := range stats {
		key := strings.ToLower(stat.SensorKey)
		switch {
		case strings.Contains(key, "package"):
			sensors = append(sensors, snapshot.SensorReading{
				Type:  snapshot.SensorTemperature,
				Name:  "CPU Package",
				Value: snapshot.Float(stat.Temperature),
			})
		case strings.Contains(key, "core"):
			n := firstDigits(key)
			if n == "" {
				continue
			}
			sensors = append(sensors, snapshot.SensorReading{
				Type:  snapshot.SensorTemperature,
				Name:  fmt.Sprintf("Core #%s", n),
				Value: snapshot.Float(stat.Temperature),
			})
		}
	}
	return sensors
}

func (p *Prober) collectMemory() (snapshot.HardwareNode, error) {
	vm, err := mem.VirtualMemory()
	if err != nil {
		return snapshot.HardwareNode{}, fmt.Errorf("reading virtual memory: %w", err)
	}

	sensors := []snapshot.SensorReading{
		{Type: snapshot.SensorLoad, Name: "Memory", Value: snapshot.Float(vm.UsedPercent)},
		{Type: snapshot.SensorData, Name: "Memory Used", Value: snapshot.Float(float64(vm.Used) / bytesPerGB)},
		{Type: snapshot.SensorData, Name: "Memory Available", Value: snapshot.Float(float64(vm.Available) / bytesPerGB)},
	}

	if swap, err := mem.SwapMemory(); err == nil {
		sensors = append(sensors,
			snapshot.SensorReading{Type: snapshot.SensorLoad, Name: "Virtual Memory", Value: snapshot.Float(swap.UsedPercent)},
			snapshot.SensorReading{Type: snapshot.SensorData, Name: "Virtual Memory Used", Value: snapshot.Float(float64(swap.Used) / bytesPerGB)},
		)
	}

	return snapshot.HardwareNode{
		Kind:    snapshot.KindMemory,
		Name:    "System Memory",
		Sensors: sensors,
	}, nil
}

func (p *Prober) collectStorage() ([]snapshot.HardwareNode, error) {
	partitions, err := disk.Partitions(false)
	if err != nil {
		return nil, fmt.Errorf("listing partitions: %w", err)
	}

	var nodes []snapshot.HardwareNode
	for _, part := range partitions {
		usage, err := disk.Usage(part.Mountpoint)
		if err != nil {
			p.log.Debug().Err(err).Str("mountpoint", part.Mountpoint).Msg("Skipping partition")
			continue
		}

		nodes = append(nodes, snapshot.HardwareNode{
			Kind: snapshot.KindStorage,
			Name: part.Device,
			Sensors: []snapshot.SensorReading{
				{Type: snapshot.SensorLoad, Name: "Used Space", Value: snapshot.Float(usage.UsedPercent)},
				{Type: snapshot.SensorData, Name: "Used", Value: snapshot.Float(float64(usage.Used) / bytesPerGB)},
				{Type: snapshot.SensorData, Name: "Free", Value: snapshot.Float(float64(usage.Free) / bytesPerGB)},
				{Type: snapshot.SensorData, Name: "Total Capacity", Value: snapshot.Float(float64(usage.Total) / bytesPerGB)},
			},
		})
	}
	return nodes, nil
}

func (p *Prober) collectNetwork() ([]snapshot.HardwareNode, error) {
	counters, err := gnet.IOCounters(true)
	if err != nil {
		return nil, fmt.Errorf("reading network counters: %w", err)
	}

	p.mu.Lock()
	prev := p.prevNet
	elapsed := time.Since(p.prevTime).Seconds()
	now := make(map[string]gnet.IOCountersStat, len(counters))
	for _, c := range counters {
		now[c.Name] = c
	}
	p.prevNet = now
	p.prevTime = time.Now()
	p.mu.Unlock()

	var nodes []snapshot.HardwareNode
	for _, c := range counters {
		if c.Name == "lo" {
			continue
		}

		// Rates need a previous sample; the first tick reports null values.
		var up, down *float64
		if last, ok := prev[c.Name]; ok && elapsed > 0 {
			up = snapshot.Float(float64(c.BytesSent-last.BytesSent) / elapsed)
			down = snapshot.Float(float64(c.BytesRecv-last.BytesRecv) / elapsed)
		}

		nodes = append(nodes, snapshot.HardwareNode{
			Kind: snapshot.KindNetwork,
			Name: c.Name,
			Sensors: []snapshot.SensorReading{
				{Type: snapshot.SensorData, Name: "Data Uploaded", Value: snapshot.Float(float64(c.BytesSent) / bytesPerGB)},
				{Type: snapshot.SensorData, Name: "Data Downloaded", Value: snapshot.Float(float64(c.BytesRecv) / bytesPerGB)},
				{Type: snapshot.SensorThroughput, Name: "Upload Speed", Value: up},
				{Type: snapshot.SensorThroughput, Name: "Download Speed", Value: down},
			},
		})
	}
	return nodes, nil
}

func (p *Prober) collectHost() (snapshot.HardwareNode, error) {
	info, err := host.Info()
	if err != nil {
		return snapshot.HardwareNode{}, fmt.Errorf("reading host info: %w", err)
	}

	name := info.Hostname
	if info.Platform != "" {
		name = fmt.Sprintf("%s (%s)", info.Hostname, info.Platform)
	}

	return snapshot.HardwareNode{
		Kind: snapshot.KindMotherboard,
		Name: name,
		Sensors: []snapshot.SensorReading{
			{Type: snapshot.SensorOther, Name: "Uptime", Value: snapshot.Float(float64(info.Uptime))},
			{Type: snapshot.SensorOther, Name: "Process Count", Value: snapshot.Float(float64(info.Procs))},
		},
	}, nil
}

func firstDigits(s string) string {
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			if start < 0 {
				start = i
			}
		} else if start >= 0 {
			return s[start:i]
		}
	}
	if start >= 0 {
		return s[start:]
	}
	return ""
}
