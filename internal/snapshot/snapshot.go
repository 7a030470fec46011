// Package snapshot defines the immutable hardware telemetry tree captured on
// each sampling tick: Snapshot → HardwareNode → SensorReading.
package snapshot

import (
	"encoding/json"
	"strings"
)

// Kind is the coarse hardware category of a node. GPU vendor variants
// (nvidia/amd/intel) collapse to the single GPU kind at parse time.
type Kind uint8

const (
	KindCPU Kind = iota
	KindGPU
	KindMemory
	KindStorage
	KindNetwork
	KindMotherboard
	KindController
	KindOther
)

var kindTokens = map[Kind]string{
	KindCPU:         "cpu",
	KindGPU:         "gpu",
	KindMemory:      "memory",
	KindStorage:     "storage",
	KindNetwork:     "network",
	KindMotherboard: "motherboard",
	KindController:  "controller",
	KindOther:       "other",
}

// String returns the lower-case path token for the kind.
func (k Kind) String() string {
	if tok, ok := kindTokens[k]; ok {
		return tok
	}
	return "other"
}

// MarshalJSON encodes the kind as its path token.
func (k Kind) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.String())
}

// UnmarshalJSON decodes a kind token, collapsing unknown values to Other.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, ok := ParseKind(s)
	if !ok {
		parsed = KindOther
	}
	*k = parsed
	return nil
}

// ParseKind maps a raw category token to a Kind. Vendor-qualified GPU tokens
// ("gpunvidia", "gpuamd", "gpuintel") all match KindGPU.
func ParseKind(s string) (Kind, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if strings.Contains(s, "gpu") {
		return KindGPU, true
	}
	for k, tok := range kindTokens {
		if s == tok {
			return k, true
		}
	}
	return KindOther, false
}

// SensorType is the measurement category of a single reading.
type SensorType uint8

const (
	SensorLoad SensorType = iota
	SensorTemperature
	SensorClock
	SensorVoltage
	SensorPower
	SensorFan
	SensorFactor
	SensorCurrent
	SensorThroughput
	SensorData
	SensorOther
)

var sensorTokens = map[SensorType]string{
	SensorLoad:        "load",
	SensorTemperature: "temperature",
	SensorClock:       "clock",
	SensorVoltage:     "voltage",
	SensorPower:       "power",
	SensorFan:         "fan",
	SensorFactor:      "factor",
	SensorCurrent:     "current",
	SensorThroughput:  "throughput",
	SensorData:        "data",
	SensorOther:       "other",
}

// String returns the lower-case path token for the sensor type.
func (t SensorType) String() string {
	if tok, ok := sensorTokens[t]; ok {
		return tok
	}
	return "other"
}

// MarshalJSON encodes the sensor type as its path token.
func (t SensorType) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

// UnmarshalJSON decodes a sensor type token, collapsing unknown values to Other.
func (t *SensorType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	s = strings.ToLower(strings.TrimSpace(s))
	for st, tok := range sensorTokens {
		if s == tok {
			*t = st
			return nil
		}
	}
	*t = SensorOther
	return nil
}

// SensorReading is one measurement. A nil Value means the sensor exists but
// has no current reading; it serializes as JSON null and resolves to an
// empty response, never an error.
type SensorReading struct {
	Type  SensorType `json:"type"`
	Name  string     `json:"name"`
	Value *float64   `json:"value"`
}

// HardwareNode is one physical or logical component with its readings.
type HardwareNode struct {
	Kind        Kind            `json:"type"`
	Name        string          `json:"name"`
	SensorCount int             `json:"sensorCount"`
	Sensors     []SensorReading `json:"sensors"`
}

// Snapshot is the full tree captured at one sampling instant. It is
// immutable once constructed; a refresh produces a whole new Snapshot.
type Snapshot struct {
	Nodes []HardwareNode
}

// New builds a Snapshot from nodes, deriving each node's SensorCount.
func New(nodes []HardwareNode) *Snapshot {
	for i := range nodes {
		nodes[i].SensorCount = len(nodes[i].Sensors)
	}
	return &Snapshot{Nodes: nodes}
}

// Kinds returns the distinct kinds present, in order of first appearance.
func (s *Snapshot) Kinds() []Kind {
	seen := make(map[Kind]bool)
	var kinds []Kind
	for _, n := range s.Nodes {
		if !seen[n.Kind] {
			seen[n.Kind] = true
			kinds = append(kinds, n.Kind)
		}
	}
	return kinds
}

// NodesOfKind returns all nodes of the given kind in insertion order.
func (s *Snapshot) NodesOfKind(k Kind) []HardwareNode {
	var nodes []HardwareNode
	for _, n := range s.Nodes {
		if n.Kind == k {
			nodes = append(nodes, n)
		}
	}
	return nodes
}

// NodeAt returns the idx-th node of the given kind, counting per kind in
// insertion order. The index is zero-based and stable for the lifetime of
// the Snapshot.
func (s *Snapshot) NodeAt(k Kind, idx int) (*HardwareNode, bool) {
	seen := 0
	for i := range s.Nodes {
		if s.Nodes[i].Kind != k {
			continue
		}
		if seen == idx {
			return &s.Nodes[i], true
		}
		seen++
	}
	return nil, false
}

// Float returns a pointer to v, for building sensor values inline.
func Float(v float64) *float64 {
	return &v
}
