// Package query resolves slash-delimited client queries against a Snapshot.
// A raw query string is parsed once into a tagged Request, then dispatched;
// no string comparisons happen during resolution.
package query

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"sensorstream/internal/pathname"
	"sensorstream/internal/snapshot"
)

// Op identifies the operation a parsed query requests.
type Op uint8

const (
	OpSnapshot Op = iota // empty query: whole snapshot
	OpComponents         // system/components
	OpCatalog            // system/components/all
	OpNode               // <kind>[/<index>]
	OpNodeName           // <kind>[/<index>]/name
	OpSensorCount        // <kind>[/<index>]/sensorcount
	OpSensors            // <kind>[/<index>]/sensors
	OpSensor             // <kind>[/<index>]/<sensor path>
	OpInvalid
)

// Request is a parsed query. Produced once by Parse; Kind/Index/SensorPath
// are only meaningful for the node-scoped ops.
type Request struct {
	Raw        string
	WrapJSON   bool
	Op         Op
	Kind       snapshot.Kind
	Index      int
	SensorPath []string
}

// ResponseKind classifies a resolution outcome.
type ResponseKind uint8

const (
	Value ResponseKind = iota
	Listing
	ObjectJSON
	Empty    // path exists, no current value
	NotFound // no such path
)

// Response is the outcome of resolving a Request. Empty and NotFound both
// serialize to an empty wire payload; the distinction is internal only.
type Response struct {
	Kind    ResponseKind
	Payload string
}

// Text returns the client-visible payload for the response.
func (r Response) Text() string {
	switch r.Kind {
	case Empty, NotFound:
		return ""
	default:
		return r.Payload
	}
}

// Parse normalizes and tokenizes a raw query into a Request. It never fails;
// unresolvable forms parse to OpInvalid and resolve to NotFound.
func Parse(raw string) Request {
	req := Request{Raw: raw}

	lowered := strings.ToLower(raw)
	var parts []string
	for _, p := range strings.Split(lowered, "/") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}

	// Trailing "json" is a response-wrapping modifier, not a path segment.
	if n := len(parts); n > 0 && parts[n-1] == "json" {
		req.WrapJSON = true
		parts = parts[:n-1]
	}

	if len(parts) == 0 {
		req.Op = OpSnapshot
		return req
	}

	if parts[0] == "system" {
		switch {
		case len(parts) == 2 && parts[1] == "components":
			req.Op = OpComponents
		case len(parts) == 3 && parts[1] == "components" && parts[2] == "all":
			req.Op = OpCatalog
		default:
			req.Op = OpInvalid
		}
		return req
	}

	kind, ok := snapshot.ParseKind(parts[0])
	if !ok {
		req.Op = OpInvalid
		return req
	}
	req.Kind = kind
	parts = parts[1:]

	// An explicit numeric segment selects the Nth node of the kind; without
	// one the first node is implied.
	if len(parts) > 0 {
		if idx, err := strconv.Atoi(parts[0]); err == nil && idx >= 0 {
			req.Index = idx
			parts = parts[1:]
		}
	}

	switch {
	case len(parts) == 0:
		req.Op = OpNode
	case len(parts) == 1 && parts[0] == "name":
		req.Op = OpNodeName
	case len(parts) == 1 && parts[0] == "sensorcount":
		req.Op = OpSensorCount
	case len(parts) == 1 && parts[0] == "sensors":
		req.Op = OpSensors
	default:
		req.Op = OpSensor
		req.SensorPath = parts
	}
	return req
}

// Resolve parses raw and resolves it against snap, applying the /json
// wrapping modifier when requested.
func Resolve(snap *snapshot.Snapshot, raw string) Response {
	req := Parse(raw)
	resp := dispatch(snap, req)
	if req.WrapJSON {
		resp = wrapJSON(req.Raw, resp)
	}
	return resp
}

func dispatch(snap *snapshot.Snapshot, req Request) Response {
	switch req.Op {
	case OpSnapshot:
		return marshalObject(snap.Nodes)
	case OpComponents:
		return resolveComponents(snap)
	case OpCatalog:
		return Response{Kind: Listing, Payload: Catalog(snap)}
	case OpNode, OpNodeName, OpSensorCount, OpSensors, OpSensor:
		return resolveNode(snap, req)
	default:
		return Response{Kind: NotFound}
	}
}

func resolveComponents(snap *snapshot.Snapshot) Response {
	kinds := snap.Kinds()
	tokens := make([]string, len(kinds))
	for i, k := range kinds {
		tokens[i] = k.String()
	}
	return Response{Kind: Value, Payload: strings.Join(tokens, ",")}
}

func resolveNode(snap *snapshot.Snapshot, req Request) Response {
	node, ok := snap.NodeAt(req.Kind, req.Index)
	if !ok {
		return Response{Kind: NotFound}
	}

	switch req.Op {
	case OpNode:
		return marshalObject([]snapshot.HardwareNode{*node})
	case OpNodeName:
		return Response{Kind: Value, Payload: node.Name}
	case OpSensorCount:
		return Response{Kind: Value, Payload: strconv.Itoa(node.SensorCount)}
	case OpSensors:
		return marshalObject(node.Sensors)
	default:
		return resolveSensor(node, req.SensorPath)
	}
}

// resolveSensor matches the remaining path segments against each sensor's
// canonical segment. An exact match wins; failing that, a type-prefix-less
// query falls back to a substring match against the slugged raw name.
func resolveSensor(node *snapshot.HardwareNode, path []string) Response {
	want := pathname.NormalizeQuery(path)

	for i := range node.Sensors {
		s := &node.Sensors[i]
		if pathname.Normalize(node.Kind, s.Type, s.Name) == want {
			return sensorValue(s)
		}
	}

	// Contains fallback, only for queries that omit the sensor-type prefix:
	// match the single segment against the slugged raw names.
	if len(path) == 1 {
		if flat := pathname.Slug(path[0]); flat != "" {
			for i := range node.Sensors {
				s := &node.Sensors[i]
				if strings.Contains(pathname.Slug(s.Name), flat) {
					return sensorValue(s)
				}
			}
		}
	}

	return Response{Kind: NotFound}
}

func sensorValue(s *snapshot.SensorReading) Response {
	if s.Value == nil {
		return Response{Kind: Empty}
	}
	return Response{Kind: Value, Payload: FormatValue(*s.Value)}
}

// FormatValue renders a sensor value for the wire: two decimal places, or
// grouped integer form above one million (byte counters and clock sums).
func FormatValue(v float64) string {
	if v > 1_000_000 {
		return groupThousands(strconv.FormatFloat(math.Round(v), 'f', 0, 64))
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

func groupThousands(digits string) string {
	neg := strings.HasPrefix(digits, "-")
	if neg {
		digits = digits[1:]
	}
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func marshalObject(v any) Response {
	data, err := json.Marshal(v)
	if err != nil {
		return Response{Kind: Value, Payload: "Error processing data: " + err.Error()}
	}
	return Response{Kind: ObjectJSON, Payload: string(data)}
}

// wrapJSON envelopes a response as {"command": <raw>, "result": <payload>}.
// Structured payloads embed as JSON, scalars as strings, absent results as
// the empty string.
func wrapJSON(raw string, resp Response) Response {
	var result any
	switch resp.Kind {
	case ObjectJSON:
		result = json.RawMessage(resp.Payload)
	default:
		result = resp.Text()
	}

	data, err := json.Marshal(map[string]any{
		"command": raw,
		"result":  result,
	})
	if err != nil {
		return Response{Kind: Value, Payload: "Error processing data: " + err.Error()}
	}
	return Response{Kind: ObjectJSON, Payload: string(data)}
}
