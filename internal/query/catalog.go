package query

import (
	"sort"
	"strconv"
	"strings"

	"sensorstream/internal/pathname"
	"sensorstream/internal/snapshot"
)

// categoryOrder is the fixed rendering priority for sensor categories in the
// discovery catalogue. Clients rely on this order being stable.
var categoryOrder = []snapshot.SensorType{
	snapshot.SensorLoad,
	snapshot.SensorTemperature,
	snapshot.SensorClock,
	snapshot.SensorPower,
	snapshot.SensorVoltage,
	snapshot.SensorFan,
	snapshot.SensorThroughput,
	snapshot.SensorData,
	snapshot.SensorFactor,
	snapshot.SensorCurrent,
	snapshot.SensorOther,
}

type catalogEntry struct {
	segment string
	value   *float64
	order   int // position within the node's sensor sequence
}

// Catalog renders the full discovery listing (system/components/all): every
// valid query path in the snapshot, paired with its current value. Output is
// deterministic — identical snapshot content yields byte-identical text.
func Catalog(snap *snapshot.Snapshot) string {
	var lines []string
	counters := make(map[snapshot.Kind]int)

	for _, node := range snap.Nodes {
		idx := counters[node.Kind]
		counters[node.Kind]++
		base := node.Kind.String() + "/" + strconv.Itoa(idx)

		lines = append(lines,
			base+" = Lists all "+node.Kind.String()+" data",
			base+"/name = "+node.Name,
			base+"/sensorcount = "+strconv.Itoa(node.SensorCount),
		)

		grouped := groupSensors(&node)
		for _, cat := range categoryOrder {
			entries := grouped[cat]
			if len(entries) == 0 {
				continue
			}
			sortEntries(entries)
			for _, e := range entries {
				value := ""
				if e.value != nil {
					value = FormatValue(*e.value)
				}
				lines = append(lines, base+"/"+e.segment+" = "+value)
			}
			lines = append(lines, "")
		}
		lines = append(lines, "")
	}

	return strings.Join(lines, "\n")
}

// groupSensors buckets a node's sensors by category under their canonical
// segments. Colliding segments merge: the first sensor in order keeps the
// path, later ones are dropped from enumeration.
func groupSensors(node *snapshot.HardwareNode) map[snapshot.SensorType][]*catalogEntry {
	grouped := make(map[snapshot.SensorType][]*catalogEntry)
	seen := make(map[string]bool)

	for i := range node.Sensors {
		s := &node.Sensors[i]
		segment := pathname.Normalize(node.Kind, s.Type, s.Name)
		if seen[segment] {
			continue
		}
		seen[segment] = true
		grouped[s.Type] = append(grouped[s.Type], &catalogEntry{
			segment: segment,
			value:   s.Value,
			order:   i,
		})
	}
	return grouped
}

// sortEntries orders a category by digit-stripped segment, then by the first
// embedded number, so core2 renders before core10.
func sortEntries(entries []*catalogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		si := pathname.StripDigits(entries[i].segment)
		sj := pathname.StripDigits(entries[j].segment)
		if si != sj {
			return si < sj
		}
		ni := pathname.FirstNumber(entries[i].segment)
		nj := pathname.FirstNumber(entries[j].segment)
		if ni != nj {
			return ni < nj
		}
		return entries[i].order < entries[j].order
	})
}
