package bestfix

import "sort"

// Cohorts groups finding ids by (category, location) signatures. Three keyed
// views are maintained: flow start, flow end and the combined start|end pair.
// A cohort is interesting only when it collects more than one finding: that
// flags a systemic issue rather than a one-off.
type Cohorts struct {
	source     map[string]map[string][]string
	sink       map[string]map[string][]string
	sourceSink map[string]map[string][]string
}

// CohortRow is one reported cluster of findings sharing a flow signature.
type CohortRow struct {
	Category   string
	FlowStart  string
	FlowEnd    string
	FindingIDs []string
}

// NewCohorts returns an empty cohort accumulator. It must only be used from
// one goroutine; parallel workers keep their own and merge after the barrier.
func NewCohorts() *Cohorts {
	return &Cohorts{
		source:     make(map[string]map[string][]string),
		sink:       make(map[string]map[string][]string),
		sourceSink: make(map[string]map[string][]string),
	}
}

// Add records a finding under its category/first-location, category/last-
// location and category/pair keys.
func (c *Cohorts) Add(category, firstLocation, lastLocation, findingID string) {
	appendKey(c.source, category, firstLocation, findingID)
	appendKey(c.sink, category, lastLocation, findingID)
	appendKey(c.sourceSink, category, firstLocation+"|"+lastLocation, findingID)
}

// Merge folds another accumulator into this one, preserving insertion order
// of the other's id lists.
func (c *Cohorts) Merge(other *Cohorts) {
	if other == nil {
		return
	}
	mergeKeyed(c.source, other.source)
	mergeKeyed(c.sink, other.sink)
	mergeKeyed(c.sourceSink, other.sourceSink)
}

// Rows returns the combined-cohort clusters with more than one finding, in a
// deterministic category/signature order.
func (c *Cohorts) Rows() []CohortRow {
	var rows []CohortRow
	for _, category := range sortedMapKeys(c.sourceSink) {
		pairs := c.sourceSink[category]
		for _, pair := range sortedMapKeys2(pairs) {
			ids := pairs[pair]
			if len(ids) <= 1 {
				continue
			}
			start, end := splitPair(pair)
			rows = append(rows, CohortRow{
				Category:   category,
				FlowStart:  start,
				FlowEnd:    end,
				FindingIDs: ids,
			})
		}
	}
	return rows
}

func splitPair(pair string) (string, string) {
	for i := 0; i < len(pair); i++ {
		if pair[i] == '|' {
			return pair[:i], pair[i+1:]
		}
	}
	return pair, ""
}

func appendKey(m map[string]map[string][]string, category, key, id string) {
	if m[category] == nil {
		m[category] = make(map[string][]string)
	}
	m[category][key] = append(m[category][key], id)
}

func mergeKeyed(dst, src map[string]map[string][]string) {
	for category, keys := range src {
		for key, ids := range keys {
			for _, id := range ids {
				appendKey(dst, category, key, id)
			}
		}
	}
}

func sortedMapKeys(m map[string]map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func sortedMapKeys2(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
