package ngsast

import "encoding/json"

// Tag is a key/value pair attached to apps and findings.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// App identifies one application on the NG SAST tenant.
type App struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Tags []Tag  `json:"tags,omitempty"`
}

// Scan describes the scan a findings page belongs to.
type Scan struct {
	ID         json.Number `json:"id"`
	InternalID string      `json:"internal_id"`
	App        string      `json:"app"`
	Version    string      `json:"version"`
	Language   string      `json:"language"`
}

// StepLocation is the location block of one dataflow step.
type StepLocation struct {
	FileName        string `json:"file_name"`
	LineNumber      int    `json:"line_number"`
	MethodName      string `json:"method_name"`
	ShortMethodName string `json:"short_method_name"`
	ClassName       string `json:"class_name"`
}

// DataflowStep is one hop of a taint trace. VariableInfo is kept raw because
// producers disagree on its shape and casing; it is normalized by the engine.
type DataflowStep struct {
	Location     StepLocation    `json:"location"`
	VariableInfo json.RawMessage `json:"variable_info,omitempty"`
}

// Dataflow wraps the ordered step list of one finding.
type Dataflow struct {
	List []DataflowStep `json:"list"`
}

// Details carries the per-finding analysis results. For old scans this block
// can be empty, in which case everything is re-derived from the dataflow.
type Details struct {
	SourceMethod  string   `json:"source_method"`
	SinkMethod    string   `json:"sink_method"`
	FileLocations []string `json:"file_locations,omitempty"`
	Dataflow      Dataflow `json:"dataflow"`
}

// Finding is one reported vulnerability instance with its taint trace.
type Finding struct {
	ID               string      `json:"id"`
	App              string      `json:"app"`
	Type             string      `json:"type"`
	Category         string      `json:"category"`
	Title            string      `json:"title"`
	Severity         string      `json:"severity"`
	InternalID       string      `json:"internal_id"`
	VersionFirstSeen string      `json:"version_first_seen"`
	ScanFirstSeen    json.Number `json:"scan_first_seen"`
	Details          Details     `json:"details"`
	Tags             []Tag       `json:"tags,omitempty"`
}

// TagValue returns the value of the first tag with the given key, or "".
func (f Finding) TagValue(key string) string {
	for _, tag := range f.Tags {
		if tag.Key == key {
			return tag.Value
		}
	}
	return ""
}

// findingsEnvelope is the wire shape of the findings listing endpoint.
type findingsEnvelope struct {
	Response struct {
		TotalCount int       `json:"total_count"`
		Scan       *Scan     `json:"scan"`
		Findings   []Finding `json:"findings"`
	} `json:"response"`
	NextPage string `json:"next_page"`
}

// appsEnvelope is the wire shape of the apps listing endpoint.
type appsEnvelope struct {
	Response []App  `json:"response"`
	NextPage string `json:"next_page"`
}
