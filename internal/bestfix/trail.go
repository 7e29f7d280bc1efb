package bestfix

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/ngsast/bestfix/internal/ngsast"
)

// trailStoplist holds symbol names that never identify a taint source:
// receivers, framework request/response handles and synthetic parameters.
var trailStoplist = map[string]struct{}{
	"this": {},
	"self": {},
	"req":  {},
	"res":  {},
	"p1":   {},
}

// Trace is the normalized view of one finding's dataflow: the ordered
// tracked-symbol trail, the visited locations and the method inventory the
// decision engine works from.
type Trace struct {
	TrackedSymbols []string
	Locations      []string
	SourceMethod   string
	SinkMethod     string
	Methods        []string
	CheckMethods   []string
}

// NormalizeDataflow walks a finding's ordered dataflow steps and derives the
// taint trail, the location trail and the method lists. checkLabels are the
// lowercase substrings that mark a method as a validation routine. An empty
// or malformed dataflow yields an empty trace; the decision engine treats
// that as "cannot recommend a fix".
func NormalizeDataflow(finding ngsast.Finding, checkLabels []string) Trace {
	trace := Trace{
		SourceMethod: finding.Details.SourceMethod,
		SinkMethod:   finding.Details.SinkMethod,
	}

	checkMethods := make(map[string]struct{})
	steps := finding.Details.Dataflow.List
	for _, step := range steps {
		loc := step.Location
		if !validLocation(loc) {
			continue
		}
		isCSharp := strings.Contains(loc.FileName, ".cs")
		// C# property accessors are noise, not real fix points.
		if isCSharp && (strings.HasPrefix(loc.ShortMethodName, "get_") || strings.HasPrefix(loc.ShortMethodName, "set_")) {
			continue
		}

		if ref := NormalizeVariable(step.VariableInfo); ref.Symbol != "" {
			if keepSymbol(ref.Symbol, isCSharp) && !contains(trace.TrackedSymbols, ref.Symbol) {
				trace.TrackedSymbols = append(trace.TrackedSymbols, ref.Symbol)
			}
		}

		if short := loc.ShortMethodName; short != "" && !strings.Contains(short, "empty") {
			// JavaScript/TypeScript mostly report anonymous lambdas; derive a
			// display name from the fully qualified method instead.
			if strings.Contains(short, "anonymous") {
				short = anonymousDisplayName(loc.MethodName)
			}
			trace.Methods = append(trace.Methods, short)
			lowered := strings.ToLower(short)
			for _, label := range checkLabels {
				if strings.Contains(lowered, label) {
					checkMethods[loc.MethodName] = struct{}{}
					break
				}
			}
		}

		// The source-method fallback keeps the wire form; only the location
		// trail is percent-decoded.
		rawLine := fmt.Sprintf("%s:%d", loc.FileName, loc.LineNumber)
		if trace.SourceMethod == "" {
			trace.SourceMethod = rawLine
		}
		locLine := decodeLocation(rawLine)
		if !contains(trace.Locations, locLine) {
			trace.Locations = append(trace.Locations, locLine)
		}
	}

	if len(steps) > 0 && trace.SinkMethod == "" {
		sink := steps[len(steps)-1].Location
		trace.SinkMethod = fmt.Sprintf("%s:%d", sink.FileName, sink.LineNumber)
	}

	trace.CheckMethods = sortedKeys(checkMethods)
	return trace
}

// validLocation reports whether a step location can serve as a trace point.
func validLocation(loc ngsast.StepLocation) bool {
	return loc.FileName != "" && loc.FileName != "N/A" && loc.LineNumber != 0
}

// keepSymbol applies the trail stoplist. C#-origin DTO members carry
// generated names and are excluded as well.
func keepSymbol(symbol string, isCSharp bool) bool {
	if _, stopped := trailStoplist[symbol]; stopped {
		return false
	}
	if strings.Contains(symbol, "____obj") {
		return false
	}
	if isCSharp && strings.Contains(symbol, "Dto") {
		return false
	}
	return true
}

// anonymousDisplayName strips the anonymous suffix from a fully qualified
// method name and keeps the last namespace/class segment.
func anonymousDisplayName(methodName string) string {
	name := methodName
	if idx := strings.Index(name, ":anonymous"); idx >= 0 {
		name = name[:idx]
	}
	if idx := strings.LastIndex(name, "::"); idx >= 0 {
		name = name[idx+2:]
	}
	if idx := strings.LastIndex(name, ":"); idx >= 0 {
		name = name[idx+1:]
	}
	return name
}

// decodeLocation percent-decodes a file:line string. Some frontends URL-encode
// path segments; an undecodable string is kept as-is.
func decodeLocation(locLine string) string {
	decoded, err := url.PathUnescape(locLine)
	if err != nil {
		return locLine
	}
	return decoded
}

func contains(list []string, value string) bool {
	for _, item := range list {
		if item == value {
			return true
		}
	}
	return false
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for key := range set {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
