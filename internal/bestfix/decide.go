package bestfix

import (
	"fmt"
	"strconv"
	"strings"
)

// DecisionInput is everything the rule cascade needs for one finding.
type DecisionInput struct {
	Category       string
	SourceMethod   string
	SinkMethod     string
	SnippetSymbol  string
	TrackedSymbols []string
	Methods        []string
	CheckMethods   []string
	FirstLocation  string
	LastLocation   string
	// AnchorGap is the line distance beyond which a same-file trace still
	// gets an "After line" anchor pointing at the source.
	AnchorGap int
}

// Decision is the engine's structured fix recommendation.
type Decision struct {
	BestFix          string
	VariableDetected string
}

// fixRule is one predicate/action pair of the cascade. The first rule whose
// applies returns true produces the recommendation.
type fixRule struct {
	name    string
	applies func(DecisionInput) bool
	apply   func(DecisionInput) Decision
}

var fixRules = []fixRule{
	{
		name: "same-source-and-sink",
		applies: func(in DecisionInput) bool {
			// Without a location trail there is nothing to anchor the fix
			// block to; such findings take the generic fallback.
			return in.LastLocation != "" && in.SourceMethod != "" && in.SourceMethod == in.SinkMethod
		},
		apply: suppressSinkFix,
	},
	{
		name: "snippet-symbol",
		applies: func(in DecisionInput) bool {
			return in.SnippetSymbol != ""
		},
		apply: snippetSymbolFix,
	},
	{
		name: "taint-trail",
		applies: func(in DecisionInput) bool {
			return len(in.TrackedSymbols) > 0
		},
		apply: taintTrailFix,
	},
	{
		name:    "generic",
		applies: func(DecisionInput) bool { return true },
		apply:   genericFix,
	},
}

// Decide runs the rule cascade, first match wins, and appends the detected
// check methods regardless of which rule fired: known validators are worth
// surfacing even when a fix location was already found.
func Decide(in DecisionInput) Decision {
	var decision Decision
	for _, rule := range fixRules {
		if rule.applies(in) {
			decision = rule.apply(in)
			break
		}
	}

	if len(in.CheckMethods) > 0 {
		decision.BestFix += fmt.Sprintf(
			"\n**Remediation suggestions:**\n\nInclude these detected CHECK methods in your remediation config to suppress this finding.\n\n- %s\n",
			strings.Join(in.CheckMethods, "\n- "),
		)
	}
	return decision
}

// suppressSinkFix handles traces whose source and sink are the same method:
// most likely a best-practice finding or a false positive.
func suppressSinkFix(in DecisionInput) Decision {
	return Decision{
		BestFix: fmt.Sprintf(
			"This is likely a best practice finding or a false positive.\n\n**Fix locations:**\n\n%s\n\n**Remediation suggestions:**\n\nSpecify the sink method in your remediation config to suppress this finding.\n\n- %s\n\n",
			locationSuggestion(in),
			in.SinkMethod,
		),
	}
}

// snippetSymbolFix recommends validating the exact symbol spotted in the sink
// snippet.
func snippetSymbolFix(in DecisionInput) Decision {
	variable := in.SnippetSymbol
	return Decision{
		BestFix: fmt.Sprintf(
			"**Taint:** Parameter `%s` in the method `%s`\n\n%s\nValidate or Sanitize the parameter `%s` before invoking the sink `%s`\n\n**Fix locations:**\n\n%s\n",
			variable,
			lastMethod(in.Methods),
			CategorySuggestion(in.Category, variable),
			variable,
			in.SinkMethod,
			locationSuggestion(in),
		),
		VariableDetected: variable,
	}
}

// taintTrailFix falls back to the tracked-symbol trail when the snippet
// detector found nothing. Long trails are summarized to their first,
// second-to-last and last entries with plural wording.
func taintTrailFix(in DecisionInput) Decision {
	trail := in.TrackedSymbols
	variable := trail[len(trail)-1]
	noun := "Parameter"
	if len(trail) > 4 {
		variable = fmt.Sprintf("%s, %s and %s", trail[0], trail[len(trail)-2], trail[len(trail)-1])
		noun = "Variables"
	}
	return Decision{
		BestFix: fmt.Sprintf(
			"**Taint:** %s `%s` in the method `%s`\n\n%s\nValidate or Sanitize the %s `%s` before invoking the sink `%s`\n\n**Fix locations:**\n\n%s\n",
			noun,
			variable,
			lastMethod(in.Methods),
			CategorySuggestion(in.Category, variable),
			noun,
			variable,
			in.SinkMethod,
			locationSuggestion(in),
		),
		VariableDetected: variable,
	}
}

// genericFix is the terminal rule for findings with nothing to reason from.
func genericFix(in DecisionInput) Decision {
	return Decision{
		BestFix: fmt.Sprintf(
			"This is likely a best practice finding.\n\n**Remediation suggestions:**\n\nSpecify the sink method in your remediation config to suppress this finding.\n\n- %s\n\n",
			in.SinkMethod,
		),
	}
}

// locationSuggestion renders the fix-location block: the sink line always,
// plus a source-side anchor when source and sink are in different files or
// further apart than the anchor gap. A same-file, tight trace makes the fix
// point obvious and needs no second anchor.
func locationSuggestion(in DecisionInput) string {
	lastFile, lastLine := SplitLocation(in.LastLocation)
	suggestion := fmt.Sprintf("- Before or at line %d in %s", lastLine, lastFile)

	firstFile, firstLine := SplitLocation(in.FirstLocation)
	if firstFile == "" {
		return suggestion
	}
	if firstFile != lastFile || lastLine-firstLine > in.AnchorGap {
		suggestion += fmt.Sprintf("\n- After line %d in %s", firstLine, firstFile)
	}
	return suggestion
}

// SplitLocation splits a "file:line" string into its parts. Windows paths
// keep their drive colon; only the last colon separates the line number.
func SplitLocation(location string) (string, int) {
	if location == "" {
		return "", 0
	}
	idx := strings.LastIndex(location, ":")
	if idx < 0 {
		return location, 0
	}
	line, err := strconv.Atoi(location[idx+1:])
	if err != nil {
		return location, 0
	}
	return location[:idx], line
}

func lastMethod(methods []string) string {
	if len(methods) == 0 {
		return ""
	}
	return methods[len(methods)-1]
}
