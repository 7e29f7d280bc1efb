package bestfix

import "strings"

// highlightStoplist holds symbols that are never worth pointing at in a
// snippet even when they textually occur in it.
var highlightStoplist = map[string]struct{}{
	"this": {},
	"self": {},
	"req":  {},
	"res":  {},
	"p1":   {},
}

// DetectSymbol returns the first symbol, in trail order, that occurs in the
// given text and is eligible for highlighting. Compiler-generated symbols
// containing "$" are skipped. Returns "" when nothing matches.
func DetectSymbol(text string, symbols []string) string {
	if text == "" {
		return ""
	}
	for _, symbol := range symbols {
		if symbol == "" || strings.Contains(symbol, "$") {
			continue
		}
		if _, stopped := highlightStoplist[symbol]; stopped {
			continue
		}
		if strings.Contains(text, symbol) {
			return symbol
		}
	}
	return ""
}

// SpaceSymbol returns the line with spacing inserted around the symbol
// wherever it sits flush against a parenthesis or comma, so the token stands
// out visually. The input is never mutated; a line that does not contain the
// symbol is returned unchanged.
func SpaceSymbol(line, symbol string) string {
	if symbol == "" || !strings.Contains(line, symbol) {
		return line
	}
	line = strings.ReplaceAll(line, "("+symbol, "( "+symbol+" ")
	line = strings.ReplaceAll(line, symbol+")", " "+symbol+" )")
	line = strings.ReplaceAll(line, ","+symbol, ", "+symbol+" ")
	line = strings.ReplaceAll(line, symbol+",", " "+symbol+" ,")
	return line
}
