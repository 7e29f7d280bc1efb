package bestfix

import "fmt"

// CategorySuggestion returns the remediation-pattern sentence for a
// vulnerability category, parameterized by the detected variable. Categories
// without an entry yield an empty string: not every category has a generic
// textual fix.
func CategorySuggestion(category, variableDetected string) string {
	switch category {
	case "Remote Code Execution":
		return fmt.Sprintf("Use an allowlist for approved commands and compare `%s` and the arguments against this list.", variableDetected)
	case "SQL Injection":
		return "Use any alternative SQL method with builtin parameterization capability."
	case "NoSQL Injection":
		return "Use any alternative SDK method with builtin parameterization capability."
	case "Directory Traversal":
		return fmt.Sprintf("Use an allowlist of safe file locations and compare `%s` against this list.", variableDetected)
	case "Deserialization":
		return "Follow security best practices to configure and use the deserialization library in a safe manner."
	case "SSRF":
		return fmt.Sprintf("Use an allowlist of approved URL domains or service IP addresses and compare `%s` against this list.", variableDetected)
	case "XML External Entities":
		return "Follow security best practices to configure and use the XML library in a safe manner."
	}
	return ""
}
