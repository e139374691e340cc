package llm

import _ "embed"

//go:embed prompts/cv_parse.txt
var promptCVParse string

// Instructions returns the system prompt for an operation and whether the
// operation is known.
func Instructions(operation string) (string, bool) {
	switch operation {
	case OperationCVParse:
		return promptCVParse, true
	default:
		return "", false
	}
}
