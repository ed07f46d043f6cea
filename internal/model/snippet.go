// Package model defines the data structures used throughout the application.
package model

import "time"

// Snippet represents a single stored code/text entry.
//
// Filename doubles as the primary key: it is derived from the creation
// timestamp, so lexicographic order on Filename is chronological order.
// Filename and Timestamp are fixed at creation; only Language and Code
// change on edit. Code is preserved byte-exact, including markup-like
// sequences.
type Snippet struct {
	Filename  string    `json:"filename"`
	Language  string    `json:"language"`
	Code      string    `json:"code"`
	Timestamp time.Time `json:"timestamp"`
}

// DefaultLanguage is assigned when a submission leaves the language blank.
const DefaultLanguage = "plaintext"

// Languages is the fixed set of tags with highlighting semantics.
// Other values are accepted as free text but render as plain text.
var Languages = map[string]bool{
	"plaintext":  true,
	"sql":        true,
	"powershell": true,
	"javascript": true,
	"python":     true,
	"bash":       true,
}

// NormalizeLanguage maps an empty tag to DefaultLanguage and passes any
// other value through unchanged.
func NormalizeLanguage(lang string) string {
	if lang == "" {
		return DefaultLanguage
	}
	return lang
}
