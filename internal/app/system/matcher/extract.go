// internal/app/system/matcher/extract.go
package matcher

import (
	"regexp"
	"strings"
)

// Entities are the search candidates derived from one question.
type Entities struct {
	// Names are one- or two-word capitalized sequences, in order of appearance.
	Names []string
	// Designation is the first known designation keyword, lowercased, or "".
	Designation string
	// Lower is the whole question lowercased.
	Lower string
	// Trimmed is the question with surrounding whitespace removed.
	Trimmed string
}

// Extractor turns free text into search candidates.
type Extractor interface {
	Extract(question string) Entities
}

var (
	namePattern        = regexp.MustCompile(`[A-Z][a-z]+ [A-Z][a-z]+|[A-Z][a-z]+`)
	designationPattern = regexp.MustCompile(`(?i)(director|engineer|assistant|deputy|chief|member|chairman)`)
)

// RegexExtractor is the heuristic extractor: capitalized words are treated as
// name fragments and a fixed vocabulary supplies the designation.
type RegexExtractor struct{}

// Extract implements Extractor.
func (RegexExtractor) Extract(question string) Entities {
	ent := Entities{
		Names:   namePattern.FindAllString(question, -1),
		Lower:   strings.ToLower(question),
		Trimmed: strings.TrimSpace(question),
	}
	if m := designationPattern.FindStringSubmatch(question); m != nil {
		ent.Designation = strings.ToLower(m[1])
	}
	return ent
}
