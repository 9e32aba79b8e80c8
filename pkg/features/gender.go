package features

import "strings"

const (
	GenderFemale = "Female"
	GenderMale   = "Male"

	// DefaultGender is what any unrecognised spelling maps to. This is a
	// permissive policy: malformed input is masked instead of rejected.
	DefaultGender = GenderFemale
)

var genderSpellings = map[string]string{
	"femme":  GenderFemale,
	"female": GenderFemale,
	"f":      GenderFemale,
	"homme":  GenderMale,
	"male":   GenderMale,
	"m":      GenderMale,
	"h":      GenderMale,
}

// NormalizeGender maps the free-text spellings accepted at the serving edge
// onto the canonical training vocabulary.
func NormalizeGender(raw string) string {
	if canonical, ok := genderSpellings[strings.ToLower(strings.TrimSpace(raw))]; ok {
		return canonical
	}
	return DefaultGender
}
