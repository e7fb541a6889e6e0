package translate

import (
	"github.com/dkeye/Parley/internal/domain"
	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageName renders a code as an English language name for the prompt,
// e.g. "fr" -> "French". Unknown codes are returned as is.
func LanguageName(l domain.Language) string {
	tag, err := language.Parse(string(l))
	if err != nil {
		return string(l)
	}
	if name := display.English.Tags().Name(tag); name != "" {
		return name
	}
	return string(l)
}
