package facematch

import (
	"strings"
	"unicode"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/kozaktomas/face-gallery/internal/database"
)

// RemoveDiacritics removes diacritical marks from Latin letters
// (e.g., "Jiří" -> "Jiri"). Marks on other scripts are kept, since dropping
// them changes the word.
func RemoveDiacritics(s string) string {
	var b strings.Builder
	latin := false
	for _, r := range norm.NFD.String(s) {
		if unicode.Is(unicode.Mn, r) {
			if latin {
				continue
			}
		} else {
			latin = unicode.Is(unicode.Latin, r)
		}
		b.WriteRune(r)
	}
	return norm.NFC.String(b.String())
}

// SanitizeLabel folds s into a filesystem-safe label. Letters and digits of
// any script are kept, as are '.', '_' and '-'; everything else (spaces,
// path separators, control characters, symbols) becomes '_'. Leading dots
// become '_' so a label never names a hidden file or a parent directory.
func SanitizeLabel(s string) string {
	s = RemoveDiacritics(strings.TrimSpace(s))

	var b strings.Builder
	afterBase := false
	leading := true
	for _, r := range s {
		switch {
		case r == '.' && leading:
			r = '_'
			afterBase = false
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			afterBase = true
		case unicode.IsMark(r) && afterBase:
		case r == '.' || r == '_' || r == '-':
			afterBase = false
		default:
			// Invalid UTF-8 decodes to RuneError and lands here too.
			r = '_'
			afterBase = false
		}
		if r != '_' {
			leading = false
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ResolveLabel derives the storage label for an enrollment: name, or
// name-document when a document is given. An empty name is replaced by a
// random UUID. The folded label must still pass database.ValidateLabel,
// which bounds its length.
func ResolveLabel(name, document string) (string, error) {
	name = strings.TrimSpace(name)
	document = strings.TrimSpace(document)
	if name == "" {
		name = uuid.NewString()
	}

	label := name
	if document != "" {
		label = name + "-" + document
	}

	label = SanitizeLabel(label)
	if err := database.ValidateLabel(label); err != nil {
		return "", err
	}
	return label, nil
}
