package namespace

import (
	"strings"
	"unicode/utf8"
)

// MaxTitleLength is the maximum number of characters in a folder or file
// title after sanitization.
const MaxTitleLength = 255

// SanitizeTitle strips markup from a user-supplied title and trims
// surrounding whitespace.
//
// Anything between '<' and '>' is removed, including the brackets; an
// unterminated '<' swallows the rest of the string. This intentionally
// mirrors tag-stripping sanitizers: the text content survives, the tags
// do not. Sanitization runs before validation, so a title that is only
// markup comes out empty and is rejected by ValidateTitle.
func SanitizeTitle(title string) string {
	if !strings.ContainsRune(title, '<') {
		return strings.TrimSpace(title)
	}

	var b strings.Builder
	b.Grow(len(title))

	inTag := false
	for _, r := range title {
		switch {
		case inTag:
			if r == '>' {
				inTag = false
			}
		case r == '<':
			inTag = true
		default:
			b.WriteRune(r)
		}
	}

	return strings.TrimSpace(b.String())
}

// ValidateTitle checks a sanitized title against the namespace rules.
//
// Returns ErrInvalidArgument if the title is empty or longer than
// MaxTitleLength characters. Length is counted in runes, not bytes, so a
// 255-character title is valid regardless of encoding width.
func ValidateTitle(title string) error {
	if title == "" {
		return &StoreError{
			Code:    ErrInvalidArgument,
			Message: "title must not be empty",
		}
	}

	if utf8.RuneCountInString(title) > MaxTitleLength {
		return &StoreError{
			Code:    ErrInvalidArgument,
			Message: "title exceeds maximum length",
		}
	}

	return nil
}

// CleanTitle sanitizes and validates a title in one step, returning the
// cleaned value. This is the pipeline every create/rename operation runs
// before touching storage.
func CleanTitle(title string) (string, error) {
	cleaned := SanitizeTitle(title)
	if err := ValidateTitle(cleaned); err != nil {
		return "", err
	}
	return cleaned, nil
}
