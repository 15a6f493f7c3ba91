package miuinotes

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

const maxTitleLen = 100

// CleanTitle normalizes a recovered title: control and C1 code points and
// the replacement character are dropped, surrounding whitespace is trimmed,
// leading and trailing junk runs are stripped, and the result is capped at
// 100 characters. Cleaning an already-clean title is a no-op.
func CleanTitle(title string) string {
	title = norm.NFC.String(title)

	var b strings.Builder
	b.Grow(len(title))
	for _, r := range title {
		if isControlRune(r) || r == utf8.RuneError {
			continue
		}
		b.WriteRune(r)
	}
	title = strings.TrimSpace(b.String())

	runes := []rune(title)
	start := 0
	for start < len(runes) && !isTitleWordRune(runes[start]) {
		start++
	}
	end := len(runes)
	for end > start && !isTitleTailRune(runes[end-1]) {
		end--
	}
	runes = runes[start:end]

	if len(runes) > maxTitleLen {
		runes = runes[:maxTitleLen]
	}
	return string(runes)
}

// IsRecoverableTitle reports whether a loosely tagged field decodes to
// something worth keeping as a deleted-note title. The shapes excluded here
// are the markup fragments, MIME tokens, and media filenames that share the
// same field tag in the backup.
func IsRecoverableTitle(s string) bool {
	if utf8.RuneCountInString(s) < 2 {
		return false
	}
	hasAlpha := false
	for _, r := range s {
		if unicode.IsLetter(r) {
			hasAlpha = true
			break
		}
	}
	if !hasAlpha {
		return false
	}
	if strings.HasPrefix(s, "<") || strings.HasPrefix(s, "vnd.") {
		return false
	}
	if strings.HasSuffix(s, ".mp3") || strings.HasSuffix(s, ".jpeg") {
		return false
	}
	if s == "true" || s == "false" {
		return false
	}
	return true
}

func isControlRune(r rune) bool {
	return (r >= 0 && r <= 0x1f) || (r >= 0x7f && r <= 0x9f)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isCyrillicRune(r rune) bool {
	return (r >= 'А' && r <= 'я') || r == 'Ё' || r == 'ё'
}

func isTitleWordRune(r rune) bool {
	return isWordRune(r) || isCyrillicRune(r)
}

func isTitleTailRune(r rune) bool {
	switch r {
	case '!', '?', '.', ')':
		return true
	}
	return isTitleWordRune(r)
}
