package miuibak

import (
	"strings"
	"unicode/utf8"
)

var openingTags = []string{
	"<new-format",
	"<text",
	"<bullet",
	"<order",
	"<input",
	"<hr",
	"<quote",
	"<sound",
}

// closingSeqs are tried in order at each offset when hunting for the
// record separator; the longer explicit closers win over the generic "/>".
var closingSeqs = []string{"</quote>", "</text>", "/>"}

const (
	mimeMarker    = "vnd.android"
	minMimeOffset = 10
)

// ContentBlock isolates the markup substring of a decoded note segment,
// cutting away the binary and MIME noise that trails it. Empty result means
// the segment carried no recognizable markup.
func ContentBlock(text string) string {
	start := firstOpeningTag(text)
	if start == notFound {
		return ""
	}
	block := text[start:]

	// The markup is terminated by a closing sequence, a 'J' field separator
	// and one high byte. The separator and high byte are not content.
	if end := findRecordSeparator(block); end != notFound {
		return block[:end]
	}

	// Fallback: cut at the MIME-type literal, then re-extend to the last
	// complete closing tag so a partially swallowed tag is recovered.
	mime := strings.Index(block, mimeMarker)
	if mime == notFound || mime <= minMimeOffset {
		return block
	}
	block = block[:mime]

	lastClose := notFound
	for _, seq := range []string{"</quote>", "</text>", "<hr />", "/>"} {
		if idx := strings.LastIndex(block, seq); idx > lastClose {
			lastClose = idx
		}
	}
	if lastClose > 0 {
		if closePos := strings.Index(block[lastClose:], ">"); closePos != notFound {
			closePos += lastClose
			if closePos > 0 {
				block = block[:closePos+1]
			}
		}
	}
	return block
}

func firstOpeningTag(text string) int {
	first := notFound
	for _, tag := range openingTags {
		idx := strings.Index(text, tag)
		if idx != notFound && (first == notFound || idx < first) {
			first = idx
		}
	}
	return first
}

// findRecordSeparator returns the offset just past the closing sequence of
// the first "closer + 'J' + high code point" occurrence, or notFound.
func findRecordSeparator(block string) int {
	for i := 0; i < len(block); i++ {
		for _, seq := range closingSeqs {
			if !strings.HasPrefix(block[i:], seq) {
				continue
			}
			rest := block[i+len(seq):]
			if len(rest) < 2 || rest[0] != 'J' {
				continue
			}
			if r, _ := utf8.DecodeRuneInString(rest[1:]); r >= 0x80 && r <= 0xff {
				return i + len(seq)
			}
		}
	}
	return notFound
}
