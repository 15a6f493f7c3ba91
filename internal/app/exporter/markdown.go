package exporter

import (
	"html"
	"regexp"
	"strings"

	"github.com/putnikproj/xiaomi-notes-to-markdown/internal/domain/miuinotes"
)

var (
	formatMarkerRe = regexp.MustCompile(`<new-format\s*/?\s*>`)
	soundTagRe     = regexp.MustCompile(`<sound\s+fileid="([^"]+)"\s*/?>`)
	imageRefRe     = regexp.MustCompile(`[\x01☺]\s*([a-f0-9]{40})`)
	checkboxRe     = regexp.MustCompile(`<input\s+type="checkbox"[^/]*/>\s*([^\n<]+)`)
	bulletRe       = regexp.MustCompile(`<bullet\s+indent="\d+"[^/]*/>\s*([^\n<]+)`)
	orderRe        = regexp.MustCompile(`<order\s+indent="\d+"[^/]*/>\s*([^\n<]+)`)
	hrRe           = regexp.MustCompile(`<hr\s*/?\s*>`)
	quoteRe        = regexp.MustCompile(`(?s)<quote>(.+?)</quote>`)
	quoteLineRe    = regexp.MustCompile(`<text[^>]*>([^<]*(?:<[^>]+>[^<]*</[^>]+>)?[^<]*)</text>`)
	textTagRe      = regexp.MustCompile(`<text[^>]*>([^<]*(?:<[^/][^>]*>[^<]*</[^>]+>)*[^<]*)</text>`)

	sizeRe      = regexp.MustCompile(`<size>([^<]+)</size>`)
	midSizeRe   = regexp.MustCompile(`<mid-size>([^<]+)</mid-size>`)
	h3SizeRe    = regexp.MustCompile(`<h3-size>([^<]+)</h3-size>`)
	boldRe      = regexp.MustCompile(`<b>([^<]+)</b>`)
	italicRe    = regexp.MustCompile(`<i>([^<]+)</i>`)
	underlineRe = regexp.MustCompile(`<u>([^<]+)</u>`)
	strikeRe    = regexp.MustCompile(`<delete>([^<]+)</delete>`)
	highlightRe = regexp.MustCompile(`<background[^>]*>([^<]+)</background>`)
	centerRe    = regexp.MustCompile(`<center>([^<]+)</center>`)
	rightRe     = regexp.MustCompile(`<right>([^<]+)</right>`)

	anyTagRe       = regexp.MustCompile(`<[^>]+>`)
	controlCharsRe = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f\x7f-\x9f]`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// Translator rewrites recovered note markup into Markdown. It is a pure
// text transform: the passes run in a fixed order because later patterns
// assume earlier tags are already resolved.
type Translator struct {
	refs miuinotes.RefMap
}

func NewTranslator(refs miuinotes.RefMap) *Translator {
	if refs == nil {
		refs = miuinotes.RefMap{}
	}
	return &Translator{refs: refs}
}

func (t *Translator) ToMarkdown(content string) string {
	if content == "" {
		return ""
	}
	for _, pass := range []func(string) string{
		dropFormatMarker,
		t.rewriteAudio,
		t.rewriteImages,
		rewriteCheckboxes,
		rewriteBullets,
		rewriteOrdered,
		rewriteRules,
		rewriteQuotes,
		rewriteTextBlocks,
		stripTags,
		stripStrayAngles,
		stripControlChars,
		collapseNewlines,
		html.UnescapeString,
	} {
		content = pass(content)
	}
	return strings.TrimSpace(content)
}

func dropFormatMarker(s string) string {
	return formatMarkerRe.ReplaceAllString(s, "")
}

func (t *Translator) rewriteAudio(s string) string {
	return replaceSubmatch(soundTagRe, s, func(g []string) string {
		id := g[1]
		if path, ok := t.refs[id]; ok {
			return "[Audio](" + path + ")"
		}
		return "[Audio: " + id + "]"
	})
}

func (t *Translator) rewriteImages(s string) string {
	return replaceSubmatch(imageRefRe, s, func(g []string) string {
		id := g[1]
		if path, ok := t.refs[id]; ok {
			return "![Image](" + path + ")"
		}
		return "[Image: " + id + "]"
	})
}

func rewriteCheckboxes(s string) string {
	return checkboxRe.ReplaceAllString(s, "- [ ] ${1}\n")
}

func rewriteBullets(s string) string {
	return replaceSubmatch(bulletRe, s, func(g []string) string {
		return "- " + strings.TrimSpace(g[1]) + "\n"
	})
}

func rewriteOrdered(s string) string {
	// Always a literal "1." marker; markdown renderers renumber.
	return replaceSubmatch(orderRe, s, func(g []string) string {
		return "1. " + strings.TrimSpace(g[1]) + "\n"
	})
}

func rewriteRules(s string) string {
	return hrRe.ReplaceAllString(s, "\n---\n")
}

func rewriteQuotes(s string) string {
	return replaceSubmatch(quoteRe, s, func(g []string) string {
		inner := g[1]
		lines := quoteLineRe.FindAllStringSubmatch(inner, -1)
		if len(lines) == 0 {
			return "> " + strings.TrimSpace(anyTagRe.ReplaceAllString(inner, ""))
		}
		out := make([]string, 0, len(lines))
		for _, l := range lines {
			line := l[1]
			line = centerRe.ReplaceAllString(line, "${1}")
			line = rightRe.ReplaceAllString(line, "${1}")
			line = anyTagRe.ReplaceAllString(line, "")
			out = append(out, "> "+strings.TrimSpace(line))
		}
		return "\n" + strings.Join(out, "\n") + "\n"
	})
}

func rewriteTextBlocks(s string) string {
	return replaceSubmatch(textTagRe, s, func(g []string) string {
		inner := g[1]

		inner = sizeRe.ReplaceAllString(inner, "# ${1}")
		inner = midSizeRe.ReplaceAllString(inner, "## ${1}")
		inner = h3SizeRe.ReplaceAllString(inner, "### ${1}")

		inner = boldRe.ReplaceAllString(inner, "**${1}**")
		inner = italicRe.ReplaceAllString(inner, "*${1}*")
		inner = underlineRe.ReplaceAllString(inner, "_${1}_")
		inner = strikeRe.ReplaceAllString(inner, "~~${1}~~")
		inner = highlightRe.ReplaceAllString(inner, "==${1}==")

		inner = centerRe.ReplaceAllString(inner, "${1}")
		inner = rightRe.ReplaceAllString(inner, "${1}")

		return inner + "\n"
	})
}

func stripTags(s string) string {
	return anyTagRe.ReplaceAllString(s, "")
}

// stripStrayAngles removes angle brackets left over from mangled tags. A
// "<" survives only when it opens a tag-like token; a ">" survives at
// start of text, after a newline or quote character (possible blockquote
// marker), or after a letter (plain prose).
func stripStrayAngles(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '<':
			if i+1 < len(s) && (isASCIILetter(s[i+1]) || s[i+1] == '/') {
				b.WriteByte(c)
			}
		case '>':
			if i == 0 {
				b.WriteByte(c)
				continue
			}
			if p := s[i-1]; p == '\n' || p == '\r' || p == '"' || p == '\'' || isASCIILetter(p) {
				b.WriteByte(c)
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

func stripControlChars(s string) string {
	s = controlCharsRe.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, "�", "")
}

func collapseNewlines(s string) string {
	return multiNewlineRe.ReplaceAllString(s, "\n\n")
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func replaceSubmatch(re *regexp.Regexp, s string, repl func(groups []string) string) string {
	return re.ReplaceAllStringFunc(s, func(m string) string {
		return repl(re.FindStringSubmatch(m))
	})
}
