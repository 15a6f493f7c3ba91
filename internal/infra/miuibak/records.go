package miuibak

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/putnikproj/xiaomi-notes-to-markdown/internal/domain/miuinotes"
)

var (
	sectionStartMarker = []byte("miui_bak/_tmp_bak")
	sectionEndMarkers  = [][]byte{
		[]byte("miui_att/"),
		[]byte("apps/com.miui.notes/miui_att"),
	}
)

// minSectionEnd guards against the short end-marker string showing up as
// noise near the section start; real boundaries sit well past it.
const minSectionEnd = 1000

const (
	deletedTag    = 0x12
	deletedMinLen = 2
	deletedMaxLen = 200
)

// NotesSection narrows the backup buffer to the notes data. Without the
// start marker the whole buffer is returned unchanged.
func NotesSection(data []byte) []byte {
	start := bytes.Index(data, sectionStartMarker)
	if start == notFound {
		return data
	}
	data = data[start:]

	for _, marker := range sectionEndMarkers {
		end := bytes.Index(data, marker)
		if end != notFound && end > minSectionEnd {
			data = data[:end]
			break
		}
	}
	return data
}

// ExtractNotes segments the notes section at folder markers and recovers
// one note per segment that carries a well-formed title. Titles are cleaned
// and deduplicated through seen; segments without a title, with an empty
// cleaned title, or with an already seen title are dropped.
func ExtractNotes(section []byte, seen map[string]bool) []miuinotes.Note {
	marks := scanFolderMarks(section)

	var notes []miuinotes.Note
	for i, mark := range marks {
		segStart := 0
		if i > 0 {
			segStart = marks[i-1].end
		}
		segment := section[segStart:mark.end]

		markStart := mark.start - segStart
		length, capture, ok := findTitleCapture(segment, markStart)
		if !ok {
			continue
		}
		if length > len(capture) {
			length = len(capture)
		}
		title := miuinotes.CleanTitle(decodePermissive(capture[:length]))
		if title == "" || seen[title] {
			continue
		}
		seen[title] = true

		content := ContentBlock(decodePermissive(segment))
		if content == "" {
			content = title
		}
		notes = append(notes, miuinotes.Note{
			Title:   title,
			Content: content,
			Folder:  mark.folder,
		})
	}
	return notes
}

// RecoverDeletedTitles scans the whole backup for loosely tagged title
// fields left behind by deleted notes. These records carry no markup, so
// each note's content is its own cleaned title. The field tag is shared
// with unrelated data; IsRecoverableTitle filters the collisions.
func RecoverDeletedTitles(data []byte, seen map[string]bool) []miuinotes.Note {
	var notes []miuinotes.Note
	pos := 0
	for pos < len(data)-3 {
		if data[pos] != deletedTag {
			pos++
			continue
		}
		length := int(data[pos+1])
		if length < deletedMinLen || length > deletedMaxLen || pos+2+length > len(data) {
			pos++
			continue
		}
		field := data[pos+2 : pos+2+length]
		if !utf8.Valid(field) {
			// A failed strict decode only invalidates this offset, not the
			// whole candidate span.
			pos++
			continue
		}
		title := string(field)
		if !miuinotes.IsRecoverableTitle(title) {
			pos++
			continue
		}

		clean := miuinotes.CleanTitle(title)
		if clean != "" && !seen[clean] {
			seen[clean] = true
			notes = append(notes, miuinotes.Note{
				Title:   clean,
				Content: clean,
				Folder:  miuinotes.FolderCommon,
			})
		}
		pos += 2 + length
	}
	return notes
}

// decodePermissive interprets bytes as UTF-8, substituting the replacement
// character for invalid sequences instead of failing.
func decodePermissive(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var sb strings.Builder
	sb.Grow(len(b))
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		if r == utf8.RuneError && size == 1 {
			sb.WriteRune(utf8.RuneError)
		} else {
			sb.WriteRune(r)
		}
		b = b[size:]
	}
	return sb.String()
}
