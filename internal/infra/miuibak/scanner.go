// Package miuibak recovers note records and media payloads from MIUI notes
// backup containers. The format is undocumented; every marker constant in
// this package is reverse-engineered from real backups, so all searches
// treat absence of a pattern as a normal outcome.
package miuibak

import "bytes"

// notFound mirrors the bytes.Index convention so callers can tell a missing
// pattern apart from a zero-length match at offset 0.
const notFound = -1

// folderMark is one occurrence of the per-record folder marker: the byte
// 'z', one arbitrary byte, then the literal folder name.
type folderMark struct {
	start  int // offset of the 'z' byte
	end    int // offset just past the folder name
	folder string
}

var folderNames = [][]byte{[]byte("common"), []byte("secret")}

// scanFolderMarks returns every folder marker in buf, leftmost first.
// Markers delimit the end of each note segment.
func scanFolderMarks(buf []byte) []folderMark {
	var marks []folderMark
	for i := 0; i+2 < len(buf); i++ {
		if buf[i] != 'z' {
			continue
		}
		for _, name := range folderNames {
			if bytes.HasPrefix(buf[i+2:], name) {
				marks = append(marks, folderMark{
					start:  i,
					end:    i + 2 + len(name),
					folder: string(name),
				})
				break
			}
		}
	}
	return marks
}

// findTitleCapture searches a segment for the title sub-pattern anchored at
// the segment's closing folder marker: the byte 'r', one length byte, then
// 1-200 bytes in the printable range 0x20-0xff running up to markStart.
// The leftmost matching 'r' wins, which captures the longest admissible
// content. Returns the declared length byte and the captured content.
func findTitleCapture(segment []byte, markStart int) (length int, content []byte, ok bool) {
	const maxCapture = 200
	lo := markStart - maxCapture - 2
	if lo < 0 {
		lo = 0
	}
	for p := lo; p <= markStart-3; p++ {
		if segment[p] != 'r' {
			continue
		}
		cand := segment[p+2 : markStart]
		if len(cand) < 1 || len(cand) > maxCapture {
			continue
		}
		if !allPrintableRange(cand) {
			continue
		}
		return int(segment[p+1]), cand, true
	}
	return 0, nil, false
}

func allPrintableRange(b []byte) bool {
	for _, c := range b {
		if c < 0x20 {
			return false
		}
	}
	return true
}

// hexID40 extracts a 40-character lowercase hex id starting at off, or
// reports failure when fewer than 40 hex bytes follow.
func hexID40(buf []byte, off int) (string, bool) {
	if off+40 > len(buf) {
		return "", false
	}
	id := buf[off : off+40]
	for _, c := range id {
		if !isHexLower(c) {
			return "", false
		}
	}
	return string(id), true
}

func isHexLower(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

func isExtByte(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z')
}
