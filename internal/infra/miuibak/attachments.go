package miuibak

import (
	"bytes"

	"github.com/putnikproj/xiaomi-notes-to-markdown/internal/domain/miuinotes"
)

var attHeaderPrefix = []byte("miui_att/")

var (
	jpegStartSig = []byte{0xff, 0xd8, 0xff}
	jpegEndSig   = []byte{0xff, 0xd9}
	pngSig       = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	pngEndSig    = []byte("IEND")
)

const (
	// pngTrailerLen covers the IEND marker plus its CRC.
	pngTrailerLen = 8
	// audioSyncSkip skips the filename noise at the front of a media window
	// before hunting for an MPEG frame sync.
	audioSyncSkip = 100
	// audioNullRun is the trailing zero-byte run length past which audio
	// payloads are considered padded and trimmed.
	audioNullRun = 50
)

// mediaHeader is one tar-style attachment header: path prefix, 40-hex id,
// optional dotted extension token.
type mediaHeader struct {
	pos int
	id  string
	ext string
}

// ExtractAttachments recovers embedded media from the full backup buffer.
// Each header's search window runs to the next header; signature detection
// is tried in JPEG, PNG, MPEG-audio order and a header with no match is
// skipped silently.
func ExtractAttachments(data []byte) []miuinotes.Attachment {
	headers := scanMediaHeaders(data)

	var attachments []miuinotes.Attachment
	for i, h := range headers {
		windowEnd := len(data)
		if i+1 < len(headers) {
			windowEnd = headers[i+1].pos
		}
		window := data[h.pos:windowEnd]

		if att, ok := extractJPEG(h, window); ok {
			attachments = append(attachments, att)
			continue
		}
		if att, ok := extractPNG(h, window); ok {
			attachments = append(attachments, att)
			continue
		}
		if att, ok := extractAudio(h, window); ok {
			attachments = append(attachments, att)
		}
	}
	return attachments
}

func scanMediaHeaders(data []byte) []mediaHeader {
	var headers []mediaHeader
	off := 0
	for {
		idx := bytes.Index(data[off:], attHeaderPrefix)
		if idx == notFound {
			return headers
		}
		pos := off + idx
		idStart := pos + len(attHeaderPrefix)
		id, ok := hexID40(data, idStart)
		if !ok {
			off = pos + 1
			continue
		}
		ext := ""
		extStart := idStart + 40
		if extStart < len(data) && data[extStart] == '.' {
			end := extStart + 1
			for end < len(data) && isExtByte(data[end]) {
				end++
			}
			if end > extStart+1 {
				ext = string(data[extStart+1 : end])
			}
		}
		headers = append(headers, mediaHeader{pos: pos, id: id, ext: ext})
		off = idStart + 40
	}
}

func extractJPEG(h mediaHeader, window []byte) (miuinotes.Attachment, bool) {
	start := bytes.Index(window, jpegStartSig)
	if start == notFound {
		return miuinotes.Attachment{}, false
	}
	end := bytes.Index(window[start:], jpegEndSig)
	if end == notFound {
		return miuinotes.Attachment{}, false
	}
	end += start
	return miuinotes.Attachment{
		FileID:    h.id,
		Extension: "jpg",
		Data:      window[start : end+len(jpegEndSig)],
	}, true
}

func extractPNG(h mediaHeader, window []byte) (miuinotes.Attachment, bool) {
	start := bytes.Index(window, pngSig)
	if start == notFound {
		return miuinotes.Attachment{}, false
	}
	end := bytes.Index(window[start:], pngEndSig)
	if end == notFound {
		return miuinotes.Attachment{}, false
	}
	end += start
	trailer := end + pngTrailerLen
	if trailer > len(window) {
		trailer = len(window)
	}
	return miuinotes.Attachment{
		FileID:    h.id,
		Extension: "png",
		Data:      window[start:trailer],
	}, true
}

func extractAudio(h mediaHeader, window []byte) (miuinotes.Attachment, bool) {
	if len(window) <= audioSyncSkip {
		return miuinotes.Attachment{}, false
	}
	region := window[audioSyncSkip:]
	for j := 0; j < len(region)-1; j++ {
		if region[j] != 0xff || region[j+1]&0xe0 != 0xe0 {
			continue
		}
		payload := region[j:]
		ext := h.ext
		if ext == "" {
			ext = "mp3"
		}
		return miuinotes.Attachment{
			FileID:    h.id,
			Extension: ext,
			Data:      payload[:trimTrailingNulls(payload)],
		}, true
	}
	return miuinotes.Attachment{}, false
}

// trimTrailingNulls returns the payload end offset with any padded zero run
// removed. Short runs stay: only more than audioNullRun trailing zeros
// count as padding.
func trimTrailingNulls(payload []byte) int {
	end := len(payload)
	nulls := 0
	for k := len(payload) - 1; k > 0; k-- {
		if payload[k] == 0 {
			nulls++
			continue
		}
		if nulls > audioNullRun {
			end = k + 1
		}
		break
	}
	return end
}
