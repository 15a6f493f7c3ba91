// Package exportfs writes exported notes, attachments, and the export
// manifest. All writes go through afero.Fs so tests can run against an
// in-memory filesystem.
package exportfs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/putnikproj/xiaomi-notes-to-markdown/internal/domain/miuinotes"
)

const (
	attachmentsDir = "attachments"
	manifestDir    = "_export"
	manifestName   = "index.yaml"
	maxFilenameLen = 80
	fallbackBase   = "untitled"
)

// NoteWriter writes notes into one output directory, numbering filename
// collisions in discovery order: the first note for a base name gets
// "<base>.md", later ones "<base>_<n>.md".
type NoteWriter struct {
	fsys    afero.Fs
	dir     string
	used    map[string]int
	written int
}

func NewNoteWriter(fsys afero.Fs, dir string) (*NoteWriter, error) {
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &NoteWriter{fsys: fsys, dir: dir, used: map[string]int{}}, nil
}

// Write stores one note as "# <title>\n\n<body>\n" and returns the
// filename used. An empty body is omitted entirely.
func (w *NoteWriter) Write(note miuinotes.Note, body string) (string, error) {
	base := SanitizeFilename(note.Title)
	if base == "" {
		base = fallbackBase
	}

	n, collision := w.used[base]
	var filename string
	if collision {
		w.used[base] = n + 1
		filename = fmt.Sprintf("%s_%d.md", base, n+1)
	} else {
		w.used[base] = 0
		filename = base + ".md"
	}

	var sb strings.Builder
	sb.WriteString("# " + note.Title + "\n\n")
	if body != "" {
		sb.WriteString(body)
		sb.WriteString("\n")
	}

	path := filepath.Join(w.dir, filename)
	if err := afero.WriteFile(w.fsys, path, []byte(sb.String()), 0o644); err != nil {
		return "", fmt.Errorf("write note %s: %w", filename, err)
	}
	w.written++
	return filename, nil
}

func (w *NoteWriter) Written() int { return w.written }

// SanitizeFilename turns a note title into a safe markdown filename stem:
// filesystem-reserved characters and control bytes are removed, whitespace
// collapsed, and the result capped at 80 characters.
func SanitizeFilename(title string) string {
	var b strings.Builder
	for _, r := range title {
		if r < 0x20 || strings.ContainsRune(`<>:"/\|?*`, r) {
			continue
		}
		b.WriteRune(r)
	}
	name := strings.Join(strings.Fields(b.String()), " ")
	runes := []rune(name)
	if len(runes) > maxFilenameLen {
		runes = runes[:maxFilenameLen]
	}
	return strings.TrimSpace(string(runes))
}

// SaveAttachments writes media blobs under <outputDir>/attachments and
// returns the reference map used to resolve file-ids in note markup. Each
// attachment is keyed both bare and with its extension suffix because the
// markup cites either form.
func SaveAttachments(fsys afero.Fs, outputDir string, attachments []miuinotes.Attachment) (miuinotes.RefMap, error) {
	if len(attachments) == 0 {
		return miuinotes.RefMap{}, nil
	}
	dir := filepath.Join(outputDir, attachmentsDir)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create attachments dir: %w", err)
	}

	refs := make(miuinotes.RefMap, len(attachments)*2)
	for _, att := range attachments {
		filename := att.FileID + "." + att.Extension
		if err := afero.WriteFile(fsys, filepath.Join(dir, filename), att.Data, 0o644); err != nil {
			return nil, fmt.Errorf("write attachment %s: %w", filename, err)
		}
		rel := attachmentsDir + "/" + filename
		refs[att.FileID] = rel
		refs[filename] = rel
	}
	return refs, nil
}

// Manifest records what one export run produced, so the title → file
// mapping survives without re-running the exporter.
type Manifest struct {
	Notes       []ManifestNote       `yaml:"notes"`
	Attachments []ManifestAttachment `yaml:"attachments,omitempty"`
}

type ManifestNote struct {
	Title  string `yaml:"title"`
	File   string `yaml:"file"`
	Folder string `yaml:"folder"`
}

type ManifestAttachment struct {
	FileID string `yaml:"file_id"`
	Path   string `yaml:"path"`
}

func WriteManifest(fsys afero.Fs, outputDir string, m Manifest) error {
	dir := filepath.Join(outputDir, manifestDir)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create manifest dir: %w", err)
	}
	encoded, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := afero.WriteFile(fsys, filepath.Join(dir, manifestName), encoded, 0o644); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}
