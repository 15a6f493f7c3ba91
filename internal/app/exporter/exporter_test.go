package exporter

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

var testImageID = strings.Repeat("ab", 20)

// syntheticBackup builds a minimal backup container: the notes section
// with one live record, a deleted-note title field, and one embedded JPEG
// behind a media header.
func syntheticBackup(liveTitle, deletedTitle string) []byte {
	var buf bytes.Buffer
	buf.WriteString("container preamble")
	buf.WriteString("miui_bak/_tmp_bak")

	// Live record: markup, title field, folder marker.
	buf.WriteString("\x00\x00<text>hello world</text>")
	buf.WriteByte('r')
	buf.WriteByte(byte(len(liveTitle)))
	buf.WriteString(liveTitle)
	buf.WriteByte('z')
	buf.WriteByte(0x02)
	buf.WriteString("common")

	// Filler so the media header reads as the section boundary.
	buf.Write(bytes.Repeat([]byte{'x'}, 1100))

	// Deleted-note title field.
	buf.WriteByte(0x12)
	buf.WriteByte(byte(len(deletedTitle)))
	buf.WriteString(deletedTitle)
	buf.WriteString("field padding")

	// Embedded JPEG behind its media header.
	buf.WriteString("miui_att/")
	buf.WriteString(testImageID)
	buf.Write([]byte{0xff, 0xd8, 0xff, 0xe0})
	buf.WriteString("pixels")
	buf.Write([]byte{0xff, 0xd9})
	buf.WriteString("trailer")

	return buf.Bytes()
}

func writeBackup(t *testing.T, fsys afero.Fs, data []byte) {
	t.Helper()
	if err := afero.WriteFile(fsys, "backup.bak", data, 0o644); err != nil {
		t.Fatalf("write backup fixture: %v", err)
	}
}

func TestExporterRun(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeBackup(t, fsys, syntheticBackup("Groceries", "Deleted memo"))

	e := Exporter{
		BackupPath:     "backup.bak",
		OutputDir:      "out",
		IncludeDeleted: true,
		ExtractMedia:   true,
		Fs:             fsys,
		Out:            io.Discard,
	}
	stats, err := e.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Notes != 2 {
		t.Fatalf("stats.Notes = %d, want 2", stats.Notes)
	}
	if stats.Attachments != 1 {
		t.Fatalf("stats.Attachments = %d, want 1", stats.Attachments)
	}
	if stats.Exported != 2 {
		t.Fatalf("stats.Exported = %d, want 2", stats.Exported)
	}

	note, err := afero.ReadFile(fsys, "out/Groceries.md")
	if err != nil {
		t.Fatalf("read exported note: %v", err)
	}
	if !strings.HasPrefix(string(note), "# Groceries\n\n") {
		t.Fatalf("note missing title heading: %q", note)
	}
	if !strings.Contains(string(note), "hello world") {
		t.Fatalf("note missing body: %q", note)
	}

	deleted, err := afero.ReadFile(fsys, "out/Deleted memo.md")
	if err != nil {
		t.Fatalf("read recovered note: %v", err)
	}
	if !strings.Contains(string(deleted), "Deleted memo") {
		t.Fatalf("recovered note content: %q", deleted)
	}

	img, err := afero.ReadFile(fsys, "out/attachments/"+testImageID+".jpg")
	if err != nil {
		t.Fatalf("read attachment: %v", err)
	}
	if !bytes.HasPrefix(img, []byte{0xff, 0xd8, 0xff}) || !bytes.HasSuffix(img, []byte{0xff, 0xd9}) {
		t.Fatalf("attachment not a complete image: % x", img[:4])
	}

	if ok, _ := afero.Exists(fsys, "out/_export/index.yaml"); !ok {
		t.Fatal("manifest not written")
	}
}

func TestExporterRunSkipsFlags(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeBackup(t, fsys, syntheticBackup("Groceries", "Deleted memo"))

	e := Exporter{
		BackupPath: "backup.bak",
		OutputDir:  "out",
		Fs:         fsys,
		Out:        io.Discard,
	}
	stats, err := e.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Notes != 1 {
		t.Fatalf("stats.Notes = %d, want 1 without deleted recovery", stats.Notes)
	}
	if stats.Attachments != 0 {
		t.Fatalf("stats.Attachments = %d, want 0 without media extraction", stats.Attachments)
	}
	if ok, _ := afero.Exists(fsys, "out/Deleted memo.md"); ok {
		t.Fatal("deleted note exported despite disabled recovery")
	}
	if ok, _ := afero.DirExists(fsys, "out/attachments"); ok {
		t.Fatal("attachments dir created despite disabled extraction")
	}
}

func TestExporterRunDeduplicatesDeleted(t *testing.T) {
	fsys := afero.NewMemMapFs()
	// The deleted title matches the live note; recovery must not duplicate it.
	writeBackup(t, fsys, syntheticBackup("Groceries", "Groceries"))

	e := Exporter{
		BackupPath:     "backup.bak",
		OutputDir:      "out",
		IncludeDeleted: true,
		Fs:             fsys,
		Out:            io.Discard,
	}
	stats, err := e.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Notes != 1 {
		t.Fatalf("stats.Notes = %d, want 1", stats.Notes)
	}
	if ok, _ := afero.Exists(fsys, "out/Groceries_1.md"); ok {
		t.Fatal("duplicate note exported")
	}
}

func TestExporterRunNoNotes(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeBackup(t, fsys, []byte("nothing recoverable in here"))

	e := Exporter{BackupPath: "backup.bak", OutputDir: "out", Fs: fsys, Out: io.Discard}
	stats, err := e.Run()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if stats.Notes != 0 || stats.Exported != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if ok, _ := afero.DirExists(fsys, "out"); ok {
		t.Fatal("output dir created for empty backup")
	}
}

func TestExporterRunMissingBackup(t *testing.T) {
	e := Exporter{
		BackupPath: "absent.bak",
		OutputDir:  "out",
		Fs:         afero.NewMemMapFs(),
		Out:        io.Discard,
	}
	if _, err := e.Run(); err == nil {
		t.Fatal("expected error for missing backup file")
	}
}

func TestExporterRunMissingPaths(t *testing.T) {
	e := Exporter{Fs: afero.NewMemMapFs()}
	if _, err := e.Run(); err == nil {
		t.Fatal("expected error for missing paths")
	}
}
