package exportfs

import (
	"strings"
	"testing"

	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/putnikproj/xiaomi-notes-to-markdown/internal/domain/miuinotes"
)

func TestNoteWriterWrite(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w, err := NewNoteWriter(fsys, "out")
	if err != nil {
		t.Fatalf("NewNoteWriter: %v", err)
	}

	name, err := w.Write(miuinotes.Note{Title: "Groceries"}, "- milk\n- eggs")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if name != "Groceries.md" {
		t.Fatalf("unexpected filename: %q", name)
	}

	content, err := afero.ReadFile(fsys, "out/Groceries.md")
	if err != nil {
		t.Fatalf("read exported note: %v", err)
	}
	want := "# Groceries\n\n- milk\n- eggs\n"
	if string(content) != want {
		t.Fatalf("unexpected content:\n%q\nwant:\n%q", content, want)
	}
	if w.Written() != 1 {
		t.Fatalf("written = %d, want 1", w.Written())
	}
}

func TestNoteWriterEmptyBody(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w, err := NewNoteWriter(fsys, "out")
	if err != nil {
		t.Fatalf("NewNoteWriter: %v", err)
	}

	if _, err := w.Write(miuinotes.Note{Title: "Just a title"}, ""); err != nil {
		t.Fatalf("Write: %v", err)
	}
	content, err := afero.ReadFile(fsys, "out/Just a title.md")
	if err != nil {
		t.Fatalf("read exported note: %v", err)
	}
	if string(content) != "# Just a title\n\n" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestNoteWriterCollisions(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w, err := NewNoteWriter(fsys, "out")
	if err != nil {
		t.Fatalf("NewNoteWriter: %v", err)
	}

	names := make([]string, 0, 3)
	for i := 0; i < 3; i++ {
		name, err := w.Write(miuinotes.Note{Title: "Idea"}, "body")
		if err != nil {
			t.Fatalf("Write: %v", err)
		}
		names = append(names, name)
	}
	want := []string{"Idea.md", "Idea_1.md", "Idea_2.md"}
	for i, name := range names {
		if name != want[i] {
			t.Fatalf("collision %d: got %q, want %q", i, name, want[i])
		}
	}
}

func TestNoteWriterFallbackName(t *testing.T) {
	fsys := afero.NewMemMapFs()
	w, err := NewNoteWriter(fsys, "out")
	if err != nil {
		t.Fatalf("NewNoteWriter: %v", err)
	}

	name, err := w.Write(miuinotes.Note{Title: "???"}, "body")
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if name != "untitled.md" {
		t.Fatalf("fallback filename = %q, want untitled.md", name)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Plain title", "Plain title"},
		{`a<b>c:d"e/f\g|h?i*j`, "abcdefghij"},
		{"  spaced \t out \n title  ", "spaced out title"},
		{"???", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := SanitizeFilename(tc.in); got != tc.want {
			t.Fatalf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}

	long := strings.Repeat("x", 120)
	if got := SanitizeFilename(long); len([]rune(got)) != 80 {
		t.Fatalf("long title not capped: %d runes", len([]rune(got)))
	}
}

func TestSaveAttachments(t *testing.T) {
	id := strings.Repeat("ab", 20)
	fsys := afero.NewMemMapFs()

	refs, err := SaveAttachments(fsys, "out", []miuinotes.Attachment{
		{FileID: id, Extension: "jpg", Data: []byte{0xff, 0xd8, 0xff, 0xd9}},
	})
	if err != nil {
		t.Fatalf("SaveAttachments: %v", err)
	}

	rel := "attachments/" + id + ".jpg"
	if refs[id] != rel {
		t.Fatalf("bare-id ref = %q, want %q", refs[id], rel)
	}
	if refs[id+".jpg"] != rel {
		t.Fatalf("suffixed ref = %q, want %q", refs[id+".jpg"], rel)
	}

	data, err := afero.ReadFile(fsys, "out/"+rel)
	if err != nil {
		t.Fatalf("read attachment: %v", err)
	}
	if len(data) != 4 {
		t.Fatalf("attachment size = %d, want 4", len(data))
	}
}

func TestSaveAttachmentsEmpty(t *testing.T) {
	fsys := afero.NewMemMapFs()
	refs, err := SaveAttachments(fsys, "out", nil)
	if err != nil {
		t.Fatalf("SaveAttachments: %v", err)
	}
	if len(refs) != 0 {
		t.Fatalf("expected empty ref map, got %v", refs)
	}
	if ok, _ := afero.DirExists(fsys, "out/attachments"); ok {
		t.Fatal("attachments dir created for empty input")
	}
}

func TestWriteManifest(t *testing.T) {
	fsys := afero.NewMemMapFs()
	m := Manifest{
		Notes: []ManifestNote{
			{Title: "Groceries", File: "Groceries.md", Folder: "common"},
		},
		Attachments: []ManifestAttachment{
			{FileID: strings.Repeat("ab", 20), Path: "attachments/x.jpg"},
		},
	}
	if err := WriteManifest(fsys, "out", m); err != nil {
		t.Fatalf("WriteManifest: %v", err)
	}

	raw, err := afero.ReadFile(fsys, "out/_export/index.yaml")
	if err != nil {
		t.Fatalf("read manifest: %v", err)
	}
	var got Manifest
	if err := yaml.Unmarshal(raw, &got); err != nil {
		t.Fatalf("decode manifest: %v", err)
	}
	if len(got.Notes) != 1 || got.Notes[0].File != "Groceries.md" {
		t.Fatalf("unexpected manifest notes: %+v", got.Notes)
	}
	if len(got.Attachments) != 1 {
		t.Fatalf("unexpected manifest attachments: %+v", got.Attachments)
	}
}
