package exporter

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/afero"

	"github.com/putnikproj/xiaomi-notes-to-markdown/internal/domain/miuinotes"
	"github.com/putnikproj/xiaomi-notes-to-markdown/internal/infra/exportfs"
	"github.com/putnikproj/xiaomi-notes-to-markdown/internal/infra/miuibak"
)

type Exporter struct {
	BackupPath     string
	OutputDir      string
	IncludeDeleted bool
	ExtractMedia   bool

	Fs  afero.Fs  // defaults to the OS filesystem
	Out io.Writer // per-file progress lines; defaults to os.Stdout
}

type Stats struct {
	Notes       int
	Attachments int
	Exported    int
}

// minBody is the shortest translated body worth exporting; below it a note
// is exported title-only, or skipped when the title itself is too short.
const minBody = 2

func (e Exporter) Run() (Stats, error) {
	if e.BackupPath == "" || e.OutputDir == "" {
		return Stats{}, fmt.Errorf("backup path and output directory are required")
	}
	fsys := e.fs()

	data, err := afero.ReadFile(fsys, e.BackupPath)
	if err != nil {
		return Stats{}, fmt.Errorf("read backup: %w", err)
	}

	section := miuibak.NotesSection(data)

	seen := map[string]bool{}
	notes := miuibak.ExtractNotes(section, seen)
	if e.IncludeDeleted {
		notes = append(notes, miuibak.RecoverDeletedTitles(data, seen)...)
	}
	if len(notes) == 0 {
		return Stats{}, nil
	}

	var attachments []miuinotes.Attachment
	refs := miuinotes.RefMap{}
	if e.ExtractMedia {
		attachments = miuibak.ExtractAttachments(data)
		refs, err = exportfs.SaveAttachments(fsys, e.OutputDir, attachments)
		if err != nil {
			return Stats{}, err
		}
	}

	writer, err := exportfs.NewNoteWriter(fsys, e.OutputDir)
	if err != nil {
		return Stats{}, err
	}

	translator := NewTranslator(refs)
	progressBar := newExportProgressBar(len(notes))
	defer progressBar.Close()

	manifest := exportfs.Manifest{}
	for _, att := range attachments {
		manifest.Attachments = append(manifest.Attachments, exportfs.ManifestAttachment{
			FileID: att.FileID,
			Path:   refs[att.FileID],
		})
	}

	for _, note := range notes {
		body := translator.ToMarkdown(note.Content)
		if utf8.RuneCountInString(strings.TrimSpace(body)) < minBody {
			if utf8.RuneCountInString(note.Title) <= minBody {
				progressBar.Advance("skipping")
				continue
			}
			body = ""
		}

		filename, err := writer.Write(note, body)
		if err != nil {
			return Stats{}, err
		}
		fmt.Fprintf(e.out(), "  %s\n", filename)
		manifest.Notes = append(manifest.Notes, exportfs.ManifestNote{
			Title:  note.Title,
			File:   filename,
			Folder: note.Folder,
		})
		progressBar.Advance(filename)
	}

	if err := exportfs.WriteManifest(fsys, e.OutputDir, manifest); err != nil {
		return Stats{}, err
	}
	progressBar.Finish("done")

	return Stats{
		Notes:       len(notes),
		Attachments: len(attachments),
		Exported:    writer.Written(),
	}, nil
}

func (e Exporter) fs() afero.Fs {
	if e.Fs != nil {
		return e.Fs
	}
	return afero.NewOsFs()
}

func (e Exporter) out() io.Writer {
	if e.Out != nil {
		return e.Out
	}
	return os.Stdout
}
