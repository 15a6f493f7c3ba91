package miuinotes

const (
	FolderCommon = "common"
	FolderSecret = "secret"
)

// Note is one recovered note record. Content holds the raw proprietary
// markup; when a record carries no markup block the content equals the
// title itself.
type Note struct {
	Title   string
	Content string
	Folder  string
}

// Attachment is one media blob recovered from the backup. FileID is the
// 40-hex content handle the note markup refers to.
type Attachment struct {
	FileID    string
	Extension string
	Data      []byte
}

// RefMap maps a file-id (bare and with extension suffix) to the relative
// path its attachment was saved under. Markup cites either form.
type RefMap map[string]string
