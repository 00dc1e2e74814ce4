package models

// EntryType distinguishes files from folders in a listing.
type EntryType string

// Entry types.
const (
	EntryFile   EntryType = "file"
	EntryFolder EntryType = "folder"
)

// Entry is one row of a folder listing. Meta carries backend-specific
// details (size, checksum, ...) that the protocol passes through untouched.
type Entry struct {
	Name string         `json:"name"`
	Type EntryType      `json:"type"`
	Meta map[string]any `json:"meta,omitempty"`
}

// IsFolder reports whether the entry can be browsed into.
func (e Entry) IsFolder() bool {
	return e.Type == EntryFolder
}

// ParentEntry is the synthetic ".." row hierarchical backends put at the
// top of non-root listings.
func ParentEntry() Entry {
	return Entry{Name: ParentMarker, Type: EntryFolder}
}

// Mode selects which dialog the UI presents.
type Mode string

// Dialog modes.
const (
	ModeOpen Mode = "open"
	ModeSave Mode = "save"
)
