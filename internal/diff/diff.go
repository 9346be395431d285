// Package diff parses unified diff text into per-file hunks and splits
// before/after file content into display lines.
package diff

import (
	"fmt"
	"strings"

	"github.com/bluekeyes/go-gitdiff/gitdiff"
)

// LineKind classifies a line inside a hunk.
type LineKind int

const (
	Context LineKind = iota
	Added
	Deleted
)

func (k LineKind) String() string {
	switch k {
	case Added:
		return "added"
	case Deleted:
		return "deleted"
	default:
		return "context"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k LineKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *LineKind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "context":
		*k = Context
	case "added":
		*k = Added
	case "deleted":
		*k = Deleted
	default:
		return fmt.Errorf("unknown line kind %q", b)
	}
	return nil
}

// Marker returns the unified-diff prefix for the kind.
func (k LineKind) Marker() string {
	switch k {
	case Added:
		return "+"
	case Deleted:
		return "-"
	default:
		return " "
	}
}

// Line is one hunk line. OldNum or NewNum is zero when the line does not
// exist on that side.
type Line struct {
	Kind   LineKind `json:"kind"`
	Text   string   `json:"text"`
	OldNum int      `json:"old_num,omitempty"`
	NewNum int      `json:"new_num,omitempty"`
}

// Hunk is a contiguous block of changes.
type Hunk struct {
	Header string `json:"header"`
	Lines  []Line `json:"lines"`
}

// File is a single file in a unified diff.
type File struct {
	OldName      string `json:"old_name,omitempty"`
	NewName      string `json:"new_name,omitempty"`
	IsNew        bool   `json:"is_new,omitempty"`
	IsDeleted    bool   `json:"is_deleted,omitempty"`
	IsRenamed    bool   `json:"is_renamed,omitempty"`
	IsBinary     bool   `json:"is_binary,omitempty"`
	Hunks        []Hunk `json:"hunks"`
	AddedLines   int    `json:"added_lines"`
	DeletedLines int    `json:"deleted_lines"`
}

// Path is the key used to match the file against analyses: the new name,
// or the old name for deletions.
func (f *File) Path() string {
	if f.IsDeleted || f.NewName == "" {
		return f.OldName
	}
	return f.NewName
}

// Name returns the display name for the file.
func (f *File) Name() string {
	if f.IsRenamed {
		return fmt.Sprintf("%s -> %s", f.OldName, f.NewName)
	}
	return f.Path()
}

// Set holds every file parsed from one diff.
type Set struct {
	Files []*File
	Raw   string
}

// Stats returns aggregate statistics.
func (s *Set) Stats() (files, added, deleted int) {
	files = len(s.Files)
	for _, f := range s.Files {
		added += f.AddedLines
		deleted += f.DeletedLines
	}
	return
}

// File returns the parsed file whose Path matches exactly.
func (s *Set) File(path string) (*File, bool) {
	for _, f := range s.Files {
		if f.Path() == path {
			return f, true
		}
	}
	return nil, false
}

// Parse reads unified diff text.
func Parse(raw string) (*Set, error) {
	parsed, _, err := gitdiff.Parse(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parsing diff: %w", err)
	}

	s := &Set{Raw: raw}
	for _, f := range parsed {
		df := &File{
			OldName:   f.OldName,
			NewName:   f.NewName,
			IsNew:     f.IsNew,
			IsDeleted: f.IsDelete,
			IsRenamed: f.IsRename,
			IsBinary:  f.IsBinary,
		}
		for _, frag := range f.TextFragments {
			df.Hunks = append(df.Hunks, convertFragment(df, frag))
		}
		s.Files = append(s.Files, df)
	}
	return s, nil
}

func convertFragment(df *File, frag *gitdiff.TextFragment) Hunk {
	h := Hunk{Header: hunkHeader(frag)}
	oldNum, newNum := int(frag.OldPosition), int(frag.NewPosition)

	for _, line := range frag.Lines {
		text := strings.TrimRight(line.Line, "\n")
		switch line.Op {
		case gitdiff.OpAdd:
			df.AddedLines++
			h.Lines = append(h.Lines, Line{Kind: Added, Text: text, NewNum: newNum})
			newNum++
		case gitdiff.OpDelete:
			df.DeletedLines++
			h.Lines = append(h.Lines, Line{Kind: Deleted, Text: text, OldNum: oldNum})
			oldNum++
		default:
			h.Lines = append(h.Lines, Line{Kind: Context, Text: text, OldNum: oldNum, NewNum: newNum})
			oldNum++
			newNum++
		}
	}
	return h
}

func hunkHeader(frag *gitdiff.TextFragment) string {
	old := fmt.Sprintf("-%d", frag.OldPosition)
	if frag.OldLines != 1 {
		old += fmt.Sprintf(",%d", frag.OldLines)
	}
	newRange := fmt.Sprintf("+%d", frag.NewPosition)
	if frag.NewLines != 1 {
		newRange += fmt.Sprintf(",%d", frag.NewLines)
	}
	header := fmt.Sprintf("@@ %s %s @@", old, newRange)
	if frag.Comment != "" {
		header += " " + frag.Comment
	}
	return header
}

// SplitLines splits file content into display lines. Empty content yields no
// lines, and a single trailing newline does not produce an extra empty line.
func SplitLines(content string) []string {
	if content == "" {
		return []string{}
	}
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.TrimSuffix(content, "\n")
	return strings.Split(content, "\n")
}
