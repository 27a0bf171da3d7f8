package domain

import (
	"strings"
	"time"
)

// Timeline column names, in file order.
const (
	ColumnDate        = "Date"
	ColumnTime        = "Time"
	ColumnFilename    = "Filename"
	ColumnCategories  = "Categories"
	ColumnFlags       = "Flags"
	ColumnNote        = "Note"
	ColumnDestination = "Destination"
	ColumnSourcePath  = "SourcePath"
	ColumnStatus      = "Status"
	ColumnHandler     = "Handler"
	ColumnAction      = "Action"
)

// TimelineColumns is the fixed column set of the timeline.
var TimelineColumns = []string{
	ColumnDate, ColumnTime, ColumnFilename, ColumnCategories, ColumnFlags, ColumnNote,
	ColumnDestination, ColumnSourcePath, ColumnStatus, ColumnHandler, ColumnAction,
}

// Placeholders used when the classifier supplied nothing.
const (
	DefaultCategory = "Uncategorized"
	EmptyNote       = "(none)"
)

// TimelineEntry is one append-only audit row. Every file that enters the
// pipeline produces exactly one entry, whatever its outcome.
type TimelineEntry struct {
	// RecordedAt supplies the Date and Time columns.
	RecordedAt time.Time

	// Filename is the base name of the file.
	Filename string

	// Categories come from the external classifier.
	Categories []string

	// Flags come from the external classifier.
	Flags []string

	// Note is the operator's note, if any.
	Note string

	// Destination is the route destination.
	Destination string

	// SourcePath is the path the file was read from.
	SourcePath string

	// Status is the terminal status.
	Status Status

	// Handler is the route handler.
	Handler string

	// Action is the route action.
	Action string
}

// Record returns the entry as a column-keyed record.
func (e TimelineEntry) Record() map[string]string {
	categories := e.Categories
	if len(categories) == 0 {
		categories = []string{DefaultCategory}
	}
	note := e.Note
	if strings.TrimSpace(note) == "" {
		note = EmptyNote
	}
	return map[string]string{
		ColumnDate:        e.RecordedAt.Format("2006-01-02"),
		ColumnTime:        e.RecordedAt.Format("15:04:05"),
		ColumnFilename:    e.Filename,
		ColumnCategories:  strings.Join(categories, "; "),
		ColumnFlags:       strings.Join(e.Flags, "; "),
		ColumnNote:        note,
		ColumnDestination: e.Destination,
		ColumnSourcePath:  e.SourcePath,
		ColumnStatus:      string(e.Status),
		ColumnHandler:     e.Handler,
		ColumnAction:      e.Action,
	}
}

// Row returns the entry's values in TimelineColumns order.
func (e TimelineEntry) Row() []string {
	return RecordRow(e.Record())
}

// RecordRow projects a column-keyed record onto TimelineColumns.
// Missing columns are empty; unknown keys are dropped.
func RecordRow(record map[string]string) []string {
	row := make([]string, len(TimelineColumns))
	for i, col := range TimelineColumns {
		row[i] = record[col]
	}
	return row
}
