package domain

import (
	"strings"
	"time"
)

// Reserved control filenames in the watch directory. They are never intake
// items; they trigger timeline merges instead.
const (
	ControlUpdateMarker = "case_updates.json"
	ControlNewNote      = "NewNote.csv"
	ControlBatchPrefix  = "OCR_"
	ControlBatchSuffix  = ".csv"
)

// Classification is what the external classifier attached to a file.
type Classification struct {
	Categories []string
	Flags      []string
	Note       string
}

// IntakeNotification announces that a file exists and should be processed.
type IntakeNotification struct {
	// Path is the absolute path of the file.
	Path string

	// Relpath is the path relative to the watch directory.
	Relpath string

	// Size is the file size in bytes.
	Size int64

	// ModTime is the file modification time.
	ModTime time.Time

	// Route is the resolved capability.
	Route Route

	// Classification is optional operator metadata.
	Classification Classification

	// IntakeID is the ID of the intake event, once published.
	IntakeID string
}

// Outcome is the terminal result of one intake item, handed to the timeline recorder.
type Outcome struct {
	// IntakeID identifies the item. Recording is idempotent per IntakeID.
	IntakeID string

	// Notification describes the file.
	Notification IntakeNotification

	// Status is the terminal status.
	Status Status

	// Details is a human-readable explanation.
	Details string
}

// Intake event detail keys.
const (
	DetailPath        = "path"
	DetailSize        = "size"
	DetailExtension   = "extension"
	DetailModified    = "modified"
	DetailCapability  = "capability"
	DetailHandler     = "handler"
	DetailDestination = "destination"
	DetailAction      = "action"
	DetailCanProcess  = "can_process"
	DetailReason      = "reason"
	DetailCategories  = "categories"
	DetailFlags       = "flags"
	DetailNote        = "note"
)

// IsControlFile reports whether name is reserved for control signals.
func IsControlFile(name string) bool {
	if name == ControlUpdateMarker || name == ControlNewNote {
		return true
	}
	return strings.HasPrefix(name, ControlBatchPrefix) && strings.HasSuffix(strings.ToLower(name), ControlBatchSuffix)
}

// Details returns the intake event details for the notification.
func (n IntakeNotification) Details() map[string]any {
	return map[string]any{
		DetailPath:        n.Path,
		DetailSize:        n.Size,
		DetailExtension:   n.Route.Extension,
		DetailModified:    n.ModTime.UTC().Format(time.RFC3339),
		DetailCapability:  string(n.Route.Capability),
		DetailHandler:     n.Route.Handler,
		DetailDestination: n.Route.Destination,
		DetailAction:      n.Route.Action,
		DetailCanProcess:  n.Route.CanProcess,
		DetailReason:      n.Route.Reason,
		DetailCategories:  n.Classification.Categories,
		DetailFlags:       n.Classification.Flags,
		DetailNote:        n.Classification.Note,
	}
}

// NotificationFromEvent rebuilds a notification from an intake event.
func NotificationFromEvent(e Event) IntakeNotification {
	modTime, _ := time.Parse(time.RFC3339, e.DetailString(DetailModified))
	return IntakeNotification{
		Path:    e.DetailString(DetailPath),
		Relpath: e.FileRelpath,
		Size:    int64(e.DetailInt(DetailSize)),
		ModTime: modTime,
		Route: Route{
			Extension:   e.DetailString(DetailExtension),
			Capability:  Capability(e.DetailString(DetailCapability)),
			Handler:     e.DetailString(DetailHandler),
			Destination: e.DetailString(DetailDestination),
			Action:      e.DetailString(DetailAction),
			CanProcess:  e.DetailBool(DetailCanProcess),
			Reason:      e.DetailString(DetailReason),
		},
		Classification: Classification{
			Categories: e.DetailStrings(DetailCategories),
			Flags:      e.DetailStrings(DetailFlags),
			Note:       e.DetailString(DetailNote),
		},
		IntakeID: e.ID,
	}
}

// Entry builds the timeline row for an outcome.
func (o Outcome) Entry(at time.Time) TimelineEntry {
	n := o.Notification
	name := n.Relpath
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	return TimelineEntry{
		RecordedAt:  at,
		Filename:    name,
		Categories:  n.Classification.Categories,
		Flags:       n.Classification.Flags,
		Note:        n.Classification.Note,
		Destination: n.Route.Destination,
		SourcePath:  n.Path,
		Status:      o.Status,
		Handler:     n.Route.Handler,
		Action:      n.Route.Action,
	}
}
