package services

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/intake-cli/internal/core/domain"
)

// routeSpec is one arm of the routing table.
type routeSpec struct {
	capability domain.Capability
	handler    string
	action     string
}

// routes is the closed extension table. Anything absent takes the
// unsupported arm.
var routes = map[string]routeSpec{
	".csv":  {domain.CapabilityTabular, "csv/merge", domain.ActionMerge},
	".pdf":  {domain.CapabilityDocument, "ocr/extract", domain.ActionExtractText},
	".jpg":  {domain.CapabilityImage, "ocr/extract", domain.ActionExtractText},
	".jpeg": {domain.CapabilityImage, "ocr/extract", domain.ActionExtractText},
	".png":  {domain.CapabilityImage, "ocr/extract", domain.ActionExtractText},
	".tif":  {domain.CapabilityImage, "ocr/extract", domain.ActionExtractText},
	".tiff": {domain.CapabilityImage, "ocr/extract", domain.ActionExtractText},
	".docx": {domain.CapabilityOffice, "docx/extract", domain.ActionExtractText},
	".html": {domain.CapabilityMarkup, "html/extract", domain.ActionExtractText},
	".htm":  {domain.CapabilityMarkup, "html/extract", domain.ActionExtractText},
	".eml":  {domain.CapabilityMail, "mail/extract", domain.ActionExtractText},
	".txt":  {domain.CapabilityText, "text/index", domain.ActionIndex},
	".md":   {domain.CapabilityText, "text/index", domain.ActionIndex},
}

// Router classifies files by extension. It has no state and no side effects.
type Router struct{}

// NewRouter creates a router.
func NewRouter() Router {
	return Router{}
}

// Resolve returns the route for a file path.
func (Router) Resolve(path string) domain.Route {
	ext := strings.ToLower(filepath.Ext(path))
	r, ok := routes[ext]
	if !ok {
		return domain.Route{
			Extension:   ext,
			Capability:  domain.CapabilityUnsupported,
			Destination: domain.DestinationGenerated,
			Action:      domain.ActionSkip,
			CanProcess:  false,
			Reason:      "Unsupported format: " + ext,
		}
	}
	return domain.Route{
		Extension:   ext,
		Capability:  r.capability,
		Handler:     r.handler,
		Destination: domain.DestinationDatabase,
		Action:      r.action,
		CanProcess:  true,
		Reason:      "Supported format: " + ext,
	}
}

// Extensions returns every routable extension, sorted.
func (Router) Extensions() []string {
	out := make([]string, 0, len(routes))
	for ext := range routes {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}
