// internal/ingestion/registry.go
package ingestion

import (
	"fmt"
	"path/filepath"
	"strings"
)

// extensionProcessors implements the selection table in spec §4.1. An
// unrecognized extension is a hard failure (unsupported_file_type).
var extensionProcessors = map[string]string{
	".xlsx": "spreadsheet",
	".xls":  "spreadsheet",
	".csv":  "spreadsheet",
	".pdf":  "document_text",
	".png":  "document_text",
	".jpg":  "document_text",
	".jpeg": "document_text",
	".webp": "document_text",
	".tif":  "document_text",
	".tiff": "document_text",
	".txt":  "whatsapp_text",
}

// ErrUnsupportedFileType is returned by Registry.Select when no processor
// covers the file's extension and the caller did not name one explicitly.
type ErrUnsupportedFileType struct {
	Extension string
}

func (e *ErrUnsupportedFileType) Error() string {
	return fmt.Sprintf("unsupported_file_type: %q", e.Extension)
}

// Registry maps a processor name to its capability, constructed once at
// startup and passed explicitly into the job runner and CLI, per spec §9's
// "no hidden globals" design note.
type Registry struct {
	byName map[string]Processor
}

// NewRegistry builds the registry from the processors passed in (the server
// and ingestctl pass the three built-in ones). Callers may still look processors up by name for operator-selected
// overrides (§4.1's "caller does not name a processor" carve-out implies a
// caller sometimes does).
func NewRegistry(processors ...Processor) *Registry {
	r := &Registry{byName: make(map[string]Processor)}
	for _, p := range processors {
		r.byName[p.Name()] = p
	}
	return r
}

// Lookup returns the processor registered under name, if any.
func (r *Registry) Lookup(name string) (Processor, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Select resolves the processor for path, preferring an explicitly named
// processor over extension-based inference.
func (r *Registry) Select(path, explicitName string) (Processor, error) {
	if explicitName != "" {
		p, ok := r.byName[explicitName]
		if !ok {
			return nil, fmt.Errorf("unknown processor %q", explicitName)
		}
		return p, nil
	}

	ext := strings.ToLower(filepath.Ext(path))
	name, ok := extensionProcessors[ext]
	if !ok {
		return nil, &ErrUnsupportedFileType{Extension: ext}
	}
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("processor %q not registered for extension %q", name, ext)
	}
	return p, nil
}
