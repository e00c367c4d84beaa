// Package render turns a canonical report into document bytes.
//
// Renderers honor the section order of report.Sections; the mode only changes which sections
// appear and how they are titled.
package render

import (
	"context"
	"os"

	"github.com/ariel-frischer/vistoria/internal/report"
)

// Renderer produces one artifact format from a report.
type Renderer interface {
	Render(ctx context.Context, rep *report.Report, mode report.Mode) ([]byte, error)
	// ContentType is the MIME type of the rendered bytes.
	ContentType() string
	// Extension is the artifact file extension, without the dot.
	Extension() string
}

// PhotoLoader reads the bytes of a stored photo.
type PhotoLoader func(path string) ([]byte, error)

// FileLoader reads photos from the local filesystem.
func FileLoader(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// sectionModules yields the modules printed in each section, in section order.
func sectionModules(rep *report.Report, mode report.Mode) []sectionContent {
	sections := report.Sections(mode)
	out := make([]sectionContent, 0, len(sections))
	for _, s := range sections {
		out = append(out, sectionContent{Section: s, Modules: rep.ModulesIn(s)})
	}
	return out
}

type sectionContent struct {
	report.Section
	Modules []report.Module
}

func entryText(e report.Entry) string {
	if e.Unit != "" {
		return e.Value + " " + e.Unit
	}
	return e.Value
}

