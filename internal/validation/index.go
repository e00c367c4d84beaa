package validation

import (
	"strings"

	"github.com/ariel-frischer/vistoria/internal/store"
)

// index groups the stored rows once so each check is a map lookup.
type index struct {
	// modules maps module -> field -> value
	modules map[string]map[string]string
	// photosByType maps photo-type tag (or "general") -> image rows
	photosByType map[string][]store.MediaRow
	// photosByModule maps module -> image rows
	photosByModule map[string][]store.MediaRow
}

func buildIndex(fields []store.FieldRow, media []store.MediaRow) *index {
	ix := &index{
		modules:        make(map[string]map[string]string),
		photosByType:   make(map[string][]store.MediaRow),
		photosByModule: make(map[string][]store.MediaRow),
	}
	for _, r := range fields {
		m, ok := ix.modules[r.ModuleType]
		if !ok {
			m = make(map[string]string)
			ix.modules[r.ModuleType] = m
		}
		m[r.FieldName] = r.FieldValue
	}
	for _, m := range media {
		if !m.IsImage() {
			continue
		}
		pt := m.PhotoTypeOrGeneral()
		ix.photosByType[pt] = append(ix.photosByType[pt], m)
		ix.photosByModule[m.ModuleType] = append(ix.photosByModule[m.ModuleType], m)
	}
	return ix
}

// hasModulePhoto reports whether the module has an image whose photo-type tag or file name
// contains key.
func (ix *index) hasModulePhoto(moduleID, key string) bool {
	for _, m := range ix.photosByModule[moduleID] {
		if strings.Contains(m.PhotoType, key) || strings.Contains(m.FileName, key) {
			return true
		}
	}
	return false
}

func (ix *index) hasPhotoType(key string) bool {
	return len(ix.photosByType[key]) > 0
}
