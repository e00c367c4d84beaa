package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ariel-frischer/vistoria/internal/schema"
	"github.com/ariel-frischer/vistoria/internal/store"
)

// OpenStore opens a store in a temp directory, closed on cleanup.
func OpenStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "vistoria.db"))
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

// Seed creates an inspection holding values and media and returns its id.
func Seed(t *testing.T, s *store.Store, values map[string]map[string]string, media []store.MediaRow) string {
	t.Helper()
	ctx := context.Background()
	reg := schema.Default()

	in, err := s.CreateInspection(ctx, "", "", "tester")
	if err != nil {
		t.Fatalf("creating inspection: %v", err)
	}
	for moduleID, v := range values {
		m, ok := reg.Module(moduleID)
		if !ok {
			t.Fatalf("unknown module %s", moduleID)
		}
		if err := s.SaveModule(ctx, in.ID, moduleID, store.BuildFieldRows(in.ID, m, v)); err != nil {
			t.Fatalf("saving module %s: %v", moduleID, err)
		}
	}
	for _, m := range media {
		m.InspectionID = in.ID
		if _, err := s.AttachMedia(ctx, m); err != nil {
			t.Fatalf("attaching media: %v", err)
		}
	}
	return in.ID
}
