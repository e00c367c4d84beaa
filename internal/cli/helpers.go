package cli

import (
	"encoding/json"
	"errors"
	"io"

	"github.com/ariel-frischer/vistoria/internal/app"
	"github.com/ariel-frischer/vistoria/internal/checklist"
	apperrors "github.com/ariel-frischer/vistoria/internal/errors"
	"github.com/ariel-frischer/vistoria/internal/store"
)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// explain turns service errors into CLI errors with remediation.
func explain(err error, inspectionID string) error {
	if err == nil {
		return nil
	}
	var unknown *app.UnknownModuleError
	switch {
	case errors.As(err, &unknown):
		return apperrors.ModuleNotFound(unknown.ID, unknown.Suggestions)
	case errors.Is(err, store.ErrNotFound):
		return apperrors.InspectionNotFound(inspectionID)
	case errors.Is(err, app.ErrPhotoMissing):
		return apperrors.Wrap(err, apperrors.Argument, "Check the file path")
	case errors.Is(err, app.ErrNoValues):
		return apperrors.InvalidAssignment("")
	case errors.Is(err, checklist.ErrPhotoRequired):
		return apperrors.Wrap(err, apperrors.Argument, "Attach evidence with --photo <path>")
	}
	return err
}

func statusLabel(s store.Status) string {
	switch s {
	case store.StatusDraft:
		return "rascunho"
	case store.StatusInProgress:
		return "em andamento"
	case store.StatusCompleted:
		return "concluída"
	case store.StatusReported:
		return "relatada"
	}
	return string(s)
}
