package errors

import (
	"fmt"
	"strings"
)

// InspectionNotFound reports an unknown inspection id.
func InspectionNotFound(id string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("inspection not found: %s", id),
		"List inspections with: vistoria inspection list",
		"Create one with: vistoria inspection create --client <name>",
	)
}

// ModuleNotFound reports an unknown module id, suggesting close matches.
func ModuleNotFound(id string, suggestions []string) *CLIError {
	err := NewArgumentError(
		fmt.Sprintf("unknown module: %s", id),
		"List modules with: vistoria schema list",
	)
	if len(suggestions) > 0 {
		err.Remediation = append([]string{"Did you mean: " + strings.Join(suggestions, ", ") + "?"}, err.Remediation...)
	}
	return err
}

// ReportBlocked reports an export stopped by critical validation findings.
func ReportBlocked(id string, critical []string) *CLIError {
	return NewValidationError(
		fmt.Sprintf("report for inspection %s is blocked by critical findings", id),
		critical,
		"Fill the missing data with: vistoria module set "+id+" <module> key=value",
		"Re-check with: vistoria validate "+id,
	)
}

// ExportNotFound reports an unknown export log id.
func ExportNotFound(id string) *CLIError {
	return NewPrerequisiteError(
		fmt.Sprintf("export not found: %s", id),
		"List exports with: vistoria exports <inspection-id>",
	)
}

// ChecklistItemNotFound reports an item missing from the inspection's checklist.
func ChecklistItemNotFound(inspectionID, itemID string) *CLIError {
	return NewArgumentError(
		fmt.Sprintf("checklist item %s not found for inspection %s", itemID, inspectionID),
		"Select the cabin type first: vistoria module set "+inspectionID+" cabin_type cabin_type=<type>",
		"List items with: vistoria checklist list "+inspectionID,
	)
}

// InvalidAssignment reports a module value that is not key=value.
func InvalidAssignment(arg string) *CLIError {
	return NewArgumentErrorWithUsage(
		fmt.Sprintf("invalid assignment %q", arg),
		"vistoria module set <inspection-id> <module> key=value [key=value...]",
		"Quote values containing spaces: client_name=\"Condomínio São João\"",
	)
}

// ConfigFileInvalid reports a config file that failed to load.
func ConfigFileInvalid(err error) *CLIError {
	return WrapWithMessage(err, Configuration, "loading configuration",
		"Inspect the config with: vistoria config keys",
		"Fix the file at ~/.vistoria/config.json or .vistoria/config.json",
	)
}

// DatabaseUnavailable reports a database that could not be opened.
func DatabaseUnavailable(path string, err error) *CLIError {
	return WrapWithMessage(err, Prerequisite, "opening database "+path,
		"Check database_path with: vistoria config get database_path",
		"Ensure the directory is writable",
	)
}
