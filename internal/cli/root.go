// Package cli provides the Cobra commands of vistoria: inspection data entry, final report
// validation, report export and delivery, checklist execution, the HTTP API server and
// configuration management.
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/vistoria/internal/app"
	cliconfig "github.com/ariel-frischer/vistoria/internal/cli/config"
	"github.com/ariel-frischer/vistoria/internal/cli/shared"
	"github.com/ariel-frischer/vistoria/internal/config"
	apperrors "github.com/ariel-frischer/vistoria/internal/errors"
	"github.com/ariel-frischer/vistoria/internal/log"
)

// Command group IDs for organizing help output (re-exported from shared)
const (
	GroupInspections   = shared.GroupInspections
	GroupReports       = shared.GroupReports
	GroupChecklist     = shared.GroupChecklist
	GroupConfiguration = shared.GroupConfiguration
)

// ConfigLoader loads the configuration given the project config path.
type ConfigLoader func(projectPath string) (*config.Configuration, error)

// skipConfig marks commands that must run without a loaded configuration.
const skipConfig = "skip-config"

type rootOptions struct {
	configPath string
	debug      bool
	load       ConfigLoader
	cfg        *config.Configuration
}

// NewRootCmd builds the command tree. load is called once before any command that needs
// configuration.
func NewRootCmd(load ConfigLoader) *cobra.Command {
	o := &rootOptions{load: load}

	root := &cobra.Command{
		Use:   "vistoria",
		Short: "Technical inspection of electrical installations",
		Long: `vistoria records technical inspections of medium-voltage electrical cabins,
validates them for completeness and exports versioned PDF reports.`,
		Example: `  # Start an inspection and fill the client module
  vistoria inspection create --client "Condomínio São João"
  vistoria module set <id> client contact_email=maria@saojoao.com.br authorization=true

  # Check what is missing, then export and email the report
  vistoria validate <id>
  vistoria export <id> --email`,
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return o.setup(cmd)
		},
	}

	root.AddGroup(&cobra.Group{ID: GroupInspections, Title: "Inspections:"})
	root.AddGroup(&cobra.Group{ID: GroupReports, Title: "Reports:"})
	root.AddGroup(&cobra.Group{ID: GroupChecklist, Title: "Checklist:"})
	root.AddGroup(&cobra.Group{ID: GroupConfiguration, Title: "Configuration:"})
	root.SetHelpCommandGroupID(GroupConfiguration)
	root.SetCompletionCommandGroupID(GroupConfiguration)

	root.PersistentFlags().StringVarP(&o.configPath, "config", "c", config.ProjectConfigPath(), "Path to project config file")
	root.PersistentFlags().BoolVarP(&o.debug, "debug", "d", false, "Enable debug logging")

	root.AddCommand(
		newInspectionCmd(o),
		newModuleCmd(o),
		newPhotoCmd(o),
		newValidateCmd(o),
		newExportCmd(o),
		newExportsCmd(o),
		newRetryDeliveryCmd(o),
		newChecklistCmd(o),
		newSchemaCmd(),
		newServeCmd(o),
		newDoctorCmd(o),
		newVersionCmd(),
	)
	cliconfig.Register(root, skipConfig)
	return root
}

func (o *rootOptions) setup(cmd *cobra.Command) error {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipConfig] == "true" {
			return nil
		}
	}
	cfg, err := o.load(o.configPath)
	if err != nil {
		return apperrors.ConfigFileInvalid(err)
	}
	o.cfg = cfg

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return apperrors.NewConfigError(err.Error())
	}
	if o.debug {
		level = log.LevelDebug
	}
	log.Setup(level, nil)
	return nil
}

// openApp opens the database and wires the services; the caller closes it.
func (o *rootOptions) openApp(ctx context.Context) (*app.App, error) {
	a, err := app.Open(ctx, o.cfg)
	if err != nil {
		return nil, apperrors.DatabaseUnavailable(o.cfg.DatabasePath, err)
	}
	return a, nil
}

// Execute runs the CLI with the on-disk configuration and prints any error to stderr.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := NewRootCmd(config.Load).ExecuteContext(ctx)
	printError(os.Stderr, err)
	return err
}

func printError(w io.Writer, err error) {
	if err == nil {
		return
	}
	if shared.IsExitError(err) {
		return
	}
	fmt.Fprint(w, apperrors.FormatSimpleError(err, apperrors.Runtime))
}

// ExitCode returns the exit code for an error returned by Execute.
func ExitCode(err error) int {
	return shared.ExitCode(err)
}
