// Package config provides the CLI commands that read and edit vistoria configuration files.
package config

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ariel-frischer/vistoria/internal/cli/shared"
	cfgpkg "github.com/ariel-frischer/vistoria/internal/config"
	apperrors "github.com/ariel-frischer/vistoria/internal/errors"
)

// projectFlag is the root persistent flag holding the project config path.
const projectFlag = "config"

// Register adds the config command tree to root. skipAnnotation marks commands that must run
// without loading the configuration, so a broken file can still be repaired.
func Register(root *cobra.Command, skipAnnotation string) {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Read and edit configuration values",
		Long: `Read and edit configuration values.

Values live in two JSON files. The user config (~/.vistoria/config.json) applies to every
project; the project config (.vistoria/config.json, or --config) overrides it.
VISTORIA_* environment variables override both.`,
		GroupID: shared.GroupConfiguration,
	}
	cmd.AddCommand(newSetCmd(), newGetCmd(), newToggleCmd(), newKeysCmd())

	cmd.Annotations = map[string]string{skipAnnotation: "true"}
	root.AddCommand(cmd)
}

func addScopeFlags(cmd *cobra.Command, verb string) {
	cmd.Flags().Bool("user", false, verb+" the user-level config (default)")
	cmd.Flags().Bool("project", false, verb+" the project-level config")
	cmd.MarkFlagsMutuallyExclusive("user", "project")
}

func newSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value in user or project config.

The value is validated against the key's type before the file is written.`,
		Example: `  # Retry failed e-mail deliveries up to 5 times
  vistoria config set max_retries 5

  # Default export mode for this project
  vistoria config set default_mode email --project

  # Enable delivery notifications
  vistoria config set notifications.enabled true`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			if _, err := cfgpkg.GetKeySchema(key); err != nil {
				return unknownKeyError(key)
			}
			filePath, scope, err := resolveConfigPath(cmd)
			if err != nil {
				return err
			}
			if err := cfgpkg.SetConfigValue(filePath, key, value); err != nil {
				return apperrors.NewConfigError(fmt.Sprintf("setting %s: %v", key, err),
					"Run 'vistoria config keys' to see the expected type of each key")
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s in %s config (%s)\n", key, value, scope, filePath)
			return nil
		},
	}
	addScopeFlags(cmd, "Set in")
	return cmd
}

func newGetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Long: `Get the current value of a configuration key.

Shows the effective value and which config file it came from.`,
		Example: `  vistoria config get max_retries
  vistoria config get notifications.enabled --user`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			schema, err := cfgpkg.GetKeySchema(key)
			if err != nil {
				return unknownKeyError(key)
			}
			out := cmd.OutOrStdout()

			useUser, _ := cmd.Flags().GetBool("user")
			useProject, _ := cmd.Flags().GetBool("project")
			if useUser || useProject {
				filePath, scope, err := resolveConfigPath(cmd)
				if err != nil {
					return err
				}
				return printScopedValue(out, key, filePath, scope)
			}

			// Project overrides user.
			projectPath := projectConfigPath(cmd)
			userPath, err := cfgpkg.UserConfigPath()
			if err != nil {
				return apperrors.Wrap(err, apperrors.Configuration)
			}
			for _, src := range []struct{ path, scope string }{{projectPath, "project"}, {userPath, "user"}} {
				value, found, err := cfgpkg.GetConfigValue(src.path, key)
				if err != nil {
					return apperrors.ConfigFileInvalid(err)
				}
				if found {
					fmt.Fprintf(out, "%s: %v (from %s config)\n", key, value, src.scope)
					return nil
				}
			}
			if schema.Default == nil {
				fmt.Fprintf(out, "%s: not set\n", key)
				return nil
			}
			fmt.Fprintf(out, "%s: %v (default)\n", key, schema.Default)
			return nil
		},
	}
	addScopeFlags(cmd, "Read from")
	return cmd
}

func printScopedValue(out io.Writer, key, filePath, scope string) error {
	value, found, err := cfgpkg.GetConfigValue(filePath, key)
	if err != nil {
		return apperrors.ConfigFileInvalid(err)
	}
	if !found {
		fmt.Fprintf(out, "%s: not set in %s config\n", key, scope)
		return nil
	}
	fmt.Fprintf(out, "%s: %v (from %s config)\n", key, value, scope)
	return nil
}

func newToggleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toggle <key>",
		Short: "Toggle a boolean configuration value",
		Long: `Toggle a boolean configuration value between true and false.

If the key is not set in the chosen file it becomes true.`,
		Example: `  vistoria config toggle include_workbook --project`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]
			schema, err := cfgpkg.GetKeySchema(key)
			if err != nil {
				return unknownKeyError(key)
			}
			if schema.Type != cfgpkg.TypeBool {
				return apperrors.NewArgumentError(fmt.Sprintf("key %q is not a boolean (type: %s)", key, schema.Type))
			}
			filePath, scope, err := resolveConfigPath(cmd)
			if err != nil {
				return err
			}
			raw, _, err := cfgpkg.GetConfigValue(filePath, key)
			if err != nil {
				return apperrors.ConfigFileInvalid(err)
			}
			current, _ := raw.(bool)
			next := !current
			if err := cfgpkg.SetConfigValue(filePath, key, fmt.Sprint(next)); err != nil {
				return apperrors.Wrap(err, apperrors.Configuration)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Toggled %s: %t -> %t in %s config (%s)\n", key, current, next, scope, filePath)
			return nil
		},
	}
	addScopeFlags(cmd, "Toggle in")
	return cmd
}

func newKeysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys",
		Short: "List all available configuration keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "Available configuration keys:")
			fmt.Fprintln(out)
			for _, key := range cfgpkg.ValidKeys() {
				schema := cfgpkg.KnownKeys[key]
				typeInfo := schema.Type.String()
				if schema.Type == cfgpkg.TypeEnum {
					typeInfo = fmt.Sprintf("enum (%s)", strings.Join(schema.AllowedValues, ", "))
				}
				fmt.Fprintf(out, "  %-32s %s\n", key, typeInfo)
				fmt.Fprintf(out, "    %s\n\n", schema.Description)
			}
			return nil
		},
	}
}

// resolveConfigPath returns the file a write or scoped read targets. User scope is the default.
func resolveConfigPath(cmd *cobra.Command) (filePath, scope string, err error) {
	if useProject, _ := cmd.Flags().GetBool("project"); useProject {
		return projectConfigPath(cmd), "project", nil
	}
	userPath, err := cfgpkg.UserConfigPath()
	if err != nil {
		return "", "", apperrors.Wrap(err, apperrors.Configuration)
	}
	return userPath, "user", nil
}

func projectConfigPath(cmd *cobra.Command) string {
	if f := cmd.Flag(projectFlag); f != nil && f.Value.String() != "" {
		return f.Value.String()
	}
	return cfgpkg.ProjectConfigPath()
}

func unknownKeyError(key string) error {
	return apperrors.NewArgumentError(
		fmt.Sprintf("unknown configuration key: %q", key),
		"Valid keys:\n  "+strings.Join(cfgpkg.ValidKeys(), "\n  "),
	)
}
