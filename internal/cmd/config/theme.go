package config

import (
	"fmt"
	"os"

	appconfig "github.com/Iron-Ham/adminkit/internal/config"
	"github.com/Iron-Ham/adminkit/internal/styles"
	"github.com/spf13/cobra"
)

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Manage color themes",
	Long: `Manage color themes used by 'adminkit render'.

adminkit ships built-in themes and accepts a custom YAML theme file via
theme.file in the config.

Use 'theme list' to see all available themes.
Use 'theme export' to create a template for a custom theme.
Use 'theme info' to view the colors of a theme.`,
}

var themeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all available themes",
	RunE:  runThemeList,
}

var themeExportCmd = &cobra.Command{
	Use:   "export <theme-name> [output-file]",
	Short: "Export a theme to YAML",
	Long: `Export a built-in theme to YAML as a starting point for a custom theme.

If no output file is specified, the YAML is printed to stdout.

Examples:
  adminkit config theme export default               # Print default theme to stdout
  adminkit config theme export dracula my-theme.yaml # Save dracula theme to file`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runThemeExport,
}

var themeInfoCmd = &cobra.Command{
	Use:   "info [theme-name]",
	Short: "Show information about a theme",
	Long: `Show the colors of a theme. Without a name, shows the configured theme
(theme.file when set, otherwise theme.name).`,
	Args: cobra.MaximumNArgs(1),
	RunE: runThemeInfo,
}

func init() {
	themeCmd.AddCommand(themeListCmd)
	themeCmd.AddCommand(themeExportCmd)
	themeCmd.AddCommand(themeInfoCmd)
	configCmd.AddCommand(themeCmd)
}

func runThemeList(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	current := appconfig.Get().Theme

	fmt.Fprintln(out, "Built-in themes:")
	for _, name := range styles.BuiltinThemes() {
		marker := " "
		if current.File == "" && name == current.Name {
			marker = "*"
		}
		fmt.Fprintf(out, "  %s %s\n", marker, name)
	}
	if current.File != "" {
		fmt.Fprintf(out, "\nCustom theme file: %s\n", current.File)
	}
	return nil
}

func runThemeExport(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	themeName := args[0]

	if !styles.IsBuiltinTheme(themeName) {
		return fmt.Errorf("unknown theme: %s\n\nRun 'adminkit config theme list' to see available themes", themeName)
	}

	data, err := styles.ExportTheme(styles.ThemeName(themeName))
	if err != nil {
		return fmt.Errorf("exporting theme: %w", err)
	}

	// If output file specified, write to file
	if len(args) > 1 {
		outputPath := args[1]
		if err := os.WriteFile(outputPath, data, 0o644); err != nil {
			return fmt.Errorf("writing to %s: %w", outputPath, err)
		}
		fmt.Fprintf(out, "Theme exported to: %s\n", outputPath)
		return nil
	}

	_, err = out.Write(data)
	return err
}

func runThemeInfo(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	name, file := "", ""
	if len(args) > 0 {
		name = args[0]
	} else {
		current := appconfig.Get().Theme
		name, file = current.Name, current.File
	}

	palette, err := styles.Resolve(name, file)
	if err != nil {
		return fmt.Errorf("%w\n\nRun 'adminkit config theme list' to see available themes", err)
	}

	if file != "" {
		fmt.Fprintf(out, "Theme file: %s\n", file)
	} else {
		fmt.Fprintf(out, "Theme: %s (built-in)\n", name)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Colors:")
	fmt.Fprintf(out, "  Primary:   %s\n", palette.Primary)
	fmt.Fprintf(out, "  Secondary: %s\n", palette.Secondary)
	fmt.Fprintf(out, "  Warning:   %s\n", palette.Warning)
	fmt.Fprintf(out, "  Error:     %s\n", palette.Error)
	fmt.Fprintf(out, "  Muted:     %s\n", palette.Muted)
	fmt.Fprintf(out, "  Text:      %s\n", palette.Text)
	fmt.Fprintf(out, "  Border:    %s\n", palette.Border)

	return nil
}
