package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/MakeNowJust/heredoc"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/tujuhre12/vstack/internal/config"
	"github.com/tujuhre12/vstack/internal/log"
	"github.com/tujuhre12/vstack/internal/tui/demo"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
	"github.com/tujuhre12/vstack/internal/version"
)

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.Flags().BoolP("help", "h", false, "Help")
}

var rootCmd = &cobra.Command{
	Use:   "vstack [sections.yaml]",
	Short: "Sectioned virtual list surface",
	Long: heredoc.Doc(`
		vstack renders sectioned lists of any size on a recycling surface.
		Given a YAML file of sections it shows the file and follows edits to it,
		animating every structural change.
	`),
	Example: heredoc.Doc(`
		# Browse the built-in sample sections
		vstack

		# Show a file and reload it whenever it changes
		vstack notes.yaml

		# Run in a different directory with debug logging
		vstack -d -c /path/to/project notes.yaml
	`),
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupApp(cmd)
		if err != nil {
			return err
		}

		file := cfg.Demo.File
		if len(args) > 0 {
			file, err = filepath.Abs(args[0])
			if err != nil {
				return fmt.Errorf("failed to resolve %s: %w", args[0], err)
			}
		}
		var sections []section.TextSection
		if file == "" {
			sections = demo.SampleSections()
		}

		program := tea.NewProgram(
			demo.New(cfg, sections, file),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
			tea.WithMouseCellMotion(),
		)

		defer log.RecoverPanic("main", nil)
		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("vstack crashed: %w", err)
		}
		return nil
	},
}

func Execute() {
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(version.Version),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		os.Exit(1)
	}
}

// setupApp loads the configuration of the working directory and starts
// logging into its data directory.
func setupApp(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")
	cwd, err := ResolveCwd(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(cwd, debug)
	if err != nil {
		return nil, err
	}
	if err := config.InitDataDirectory(cfg); err != nil {
		return nil, err
	}
	log.Setup(config.LogFile(cfg), cfg.Options.Debug)
	slog.Debug("Starting", "version", version.Version, "cwd", cwd)
	return cfg, nil
}

// ResolveCwd returns the --cwd flag, changing into it, or the process
// working directory.
func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		if err := os.Chdir(cwd); err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
