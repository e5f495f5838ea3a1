package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/MakeNowJust/heredoc"
	"github.com/aymanbagabas/go-udiff"
	"github.com/spf13/cobra"
	"github.com/tujuhre12/vstack/internal/tui/exp/diff"
	"github.com/tujuhre12/vstack/internal/tui/exp/section"
	"gopkg.in/yaml.v3"
)

var diffCmd = &cobra.Command{
	Use:   "diff <old.yaml> <new.yaml>",
	Short: "Print the edit script between two section files",
	Long: `Reconcile two section files and print the structural edits that turn the
first into the second, in the order a surface applies them.`,
	Example: heredoc.Doc(`
		# Print the edit script
		vstack diff before.yaml after.yaml

		# As JSON
		vstack diff -f json before.yaml after.yaml

		# Also show a line diff of both files as a surface lays them out
		vstack diff --render before.yaml after.yaml
	`),
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		render, _ := cmd.Flags().GetBool("render")

		prev, err := section.Load(args[0])
		if err != nil {
			return err
		}
		next, err := section.Load(args[1])
		if err != nil {
			return err
		}
		script := diff.Reconcile(section.NewSnapshot(prev...), section.NewSnapshot(next...))

		out := cmd.OutOrStdout()
		if err := formatScript(out, script, format); err != nil {
			return err
		}
		if render {
			fmt.Fprintln(out)
			fmt.Fprint(out, udiff.Unified(args[0], args[1], outline(prev), outline(next)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(diffCmd)
	diffCmd.Flags().StringP("format", "f", "text", "Output format (text, json, yaml)")
	diffCmd.Flags().Bool("render", false, "Also print a unified diff of both layouts")
}

func formatScript(w io.Writer, script diff.Script, format string) error {
	switch strings.ToLower(format) {
	case "json":
		if script == nil {
			script = diff.Script{}
		}
		data, err := json.MarshalIndent(script, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal to JSON: %w", err)
		}
		fmt.Fprintln(w, string(data))
	case "yaml":
		if script == nil {
			script = diff.Script{}
		}
		data, err := yaml.Marshal(script)
		if err != nil {
			return fmt.Errorf("failed to marshal to YAML: %w", err)
		}
		fmt.Fprint(w, string(data))
	case "text":
		fmt.Fprintln(w, script.String())
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	return nil
}

// outline lays sections out one line per row, the way a surface with
// headers shows them.
func outline(sections []section.TextSection) string {
	var b strings.Builder
	for _, s := range sections {
		if !s.Visible() {
			continue
		}
		fmt.Fprintf(&b, "# %s\n", s.Key)
		for _, item := range s.Items {
			fmt.Fprintf(&b, "  %s\n", item.Text)
		}
	}
	return b.String()
}
