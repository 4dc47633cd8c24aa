package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conneroisu/minplay/internal/engine"
	"github.com/conneroisu/minplay/internal/errors"
	"github.com/conneroisu/minplay/internal/options"
)

var optionsCheck bool

var optionsCmd = &cobra.Command{
	Use:   "options [file.json|-]",
	Short: "Validate and pretty-print an options document",
	Long: `Print an options document with two-space indentation. Without an argument
the default document is printed. The document must be a JSON object whose
keys the minifier understands.

Examples:
  minplay options                    # print the defaults
  minplay options minify.json        # validate and reformat
  minplay options minify.json --check`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOptions,
}

func init() {
	rootCmd.AddCommand(optionsCmd)

	optionsCmd.Flags().BoolVar(&optionsCheck, "check", false, "Only validate, print nothing on success")
}

func runOptions(cmd *cobra.Command, args []string) error {
	text := options.DefaultText
	name := "defaults"
	if len(args) == 1 {
		var err error
		if text, err = readSource(cmd.InOrStdin(), args[0]); err != nil {
			return err
		}
		name = displayName(args[0])
	}

	v, err := options.Parse(text)
	if err != nil {
		return fmt.Errorf("%s: %s", name, errors.Message(err))
	}
	pretty := options.Pretty(v)

	// The engine consumes keys from the map it is given.
	if _, err := engine.DecodeSettings(v); err != nil {
		return fmt.Errorf("%s: %s", name, errors.Message(err))
	}

	if !optionsCheck {
		fmt.Fprintln(cmd.OutOrStdout(), pretty)
	}
	return nil
}
