package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/conneroisu/minplay/internal/engine"
	"github.com/conneroisu/minplay/internal/errors"
	"github.com/conneroisu/minplay/internal/size"
)

var minifyStats bool

var minifyCmd = &cobra.Command{
	Use:     "minify [source.js|-]",
	Aliases: []string{"m"},
	Short:   "Minify a file once and print the result",
	Long: `Minify a file, or stdin when no file or "-" is given, with the options from
--options (or the defaults) and print the result.

Examples:
  minplay minify app.js
  cat app.js | minplay minify --stats
  minplay minify app.js --options minify.json > app.min.js`,
	Args: cobra.MaximumNArgs(1),
	RunE: runMinify,
}

func init() {
	rootCmd.AddCommand(minifyCmd)

	minifyCmd.Flags().BoolVar(&minifyStats, "stats", false, "Print source and result sizes to stderr")
}

func runMinify(cmd *cobra.Command, args []string) error {
	name := "-"
	if len(args) == 1 {
		name = args[0]
	}

	source, err := readSource(cmd.InOrStdin(), name)
	if err != nil {
		return err
	}

	doc, err := loadDocument(viper.GetString("options.file"))
	if err != nil {
		return err
	}
	opts, err := doc.Snapshot()
	if err != nil {
		return err
	}

	result, err := engine.Safe(engine.NewESBuild()).Minify(cmd.Context(), source, opts)
	if err != nil {
		return fmt.Errorf("%s: %s", displayName(name), errors.Message(err))
	}

	fmt.Fprintln(cmd.OutOrStdout(), strings.TrimSuffix(result, "\n"))
	if minifyStats {
		src, res := size.ByteSize(source), size.ByteSize(result)
		fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s (%.1f%% smaller)\n", size.Format(src), size.Format(res), size.Savings(src, res))
	}
	return nil
}

func readSource(stdin io.Reader, name string) (string, error) {
	if name == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", errors.WrapIO(err, errors.ErrCodeFileNotFound, "reading stdin")
		}
		return string(data), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return "", errors.WrapIO(err, errors.ErrCodeFileNotFound, "reading source file").WithLocation(name, 0, 0)
	}
	return string(data), nil
}

func displayName(name string) string {
	if name == "-" {
		return "<stdin>"
	}
	return name
}
