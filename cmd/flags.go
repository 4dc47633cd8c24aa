package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/minplay/internal/config"
)

// pipelineFlags maps flag names to the config keys they override.
var pipelineFlags = map[string]string{
	"debounce":   "pipeline.debounce",
	"reevaluate": "pipeline.reevaluate_on_options",
	"worker":     "pipeline.worker",
}

func addPipelineFlags(cmd *cobra.Command) {
	cmd.Flags().Duration("debounce", config.DefaultDebounce, "Quiet period before an edit is minified")
	cmd.Flags().Bool("reevaluate", false, "Re-minify the current source when the options change")
	cmd.Flags().Bool("worker", true, "Run the minifier on a dedicated goroutine")
}

// bindPipelineFlags binds the pipeline flags of the running command. Several
// commands define the same flags, so binding happens at run time rather than
// in init, where the last command would win.
func bindPipelineFlags(cmd *cobra.Command) error {
	return bindFlags(cmd.Flags(), pipelineFlags)
}

func bindFlags(flags *pflag.FlagSet, keys map[string]string) error {
	for name, key := range keys {
		if f := flags.Lookup(name); f != nil {
			if err := viper.BindPFlag(key, f); err != nil {
				return err
			}
		}
	}
	return nil
}
