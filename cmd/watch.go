package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/minplay/internal/config"
	"github.com/conneroisu/minplay/internal/watcher"
)

var (
	watchOut  string
	watchOnce bool
)

var watchCmd = &cobra.Command{
	Use:     "watch <source.js>",
	Aliases: []string{"w"},
	Short:   "Minify a file every time it or its options change",
	Long: `Watch a source file, and the options file given with --options, and write
the minified result after every change. Failed runs are logged and leave the
last good output in place.

Examples:
  minplay watch app.js                          # print results to stdout
  minplay watch app.js -o app.min.js
  minplay watch app.js --options minify.json -o app.min.js
  minplay watch app.js --once -o app.min.js     # minify once and exit`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVarP(&watchOut, "out", "o", "", "Output file (default stdout)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Minify once and exit")
	addPipelineFlags(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if err := bindPipelineFlags(cmd); err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	pg, err := newPlayground(cfg)
	if err != nil {
		return err
	}
	defer pg.close()

	fw, err := watcher.NewFileWatcher(watcher.DefaultDelay, watcher.WithLogger(pg.logger))
	if err != nil {
		return err
	}
	defer fw.Stop()

	session, err := watcher.NewSession(watcher.SessionConfig{
		SourcePath:  args[0],
		OptionsPath: cfg.Options.File,
		OutPath:     watchOut,
		Stdout:      cmd.OutOrStdout(),
	}, pg.ctrl, fw, pg.logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watchOnce {
		return session.Once(ctx)
	}
	return session.Run(ctx)
}
