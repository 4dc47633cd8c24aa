package cmd

import (
	"fmt"
	"os"

	"github.com/conneroisu/minplay/internal/config"
	"github.com/conneroisu/minplay/internal/engine"
	"github.com/conneroisu/minplay/internal/errors"
	"github.com/conneroisu/minplay/internal/logging"
	"github.com/conneroisu/minplay/internal/options"
	"github.com/conneroisu/minplay/internal/pipeline"
)

// playground is what serve and watch share: the engine, the options document
// and the controller built from the effective configuration.
type playground struct {
	cfg    *config.Config
	logger logging.Logger
	engine engine.Engine
	ctrl   *pipeline.Controller
	close  func()
}

func newLogger(cfg *config.Config) logging.Logger {
	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewLogger(&logging.LoggerConfig{
		Level:     level,
		Format:    cfg.Log.Format,
		Output:    os.Stderr,
		Component: "minplay",
	})
}

// newEngine returns the esbuild engine, on its own goroutine when the
// worker is enabled.
func newEngine(cfg *config.Config) (engine.Engine, func()) {
	esbuild := engine.NewESBuild()
	if !cfg.Pipeline.Worker {
		return esbuild, func() {}
	}
	w := engine.NewWorker(esbuild)
	return w, func() { _ = w.Close() }
}

// loadDocument reads the configured options file, or the defaults.
func loadDocument(path string) (*options.Document, error) {
	if path == "" {
		return options.Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.WrapIO(err, errors.ErrCodeFileNotFound, "reading options file").WithLocation(path, 0, 0)
	}
	doc, err := options.NewDocument(string(data))
	if err != nil {
		return nil, fmt.Errorf("options file %s: %s", path, errors.Message(err))
	}
	return doc, nil
}

func newPlayground(cfg *config.Config, opts ...pipeline.Option) (*playground, error) {
	logger := newLogger(cfg)

	doc, err := loadDocument(cfg.Options.File)
	if err != nil {
		return nil, err
	}

	eng, closeEngine := newEngine(cfg)
	base := []pipeline.Option{
		pipeline.WithDelay(cfg.Pipeline.Debounce),
		pipeline.WithLogger(logger),
		pipeline.WithDocument(doc),
		pipeline.WithReevaluateOnOptionsChange(cfg.Pipeline.ReevaluateOnOptions),
	}
	ctrl := pipeline.New(eng, append(base, opts...)...)

	return &playground{
		cfg:    cfg,
		logger: logger,
		engine: eng,
		ctrl:   ctrl,
		close: func() {
			ctrl.Close()
			closeEngine()
		},
	}, nil
}
