package watcher

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/conneroisu/minplay/internal/errors"
	"github.com/conneroisu/minplay/internal/logging"
	"github.com/conneroisu/minplay/internal/pipeline"
)

// SessionConfig names the files a Session reads and writes.
type SessionConfig struct {
	SourcePath  string
	OptionsPath string
	// OutPath receives each successful result. Empty means Stdout.
	OutPath string
	Stdout  io.Writer
}

// Session drives a pipeline.Controller from a source file and an optional
// options file.
type Session struct {
	cfg     SessionConfig
	ctrl    *pipeline.Controller
	watcher *FileWatcher
	logger  logging.Logger

	sourcePath  string
	optionsPath string

	mu       sync.Mutex
	settled  uint64
	writeErr error
}

// NewSession registers the session's files with fw and subscribes to ctrl.
func NewSession(cfg SessionConfig, ctrl *pipeline.Controller, fw *FileWatcher, logger logging.Logger) (*Session, error) {
	if cfg.SourcePath == "" {
		return nil, errors.NewValidationError(errors.ErrCodeValidationFailed, "a source file is required")
	}
	if cfg.Stdout == nil {
		cfg.Stdout = os.Stdout
	}
	if logger == nil {
		logger = logging.Nop()
	}

	s := &Session{cfg: cfg, ctrl: ctrl, watcher: fw, logger: logger.WithComponent("watch")}

	var err error
	if s.sourcePath, err = fw.AddFile(cfg.SourcePath); err != nil {
		return nil, err
	}
	if cfg.OptionsPath != "" {
		if s.optionsPath, err = fw.AddFile(cfg.OptionsPath); err != nil {
			return nil, err
		}
	}

	fw.AddHandler(s.handleChanges)
	ctrl.Subscribe(s.onState)
	return s, nil
}

// Load reads both files once and feeds them to the controller, options first
// so the source is evaluated with them.
func (s *Session) Load() error {
	if s.optionsPath != "" {
		if err := s.loadOptions(); err != nil {
			return err
		}
	}
	return s.loadSource()
}

// Run loads the files, then follows changes until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	if err := s.Load(); err != nil {
		return err
	}
	if err := s.watcher.Start(ctx); err != nil {
		return err
	}
	s.logger.Info(ctx, "Watching for changes", "source", s.sourcePath, "options", s.optionsPath)

	<-ctx.Done()
	return s.watcher.Stop()
}

// Once loads the files, runs a single evaluation and returns its transform
// error, if any.
func (s *Session) Once(ctx context.Context) error {
	if err := s.Load(); err != nil {
		return err
	}
	s.ctrl.Flush()
	if err := s.ctrl.WaitIdle(ctx); err != nil {
		return err
	}

	st := s.ctrl.Snapshot()
	if st.OptionsError != nil {
		return st.OptionsError
	}
	if st.TransformError != nil {
		return st.TransformError
	}
	return s.WriteErr()
}

// WriteErr returns the last error writing a result, if any.
func (s *Session) WriteErr() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writeErr
}

func (s *Session) handleChanges(events []ChangeEvent) error {
	// Options go first so a save of both files evaluates the new pair.
	for _, ev := range events {
		if ev.Path == s.optionsPath && ev.Type != EventTypeDeleted {
			if err := s.loadOptions(); err != nil {
				return err
			}
		}
	}
	for _, ev := range events {
		if ev.Path == s.sourcePath && ev.Type != EventTypeDeleted {
			if err := s.loadSource(); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *Session) loadSource() error {
	data, err := os.ReadFile(s.sourcePath)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeFileNotFound, "reading source file").WithLocation(s.sourcePath, 0, 0)
	}
	s.ctrl.OnSourceChanged(string(data))
	return nil
}

func (s *Session) loadOptions() error {
	data, err := os.ReadFile(s.optionsPath)
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeFileNotFound, "reading options file").WithLocation(s.optionsPath, 0, 0)
	}
	if outcome := s.ctrl.OnOptionsTextChanged(string(data)); !outcome.OK {
		s.logger.Warn(context.Background(), outcome.Err, "Options file does not parse; keeping previous options",
			"file", s.optionsPath, "message", errors.Message(outcome.Err))
	}
	return nil
}

// onState writes each newly settled successful result.
func (s *Session) onState(st pipeline.State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if st.Evaluations <= s.settled {
		return
	}
	s.settled = st.Evaluations

	ctx := context.Background()
	switch {
	case errors.IsTransformError(st.TransformError):
		s.logger.Warn(ctx, st.TransformError, "Minification failed", "message", st.TransformMessage())
		return
	case st.TransformError != nil:
		s.logger.Error(ctx, st.TransformError, "Evaluation failed")
		return
	}

	s.writeErr = s.write(st.ResultText)
	if s.writeErr != nil {
		s.logger.Error(ctx, s.writeErr, "Failed to write result", "out", s.cfg.OutPath)
		return
	}
	s.logger.Info(ctx, "Minified",
		"source_bytes", st.SourceSize,
		"result_bytes", st.ResultSize,
		"saved_percent", fmt.Sprintf("%.1f", st.Savings()),
	)
}

func (s *Session) write(result string) error {
	if s.cfg.OutPath == "" {
		_, err := io.WriteString(s.cfg.Stdout, strings.TrimSuffix(result, "\n")+"\n")
		return err
	}

	// Write to a temporary file and rename so readers never see a partial
	// result.
	dir := filepath.Dir(s.cfg.OutPath)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.cfg.OutPath)+".*")
	if err != nil {
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "creating output file")
	}
	if _, err := tmp.WriteString(result); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "writing output file")
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "writing output file")
	}
	if err := os.Rename(tmp.Name(), s.cfg.OutPath); err != nil {
		_ = os.Remove(tmp.Name())
		return errors.WrapIO(err, errors.ErrCodeWriteFailed, "replacing output file")
	}
	return nil
}
