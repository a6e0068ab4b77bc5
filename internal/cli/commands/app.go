package commands

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/conduit-lang/descriptor/examples/sample"
	"github.com/conduit-lang/descriptor/internal/cli/config"
	"github.com/conduit-lang/descriptor/internal/cli/ui"
	"github.com/conduit-lang/descriptor/internal/descriptor/builder"
	"github.com/conduit-lang/descriptor/internal/descriptor/model"
	"github.com/conduit-lang/descriptor/internal/dictionary"
	"github.com/conduit-lang/descriptor/internal/persistence"
	"github.com/conduit-lang/descriptor/internal/resource"
	"go.uber.org/zap"
)

// app is an opened persistence unit with its model and dictionary
type app struct {
	opts    *options
	cfg     *config.Config
	logger  *zap.Logger
	factory *persistence.Factory
	model   *model.Model
	dict    *dictionary.Dictionary
}

// errEntityNotFound is returned for entity names missing from the model
var errEntityNotFound = errors.New("entity not found")

// newLogger builds a development logger in verbose mode
func newLogger(verbose bool) *zap.Logger {
	if !verbose {
		return zap.NewNop()
	}
	logger, err := zap.NewDevelopment()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

// loadConfig loads the configuration and registers the units it names
func loadConfig(opts *options) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := newLogger(opts.verbose)
	persistence.SetLogger(logger)

	if err := defineUnits(cfg); err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

// defineUnits registers the sample unit, pointed at the configured store,
// and every other configured unit over the sample entity types. The
// sample unit always creates its schema.
func defineUnits(cfg *config.Config) error {
	uc := cfg.Unit(sample.Unit)
	if err := sample.Define(uc.Driver, uc.DSN); err != nil {
		return err
	}
	if uc.MaxOpenConns > 0 {
		if err := persistence.Configure(sample.Unit, persistence.Connection{MaxOpenConns: uc.MaxOpenConns}); err != nil {
			return err
		}
	}

	for name, u := range cfg.Units {
		if name == sample.Unit {
			continue
		}
		err := persistence.Define(persistence.Unit{
			Name:         name,
			Driver:       u.Driver,
			DSN:          u.DSN,
			Types:        sample.Types(),
			MaxOpenConns: u.MaxOpenConns,
			CreateSchema: u.CreateSchema,
		})
		if err != nil {
			return fmt.Errorf("invalid unit %q: %w", name, err)
		}
	}
	return nil
}

// openApp opens the selected unit, seeds it when asked, and builds the
// model of its entities
func openApp(ctx context.Context, opts *options) (*app, error) {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}

	factory, err := persistence.Open(ctx, opts.unit)
	if err != nil {
		return nil, err
	}

	a := &app{opts: opts, cfg: cfg, logger: logger, factory: factory}

	if opts.seed > 0 {
		if err := sample.Seed(ctx, factory, opts.seed); err != nil {
			a.Close()
			return nil, fmt.Errorf("failed to seed unit %q: %w", opts.unit, err)
		}
	}

	units, err := resource.NewUnit(opts.unit, resource.WithLogger(logger))
	if err != nil {
		a.Close()
		return nil, err
	}
	a.model, err = builder.NewPersistent().Resources(units).WithLogger(logger).Build()
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	a.dict, err = dictionary.NewWithFactory(factory, dictionary.WithLogger(logger))
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// Close closes every open unit
func (a *app) Close() error {
	err := persistence.CloseAll()
	_ = a.logger.Sync()
	return err
}

// entity resolves an entity name, printing suggestions to w when it is
// unknown
func (a *app) entity(w io.Writer, name string) (*model.EntityDescriptor, error) {
	if d, ok := a.model.EntityNamed(name); ok {
		return d, nil
	}

	known := make([]string, 0, a.model.Len())
	for _, d := range a.model.Entities() {
		known = append(known, d.Name())
	}
	fmt.Fprint(w, ui.EntityNotFoundError(name, known, a.opts.noColor))
	return nil, fmt.Errorf("%w: %s", errEntityNotFound, name)
}
