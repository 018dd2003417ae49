// Package convert runs the conversion pipeline: it imports every model of a
// database into a scene, rebuilds its meshes, sockets and debris clusters and
// writes the geometry bundle and manifest.
package convert

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Faultbox/gravity-convert/internal/config"
	"github.com/Faultbox/gravity-convert/internal/database"
	"github.com/Faultbox/gravity-convert/internal/grammar"
	"github.com/Faultbox/gravity-convert/internal/ledger"
	"github.com/Faultbox/gravity-convert/internal/manifest"
	"github.com/Faultbox/gravity-convert/internal/scene"
)

// Ledger is the run history the converter consults and appends to.
type Ledger interface {
	Unchanged(model, digest string) (bool, error)
	Record(e ledger.Entry) error
}

// Option configures a Converter.
type Option func(*Converter)

// WithLedger records every result in l and, when resuming, skips models
// whose inputs have not changed since their last conversion.
func WithLedger(l Ledger) Option {
	return func(c *Converter) {
		c.ledger = l
	}
}

// Converter converts models through one scene. It is not safe for
// concurrent use.
type Converter struct {
	svc    scene.Service
	cfg    *config.Config
	log    *zap.Logger
	ledger Ledger
}

// New creates a converter editing svc.
func New(svc scene.Service, cfg *config.Config, log *zap.Logger, opts ...Option) *Converter {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Converter{svc: svc, cfg: cfg, log: log}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ConvertAll converts every base model of db in database order, each
// followed by its variants. Cancellation is checked between models; the
// report holds everything finished before it.
func (c *Converter) ConvertAll(ctx context.Context, db *database.Database) (*Report, error) {
	report := NewReport(db)
	bases := db.Bases()

	for i, base := range bases {
		results, err := c.ConvertBase(ctx, base)
		report.Results = append(report.Results, results...)
		if err != nil {
			return report, err
		}
		c.log.Info("progress", zap.Int("done", i+1), zap.Int("total", len(bases)))
	}
	return report, nil
}

// ConvertBase converts a base model and then its broken, broken-dynamic and
// debris variants.
func (c *Converter) ConvertBase(ctx context.Context, base *database.Model) ([]Result, error) {
	models := append([]*database.Model{base}, base.Variants()...)

	results := make([]Result, 0, len(models))
	for _, m := range models {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		results = append(results, c.Convert(m))
	}
	return results, nil
}

// Convert converts a single model. Import failures skip the model; any
// later error fails it without affecting other models.
func (c *Converter) Convert(m *database.Model) Result {
	log := c.log.With(zap.String("model", m.Name), zap.Stringer("kind", m.Kind))
	res := Result{Model: m.Name, Kind: m.Kind, Output: c.OutputDir(m.Name)}

	if c.ledger != nil {
		digest, err := ledger.Digest(m.SourcePath, m.MaterialInfoPath)
		if err != nil {
			return c.fail(log, res, err)
		}
		res.Digest = digest

		if c.cfg.Run.Resume {
			unchanged, err := c.ledger.Unchanged(m.Name, digest)
			if err != nil {
				return c.fail(log, res, err)
			}
			if unchanged && fileExists(c.manifestPath(m.Name)) {
				res.Status, res.Reason = StatusSkipped, ReasonUnchanged
				log.Info("model skipped", zap.String("reason", ReasonUnchanged))
				return c.finish(log, res)
			}
		}
	}

	log.Info("importing", zap.String("path", m.SourcePath))
	c.svc.Purge()
	if err := c.svc.Import(m.SourcePath); err != nil {
		res.Status, res.Reason, res.Err = StatusSkipped, ReasonImportFailed, err
		log.Warn("model skipped", zap.String("reason", ReasonImportFailed), zap.Error(err))
		return c.finish(log, res)
	}

	b := &build{c: c, model: m, log: log}
	if err := b.run(); err != nil {
		res.Warnings = b.warnings
		return c.fail(log, res, err)
	}
	res.Warnings = b.warnings

	mf := manifest.Build(b.record)
	if err := c.svc.Export(b.export, c.bundlePath(m.Name)); err != nil {
		return c.fail(log, res, err)
	}
	if err := mf.WriteFile(c.manifestPath(m.Name)); err != nil {
		return c.fail(log, res, err)
	}

	res.Status, res.Manifest = StatusConverted, mf
	log.Info("model converted",
		zap.Int("meshes", len(mf.Meshes)),
		zap.Int("locators", len(mf.Locators)),
		zap.Int("clusters", len(mf.DebrisClusters)),
		zap.Int("warnings", len(res.Warnings)),
	)
	return c.finish(log, res)
}

func (c *Converter) fail(log *zap.Logger, res Result, err error) Result {
	var fatal *FatalError
	if !errors.As(err, &fatal) {
		err = &FatalError{Model: res.Model, Err: err}
	}
	res.Status, res.Err = StatusFailed, err
	log.Error("model failed", zap.Error(err))
	return c.finish(log, res)
}

// finish records res in the ledger. A ledger write error is logged, not
// propagated; it only costs a rebuild on the next resumed run.
func (c *Converter) finish(log *zap.Logger, res Result) Result {
	if c.ledger == nil {
		return res
	}

	e := ledger.Entry{
		Model:  res.Model,
		Status: res.Status.String(),
		Reason: res.Reason,
		Digest: res.Digest,
	}
	if res.Manifest != nil {
		e.Manifest = res.Manifest.Version
	}
	if res.Err != nil && e.Reason == "" {
		e.Reason = res.Err.Error()
	}
	if err := c.ledger.Record(e); err != nil {
		log.Warn("ledger write failed", zap.Error(err))
	}
	return res
}

// OutputDir returns the output directory of a model.
func (c *Converter) OutputDir(model string) string {
	return filepath.Join(c.cfg.Paths.Output, model)
}

func (c *Converter) bundlePath(model string) string {
	ext := ".gltf"
	if c.cfg.Conversion.Binary {
		ext = ".glb"
	}
	return filepath.Join(c.OutputDir(model), model+ext)
}

func (c *Converter) manifestPath(model string) string {
	return filepath.Join(c.OutputDir(model), model+".json")
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func names(models []*database.Model) []string {
	out := make([]string, len(models))
	for i, m := range models {
		out[i] = m.Name
	}
	return out
}

func isDebris(m *database.Model) bool {
	return m.Kind == grammar.VariantDebris
}

// warn keeps a model warning and logs it.
func warn(log *zap.Logger, dst *[]string, msgs ...string) {
	for _, msg := range msgs {
		*dst = append(*dst, msg)
		log.Warn(msg)
	}
}

var _ Ledger = (*ledger.Ledger)(nil)