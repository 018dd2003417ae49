// Package database discovers source models and their breakable variants in
// a source directory.
package database

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/Faultbox/gravity-convert/internal/config"
	"github.com/Faultbox/gravity-convert/internal/grammar"
	"github.com/Faultbox/gravity-convert/pkg/formats"
)

// ErrMissingMaterialInfo is returned when a source model has no companion
// material description file.
var ErrMissingMaterialInfo = errors.New("missing material description")

// ReasonExcluded is the skip reason for models matching an exclusion prefix.
const ReasonExcluded = "the model was manually excluded from import"

// MaterialStore resolves and loads material description files.
type MaterialStore interface {
	Path(model string) string
	Exists(model string) bool
	Load(path string) (*formats.MaterialInfo, error)
}

// Asset is one source file and its material description.
type Asset struct {
	Name             string
	SourcePath       string
	MaterialInfoPath string
}

// Model is a source asset and, for base models, its breakable variants.
type Model struct {
	Asset
	Kind      grammar.VariantKind
	Materials *formats.MaterialInfo

	Broken        []*Model
	BrokenDynamic []*Model
	Debris        []*Model
}

// Variants returns the variants in processing order: broken, broken-dynamic,
// debris.
func (m *Model) Variants() []*Model {
	out := make([]*Model, 0, len(m.Broken)+len(m.BrokenDynamic)+len(m.Debris))
	out = append(out, m.Broken...)
	out = append(out, m.BrokenDynamic...)
	out = append(out, m.Debris...)
	return out
}

// Skip is a source file left out of conversion.
type Skip struct {
	Name   string
	Reason string
}

// Warning is a non-fatal problem found while scanning.
type Warning struct {
	Name    string
	Message string
}

// Database is the read-only result of a directory scan.
type Database struct {
	Models   map[string]*Model
	Order    []string // Base model names in scan order
	Skipped  []Skip
	Warnings []Warning
}

// Bases returns the base models in scan order.
func (db *Database) Bases() []*Model {
	out := make([]*Model, 0, len(db.Order))
	for _, name := range db.Order {
		out = append(out, db.Models[name])
	}
	return out
}

// Lookup finds a base model by name, exact match first.
func (db *Database) Lookup(name string) (*Model, bool) {
	if m, ok := db.Models[name]; ok {
		return m, true
	}
	for _, n := range db.Order {
		if strings.EqualFold(n, name) {
			return db.Models[n], true
		}
	}
	return nil, false
}

// Build scans cfg.Paths.Source. Entries are visited sorted by name; that
// order is the database order. A source file without a material description
// fails the whole build.
func Build(cfg *config.Config, store MaterialStore, log *zap.Logger) (*Database, error) {
	if log == nil {
		log = zap.NewNop()
	}

	assets, dupes, err := scan(cfg.Paths.Source, cfg.Conversion.Extensions)
	if err != nil {
		return nil, err
	}

	db := &Database{Models: make(map[string]*Model)}
	for _, name := range dupes {
		db.warn(log, name, "duplicate source file ignored")
	}

	var variants []*Model
	for _, a := range assets {
		if hasPrefixFold(a.Name, cfg.Conversion.ExcludePrefixes) {
			db.Skipped = append(db.Skipped, Skip{Name: a.Name, Reason: ReasonExcluded})
			log.Info("model skipped", zap.String("model", a.Name), zap.String("reason", ReasonExcluded))
			continue
		}

		if !store.Exists(a.Name) {
			return nil, fmt.Errorf("%w: %s (expected %s)", ErrMissingMaterialInfo, a.Name, store.Path(a.Name))
		}
		a.MaterialInfoPath = store.Path(a.Name)

		info, err := store.Load(a.MaterialInfoPath)
		if err != nil {
			return nil, fmt.Errorf("model %s: %w", a.Name, err)
		}

		m := &Model{Asset: a, Kind: grammar.VariantBase, Materials: info}
		if v, ok := grammar.ClassifyVariant(a.Name); ok {
			m.Kind = v.Kind
			variants = append(variants, m)
			continue
		}

		db.Models[a.Name] = m
		db.Order = append(db.Order, a.Name)
	}

	for _, v := range variants {
		parent := variantParent(v.Name)
		base, ok := db.Lookup(parent)
		if !ok {
			db.warn(log, v.Name, fmt.Sprintf("orphan %s variant: no base model %q", v.Kind, parent))
			continue
		}

		switch v.Kind {
		case grammar.VariantBroken:
			base.Broken = append(base.Broken, v)
		case grammar.VariantBrokenDynamic:
			base.BrokenDynamic = append(base.BrokenDynamic, v)
		case grammar.VariantDebris:
			base.Debris = append(base.Debris, v)
		}
	}

	log.Debug("model database built",
		zap.Int("models", len(db.Order)),
		zap.Int("variants", len(variants)),
		zap.Int("skipped", len(db.Skipped)),
	)
	return db, nil
}

func (db *Database) warn(log *zap.Logger, name, msg string) {
	db.Warnings = append(db.Warnings, Warning{Name: name, Message: msg})
	log.Warn(msg, zap.String("model", name))
}

func variantParent(name string) string {
	v, _ := grammar.ClassifyVariant(name)
	return v.Parent
}

// scan lists recognized source files sorted by name. Names seen twice with
// different extensions keep the first file and are reported in dupes.
func scan(dir string, extensions []string) (assets []Asset, dupes []string, err error) {
	entries, err := os.ReadDir(dir) // sorted by filename
	if err != nil {
		return nil, nil, fmt.Errorf("reading source directory: %w", err)
	}

	seen := make(map[string]bool)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if !hasExtFold(ext, extensions) {
			continue
		}

		name := strings.TrimSuffix(e.Name(), ext)
		if seen[name] {
			dupes = append(dupes, e.Name())
			continue
		}
		seen[name] = true

		assets = append(assets, Asset{Name: name, SourcePath: filepath.Join(dir, e.Name())})
	}
	return assets, dupes, nil
}

func hasExtFold(ext string, extensions []string) bool {
	for _, e := range extensions {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func hasPrefixFold(name string, prefixes []string) bool {
	lower := strings.ToLower(name)
	for _, p := range prefixes {
		if p != "" && strings.HasPrefix(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}
