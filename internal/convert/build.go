package convert

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Faultbox/gravity-convert/internal/database"
	"github.com/Faultbox/gravity-convert/internal/debris"
	"github.com/Faultbox/gravity-convert/internal/locator"
	"github.com/Faultbox/gravity-convert/internal/manifest"
	"github.com/Faultbox/gravity-convert/internal/materials"
	"github.com/Faultbox/gravity-convert/internal/partition"
	"github.com/Faultbox/gravity-convert/internal/scene"
	"github.com/Faultbox/gravity-convert/pkg/formats"
)

// build holds the scene edits of one imported model.
type build struct {
	c     *Converter
	model *database.Model
	log   *zap.Logger

	record   manifest.Record
	export   []scene.ID
	warnings []string

	// Bounded-sphere materials whose parameters were already extended.
	adjusted map[string]bool
}

func (b *build) run() error {
	m := b.model
	b.record = manifest.Record{
		Name:          m.Name,
		Broken:        names(m.Broken),
		BrokenDynamic: names(m.BrokenDynamic),
		Debris:        names(m.Debris),
	}
	b.adjusted = make(map[string]bool)

	objects := b.c.svc.Objects()
	armature, warnings := locator.ResolveArmature(objects)
	warn(b.log, &b.warnings, warnings...)

	if isDebris(m) {
		return b.convertDebris(objects, armature)
	}
	return b.convertModel(objects, armature)
}

// convertModel merges the model meshes into nanite sections and regular
// groups and attaches one socket per locator.
func (b *build) convertModel(objects []scene.Object, armature locator.Armature) error {
	svc := b.c.svc

	meshes, err := partition.Collect(svc, b.c.cfg.Conversion.PlaceholderMesh)
	if err != nil {
		return fmt.Errorf("collecting meshes: %w", err)
	}
	b.log.Debug("meshes collected", zap.Int("count", len(meshes)))

	info, err := b.reduce(meshes)
	if err != nil {
		return err
	}

	nanite, regular, err := b.merge(b.model.Name, refresh(svc, meshes), info)
	if err != nil {
		return err
	}

	ex, err := locator.Extract(objects, armature, b.model.Materials)
	if err != nil {
		return fmt.Errorf("extracting locators: %w", err)
	}
	warn(b.log, &b.warnings, ex.Warnings...)
	info.Update(ex.Materials)

	sockets, err := locator.Attach(svc, ex.Locators, nanite, regular)
	if err != nil {
		return err
	}

	b.record.NaniteSections = meshNames(svc, nanite)
	b.record.RegularGroups = meshNames(svc, regular)
	b.record.Locators = locator.Manifests(ex.Locators)
	b.record.Materials = info

	b.export = append(b.export, nanite...)
	b.export = append(b.export, regular...)
	b.export = append(b.export, sockets...)
	return nil
}

// convertDebris splits every mesh of the scene into the clusters declared by
// the armature and merges each cluster on its own. Debris models have no
// sockets.
func (b *build) convertDebris(objects []scene.Object, armature locator.Armature) error {
	svc := b.c.svc

	if !armature.Found {
		return fmt.Errorf("%w: debris model has no armature", debris.ErrClusterMismatch)
	}

	clusters, err := debris.Build(objects, armature.RootBones(objects), scene.OfKind(objects, scene.KindMesh))
	if err != nil {
		return err
	}
	b.log.Debug("debris clusters found", zap.Int("count", len(clusters)))

	var all []scene.Object
	for _, cl := range clusters {
		all = append(all, cl.Meshes...)
	}
	info, err := b.reduce(all)
	if err != nil {
		return err
	}

	var naniteIDs, regularIDs []scene.ID
	for _, cl := range clusters {
		nanite, regular, err := b.merge(b.model.Name+"_"+cl.Name, refresh(svc, cl.Meshes), info)
		if err != nil {
			return fmt.Errorf("cluster %s: %w", cl.Name, err)
		}

		naniteNames, regularNames := meshNames(svc, nanite), meshNames(svc, regular)
		b.record.NaniteSections = append(b.record.NaniteSections, naniteNames...)
		b.record.RegularGroups = append(b.record.RegularGroups, regularNames...)
		b.record.Clusters = append(b.record.Clusters, manifest.Cluster{
			Name:   cl.Name,
			Meshes: append(naniteNames, regularNames...),
		})

		naniteIDs = append(naniteIDs, nanite...)
		regularIDs = append(regularIDs, regular...)
	}
	b.record.Materials = info

	b.export = append(naniteIDs, regularIDs...)
	return nil
}

// reduce deduplicates the materials used by meshes and rebinds their slots.
// The returned mapping holds copies owned by this model.
func (b *build) reduce(meshes []scene.Object) (*formats.MaterialInfo, error) {
	res := materials.Deduplicate(b.model.Materials, materials.Slots(meshes))

	stripped, err := materials.Apply(b.c.svc, meshes, res)
	if err != nil {
		return nil, fmt.Errorf("rebinding materials: %w", err)
	}

	b.log.Debug("materials reduced",
		zap.Int("kept", res.Materials.Len()),
		zap.Int("merged", len(res.Aliases)),
		zap.Int("images_stripped", stripped),
	)
	return res.Materials, nil
}

// merge classifies meshes and builds <prefix>_opaque (split into nanite
// sections), <prefix>_translucent and <prefix>_grass_locator.
func (b *build) merge(prefix string, meshes []scene.Object, info *formats.MaterialInfo) (nanite, regular []scene.ID, err error) {
	svc := b.c.svc

	buckets, err := partition.Classify(meshes, info)
	if err != nil {
		return nil, nil, err
	}

	if len(buckets.Opaque) > 0 {
		id, err := svc.Merge(partition.IDs(buckets.Opaque), prefix+"_opaque")
		if err != nil {
			return nil, nil, fmt.Errorf("merging opaque meshes: %w", err)
		}
		b.adjust(id, info)

		nanite, err = partition.Partition(svc, id, b.c.cfg.Conversion.MaxMaterialsPerSection)
		if err != nil {
			return nil, nil, err
		}
	}

	if len(buckets.Translucent) > 0 {
		id, err := svc.Merge(partition.IDs(buckets.Translucent), prefix+"_translucent")
		if err != nil {
			return nil, nil, fmt.Errorf("merging translucent meshes: %w", err)
		}
		b.adjust(id, info)
		regular = append(regular, id)
	}

	if len(buckets.GrassLocator) > 0 {
		if err := partition.BuildLocatorFaces(svc, buckets.GrassLocator); err != nil {
			return nil, nil, err
		}
		id, err := svc.Merge(partition.IDs(buckets.GrassLocator), prefix+"_grass_locator")
		if err != nil {
			return nil, nil, fmt.Errorf("merging locator meshes: %w", err)
		}
		b.adjust(id, info)
		regular = append(regular, id)
	}

	b.log.Debug("meshes merged",
		zap.String("prefix", prefix),
		zap.Int("nanite_sections", len(nanite)),
		zap.Int("regular_groups", len(regular)),
	)
	return nanite, regular, nil
}

// adjust extends the bounded-sphere parameters of the materials on mesh,
// once per material and model.
func (b *build) adjust(mesh scene.ID, info *formats.MaterialInfo) {
	pending := formats.NewMaterialInfo()
	for _, n := range info.Names() {
		if !b.adjusted[n] {
			d, _ := info.Get(n)
			pending.Set(n, d)
		}
	}
	materials.AdjustParameters(b.c.svc, mesh, pending)

	obj, ok := scene.Find(b.c.svc.Objects(), mesh)
	if !ok {
		return
	}
	for _, slot := range obj.Materials() {
		if n, _, ok := info.Lookup(slot); ok {
			b.adjusted[n] = true
		}
	}
}

// refresh re-reads mesh snapshots after their slots were rebound.
func refresh(svc scene.Service, meshes []scene.Object) []scene.Object {
	objects := svc.Objects()
	out := make([]scene.Object, 0, len(meshes))
	for _, m := range meshes {
		if o, ok := scene.Find(objects, m.ID); ok {
			out = append(out, o)
		}
	}
	return out
}

func meshNames(svc scene.Service, ids []scene.ID) []string {
	objects := svc.Objects()
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if o, ok := scene.Find(objects, id); ok {
			out = append(out, o.Name)
		}
	}
	return out
}
