package formats

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func sampleManifest() *Manifest {
	mats := NewMaterialInfo()
	d := NewDescriptor()
	d.Set("Type", "23")
	mats.Set("wood", d)

	m := &Manifest{
		Version:      "1.1.0",
		Meshes:       []string{"door_opaque", "door_opaque_1", "door_translucent"},
		BrokenModels: []string{"door_brk_bk"},
		DebrisClusters: []DebrisCluster{
			{Name: "plank_0", Meshes: []string{"door_brk_db_plank_0_opaque"}},
		},
		Materials: mats,
	}
	for i := 0; i < 11; i++ {
		m.Locators = append(m.Locators, Locator{Name: "ext_lamp", Type: LocatorModel, ModelName: "lamp"})
	}
	m.Locators[1] = Locator{
		Name:      "PL1",
		Type:      LocatorLight,
		Intensity: 1, Color: [3]float64{1, 1, 1}, Falloff: 2, Range: 5,
	}
	return m
}

func TestManifestKeyOrder(t *testing.T) {
	data, err := sampleManifest().Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	out := string(data)

	keys := []string{`"Version"`, `"Meshes"`, `"BrokenModels"`, `"BrokenDynamicModels"`,
		`"DebrisModels"`, `"DebrisClusters"`, `"Locators"`, `"Materials"`}
	last := -1
	for _, k := range keys {
		idx := strings.Index(out, k)
		if idx < 0 {
			t.Fatalf("missing key %s in %s", k, out)
		}
		if idx < last {
			t.Errorf("key %s out of order", k)
		}
		last = idx
	}

	// Locator10 must follow Locator9, not Locator1.
	if strings.Index(out, `"Locator10"`) < strings.Index(out, `"Locator9"`) {
		t.Error("locator keys sorted lexically instead of by index")
	}
	if !strings.Contains(out, `"BrokenDynamicModels": []`) {
		t.Errorf("empty variant list should be written as []: %s", out)
	}
}

func TestManifestOmitsEmptyMaterials(t *testing.T) {
	m := sampleManifest()
	m.Materials = NewMaterialInfo()

	data, err := m.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if strings.Contains(string(data), "Materials") {
		t.Errorf("empty Materials should be omitted: %s", data)
	}
}

func TestLocatorFieldsByType(t *testing.T) {
	tests := []struct {
		loc     Locator
		want    []string
		notWant []string
	}{
		{Locator{Name: "a", Type: LocatorModel, ModelName: "m"}, []string{`"ModelName":"m"`}, []string{"EffectName", "Intensity"}},
		{Locator{Name: "a", Type: LocatorEffect, EffectName: "ef_fire"}, []string{`"EffectName":"ef_fire"`}, []string{"ModelName"}},
		{Locator{Name: "a", Type: LocatorDecal, MaterialName: "moss 1a2b"}, []string{`"MaterialName":"moss 1a2b"`}, []string{"Range"}},
		{Locator{Name: "sun", Type: LocatorLight, Directional: true}, []string{`"Directional":true`, `"Color":[0,0,0]`}, []string{"ModelName"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.loc.Type), func(t *testing.T) {
			data, err := tt.loc.MarshalJSON()
			if err != nil {
				t.Fatalf("MarshalJSON: %v", err)
			}
			for _, w := range tt.want {
				if !strings.Contains(string(data), w) {
					t.Errorf("missing %s in %s", w, data)
				}
			}
			for _, nw := range tt.notWant {
				if strings.Contains(string(data), nw) {
					t.Errorf("unexpected %s in %s", nw, data)
				}
			}
		})
	}

	if _, err := (Locator{Type: "SPOT"}).MarshalJSON(); !errors.Is(err, ErrUnknownLocatorType) {
		t.Errorf("got %v, want ErrUnknownLocatorType", err)
	}
}

func TestManifestFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "door", "door.json")
	want := sampleManifest()

	if err := want.WriteFile(path); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	got, err := ParseManifestFile(path)
	if err != nil {
		t.Fatalf("ParseManifestFile: %v", err)
	}

	if got.Version != want.Version {
		t.Errorf("Version: got %q, want %q", got.Version, want.Version)
	}
	if len(got.Locators) != len(want.Locators) {
		t.Fatalf("Locators: got %d, want %d", len(got.Locators), len(want.Locators))
	}
	if got.Locators[1] != want.Locators[1] {
		t.Errorf("Locator2: got %+v, want %+v", got.Locators[1], want.Locators[1])
	}
	if len(got.DebrisClusters) != 1 || got.DebrisClusters[0].Name != "plank_0" {
		t.Errorf("DebrisClusters: got %+v", got.DebrisClusters)
	}
	if !got.Materials.Equal(want.Materials) {
		t.Error("Materials differ after round trip")
	}
}

func TestParseManifestRejectsGaps(t *testing.T) {
	data := `{"Version": "1.1.0", "Locators": {"Locator2": {"Name": "a", "Type": "MODEL"}}}`
	if _, err := ParseManifest([]byte(data)); !errors.Is(err, ErrInvalidManifest) {
		t.Errorf("got %v, want ErrInvalidManifest", err)
	}
}
