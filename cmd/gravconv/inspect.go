package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/spf13/cobra"

	"github.com/Faultbox/gravity-convert/internal/grammar"
	"github.com/Faultbox/gravity-convert/internal/locator"
	"github.com/Faultbox/gravity-convert/internal/scene"
	"github.com/Faultbox/gravity-convert/internal/scene/gltfscene"
)

func inspectCmd() *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "inspect <file>",
		Short: "Show how the converter reads one model file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			g := scene.NewGraph(gltfscene.New())
			if err := g.Import(args[0]); err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if raw {
				cfg := spew.ConfigState{Indent: "  ", DisablePointerAddresses: true, SortKeys: true}
				cfg.Fdump(w, g.Objects(), g.Materials())
				return nil
			}
			printScene(w, args[0], g.Objects())
			return nil
		},
	}

	cmd.Flags().BoolVar(&raw, "raw", false, "dump the decoded objects")
	return cmd
}

func printScene(w io.Writer, path string, objects []scene.Object) {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	kind := grammar.VariantBase
	if v, ok := grammar.ClassifyVariant(name); ok {
		kind = v.Kind
	}
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("%s (%s)", name, kind)))

	armature, warnings := locator.ResolveArmature(objects)
	if armature.Found {
		fmt.Fprintf(w, "  armature %s, %d root bones\n", armature.Root.Name, len(armature.RootBones(objects)))
	}
	for _, msg := range warnings {
		fmt.Fprintln(w, warnStyle.Render("  "+msg))
	}

	depth := make(map[scene.ID]int, len(objects))
	for _, o := range objects {
		if o.Parent != 0 {
			depth[o.ID] = depth[o.Parent] + 1
		}
		indent := strings.Repeat("  ", depth[o.ID]+1)
		fmt.Fprintf(w, "%s%-8s %s %s\n", indent, o.Kind, o.Name, dimStyle.Render(describe(o)))
	}
}

// describe returns the grammar reading of an object.
func describe(o scene.Object) string {
	switch o.Kind {
	case scene.KindMesh:
		parts := []string{
			grammar.ClassifyGeometry(o.Name, o.Polygons()).String(),
			fmt.Sprintf("%d faces", o.Polygons()),
		}
		if slots := o.Materials(); len(slots) > 0 {
			parts = append(parts, "materials "+strings.Join(slots, ", "))
		}
		if idx, ok := grammar.SubmeshIndex(o.Name); ok {
			parts = append(parts, fmt.Sprintf("submesh %d", idx))
		}
		return strings.Join(parts, ", ")
	case scene.KindEmpty:
		m, ok, err := grammar.ClassifyLocator(o.Name)
		switch {
		case err != nil:
			return err.Error()
		case ok:
			return m.Kind.String() + " locator " + m.Name
		}
		if n, ok := grammar.ParseFallbackLocator(o.Name); ok {
			return "fallback model locator " + n
		}
	case scene.KindBone:
		if grammar.IsEffectBone(o.Name) {
			return "effect locator"
		}
		if grammar.IsModelBone(o.Name) {
			return "model locator"
		}
		if c, ok := grammar.ParseDebrisBone(o.Name); ok {
			return "cluster " + c
		}
	}
	return ""
}
