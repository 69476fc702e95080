package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/gogpu/dxf/parser"
	"github.com/gogpu/dxf/render"
	"github.com/gogpu/dxf/scene"
)

func newInfoCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "info <file.dxfb|file.dxf>",
		Short: "Describe the batches, layers and drawables of a drawing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			snap, err := readInput(cmd, args[0], cfg)
			if err != nil {
				return err
			}
			ropts, err := cfg.renderOptions()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			loader := render.NewLoader(ropts)
			defer loader.Destroy()
			unsubscribe := loader.Subscribe(func(e render.Event) {
				if e.Kind == render.EventMessage && e.Level >= slog.LevelWarn {
					fmt.Fprintf(out, "warning: %s\n", e.Message)
				}
			})
			defer unsubscribe()
			if err := loader.Load(snap); err != nil {
				return err
			}
			printInfo(out, snap, loader)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")
	return cmd
}

// readInput loads a snapshot, or builds one when path holds DXF text.
func readInput(cmd *cobra.Command, path string, cfg config) (*scene.Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if scene.IsSnapshot(data) {
		snap, err := scene.ReadSnapshot(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		return snap, nil
	}
	doc, err := parser.Parse(bytes.NewReader(data), cfg.parseOptions())
	if err != nil {
		return nil, err
	}
	opts, err := cfg.sceneOptions()
	if err != nil {
		return nil, err
	}
	snap, err := scene.NewBuilder(doc, opts).Build(cmd.Context())
	if errors.Is(err, scene.ErrEmptyDocument) {
		return nil, fmt.Errorf("%s: nothing to draw", path)
	}
	return snap, err
}

func printInfo(out io.Writer, snap *scene.Snapshot, loader *render.Loader) {
	b := snap.Bounds
	fmt.Fprintf(out, "origin:     %.6g, %.6g\n", snap.Origin.X, snap.Origin.Y)
	fmt.Fprintf(out, "bounds:     (%.6g, %.6g, %.6g) - (%.6g, %.6g, %.6g)\n",
		b.MinX, b.MinY, b.MinZ, b.MaxX, b.MaxY, b.MaxZ)
	fmt.Fprintf(out, "flat:       %v\n", loader.IsFlat())
	fmt.Fprintf(out, "batches:    %d\n", len(snap.Batches))
	fmt.Fprintf(out, "chunks:     %d\n", snap.ChunkCount())
	fmt.Fprintf(out, "blocks:     %d\n", len(snap.Blocks()))
	fmt.Fprintf(out, "vertices:   %d\n", len(snap.Vertices)/3)
	fmt.Fprintf(out, "indices:    %d\n", len(snap.Indices))
	fmt.Fprintf(out, "drawables:  %d\n", len(loader.Drawables()))

	var instances int
	for _, d := range loader.Drawables() {
		instances += d.InstanceCount()
	}
	fmt.Fprintf(out, "instances:  %d\n", instances)
	fmt.Fprintf(out, "materials:  %d\n", loader.Materials().Len())

	fmt.Fprintf(out, "layers:     %d\n", len(snap.Layers))
	for _, l := range loader.Layers() {
		state := "on"
		if !l.Visible {
			state = "off"
		}
		fmt.Fprintf(out, "  %-24s #%06x %-3s %d drawables\n", l.Name, l.Color.Hex(), state, l.Drawables)
	}
}
