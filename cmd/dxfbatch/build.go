package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/dxf/parser"
	"github.com/gogpu/dxf/scene"
)

func newBuildCmd() *cobra.Command {
	var (
		output       string
		configPath   string
		encoding     string
		patternFiles []string
		fonts        []string
	)
	cmd := &cobra.Command{
		Use:   "build <file.dxf>",
		Short: "Convert a DXF file into a snapshot",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			if encoding != "" {
				cfg.Encoding = encoding
			}
			cfg.PatternFiles = append(cfg.PatternFiles, patternFiles...)
			cfg.Fonts = append(cfg.Fonts, fonts...)

			if output == "" {
				output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".dxfb"
			}
			snap, err := buildSnapshot(cmd, args[0], cfg)
			if err != nil {
				return err
			}
			if err := writeSnapshotFile(output, snap); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wrote %s: %d batches, %d vertices, %d instances\n",
				output, len(snap.Batches), len(snap.Vertices)/3, len(snap.Transforms)/6)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "snapshot path (default: input with .dxfb extension)")
	cmd.Flags().StringVar(&configPath, "config", "", "TOML configuration file")
	cmd.Flags().StringVar(&encoding, "encoding", "", "text encoding of pre-2007 files, e.g. windows-1251")
	cmd.Flags().StringArrayVar(&patternFiles, "pattern-file", nil, "extra .pat file (repeatable)")
	cmd.Flags().StringArrayVar(&fonts, "font", nil, "extra TrueType or OpenType font (repeatable)")
	return cmd
}

// buildSnapshot parses path and builds its snapshot.
func buildSnapshot(cmd *cobra.Command, path string, cfg config) (*scene.Snapshot, error) {
	doc, err := parser.ParseFile(path, cfg.parseOptions())
	if err != nil {
		return nil, err
	}
	opts, err := cfg.sceneOptions()
	if err != nil {
		return nil, err
	}
	snap, err := scene.NewBuilder(doc, opts).Build(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("build %s: %w", path, err)
	}
	return snap, nil
}

func writeSnapshotFile(path string, snap *scene.Snapshot) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	w := bufio.NewWriter(f)
	if err := scene.WriteSnapshot(w, snap); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return w.Flush()
}
