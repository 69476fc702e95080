package main

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/gogpu/dxf"
	"github.com/gogpu/dxf/parser"
	"github.com/gogpu/dxf/pattern"
	"github.com/gogpu/dxf/render"
	"github.com/gogpu/dxf/scene"
	"github.com/gogpu/dxf/text"
)

// config is the TOML configuration file. Zero values keep the library
// defaults; command line flags are applied on top.
type config struct {
	Encoding     string       `toml:"encoding"`
	PatternFiles []string     `toml:"pattern_files"`
	Fonts        []string     `toml:"fonts"`
	Scene        sceneConfig  `toml:"scene"`
	Render       renderConfig `toml:"render"`
}

type sceneConfig struct {
	// ArcAngle is in degrees.
	ArcAngle           float64 `toml:"arc_angle"`
	MinArcSubdivisions int     `toml:"min_arc_subdivisions"`
	SuppressPaperSpace bool    `toml:"suppress_paper_space"`
	TextHeight         float64 `toml:"text_height"`
	PointSize          float64 `toml:"point_size"`
	MaxHatchLines      int     `toml:"max_hatch_lines"`
	MaxHatchSegments   int     `toml:"max_hatch_segments"`
	CurveSubdivisions  int     `toml:"curve_subdivisions"`
}

type renderConfig struct {
	Background          string  `toml:"background"`
	ColorCorrection     bool    `toml:"color_correction"`
	BlackWhiteInversion *bool   `toml:"black_white_inversion"`
	PointSize           float32 `toml:"point_size"`
}

// loadConfig reads path. An empty path gives the zero config. Unknown
// keys are rejected so typos do not pass silently.
func loadConfig(path string) (config, error) {
	var cfg config
	if path == "" {
		return cfg, nil
	}
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	if keys := md.Undecoded(); len(keys) > 0 {
		names := make([]string, len(keys))
		for i, k := range keys {
			names[i] = k.String()
		}
		return cfg, fmt.Errorf("config %s: unknown keys %s", path, strings.Join(names, ", "))
	}
	return cfg, nil
}

func (c config) parseOptions() parser.ParseOptions {
	return parser.ParseOptions{Encoding: c.Encoding}
}

// sceneOptions resolves patterns and fonts and returns the builder
// options.
func (c config) sceneOptions() (scene.Options, error) {
	opts := scene.DefaultOptions()
	s := c.Scene
	if s.ArcAngle > 0 {
		opts.ArcTessellationAngle = s.ArcAngle * math.Pi / 180
	}
	if s.MinArcSubdivisions > 0 {
		opts.MinArcTessellationSubdivisions = s.MinArcSubdivisions
	}
	opts.SuppressPaperSpace = s.SuppressPaperSpace
	if s.TextHeight > 0 {
		opts.TextHeight = s.TextHeight
	}
	if s.PointSize > 0 {
		opts.PointSize = s.PointSize
	}
	if s.MaxHatchLines > 0 {
		opts.MaxHatchLines = s.MaxHatchLines
	}
	if s.MaxHatchSegments > 0 {
		opts.MaxHatchSegments = s.MaxHatchSegments
	}
	if s.CurveSubdivisions > 0 {
		opts.Text.CurveSubdivisions = s.CurveSubdivisions
	}

	reg, err := loadPatterns(c.PatternFiles)
	if err != nil {
		return opts, err
	}
	opts.Patterns = reg

	if len(c.Fonts) > 0 {
		fonts := text.NewFontSet()
		for _, path := range c.Fonts {
			data, err := os.ReadFile(path)
			if err != nil {
				return opts, err
			}
			if err := fonts.AddFont(data); err != nil {
				return opts, fmt.Errorf("font %s: %w", path, err)
			}
		}
		opts.Fonts = fonts
	}
	return opts, nil
}

// loadPatterns returns the built-in registry extended with the patterns
// of files. User patterns serve both unit systems and replace built-in
// ones of the same name.
func loadPatterns(files []string) (*pattern.Registry, error) {
	reg, err := pattern.NewBuiltinRegistry()
	if err != nil {
		return nil, err
	}
	for _, path := range files {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		pats, err := pattern.ParsePATFile(string(data))
		if err != nil {
			return nil, fmt.Errorf("pattern file %s: %w", path, err)
		}
		for _, p := range pats {
			reg.Replace(p, true)
			reg.Replace(p, false)
		}
		dxf.Logger().Debug("patterns loaded", "file", path, "count", len(pats))
	}
	return reg, nil
}

func (c config) renderOptions() (render.Options, error) {
	opts := render.DefaultOptions()
	r := c.Render
	if r.Background != "" {
		bg, err := dxf.ParseHex(r.Background)
		if err != nil {
			return opts, err
		}
		opts.Background = bg
	}
	opts.ColorCorrection = r.ColorCorrection
	if r.BlackWhiteInversion != nil {
		opts.BlackWhiteInversion = *r.BlackWhiteInversion
	}
	if r.PointSize > 0 {
		opts.PointSize = r.PointSize
	}
	return opts, nil
}
