package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gogpu/dxf/pattern"
)

func newPatternsCmd() *cobra.Command {
	var patternFiles []string
	cmd := &cobra.Command{
		Use:   "patterns [name]",
		Short: "List hatch patterns or print one in PAT format",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			reg, err := loadPatterns(patternFiles)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 0 {
				for _, system := range []struct {
					name   string
					metric bool
				}{{"metric", true}, {"imperial", false}} {
					fmt.Fprintf(out, "%s:\n", system.name)
					for _, name := range reg.Names(system.metric) {
						fmt.Fprintf(out, "  %s\n", name)
					}
				}
				return nil
			}
			p, ok := reg.Lookup(args[0], true)
			if !ok {
				p, ok = reg.Lookup(args[0], false)
			}
			if !ok {
				return fmt.Errorf("pattern %q not found", args[0])
			}
			writePAT(out, p)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&patternFiles, "pattern-file", nil, "extra .pat file (repeatable)")
	return cmd
}

// writePAT prints p in the format ParsePAT reads.
func writePAT(w io.Writer, p *pattern.Pattern) {
	header := "*" + p.Name
	if p.Description != "" {
		header += ", " + p.Description
	}
	fmt.Fprintln(w, header)
	for _, l := range p.Lines {
		fields := []float64{l.Angle, l.Base.X, l.Base.Y, l.Offset.X, l.Offset.Y}
		fields = append(fields, l.Dashes...)
		s := make([]string, len(fields))
		for i, v := range fields {
			s[i] = strconv.FormatFloat(v, 'g', -1, 64)
		}
		fmt.Fprintln(w, strings.Join(s, ","))
	}
}
