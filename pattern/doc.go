// Package pattern parses PAT hatch pattern definitions and keeps them in a
// registry keyed by name and unit system.
//
// A PAT file is line oriented. A line starting with '*' opens a pattern,
// a line starting with ';' is a comment, and every other non-blank line is
// a pattern line record:
//
//	*GRAVEL,GRAVEL
//	228.0128, .72,1, 12.041365,.074329, .134536,-13.319088
//
// The record fields are angle in degrees, base point, offset between
// successive parallel lines and an optional dash list. Positive dashes are
// drawn, negative ones are gaps and zero is a dot.
//
// The same name may be registered once per unit system:
//
//	reg := pattern.NewRegistry()
//	if err := pattern.RegisterBuiltin(reg); err != nil {
//	    return err
//	}
//	p, ok := reg.Lookup("GRAVEL", false)
package pattern
