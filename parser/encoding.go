package parser

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

// ansiCodePages maps the numeric part of $DWGCODEPAGE values to WHATWG
// encoding labels.
var ansiCodePages = map[string]string{
	"874":  "windows-874",
	"932":  "shift_jis",
	"936":  "gbk",
	"949":  "euc-kr",
	"950":  "big5",
	"1250": "windows-1250",
	"1251": "windows-1251",
	"1252": "windows-1252",
	"1253": "windows-1253",
	"1254": "windows-1254",
	"1255": "windows-1255",
	"1256": "windows-1256",
	"1257": "windows-1257",
	"1258": "windows-1258",
}

var dosCodePages = map[string]encoding.Encoding{
	"437": charmap.CodePage437,
	"850": charmap.CodePage850,
	"852": charmap.CodePage852,
	"855": charmap.CodePage855,
	"860": charmap.CodePage860,
	"863": charmap.CodePage863,
	"865": charmap.CodePage865,
	"866": charmap.CodePage866,
}

// LookupEncoding resolves a $DWGCODEPAGE value such as "ANSI_1251" or
// "DOS866", or any WHATWG label such as "windows-1250". An empty name
// yields nil, meaning UTF-8.
func LookupEncoding(name string) (encoding.Encoding, error) {
	n := strings.TrimSpace(name)
	if n == "" {
		return nil, nil
	}
	up := strings.ToUpper(n)
	switch {
	case strings.HasPrefix(up, "ANSI_"):
		if label, ok := ansiCodePages[up[len("ANSI_"):]]; ok {
			n = label
		}
	case strings.HasPrefix(up, "DOS"):
		if e, ok := dosCodePages[up[len("DOS"):]]; ok {
			return e, nil
		}
	case up == "UTF-8" || up == "UTF8":
		return nil, nil
	}
	e, err := htmlindex.Get(n)
	if err != nil {
		return nil, fmt.Errorf("parser: unknown encoding %q: %w", name, err)
	}
	return e, nil
}
