// Package inline keeps per-element font-family intent alive: an inline
// style="font-family: …" without !important would otherwise be shadowed by
// the override stylesheet's forced rules.
package inline

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/fontshim/fontshim/pkg/cssdom"
)

// fontFamilyPattern captures the first font-family declaration in an inline
// style string: the value and an optional trailing !important marker,
// terminated by ';' or end of string. Only the first match is considered;
// intent for multiple declarations in one attribute is undefined.
var fontFamilyPattern = regexp.MustCompile(`(?i)font-family\s*:\s*([^;!]+?)\s*(!\s*important)?\s*(;|$)`)

// Preserve re-applies n's inline font-family with forced priority so it is
// never silently weaker than the override stylesheet. Returns true when the
// declaration was strengthened. Elements without a matching declaration, or
// whose declaration already carries !important, are left untouched.
func Preserve(n *html.Node) bool {
	if n == nil {
		return false
	}
	style := cssdom.InlineStyle(n)
	if style == "" || !strings.Contains(strings.ToLower(style), "font-family") {
		return false
	}

	m := fontFamilyPattern.FindStringSubmatchIndex(style)
	if m == nil {
		return false
	}
	// Group 2 is the !important marker: nothing to strengthen.
	if m[4] >= 0 {
		return false
	}

	value := style[m[2]:m[3]]
	terminator := style[m[6]:m[7]]
	rewritten := style[:m[0]] + "font-family: " + value + " !important" + terminator + style[m[1]:]
	cssdom.SetInlineStyle(n, rewritten)
	return true
}
