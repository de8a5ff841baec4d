package extract

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	crlf        = regexp.MustCompile(`\r\n?|\f`)
	tabs        = regexp.MustCompile(`\t+`)
	multiSpace  = regexp.MustCompile(` {2,}`)
	multiBlank  = regexp.MustCompile(`\n{3,}`)
	zeroWidth   = strings.NewReplacer("​", "", "‌", "", "‍", "", "﻿", "")
	trailingSpc = regexp.MustCompile(`(?m)[ ]+$`)
)

// Normalize applies NFKC and collapses noisy whitespace while keeping line breaks.
func Normalize(s string) string {
	if s == "" {
		return s
	}
	s = norm.NFKC.String(s)
	s = zeroWidth.Replace(s)
	s = crlf.ReplaceAllString(s, "\n")
	s = tabs.ReplaceAllString(s, " ")
	s = multiSpace.ReplaceAllString(s, " ")
	s = trailingSpc.ReplaceAllString(s, "")
	s = multiBlank.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
