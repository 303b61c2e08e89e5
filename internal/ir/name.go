package ir

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// FoldName returns the lookup key for a property or path name: NFC
// normalized and upper-cased, so "lovedOne", "LOVEDONE" and "lovedone"
// share one key.
func FoldName(name string) string {
	return strings.ToUpper(norm.NFC.String(name))
}

// FoldText returns s NFC normalized and Unicode case folded. Two strings
// are equal ignoring case when their folded forms are equal; "Straße" and
// "STRASSE" both fold to "strasse".
//
// A cases.Caser keeps state and is not safe for concurrent use, so each call
// builds its own.
func FoldText(s string) string {
	return cases.Fold().String(norm.NFC.String(s))
}
