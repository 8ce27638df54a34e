package util

import (
	"github.com/ValentinKolb/davlock/lib/davlock"
	"strings"
	"testing"
)

func TestParseSelection(t *testing.T) {
	tests := []struct {
		in      string
		want    davlock.Selection
		wantErr bool
	}{
		{"self", davlock.SelectSelf, false},
		{"applicable", davlock.SelectApplicable, false},
		{"self|descendants", davlock.SelectSelfAndDescendants, false},
		{"parent, recursive-ancestors", davlock.SelectAncestors, false},
		{"all", davlock.SelectAll, false},
		{"", 0, true},
		{"children", 0, true},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseSelection(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseSelection(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseSelection(%q) = %s, want %s", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseRemoveMode(t *testing.T) {
	for _, mode := range []davlock.RemoveMode{davlock.RemoveNonRecursive, davlock.RemoveRecursive, davlock.RemoveRequireEmpty} {
		got, err := ParseRemoveMode(mode.String())
		if err != nil || got != mode {
			t.Errorf("ParseRemoveMode(%q) = %v, %v", mode.String(), got, err)
		}
	}
	if _, err := ParseRemoveMode("infinity"); err == nil {
		t.Errorf("Expected error for unknown mode")
	}
}

func TestParseQName(t *testing.T) {
	tests := []struct {
		in      string
		want    davlock.QName
		wantErr bool
	}{
		{"{DAV:}write", davlock.WriteLockName, false},
		{"{urn:example}author", davlock.QName{Space: "urn:example", Local: "author"}, false},
		{"plain", davlock.QName{Local: "plain"}, false},
		{"{urn:example}", davlock.QName{}, true},
		{"{urn:example", davlock.QName{}, true},
		{"", davlock.QName{}, true},
	}

	for _, tc := range tests {
		got, err := ParseQName(tc.in)
		if (err != nil) != tc.wantErr {
			t.Errorf("ParseQName(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseQName(%q) = %v, want %v", tc.in, got, tc.want)
		}
		if !tc.wantErr && got.String() != tc.in {
			t.Errorf("QName(%q).String() = %q", tc.in, got.String())
		}
	}
}

func TestWrapString(t *testing.T) {
	text := strings.Repeat("word ", 40)
	for _, line := range strings.Split(WrapString(text), "\n") {
		if len(line) > Wrap {
			t.Errorf("Line exceeds %d characters: %q", Wrap, line)
		}
	}
	if got := WrapString("  short   text "); got != "short text" {
		t.Errorf("WrapString = %q", got)
	}
}
