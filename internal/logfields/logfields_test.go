package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "123", BuildID("123")},
		{"Stage", KeyStage, "render", Stage("render")},
		{"Fingerprint", KeyFingerprint, "abc", Fingerprint("abc")},
		{"Output", KeyOutput, "./site", Output("./site")},
		{"Descriptor", KeyDescriptor, "docs/index.rst", Descriptor("docs/index.rst")},
		{"Rule", KeyRule, "dangling-reference", Rule("dangling-reference")},
		{"URL", KeyURL, "http://example", URL("http://example")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

// TestNumericHelpers verifies keys for numeric & float helpers.
func TestNumericHelpers(t *testing.T) {
	if v := Pages(5); v.Key != KeyPages {
		t.Fatalf("Pages key mismatch: %s", v.Key)
	}
	if v := Documents(3); v.Key != KeyDocuments {
		t.Fatalf("Documents key mismatch: %s", v.Key)
	}
	if v := DurationMS(12.5); v.Key != KeyDurationMS {
		t.Fatalf("DurationMS key mismatch: %s", v.Key)
	}
}

// TestErrorHelper ensures Error() handles nil and non-nil errors predictably.
func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError {
		t.Fatalf("Error key mismatch: %s", attr.Key)
	}
	if attr.Value.String() != "" {
		t.Fatalf("Expected empty error string, got %s", attr.Value.String())
	}

	attr = Error(errors.New("boom"))
	if attr.Value.String() != "boom" {
		t.Fatalf("Expected boom, got %s", attr.Value.String())
	}
}
