package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID     = "build_id"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyFingerprint = "fingerprint"
	KeyPages       = "pages"
	KeyDocuments   = "documents"
	KeyOutput      = "output"
	KeyDescriptor  = "descriptor"
	KeyRule        = "rule"
	KeyURL         = "url"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Fingerprint(fp string) slog.Attr  { return slog.String(KeyFingerprint, fp) }
func Pages(n int) slog.Attr            { return slog.Int(KeyPages, n) }
func Documents(n int) slog.Attr        { return slog.Int(KeyDocuments, n) }
func Output(dir string) slog.Attr      { return slog.String(KeyOutput, dir) }
func Descriptor(path string) slog.Attr { return slog.String(KeyDescriptor, path) }
func Rule(name string) slog.Attr       { return slog.String(KeyRule, name) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
