package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyState      = "state"
	KeyDurationMS = "duration_ms"
	KeyPage       = "page"
	KeyRecordType = "record_type"
	KeyRecord     = "record"
	KeyAsset      = "asset"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyCount      = "count"
	KeyOutcome    = "outcome"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func State(s string) slog.Attr         { return slog.String(KeyState, s) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Page(name string) slog.Attr       { return slog.String(KeyPage, name) }
func RecordType(t string) slog.Attr    { return slog.String(KeyRecordType, t) }
func Record(name string) slog.Attr     { return slog.String(KeyRecord, name) }
func Asset(ref string) slog.Attr       { return slog.String(KeyAsset, ref) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func Outcome(o string) slog.Attr       { return slog.String(KeyOutcome, o) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
