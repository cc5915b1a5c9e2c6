package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyRunID      = "run_id"
	KeyURL        = "url"
	KeyPath       = "path"
	KeyName       = "name"
	KeyRef        = "ref"
	KeyRefType    = "ref_type"
	KeyStartPath  = "start_path"
	KeyComponent  = "component"
	KeyVersion    = "version"
	KeyOperation  = "operation"
	KeyCount      = "count"
	KeyFile       = "file"
	KeyDurationMS = "duration_ms"
	KeyAttempt    = "attempt"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func RunID(id string) slog.Attr       { return slog.String(KeyRunID, id) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Name(n string) slog.Attr         { return slog.String(KeyName, n) }
func Ref(r string) slog.Attr          { return slog.String(KeyRef, r) }
func RefType(t string) slog.Attr      { return slog.String(KeyRefType, t) }
func StartPath(p string) slog.Attr    { return slog.String(KeyStartPath, p) }
func Component(c string) slog.Attr    { return slog.String(KeyComponent, c) }
func Version(v string) slog.Attr      { return slog.String(KeyVersion, v) }
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func File(f string) slog.Attr         { return slog.String(KeyFile, f) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
