package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyPackage    = "package"
	KeyArch       = "arch"
	KeyDist       = "distribution"
	KeyChroot     = "chroot"
	KeyArtifact   = "artifact"
	KeyPath       = "path"
	KeyTool       = "tool"
	KeyDurationMS = "duration_ms"
	KeyAttempt    = "attempt"
	KeyStatus     = "status"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Package(name string) slog.Attr   { return slog.String(KeyPackage, name) }
func Arch(a string) slog.Attr         { return slog.String(KeyArch, a) }
func Dist(d string) slog.Attr         { return slog.String(KeyDist, d) }
func Chroot(c string) slog.Attr       { return slog.String(KeyChroot, c) }
func Artifact(name string) slog.Attr  { return slog.String(KeyArtifact, name) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Tool(t string) slog.Attr         { return slog.String(KeyTool, t) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Attempt(n int) slog.Attr         { return slog.Int(KeyAttempt, n) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
