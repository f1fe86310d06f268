package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyTarget     = "target"
	KeyAction     = "action"
	KeyVersion    = "version"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyFile       = "file"
	KeyDir        = "dir"
	KeyArchive    = "archive"
	KeyFormat     = "format"
	KeySize       = "size"
	KeyCommand    = "command"
	KeyThreads    = "threads"
	KeyMethod     = "method"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyPort       = "port"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Target(t string) slog.Attr        { return slog.String(KeyTarget, t) }
func Action(a string) slog.Attr        { return slog.String(KeyAction, a) }
func Version(v string) slog.Attr       { return slog.String(KeyVersion, v) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Dir(d string) slog.Attr           { return slog.String(KeyDir, d) }
func Archive(a string) slog.Attr       { return slog.String(KeyArchive, a) }
func Format(f string) slog.Attr        { return slog.String(KeyFormat, f) }
func Size(s string) slog.Attr          { return slog.String(KeySize, s) }
func Command(c string) slog.Attr       { return slog.String(KeyCommand, c) }
func Threads(n int) slog.Attr          { return slog.Int(KeyThreads, n) }
func Method(m string) slog.Attr        { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr        { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr    { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr { return slog.String(KeyRemoteAddr, addr) }
func Port(p int) slog.Attr             { return slog.Int(KeyPort, p) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
