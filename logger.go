package xybc

import (
	"log/slog"
	"os"
)

// pkgLogger is the package-level logger every Encode/Decode call falls
// back to when its Params carries none of its own. Defaults to a
// text handler on stderr at Info level, same as slog.Default, so a
// caller that never touches logging at all sees nothing beyond what
// slog itself would print unprompted.
var pkgLogger = slog.New(slog.NewTextHandler(os.Stderr, nil))

// SetLogger replaces the package-level logger used by every Encode/Decode
// call whose Params does not set its own via WithLogger. Passing nil
// restores the default.
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}
	pkgLogger = l
}

// logger resolves the effective logger for a Params: its own override if
// set, otherwise the package-level default.
func (p *Params) logger() *slog.Logger {
	if p != nil && p.Logger != nil {
		return p.Logger
	}
	return pkgLogger
}
