package lower

import "github.com/nikandfor/hacked/hfmt"

// sprintf matches the teacher's preference for hfmt over the stdlib
// fmt package when building a one-off diagnostic string.
func sprintf(format string, args ...any) string {
	return string(hfmt.Appendf(nil, format, args...))
}
