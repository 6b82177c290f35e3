package retry

import (
	"reflect"
	"regexp"
	"runtime"
	"strings"
)

// anonymousName is logged for closures and functions whose name cannot be resolved
const anonymousName = "anonymous"

var closureSegment = regexp.MustCompile(`(^|\.)(func\d+|\d+)(\.|$)`)

// funcName derives a short display name such as "fetchUser" or "Client.Get"
func funcName(fn any) string {
	if fn == nil {
		return anonymousName
	}
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func || v.IsNil() {
		return anonymousName
	}
	rf := runtime.FuncForPC(v.Pointer())
	if rf == nil {
		return anonymousName
	}
	return shortName(rf.Name())
}

// shortName strips the import path, package and method-value suffix from a
// runtime symbol name.
func shortName(full string) string {
	if i := strings.LastIndex(full, "/"); i >= 0 {
		full = full[i+1:]
	}
	if i := strings.Index(full, "."); i >= 0 {
		full = full[i+1:]
	}
	full = strings.TrimSuffix(full, "-fm")
	if i := strings.Index(full, "["); i >= 0 {
		full = full[:i] + full[strings.LastIndex(full, "]")+1:]
	}

	if full == "" || strings.HasPrefix(full, "glob.") || closureSegment.MatchString(full) {
		return anonymousName
	}
	return strings.NewReplacer("(", "", ")", "", "*", "").Replace(full)
}

func displayName(override, derived string) string {
	if override != "" {
		return override
	}
	if derived != "" {
		return derived
	}
	return anonymousName
}
