package helpers

import (
	"net/http"
	"strconv"
)

// PathIndex reads a zero-based list index from the named path value. It
// returns false when the value is missing, not a number or negative.
func PathIndex(r *http.Request, name string) (int, bool) {
	s := r.PathValue(name)
	if s == "" {
		return 0, false
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 0 {
		return 0, false
	}
	return v, true
}
