package httputil

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
)

// ParsePathString extracts a string path parameter
func ParsePathString(r *http.Request, key string) (string, error) {
	vars := mux.Vars(r)
	str := vars[key]
	if str == "" {
		return "", fmt.Errorf("missing path parameter: %s", key)
	}
	return str, nil
}

// ParsePathSymbol extracts a fully-qualified symbol path parameter. The
// leading dot is optional in URLs.
func ParsePathSymbol(r *http.Request, key string) (string, error) {
	str, err := ParsePathString(r, key)
	if err != nil {
		return "", err
	}
	if !strings.HasPrefix(str, ".") {
		str = "." + str
	}
	return str, nil
}

// ParsePathSymbolOrError extracts a symbol path parameter and writes error on failure
func ParsePathSymbolOrError(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	val, err := ParsePathSymbol(r, key)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return "", false
	}
	return val, true
}

// ParseQueryString extracts a string query parameter
func ParseQueryString(r *http.Request, key string, defaultVal string) string {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// ParseQueryList extracts a query parameter given either repeatedly or as
// a comma separated list
func ParseQueryList(r *http.Request, key string) []string {
	var out []string
	for _, value := range r.URL.Query()[key] {
		for _, item := range strings.Split(value, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
	}
	return out
}

// ParseQueryBool extracts and parses a boolean query parameter
func ParseQueryBool(r *http.Request, key string, defaultVal bool) (bool, error) {
	str := r.URL.Query().Get(key)
	if str == "" {
		return defaultVal, nil
	}
	val, err := strconv.ParseBool(str)
	if err != nil {
		return false, fmt.Errorf("invalid boolean for query param %s: %s", key, str)
	}
	return val, nil
}
