// Package errors normalizes errors into short class names for metric tags and logs.
package errors

import (
	goerrors "errors"
	"reflect"
	"strings"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
)

// Classify returns a normalized error type name suitable for tagging metrics/logs.
// Provider errors classify by their OAuth error code; everything else by the
// innermost concrete type in snake_case-ish form.
func Classify(err error) string {
	if err == nil {
		return ""
	}

	var pe *domainauth.ProviderError
	if goerrors.As(err, &pe) && pe.Code != "" {
		return "oidc_" + strings.ToLower(pe.Code)
	}

	for {
		unwrapped := goerrors.Unwrap(err)
		if unwrapped == nil {
			break
		}
		err = unwrapped
	}

	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "unknown"
	}

	name := strings.ToLower(strings.ReplaceAll(t.String(), "*", ""))
	name = strings.ReplaceAll(name, ".", "_")
	if name == "" {
		return "unknown"
	}
	return name
}
