// internal/config/envsubst.go
package config

import (
	"os"
	"regexp"
	"strings"
)

// envVarPattern matches ${VAR}, ${VAR:-default} and ${VAR:?message}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)((?::-|:\?)[^}]*)?\}`)

// substituteEnvVars replaces ${VAR} references in config content with
// environment variable values. ${VAR:-default} falls back when the
// variable is unset or empty; ${VAR:?message} records the message as a
// missing-variable error instead. Unresolvable references are left
// unchanged and reported in the returned slice.
func substituteEnvVars(content string) (string, []string) {
	var missing []string
	result := envVarPattern.ReplaceAllStringFunc(content, func(match string) string {
		m := envVarPattern.FindStringSubmatch(match)
		name, modifier := m[1], m[2]
		value, ok := os.LookupEnv(name)

		switch {
		case strings.HasPrefix(modifier, ":-"):
			if ok && value != "" {
				return value
			}
			return modifier[2:]
		case strings.HasPrefix(modifier, ":?"):
			if ok && value != "" {
				return value
			}
			missing = append(missing, name+": "+modifier[2:])
			return match
		default:
			if ok {
				return value
			}
			missing = append(missing, name)
			return match
		}
	})
	return result, missing
}
