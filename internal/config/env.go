package config

import (
	"os"
	"regexp"
)

// envVarPattern matches ${VAR}, ${VAR:-default} and $VAR
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z0-9_]+)(?::-([^}]*))?\}|\$([A-Za-z0-9_]+)`)

// ExpandEnv replaces environment references in s. Unset variables expand to
// the ${VAR:-default} fallback when one is given, otherwise to "".
// Example: "Bearer ${GITHUB_TOKEN}" → "Bearer ghp_abc123..."
func ExpandEnv(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		name, fallback := groups[1], groups[2]
		if name == "" {
			name = groups[3]
		}

		if value, ok := os.LookupEnv(name); ok && value != "" {
			return value
		}
		return fallback
	})
}

// ExpandEnvMap expands all values in a map
func ExpandEnvMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}

	expanded := make(map[string]string, len(m))
	for key, value := range m {
		expanded[key] = ExpandEnv(value)
	}
	return expanded
}

// ExpandEnvSlice expands every element of s
func ExpandEnvSlice(s []string) []string {
	if s == nil {
		return nil
	}

	expanded := make([]string, len(s))
	for i, value := range s {
		expanded[i] = ExpandEnv(value)
	}
	return expanded
}
