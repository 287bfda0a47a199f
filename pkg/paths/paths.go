// Package paths tokenizes slash-separated paths into their non-empty
// components.
package paths

import "strings"

// Split breaks `path` on `/` into its ordered non-empty components.
// Consecutive separators collapse; leading and trailing separators produce
// no component. The root path yields an empty list.
func Split(path string) []string {
	var components []string
	for _, component := range strings.Split(path, "/") {
		if component != "" {
			components = append(components, component)
		}
	}
	return components
}
