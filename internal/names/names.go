// Package names expands catalog-style personal names into the surface forms
// that typically appear on a thesis cover page.
package names

import "strings"

// Permute turns every "Surname, Given[, extra]" name into "Given Surname"
// followed by "Surname Given". The second form is omitted when both orders are
// identical, which happens for names without a comma. Anything after the
// second comma is ignored.
func Permute(names []string) []string {
	permuted := make([]string, 0, 2*len(names))
	for _, name := range names {
		parts := strings.Split(name, ",")
		if len(parts) > 2 {
			parts = parts[:2]
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		givenFirst := parts[0]
		surnameFirst := parts[0]
		if len(parts) == 2 {
			givenFirst = parts[1] + " " + parts[0]
			surnameFirst = parts[0] + " " + parts[1]
		}

		permuted = append(permuted, givenFirst)
		if surnameFirst != givenFirst {
			permuted = append(permuted, surnameFirst)
		}
	}
	return permuted
}
