package manifest

import "strings"

// ToPascalCase converts a string to PascalCase.
// "my-app" -> "MyApp", "models" -> "Models", "myApp" -> "MyApp"
func ToPascalCase(s string) string {
	var words []string
	current := ""
	for i, r := range s {
		if r == '-' || r == '_' {
			if current != "" {
				words = append(words, current)
				current = ""
			}
			continue
		}
		if i > 0 && r >= 'A' && r <= 'Z' {
			prev := rune(s[i-1])
			if prev >= 'a' && prev <= 'z' {
				words = append(words, current)
				current = ""
			}
		}
		current += string(r)
	}
	if current != "" {
		words = append(words, current)
	}

	var result string
	for _, w := range words {
		if w == "" {
			continue
		}
		result += strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return result
}

// EffectiveNamespace returns the namespace bundle classes are qualified
// under: the explicit [project] namespace when set, otherwise the project
// name in PascalCase.
func (m *Manifest) EffectiveNamespace() string {
	if m.Project.Namespace != "" {
		return m.Project.Namespace
	}
	return ToPascalCase(m.Project.Name)
}
