package manifest

import "testing"

func TestToPascalCase(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"models", "Models"},
		{"my-app", "MyApp"},
		{"my_app", "MyApp"},
		{"myApp", "MyApp"},
		{"UPPER", "Upper"},
		{"a", "A"},
		{"", ""},
		{"already-PascalCase", "AlreadyPascalCase"},
		{"foo-bar-baz", "FooBarBaz"},
		{"_leading", "Leading"},
	}

	for _, tc := range tests {
		got := ToPascalCase(tc.input)
		if got != tc.want {
			t.Errorf("ToPascalCase(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestEffectiveNamespace(t *testing.T) {
	explicit := &Manifest{Project: Project{Name: "my-shapes", Namespace: "Geo"}}
	if got := explicit.EffectiveNamespace(); got != "Geo" {
		t.Errorf("EffectiveNamespace = %q, want Geo", got)
	}

	derived := &Manifest{Project: Project{Name: "my-shapes"}}
	if got := derived.EffectiveNamespace(); got != "MyShapes" {
		t.Errorf("EffectiveNamespace = %q, want MyShapes", got)
	}
}
