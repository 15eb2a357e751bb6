package lang

import (
	"errors"
	"testing"
)

func TestForExtension(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	tests := []struct {
		ext  string
		want string
	}{
		{"py", "python"},
		{".py", "python"},
		{"h", "c"},
		{"m", "c"},
		{"hxx", "cpp"},
		{"tikz", "latex"},
		{"go", ""},
		{"", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.ext, func(t *testing.T) {
			t.Parallel()
			got := r.ForExtension(tt.ext)
			if got != tt.want {
				t.Errorf("ForExtension(%q) = %q, want %q", tt.ext, got, tt.want)
			}
		})
	}
}

func TestRegistryExtra(t *testing.T) {
	t.Parallel()

	r := NewRegistry(map[string]string{".go": "go", "m": "matlab"})
	if got := r.ForExtension("go"); got != "go" {
		t.Errorf("go = %q, want go", got)
	}
	if got := r.ForExtension("m"); got != "matlab" {
		t.Errorf("m = %q, want matlab override", got)
	}
	if got := NewRegistry(nil).ForExtension("m"); got != "c" {
		t.Errorf("built-in table was mutated: m = %q", got)
	}
}

func TestForPath(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)
	got, err := r.ForPath("src/lib/util.cpp")
	if err != nil {
		t.Fatalf("ForPath: %v", err)
	}
	if got != "cpp" {
		t.Errorf("ForPath = %q, want cpp", got)
	}

	_, err = r.ForPath("src/main.rs")
	if !errors.Is(err, ErrUnknownExtension) {
		t.Errorf("ForPath(main.rs) error = %v, want ErrUnknownExtension", err)
	}

	_, err = r.ForPath("Makefile")
	if !errors.Is(err, ErrUnknownExtension) {
		t.Errorf("ForPath(Makefile) error = %v, want ErrUnknownExtension", err)
	}
}
