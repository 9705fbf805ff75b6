package docs

import "testing"

func TestSlugify(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Getting Started!!", "getting-started"},
		{"  Multi   Space  ", "multi-space"},
		{"Hello World", "hello-world"},
		{"API Guide", "api-guide"},
		{"already-a-slug", "already-a-slug"},
		{"Mixed --- Hyphens -- here", "mixed-hyphens-here"},
		{"C'est l'été!", "cest-lt"},
		{"", ""},
		{"!!!", ""},
	}
	for _, c := range cases {
		if got := Slugify(c.in); got != c.want {
			t.Errorf("Slugify(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugifyStableOnOwnOutput(t *testing.T) {
	titles := []string{"Getting Started!!", "  Multi   Space  ", "Hello World", "a--b  c"}
	for _, title := range titles {
		once := Slugify(title)
		if twice := Slugify(once); twice != once {
			t.Errorf("Slugify not stable: %q -> %q -> %q", title, once, twice)
		}
	}
}
