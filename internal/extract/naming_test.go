package extract

import (
	"strings"
	"testing"
)

func TestNamingConfig_Identity(t *testing.T) {
	t.Run("nomenclature is deterministic", func(t *testing.T) {
		n := NamingConfig{Scheme: SchemeNomenclature, Prefix: "CRL"}
		got := n.Identity("manual", "2.1", 3)
		want := "CRL-manual-2.1 n_3.jpg"
		if got != want {
			t.Fatalf("Identity() = %q, want %q", got, want)
		}
		if again := n.Identity("manual", "2.1", 3); again != got {
			t.Fatalf("Identity() not stable: %q then %q", got, again)
		}
	})

	t.Run("custom prefix", func(t *testing.T) {
		n := NamingConfig{Scheme: SchemeNomenclature, Prefix: "ACME"}
		if got := n.Identity("doc", "1", 1); got != "ACME-doc-1 n_1.jpg" {
			t.Fatalf("Identity() = %q", got)
		}
	})

	t.Run("opaque yields unique jpg names", func(t *testing.T) {
		n := NamingConfig{Scheme: SchemeOpaque}
		seen := make(map[string]bool)
		for i := 0; i < 10; i++ {
			got := n.Identity("doc", "1", 1)
			if !strings.HasSuffix(got, ".jpg") {
				t.Fatalf("Identity() = %q, want .jpg suffix", got)
			}
			if seen[got] {
				t.Fatalf("Identity() repeated %q", got)
			}
			seen[got] = true
		}
	})

	t.Run("unknown scheme falls back to nomenclature", func(t *testing.T) {
		n := NamingConfig{Scheme: Scheme("bogus"), Prefix: "CRL"}
		if got := n.Identity("doc", "3", 2); got != "CRL-doc-3 n_2.jpg" {
			t.Fatalf("Identity() = %q", got)
		}
	})
}

func TestDefaultNamingConfig(t *testing.T) {
	n := DefaultNamingConfig()
	if n.Scheme != SchemeNomenclature {
		t.Errorf("Scheme = %q, want %q", n.Scheme, SchemeNomenclature)
	}
	if n.Prefix != "CRL" {
		t.Errorf("Prefix = %q, want CRL", n.Prefix)
	}
}
