package sections

import (
	"testing"
)

func line(page int, text string, size float64, bold bool) Line {
	return Line{Page: page, Runs: []TextRun{{Text: text, FontSize: size, Bold: bold}}}
}

func TestScanner_Scan(t *testing.T) {
	s := NewScanner()

	t.Run("detects numbered headings at every depth", func(t *testing.T) {
		lines := []Line{
			line(1, "3. INSTALLATION", 16, true),
			line(2, "3.1 Configuration réseau", 12, false),
			line(3, "3.1.2. Adresses statiques", 11, false),
		}

		got := s.Scan(lines)
		if len(got) != 3 {
			t.Fatalf("expected 3 candidates, got %d", len(got))
		}

		if got[0].Number != "3" || got[0].Level != 1 {
			t.Errorf("candidate 0 = %+v, want number 3 level 1", got[0])
		}
		if got[1].Number != "3.1" || got[1].Level != 2 {
			t.Errorf("candidate 1 = %+v, want number 3.1 level 2", got[1])
		}
		if got[2].Number != "3.1.2" || got[2].Level != 3 {
			t.Errorf("candidate 2 = %+v, want number 3.1.2 level 3", got[2])
		}
	})

	t.Run("detects keyword headings", func(t *testing.T) {
		lines := []Line{
			line(1, "SECTION 2: Mise en service", 14, false),
			line(2, "Chapitre 4 - Maintenance", 14, false),
		}

		got := s.Scan(lines)
		if len(got) != 2 {
			t.Fatalf("expected 2 candidates, got %d", len(got))
		}
		if got[0].Number != "2" {
			t.Errorf("candidate 0 number = %s, want 2", got[0].Number)
		}
		if got[1].Number != "4" {
			t.Errorf("candidate 1 number = %s, want 4", got[1].Number)
		}
	})

	t.Run("rejects noise lines", func(t *testing.T) {
		lines := []Line{
			line(1, "Page 3 sur 10", 12, false),
			line(1, "12/04/2023", 12, false),
			line(1, "42", 12, false),
			line(1, "Figure 2: architecture", 12, false),
			line(1, "1. Introduction", 8, false), // below minimum font size
			line(1, "2. ...", 14, true),          // symbol-only title
			line(1, "3. Login", 14, true),        // credential form label
		}

		if got := s.Scan(lines); len(got) != 0 {
			t.Errorf("expected no candidates, got %+v", got)
		}
	})

	t.Run("custom denylist replaces default", func(t *testing.T) {
		custom := NewScanner(WithDenylist([]string{"draft "}))

		lines := []Line{
			// Blocked by the custom denylist.
			line(1, "Draft 2 Overview", 14, false),
			// The default denylist no longer applies.
			line(2, "Annexe A configuration", 14, false),
		}

		got := custom.Scan(lines)
		if len(got) != 0 {
			// "Annexe A configuration" matches no numbered pattern, so only
			// the denylist line matters here.
			t.Errorf("expected no candidates, got %+v", got)
		}
	})
}

func TestScore(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		title    string
		fontSize float64
		bold     bool
		want     int
	}{
		{"large bold uppercase main", "3", "INSTALLATION", 16, true, 9},
		{"medium subsection", "3.1", "Configuration réseau", 12, false, 5},
		{"small plain sub-subsection", "1.2.3", "Détails", 10, false, 2},
		{"year penalty", "2", "Rapport annuel 2023", 16, false, 4},
		{"bold only", "5", "Maintenance", 10, true, 6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := score(tt.number, tt.title, tt.fontSize, tt.bold)
			if got != tt.want {
				t.Errorf("score(%s, %q, %v, %v) = %d, want %d",
					tt.number, tt.title, tt.fontSize, tt.bold, got, tt.want)
			}
		})
	}
}

func TestLevelOf(t *testing.T) {
	for number, want := range map[string]int{
		"3":     1,
		"3.1":   2,
		"3.1.4": 3,
	} {
		if got := levelOf(number); got != want {
			t.Errorf("levelOf(%s) = %d, want %d", number, got, want)
		}
	}
}
