package fingerprint

import (
	"testing"
	"time"

	"github.com/exploopio/opsboard/pkg/catalog"
)

func TestHash(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"simple string", "hello"},
		{"complex string", "ticket:inc-10452:level 2:in progress"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash := Hash(tt.input)

			// SHA256 hash should be 64 hex characters
			if len(hash) != 64 {
				t.Errorf("Hash(%q) length = %d, want 64", tt.input, len(hash))
			}

			if hash2 := Hash(tt.input); hash != hash2 {
				t.Errorf("Hash is not deterministic: %s != %s", hash, hash2)
			}

			for _, c := range hash {
				if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
					t.Errorf("Hash contains non-hex character: %c", c)
				}
			}
		})
	}
}

func TestHash_Different(t *testing.T) {
	if Hash("input1") == Hash("input2") {
		t.Errorf("Different inputs should produce different hashes")
	}
}

func TestGenerateTicket(t *testing.T) {
	base := catalog.SupportTicket{
		ID:                 "INC-10452",
		Summary:            "VPN drops every 30 minutes",
		Level:              catalog.Level2,
		Status:             catalog.StatusInProgress,
		AssignedTo:         "Alex Morgan",
		AutomationPlaybook: "VPN stability diagnostics",
		UpdatedAt:          time.Date(2024, 6, 12, 12, 58, 0, 0, time.UTC),
	}
	fp := GenerateTicket(base)

	tests := []struct {
		name   string
		mutate func(*catalog.SupportTicket)
		same   bool
	}{
		{"summary is ignored", func(t *catalog.SupportTicket) { t.Summary = "changed" }, true},
		{"id case is ignored", func(t *catalog.SupportTicket) { t.ID = "inc-10452" }, true},
		{"status", func(t *catalog.SupportTicket) { t.Status = catalog.StatusResolved }, false},
		{"level", func(t *catalog.SupportTicket) { t.Level = catalog.Level1 }, false},
		{"assignee", func(t *catalog.SupportTicket) { t.AssignedTo = "Escalation Queue" }, false},
		{"playbook", func(t *catalog.SupportTicket) { t.AutomationPlaybook = "" }, false},
		{"update time", func(t *catalog.SupportTicket) { t.UpdatedAt = t.UpdatedAt.Add(time.Second) }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ticket := base
			tt.mutate(&ticket)
			got := GenerateTicket(ticket)
			if (got == fp) != tt.same {
				t.Errorf("fingerprint equal = %v, want %v", got == fp, tt.same)
			}
		})
	}
}

func TestGenerate_ViewState(t *testing.T) {
	base := Input{
		Type:                TypeViewState,
		LevelFilter:         "All",
		PlatformFilter:      "All",
		Severities:          []string{"Critical", "High", "Medium", "Low"},
		ActiveVulnerability: "CVE-2024-27898",
		Parts:               []string{"a", "b"},
	}
	fp := Generate(base)

	reordered := base
	reordered.Severities = []string{"Low", "High", "Critical", "Medium"}
	if Generate(reordered) != fp {
		t.Error("severity order should not change the fingerprint")
	}

	changes := map[string]func(*Input){
		"level filter":    func(in *Input) { in.LevelFilter = "Level 1" },
		"platform filter": func(in *Input) { in.PlatformFilter = "macOS" },
		"severities":      func(in *Input) { in.Severities = []string{"High"} },
		"active record":   func(in *Input) { in.ActiveVulnerability = "CVE-2024-8011" },
		"parts":           func(in *Input) { in.Parts = []string{"b", "a"} },
	}
	for name, mutate := range changes {
		in := base
		mutate(&in)
		if Generate(in) == fp {
			t.Errorf("changing %s should change the fingerprint", name)
		}
	}
}

func TestGenerate_TypesDiffer(t *testing.T) {
	ticket := Generate(Input{Type: TypeTicket, ID: "x"})
	generic := Generate(Input{Type: TypeGeneric, ID: "x"})
	if ticket == generic {
		t.Error("different types should produce different fingerprints")
	}
}

func TestDetectType(t *testing.T) {
	tests := []struct {
		name  string
		input Input
		want  Type
	}{
		{"view", Input{LevelFilter: "All"}, TypeViewState},
		{"ticket", Input{ID: "INC-1", Status: "New"}, TypeTicket},
		{"generic", Input{ID: "INC-1"}, TypeGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectType(tt.input); got != tt.want {
				t.Errorf("DetectType() = %v, want %v", got, tt.want)
			}
		})
	}

	in := Input{ID: "INC-1", Status: "New"}
	typed := in
	typed.Type = TypeTicket
	if GenerateAuto(in) != Generate(typed) {
		t.Error("GenerateAuto should match Generate with the detected type")
	}
}

func TestShort(t *testing.T) {
	fp := Hash("x")
	if got := Short(fp); got != fp[:16] {
		t.Errorf("Short() = %q, want %q", got, fp[:16])
	}
	if got := Short("abc"); got != "abc" {
		t.Errorf("Short(abc) = %q", got)
	}
}
