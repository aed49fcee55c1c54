package archive

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParticipant(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantOK   bool
	}{
		{"Alice on 2009-04-01 at 13.02.ichat", "Alice", true},
		{"Bob Smith on 2010-01-01 at 09.00.ichat", "Bob Smith", true},
		{"x on y on 2010-01-01 at 09.00.ichat", "x on y", true},
		{"random.txt", "", false},
		{"Alice on 2009-4-1 at 13.02.ichat", "", false},
		{"Alice on 2009-04-01 at 13.02.ichat.bak", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, ok := Participant(tt.filename)
			if ok != tt.wantOK || got != tt.want {
				t.Errorf("Participant(%q) = %q, %v; want %q, %v", tt.filename, got, ok, tt.want, tt.wantOK)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"a/b:c", "a_b_c"},
		{`x\y*z?`, "x_y_z_"},
		{`"quoted" <name> | pipe`, "_quoted_ _name_ _ pipe"},
		{"plain name", "plain name"},
	}

	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestScanGroupsByParticipant(t *testing.T) {
	dir := t.TempDir()
	names := []string{
		"Alice on 2009-04-01 at 13.02.ichat",
		"Alice on 2009-04-02 at 10.30.ichat",
		"Bob Smith on 2010-01-01 at 09.00.ichat",
		"random.txt",
	}
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	groups, err := Scan(dir, nil)
	if err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if len(groups) != 2 {
		t.Fatalf("Scan() returned %d groups, want 2", len(groups))
	}

	// os.ReadDir sorts lexically, so Alice is first seen.
	if groups[0].Participant != "Alice" || len(groups[0].Files) != 2 {
		t.Errorf("groups[0] = %q with %d files", groups[0].Participant, len(groups[0].Files))
	}
	if groups[1].Participant != "Bob Smith" || len(groups[1].Files) != 1 {
		t.Errorf("groups[1] = %q with %d files", groups[1].Participant, len(groups[1].Files))
	}
}

func TestScanMissingDirectory(t *testing.T) {
	if _, err := Scan(filepath.Join(t.TempDir(), "nope"), nil); err == nil {
		t.Fatal("Scan() on missing directory succeeded")
	}
}
