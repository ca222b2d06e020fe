package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) string {
	t.Helper()
	cmd := New()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		t.Fatalf("exitctl %v: %v", args, err)
	}
	return out.String()
}

// isolate keeps the caller's ~/.exitctl.yaml and EXITCTL_* out of the test.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("EXITCTL_CONFIG_PATH", dir)
	for _, k := range []string{"EXITCTL_DATABASE_URL", "EXITCTL_TIMEZONE"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
	return dir
}

func TestConfig_Defaults(t *testing.T) {
	isolate(t)
	out := runCLI(t, "config")
	if !strings.Contains(out, "timezone: Europe/Paris") {
		t.Errorf("out = %q", out)
	}
	if !strings.Contains(out, "exitravels:xxxxx@localhost") {
		t.Errorf("password should be redacted: %q", out)
	}
}

func TestConfig_Precedence(t *testing.T) {
	dir := isolate(t)
	yaml := "timezone: America/Montreal\ndatabase_url: postgres://file@db/exitravels\n"
	if err := os.WriteFile(filepath.Join(dir, ".exitctl.yaml"), []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	if out := runCLI(t, "config"); !strings.Contains(out, "timezone: America/Montreal") || !strings.Contains(out, "postgres://file@db") {
		t.Errorf("config file: %q", out)
	}

	t.Setenv("EXITCTL_TIMEZONE", "Asia/Tokyo")
	if out := runCLI(t, "config"); !strings.Contains(out, "timezone: Asia/Tokyo") {
		t.Errorf("env over file: %q", out)
	}

	if out := runCLI(t, "config", "--timezone", "UTC"); !strings.Contains(out, "timezone: UTC") {
		t.Errorf("flag over env: %q", out)
	}
}

func TestNew_RegistersCommands(t *testing.T) {
	want := []string{"list", "stats", "export", "watch", "admin", "seed", "config"}
	cmd := New()
	for _, name := range want {
		found, _, err := cmd.Find([]string{name})
		if err != nil || found.Name() != name {
			t.Errorf("command %q not registered", name)
		}
	}
	if found, _, err := cmd.Find([]string{"admin", "create"}); err != nil || found.Name() != "create" {
		t.Error("admin create not registered")
	}
}

func TestViewOptions_Parse(t *testing.T) {
	tests := []struct {
		name    string
		opts    ViewOptions
		wantErr bool
	}{
		{"defaults", ViewOptions{}, false},
		{"full", ViewOptions{Query: "rome", From: "2025-03-01", To: "2025-03-31", Sort: "client", Order: "asc"}, false},
		{"bad date", ViewOptions{From: "01/03/2025"}, true},
		{"bad sort", ViewOptions{Sort: "price"}, true},
		{"bad order", ViewOptions{Order: "up"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.opts.Parse()
			if (err != nil) != tt.wantErr {
				t.Errorf("err = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateAdmin(t *testing.T) {
	if err := validateAdmin("", "longenough"); err == nil {
		t.Error("missing email should fail")
	}
	if err := validateAdmin("ops@exitravels.fr", "short"); err == nil {
		t.Error("short password should fail")
	}
	if err := validateAdmin("ops@exitravels.fr", "longenough"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}
