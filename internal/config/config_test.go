package config

import (
	"os"
	"testing"
	"time"
)

// unsetEnv clears keys for the duration of the test.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	unsetEnv(t, "ENV", "TIMEZONE", "HTTP_ADDR", "NOTICE_TTL", "LOGIN_MAX_FAILURES", "LOGIN_LOCKOUT",
		"NOTIFICATIONS_GRANTED", "SESSION_SECRET", "FCM_PROJECT_ID")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.HTTPAddr != ":8080" {
		t.Errorf("HTTPAddr = %q, want :8080", c.HTTPAddr)
	}
	if c.NoticeTTL != 4*time.Second {
		t.Errorf("NoticeTTL = %v, want 4s", c.NoticeTTL)
	}
	if c.LoginMaxFailures != 5 || c.LoginLockout != 15*time.Minute {
		t.Errorf("login throttle = %d/%v, want 5/15m", c.LoginMaxFailures, c.LoginLockout)
	}
	if c.Location().String() != "Europe/Paris" {
		t.Errorf("Location = %s, want Europe/Paris", c.Location())
	}
	if c.NotificationsGranted {
		t.Error("notifications should default to not granted")
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	unsetEnv(t, "ENV", "LOGIN_MAX_FAILURES", "LOGIN_LOCKOUT", "SESSION_SECRET", "FCM_PROJECT_ID")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("NOTICE_TTL", "2s")
	t.Setenv("NOTIFICATIONS_GRANTED", "true")
	t.Setenv("TIMEZONE", "UTC")

	c, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if c.HTTPAddr != ":9090" || c.NoticeTTL != 2*time.Second || !c.NotificationsGranted {
		t.Errorf("unexpected config: %+v", c)
	}
}

func TestValidate(t *testing.T) {
	base := App{Timezone: "UTC", LoginMaxFailures: 5, LoginLockout: time.Minute, NoticeTTL: time.Second, SessionSecret: "x"}

	tests := []struct {
		name    string
		mutate  func(*App)
		wantErr bool
	}{
		{"valid", func(*App) {}, false},
		{"bad timezone", func(c *App) { c.Timezone = "Mars/Olympus" }, true},
		{"zero max failures", func(c *App) { c.LoginMaxFailures = 0 }, true},
		{"zero lockout", func(c *App) { c.LoginLockout = 0 }, true},
		{"zero ttl", func(c *App) { c.NoticeTTL = 0 }, true},
		{"dev secret in production", func(c *App) { c.Env = "production"; c.SessionSecret = devSessionSecret }, true},
		{"dev secret in development", func(c *App) { c.SessionSecret = devSessionSecret }, false},
		{"fcm without credentials", func(c *App) { c.FCMProjectID = "p" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := base
			tt.mutate(&c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
