package config

import (
	"os"
	"testing"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}

func TestConfigLoad_Defaults(t *testing.T) {
	clearEnv(t, "CALLTIDE_DB_DRIVER", "CALLTIDE_POSTGRES_DSN", "CALLTIDE_HTTP_PORT",
		"CALLTIDE_BUSINESS_TIMEZONE", "CALLTIDE_DAILY_CALL_CAP")

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.HTTPPort != 8080 || cfg.BusinessTimezone != "America/Chicago" || cfg.DailyCallCap != 50 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.CallWindowStartHour != 9 || cfg.CallWindowEndHour != 17 {
		t.Fatalf("unexpected call window defaults: %+v", cfg)
	}
}

func TestConfigLoad_EnvOverride(t *testing.T) {
	_ = os.Setenv("CALLTIDE_DAILY_CALL_CAP", "10")
	defer func() { _ = os.Unsetenv("CALLTIDE_DAILY_CALL_CAP") }()

	cfg, err := New()
	if err != nil {
		t.Fatalf("config load: %v", err)
	}
	if cfg.DailyCallCap != 10 {
		t.Fatalf("daily call cap env override failed, got %d", cfg.DailyCallCap)
	}
}

func TestResolveDefaults_DriverAuto(t *testing.T) {
	cfg := &Config{DBDriver: "auto", CallWindowStartHour: 9, CallWindowEndHour: 17, DailyCallCap: 50}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.DBDriver != "sqlite" {
		t.Fatalf("want sqlite without DSN, got %s", cfg.DBDriver)
	}

	cfg = &Config{DBDriver: "auto", PostgresDSN: "postgres://x", CallWindowStartHour: 9, CallWindowEndHour: 17, DailyCallCap: 50}
	if err := cfg.ResolveDefaults(); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if cfg.DBDriver != "postgres" {
		t.Fatalf("want postgres with DSN, got %s", cfg.DBDriver)
	}
}

func TestResolveDefaults_Invalid(t *testing.T) {
	cfg := &Config{DBDriver: "oracle", CallWindowStartHour: 9, CallWindowEndHour: 17, DailyCallCap: 50}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for unsupported driver")
	}

	cfg = &Config{DBDriver: "memory", CallWindowStartHour: 17, CallWindowEndHour: 9, DailyCallCap: 50}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for inverted call window")
	}

	cfg = &Config{DBDriver: "memory", CallWindowStartHour: 9, CallWindowEndHour: 17, DailyCallCap: 0}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for zero call cap")
	}

	cfg = &Config{DBDriver: "postgres", CallWindowStartHour: 9, CallWindowEndHour: 17, DailyCallCap: 50}
	if err := cfg.ResolveDefaults(); err == nil {
		t.Fatal("expected error for postgres without DSN")
	}
}
