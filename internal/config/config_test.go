package config

import (
	"os"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"SERVER_PORT":             "8080",
		"SERVER_HOST":             "0.0.0.0",
		"SERVER_BASE_URL":         "http://localhost:8080",
		"SERVER_READ_TIMEOUT":     "10s",
		"SERVER_WRITE_TIMEOUT":    "10s",
		"SERVER_IDLE_TIMEOUT":     "120s",
		"SERVER_SHUTDOWN_TIMEOUT": "30s",

		"STORE_DRIVER": "memory",

		"ADMIN_USERNAME": "admin",
		"ADMIN_PASSWORD": "hunter2",

		"REDIRECT_TARGET_BASE_URL": "https://instagram.com",
		"REDIRECT_POLICY":          "round_robin",

		"APP_ENV":   "test",
		"LOG_LEVEL": "debug",
	}
}

func TestLoad_Success(t *testing.T) {
	for key, value := range baseEnv() {
		t.Setenv(key, value)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 10*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 10s", cfg.Server.ReadTimeout)
	}

	if cfg.Store.Driver != StoreMemory {
		t.Errorf("Store.Driver = %s, want memory", cfg.Store.Driver)
	}

	if cfg.Admin.Username != "admin" {
		t.Errorf("Admin.Username = %s, want admin", cfg.Admin.Username)
	}
	if cfg.Admin.Realm != "admin" {
		t.Errorf("Admin.Realm = %s, want default admin", cfg.Admin.Realm)
	}

	if cfg.Redirect.TargetBaseURL != "https://instagram.com" {
		t.Errorf("Redirect.TargetBaseURL = %s, want https://instagram.com", cfg.Redirect.TargetBaseURL)
	}
	if cfg.Redirect.Policy != "round_robin" {
		t.Errorf("Redirect.Policy = %s, want round_robin", cfg.Redirect.Policy)
	}
	if !cfg.Redirect.AccessLogEnabled {
		t.Error("Redirect.AccessLogEnabled = false, want default true")
	}
	if cfg.Redirect.ResolvePrimaryIDs {
		t.Error("Redirect.ResolvePrimaryIDs = true, want default false")
	}

	if cfg.App.Environment != "test" {
		t.Errorf("App.Environment = %s, want test", cfg.App.Environment)
	}
}

func TestLoad_MissingRequiredVariable(t *testing.T) {
	tests := []struct {
		name       string
		skipEnvVar string
	}{
		{"missing SERVER_PORT", "SERVER_PORT"},
		{"missing ADMIN_USERNAME", "ADMIN_USERNAME"},
		{"missing ADMIN_PASSWORD", "ADMIN_PASSWORD"},
		{"missing REDIRECT_TARGET_BASE_URL", "REDIRECT_TARGET_BASE_URL"},
		{"missing APP_ENV", "APP_ENV"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Clearenv()

			envVars := baseEnv()
			delete(envVars, tt.skipEnvVar)

			for key, value := range envVars {
				_ = os.Setenv(key, value)
			}

			_, err := Load()
			if err == nil {
				t.Errorf("Load() should fail when %s is missing", tt.skipEnvVar)
			}
		})
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		envVar string
		value  string
	}{
		{"invalid duration", "SERVER_READ_TIMEOUT", "invalid"},
		{"unknown store driver", "STORE_DRIVER", "redis"},
		{"unknown redirect policy", "REDIRECT_POLICY", "fastest"},
		{"invalid bool", "ACCESS_LOG_ENABLED", "maybe"},
		{"unknown environment", "APP_ENV", "prod"},
		{"unknown log level", "LOG_LEVEL", "verbose"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			envVars := baseEnv()
			envVars[tt.envVar] = tt.value

			for key, value := range envVars {
				t.Setenv(key, value)
			}

			_, err := Load()
			if err == nil {
				t.Errorf("Load() should fail when %s has invalid value %s", tt.envVar, tt.value)
			}
		})
	}
}

func TestLoad_PostgresDriverRequiresDBFields(t *testing.T) {
	t.Run("fails without connection details", func(t *testing.T) {
		envVars := baseEnv()
		envVars["STORE_DRIVER"] = "postgres"

		for key, value := range envVars {
			t.Setenv(key, value)
		}

		if _, err := Load(); err == nil {
			t.Error("Load() should fail when postgres driver has no DB settings")
		}
	})

	t.Run("succeeds with connection details", func(t *testing.T) {
		envVars := baseEnv()
		envVars["STORE_DRIVER"] = "postgres"
		envVars["DB_HOST"] = "localhost"
		envVars["DB_PORT"] = "5432"
		envVars["DB_USER"] = "testuser"
		envVars["DB_PASSWORD"] = "testpass"
		envVars["DB_NAME"] = "testdb"

		for key, value := range envVars {
			t.Setenv(key, value)
		}

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() failed: %v", err)
		}
		if cfg.Store.MaxConns != 10 {
			t.Errorf("Store.MaxConns = %d, want default 10", cfg.Store.MaxConns)
		}
	})
}

func TestStoreConfig_ConnectionString(t *testing.T) {
	store := StoreConfig{
		Host:     "testhost",
		Port:     "5432",
		User:     "testuser",
		Password: "testpass",
		Name:     "testdb",
		SSLMode:  "disable",
	}

	expected := "host=testhost port=5432 user=testuser password=testpass dbname=testdb sslmode=disable"
	got := store.ConnectionString()

	if got != expected {
		t.Errorf("ConnectionString() = %s, want %s", got, expected)
	}
}
