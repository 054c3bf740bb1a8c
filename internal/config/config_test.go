package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

// --- MustLoad ---

func TestMustLoad_PanicsOnInvalidConfig(t *testing.T) {
	t.Setenv("LOG_LEVEL", "verbose") // invalid -> Load() error
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("MustLoad should panic on invalid config")
		}
	}()
	_ = MustLoad()
}

// --- Load success + normalization + parsing ---

func TestLoad_Success_DefaultsAndOverrides(t *testing.T) {
	// Clear all env that might affect defaults. t.Setenv isolates per test.
	// Server timeouts / sizes (valid)
	t.Setenv("PORT", "8088")
	t.Setenv("READ_TIMEOUT", "2s")
	t.Setenv("READ_HEADER_TIMEOUT", "1s")
	t.Setenv("WRITE_TIMEOUT", "3s")
	t.Setenv("IDLE_TIMEOUT", "4s")
	t.Setenv("MAX_HEADER_BYTES", "8192")
	t.Setenv("GIN_MODE", "weird") // will normalize to "release"

	// Logging / Docs
	t.Setenv("LOG_LEVEL", "warning") // will normalize to "warn"
	t.Setenv("LOG_PRETTY", "yes")
	t.Setenv("SWAGGER_ENABLED", "on")
	t.Setenv("API_BASE_PATH", "sjdb/") // no leading slash + trailing slash -> "/sjdb"

	// Storage / intake
	t.Setenv("UPLOAD_DIR", "/srv/sjdb/uploads")
	t.Setenv("SUBMISSION_DIR", "/srv/sjdb/submissions")
	t.Setenv("MIN_FREE_BYTES", "1048576")
	t.Setenv("MAX_REQUEST_BYTES", "-")     // -> default 3145728
	t.Setenv("MULTIPART_MEMORY", "65536")
	t.Setenv("PSEUDONYM_LABEL", "a capybara")

	// Identity / moderator access
	t.Setenv("IDENTITY_HEADER", "X-Forwarded-User")
	t.Setenv("IDENTITY_NAME_HEADER", "X-Forwarded-Preferred-Username")
	t.Setenv("TOKENS_FILE", "/etc/sjdb/tokens")

	// Rate limiting (use invalids for parse to fall back to defaults)
	t.Setenv("RATE_RPS", "x")      // -> default 5.0
	t.Setenv("RATE_BURST", "nope") // -> default 10

	// Web protection
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.com , , http://b ")
	t.Setenv("ENABLE_HSTS", "TRUE")
	t.Setenv("HSTS_MAX_AGE", "24h")

	// OTEL
	t.Setenv("OTEL_ENABLED", "1")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "otel:4317")
	t.Setenv("OTEL_EXPORTER_OTLP_INSECURE", "0")
	t.Setenv("OTEL_SERVICE_NAME", "svc")
	t.Setenv("OTEL_TRACES_SAMPLER_ARG", "0.75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Server
	if cfg.Port != "8088" ||
		cfg.ReadTimeout != 2*time.Second ||
		cfg.ReadHeaderTimeout != 1*time.Second ||
		cfg.WriteTimeout != 3*time.Second ||
		cfg.IdleTimeout != 4*time.Second ||
		cfg.MaxHeaderBytes != 8192 ||
		cfg.GinMode != "release" {
		t.Fatalf("server fields unexpected: %+v", cfg)
	}

	// Logging / Docs
	if cfg.LogLevel != "warn" || !cfg.LogPretty || !cfg.SwaggerEnabled || cfg.APIBasePath != "/sjdb" {
		t.Fatalf("logging/docs unexpected: %+v", cfg)
	}

	// Storage / intake
	if cfg.UploadDir != "/srv/sjdb/uploads" || cfg.SubmissionDir != "/srv/sjdb/submissions" || cfg.MinFreeBytes != 1<<20 {
		t.Fatalf("storage fields unexpected: %+v", cfg)
	}
	if cfg.MaxRequestBytes != 3145728 || cfg.MultipartMemory != 65536 || cfg.PseudonymLabel != "a capybara" {
		t.Fatalf("intake fields unexpected: %+v", cfg)
	}

	// Identity / moderator access
	if cfg.IdentityHeader != "X-Forwarded-User" || cfg.IdentityNameHeader != "X-Forwarded-Preferred-Username" || cfg.TokensFile != "/etc/sjdb/tokens" {
		t.Fatalf("identity fields unexpected: %+v", cfg)
	}
	if cfg.Tokens != nil {
		t.Fatalf("Load must not read tokens, got %v", cfg.Tokens)
	}

	// Rate limiting (parse fallback to defaults)
	if cfg.RateRPS != 5.0 || cfg.RateBurst != 10 {
		t.Fatalf("rate limiting unexpected: %+v", cfg)
	}

	// Web protection
	if !reflect.DeepEqual(cfg.CORS.AllowedOrigins, []string{"https://a.com", "http://b"}) {
		t.Fatalf("cors origins unexpected: %#v", cfg.CORS.AllowedOrigins)
	}
	if !cfg.Security.EnableHSTS || cfg.Security.HSTSMaxAge != 24*time.Hour {
		t.Fatalf("security unexpected: %+v", cfg.Security)
	}

	// OTEL
	if !cfg.OTEL.Enabled || cfg.OTEL.Endpoint != "otel:4317" || cfg.OTEL.Insecure || cfg.OTEL.ServiceName != "svc" || cfg.OTEL.SampleRatio != 0.75 {
		t.Fatalf("otel unexpected: %+v", cfg.OTEL)
	}
}

// --- Load validations (each case triggers exactly one validation error) ---

func TestLoad_ValidationErrors(t *testing.T) {
	t.Run("invalid LOG_LEVEL", func(t *testing.T) {
		t.Setenv("LOG_LEVEL", "verbose")
		if _, err := Load(); err == nil {
			t.Fatalf("expected LOG_LEVEL validation error")
		}
	})
	t.Run("empty PORT via spaces", func(t *testing.T) {
		t.Setenv("PORT", "   ")
		if _, err := Load(); err == nil || !containsErr(err, "PORT must not be empty") {
			t.Fatalf("expected port validation error, got: %v", err)
		}
	})
	t.Run("non-positive timeouts", func(t *testing.T) {
		t.Setenv("READ_TIMEOUT", "0s")
		if _, err := Load(); err == nil || !containsErr(err, "timeouts must be positive") {
			t.Fatalf("expected timeouts validation error, got: %v", err)
		}
	})
	t.Run("max header bytes <= 0", func(t *testing.T) {
		t.Setenv("MAX_HEADER_BYTES", "0")
		if _, err := Load(); err == nil || !containsErr(err, "MAX_HEADER_BYTES") {
			t.Fatalf("expected MAX_HEADER_BYTES validation error, got: %v", err)
		}
	})
	t.Run("empty UPLOAD_DIR", func(t *testing.T) {
		t.Setenv("UPLOAD_DIR", "   ")
		if _, err := Load(); err == nil || !containsErr(err, "UPLOAD_DIR must not be empty") {
			t.Fatalf("expected UPLOAD_DIR validation error, got: %v", err)
		}
	})
	t.Run("empty SUBMISSION_DIR", func(t *testing.T) {
		t.Setenv("SUBMISSION_DIR", "   ")
		if _, err := Load(); err == nil || !containsErr(err, "SUBMISSION_DIR must not be empty") {
			t.Fatalf("expected SUBMISSION_DIR validation error, got: %v", err)
		}
	})
	t.Run("areas share a directory", func(t *testing.T) {
		t.Setenv("UPLOAD_DIR", "data/")
		t.Setenv("SUBMISSION_DIR", "data")
		if _, err := Load(); err == nil || !containsErr(err, "must differ") {
			t.Fatalf("expected area overlap error, got: %v", err)
		}
	})
	t.Run("max request bytes <= 0", func(t *testing.T) {
		t.Setenv("MAX_REQUEST_BYTES", "0")
		if _, err := Load(); err == nil || !containsErr(err, "MAX_REQUEST_BYTES") {
			t.Fatalf("expected MAX_REQUEST_BYTES validation error, got: %v", err)
		}
	})
	t.Run("multipart memory <= 0", func(t *testing.T) {
		t.Setenv("MULTIPART_MEMORY", "-5")
		if _, err := Load(); err == nil || !containsErr(err, "MULTIPART_MEMORY") {
			t.Fatalf("expected MULTIPART_MEMORY validation error, got: %v", err)
		}
	})
	t.Run("blank pseudonym label", func(t *testing.T) {
		t.Setenv("PSEUDONYM_LABEL", "  ")
		if _, err := Load(); err == nil || !containsErr(err, "PSEUDONYM_LABEL") {
			t.Fatalf("expected PSEUDONYM_LABEL validation error, got: %v", err)
		}
	})
	t.Run("blank identity header", func(t *testing.T) {
		t.Setenv("IDENTITY_HEADER", " ")
		if _, err := Load(); err == nil || !containsErr(err, "IDENTITY_HEADER") {
			t.Fatalf("expected IDENTITY_HEADER validation error, got: %v", err)
		}
	})
	t.Run("rate rps negative", func(t *testing.T) {
		t.Setenv("RATE_RPS", "-1")
		if _, err := Load(); err == nil || !containsErr(err, "RATE_RPS") {
			t.Fatalf("expected RATE_RPS validation error, got: %v", err)
		}
	})
	t.Run("rate burst < 1", func(t *testing.T) {
		t.Setenv("RATE_BURST", "0")
		if _, err := Load(); err == nil || !containsErr(err, "RATE_BURST") {
			t.Fatalf("expected RATE_BURST validation error, got: %v", err)
		}
	})
	t.Run("hsts max age negative", func(t *testing.T) {
		t.Setenv("HSTS_MAX_AGE", "-1s")
		if _, err := Load(); err == nil || !containsErr(err, "HSTS_MAX_AGE") {
			t.Fatalf("expected HSTS_MAX_AGE validation error, got: %v", err)
		}
	})
	t.Run("otel sample ratio out of range", func(t *testing.T) {
		t.Setenv("OTEL_TRACES_SAMPLER_ARG", "1.5")
		if _, err := Load(); err == nil || !containsErr(err, "OTEL_TRACES_SAMPLER_ARG") {
			t.Fatalf("expected OTEL_TRACES_SAMPLER_ARG validation error, got: %v", err)
		}
	})

	// Note: API_BASE_PATH validation is effectively unreachable due to normalizeBasePath
	// always ensuring a leading '/' and returning "/" for empty input.
}

// --- helpers ---

func TestHelpers_NumericParsers(t *testing.T) {
	cases := []struct {
		name string
		val  string
		got  func(k string) any
		want any
	}{
		{"getenv empty", "", func(k string) any { return getenv(k, "d") }, "d"},
		{"getenv set", "val", func(k string) any { return getenv(k, "d") }, "val"},
		{"getfloat", "0.25", func(k string) any { return getfloat(k, 0) }, 0.25},
		{"getfloat bad", "nope", func(k string) any { return getfloat(k, 1.5) }, 1.5},
		{"getint", "42", func(k string) any { return getint(k, 0) }, 42},
		{"getint bad", "x", func(k string) any { return getint(k, 7) }, 7},
		{"getint64 large", "5368709120", func(k string) any { return getint64(k, 0) }, int64(5 << 30)},
		{"getint64 bad", "3MB", func(k string) any { return getint64(k, 3145728) }, int64(3145728)},
		{"getuint64", "1073741824", func(k string) any { return getuint64(k, 0) }, uint64(1 << 30)},
		{"getuint64 negative", "-1", func(k string) any { return getuint64(k, 9) }, uint64(9)},
		{"getdur", "150ms", func(k string) any { return getdur(k, time.Second) }, 150 * time.Millisecond},
		{"getdur bad", "zzz", func(k string) any { return getdur(k, 2*time.Second) }, 2 * time.Second},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("SJDB_TEST_VALUE", tc.val)
			if got := tc.got("SJDB_TEST_VALUE"); got != tc.want {
				t.Fatalf("got %#v want %#v", got, tc.want)
			}
		})
	}
}

func TestHelpers_getbool(t *testing.T) {
	for _, v := range []string{"1", "true", "TRUE", " yes ", "Y", "on"} {
		t.Setenv("SJDB_BOOL", v)
		if !getbool("SJDB_BOOL", false) {
			t.Fatalf("getbool(%q) = false; want true", v)
		}
	}
	for _, v := range []string{"0", "false", " no ", "N", "Off"} {
		t.Setenv("SJDB_BOOL", v)
		if getbool("SJDB_BOOL", true) {
			t.Fatalf("getbool(%q) = true; want false", v)
		}
	}
	t.Setenv("SJDB_BOOL", "maybe")
	if !getbool("SJDB_BOOL", true) || getbool("SJDB_BOOL", false) {
		t.Fatalf("unrecognized values should fall back to the default")
	}
}

func TestHelpers_splitCSV_and_normalizeBasePath(t *testing.T) {
	if out := splitCSV(""); out != nil {
		t.Fatalf("splitCSV empty should return nil")
	}
	if got, want := splitCSV(" https://a, ,https://b ,"), []string{"https://a", "https://b"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("splitCSV mismatch: got %#v want %#v", got, want)
	}

	for in, want := range map[string]string{"": "/", " / ": "/", "sjdb": "/sjdb", "/sjdb/": "/sjdb"} {
		if got := normalizeBasePath(in); got != want {
			t.Fatalf("normalizeBasePath(%q) = %q want %q", in, got, want)
		}
	}
}

// Ensure tests don't leak env to others.
func TestMain(m *testing.M) {
	os.Unsetenv("PORT")
	os.Exit(m.Run())
}

// containsErr reports whether err's message contains the given substring.
func containsErr(err error, want string) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), want)
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.APIBasePath != "/sjdb" {
		t.Fatalf("API_BASE_PATH default expected '/sjdb', got %q", cfg.APIBasePath)
	}
	if cfg.MaxRequestBytes != 3145728 {
		t.Fatalf("MAX_REQUEST_BYTES default expected 3145728, got %d", cfg.MaxRequestBytes)
	}
	if cfg.MinFreeBytes != 5<<30 {
		t.Fatalf("MIN_FREE_BYTES default expected 5GiB, got %d", cfg.MinFreeBytes)
	}
	if cfg.PseudonymLabel != "an axolotl" || cfg.IdentityHeader != "X-Remote-User" || cfg.IdentityNameHeader != "" {
		t.Fatalf("identity defaults unexpected: %+v", cfg)
	}
}

func TestLoadTokens(t *testing.T) {
	p := filepath.Join(t.TempDir(), "tokens")
	if err := os.WriteFile(p, []byte("  alpha  \n\n\tbeta\r\n   \ngamma"), 0o600); err != nil {
		t.Fatal(err)
	}
	got, err := LoadTokens(p)
	if err != nil {
		t.Fatalf("LoadTokens error: %v", err)
	}
	if want := []string{"alpha", "beta", "gamma"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("tokens mismatch: got %#v want %#v", got, want)
	}

	if _, err := LoadTokens(filepath.Join(t.TempDir(), "missing")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestMustLoad_Success_NoPanic(t *testing.T) {
	// No special env needed; defaults are valid.
	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("MustLoad should not panic on valid defaults, got: %v", r)
		}
	}()
	cfg := MustLoad()
	if cfg.APIBasePath == "" {
		t.Fatalf("unexpected empty config from MustLoad")
	}
}
