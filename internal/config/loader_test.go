package config

import (
	"errors"
	"os"
	"testing"
)

type envMap map[string]string

func (e envMap) Lookup(key string) (string, bool) {
	val, ok := e[key]
	if !ok || val == "" {
		return "", false
	}
	return val, true
}

func TestLoadDefaults(t *testing.T) {
	cfg, meta, err := Load(
		WithEnv(envMap{}.Lookup),
		WithFileReader(func(string) ([]byte, error) { return nil, os.ErrNotExist }),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != DefaultServerURL {
		t.Fatalf("expected default server url, got %q", cfg.ServerURL)
	}
	if cfg.APIKey != "" {
		t.Fatalf("expected empty api key, got %q", cfg.APIKey)
	}
	if cfg.Queue != "default" {
		t.Fatalf("expected default queue, got %q", cfg.Queue)
	}
	if cfg.RequestTimeoutSecs != DefaultRequestTimeoutSecs {
		t.Fatalf("expected request timeout %d, got %d", DefaultRequestTimeoutSecs, cfg.RequestTimeoutSecs)
	}
	if cfg.TaskTimeoutSecs != DefaultTaskTimeoutSecs {
		t.Fatalf("expected task timeout %d, got %d", DefaultTaskTimeoutSecs, cfg.TaskTimeoutSecs)
	}
	if cfg.Verbose {
		t.Fatal("expected verbose default to be false")
	}
	if got := meta.Source("server_url"); got != SourceDefault {
		t.Fatalf("expected default server_url source, got %s", got)
	}
}

func TestLoadFromFile(t *testing.T) {
	fileData := []byte(`
server_url: https://queue.internal:8443/
api_key: rq_file_key
queue: inference_default
request_timeout_seconds: 10
task_timeout_seconds: 900
log_level: debug
verbose: true
`)
	cfg, meta, err := Load(
		WithEnv(envMap{}.Lookup),
		WithFileReader(func(string) ([]byte, error) { return fileData, nil }),
		WithHomeDir(func() (string, error) { return "/home/test", nil }),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != "https://queue.internal:8443/" {
		t.Fatalf("unexpected server url from file: %q", cfg.ServerURL)
	}
	if cfg.APIKey != "rq_file_key" {
		t.Fatalf("expected api key from file, got %q", cfg.APIKey)
	}
	if cfg.Queue != "inference_default" {
		t.Fatalf("expected queue from file, got %q", cfg.Queue)
	}
	if cfg.RequestTimeoutSecs != 10 || cfg.TaskTimeoutSecs != 900 {
		t.Fatalf("unexpected timeouts from file: %d/%d", cfg.RequestTimeoutSecs, cfg.TaskTimeoutSecs)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected log level from file, got %q", cfg.LogLevel)
	}
	if !cfg.Verbose {
		t.Fatal("expected verbose from file")
	}
	if got := meta.Source("api_key"); got != SourceFile {
		t.Fatalf("expected file api_key source, got %s", got)
	}
	if got := meta.Source("max_response_bytes"); got != SourceDefault {
		t.Fatalf("expected default max_response_bytes source, got %s", got)
	}
}

func TestLoadFileURLAlias(t *testing.T) {
	fileData := []byte("url: http://short.example:3000\n")
	cfg, _, err := Load(
		WithEnv(envMap{}.Lookup),
		WithFileReader(func(string) ([]byte, error) { return fileData, nil }),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != "http://short.example:3000" {
		t.Fatalf("expected url alias to apply, got %q", cfg.ServerURL)
	}
}

func TestLoadEnvOverridesFile(t *testing.T) {
	fileData := []byte("server_url: http://from-file:3000\napi_key: file-key\n")
	env := envMap{
		"RUNQY_SERVER_URL": "http://from-env:3000",
		"RUNQY_API_KEY":    "env-key",
		"RUNQY_QUEUE":      "env_queue",
	}
	cfg, meta, err := Load(
		WithEnv(env.Lookup),
		WithFileReader(func(string) ([]byte, error) { return fileData, nil }),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != "http://from-env:3000" {
		t.Fatalf("expected env to win over file, got %q", cfg.ServerURL)
	}
	if cfg.APIKey != "env-key" {
		t.Fatalf("expected env api key, got %q", cfg.APIKey)
	}
	if cfg.Queue != "env_queue" {
		t.Fatalf("expected env queue, got %q", cfg.Queue)
	}
	if got := meta.Source("server_url"); got != SourceEnv {
		t.Fatalf("expected env server_url source, got %s", got)
	}
}

func TestLoadEnvAliases(t *testing.T) {
	env := envMap{
		"RUNQY_URL":   "http://alias.example:3000",
		"RUNQY_TOKEN": "alias-token",
	}
	cfg, _, err := Load(
		WithEnv(env.Lookup),
		WithFileReader(func(string) ([]byte, error) { return nil, os.ErrNotExist }),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != "http://alias.example:3000" {
		t.Fatalf("expected RUNQY_URL alias, got %q", cfg.ServerURL)
	}
	if cfg.APIKey != "alias-token" {
		t.Fatalf("expected RUNQY_TOKEN alias, got %q", cfg.APIKey)
	}
}

func TestLoadOverridesWin(t *testing.T) {
	env := envMap{"RUNQY_SERVER_URL": "http://from-env:3000", "RUNQY_VERBOSE": "false"}
	serverURL := "http://from-override:3000"
	verbose := true
	timeout := 120
	cfg, meta, err := Load(
		WithEnv(env.Lookup),
		WithFileReader(func(string) ([]byte, error) { return nil, os.ErrNotExist }),
		WithOverrides(Overrides{
			ServerURL:          &serverURL,
			Verbose:            &verbose,
			RequestTimeoutSecs: &timeout,
		}),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.ServerURL != serverURL {
		t.Fatalf("expected override to win, got %q", cfg.ServerURL)
	}
	if !cfg.Verbose {
		t.Fatal("expected verbose override to win")
	}
	if cfg.RequestTimeoutSecs != 120 {
		t.Fatalf("expected timeout override, got %d", cfg.RequestTimeoutSecs)
	}
	if got := meta.Source("server_url"); got != SourceOverride {
		t.Fatalf("expected override source, got %s", got)
	}
}

func TestLoadInvalidTimeoutEnv(t *testing.T) {
	env := envMap{"RUNQY_REQUEST_TIMEOUT": "soon"}
	_, _, err := Load(
		WithEnv(env.Lookup),
		WithFileReader(func(string) ([]byte, error) { return nil, os.ErrNotExist }),
	)
	if err == nil {
		t.Fatal("expected error for invalid timeout")
	}
}

func TestLoadInvalidBoolEnv(t *testing.T) {
	env := envMap{"RUNQY_VERBOSE": "maybe"}
	_, _, err := Load(
		WithEnv(env.Lookup),
		WithFileReader(func(string) ([]byte, error) { return nil, os.ErrNotExist }),
	)
	if err == nil {
		t.Fatal("expected error for invalid boolean")
	}
}

func TestLoadMalformedFile(t *testing.T) {
	_, _, err := Load(
		WithEnv(envMap{}.Lookup),
		WithFileReader(func(string) ([]byte, error) { return []byte("queue: [unclosed"), nil }),
	)
	if err == nil {
		t.Fatal("expected error for malformed config file")
	}
}

func TestLoadFileReadFailure(t *testing.T) {
	readErr := errors.New("permission denied")
	_, _, err := Load(
		WithEnv(envMap{}.Lookup),
		WithFileReader(func(string) ([]byte, error) { return nil, readErr }),
	)
	if err == nil {
		t.Fatal("expected error when config file is unreadable")
	}
	if !errors.Is(err, readErr) {
		t.Fatalf("expected wrapped read error, got %v", err)
	}
}

func TestAliasEnvLookup(t *testing.T) {
	base := envMap{"FALLBACK": "value"}
	lookup := AliasEnvLookup(base.Lookup, map[string][]string{"PRIMARY": {"FALLBACK"}})

	if value, ok := lookup("PRIMARY"); !ok || value != "value" {
		t.Fatalf("expected alias fallback, got %q ok=%v", value, ok)
	}
	if _, ok := lookup("MISSING"); ok {
		t.Fatal("expected missing key to report not found")
	}
}

func TestDefaultConfigPath(t *testing.T) {
	if got := DefaultConfigPath("/home/test"); got != "/home/test/.runqy/config.yaml" {
		t.Fatalf("unexpected config path: %q", got)
	}
}
