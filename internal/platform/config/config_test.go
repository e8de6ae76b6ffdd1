package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadWithDefaults(t *testing.T) {
	cfg, err := Load(context.Background(), WithEnvMap(map[string]string{}), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Server.ReadTimeout != 15*time.Second {
		t.Errorf("unexpected read timeout: %s", cfg.Server.ReadTimeout)
	}
	if cfg.Printify.BaseURL != defaultPrintifyBaseURL {
		t.Errorf("expected default printify base url, got %s", cfg.Printify.BaseURL)
	}
	if cfg.Printify.Timeout != defaultPrintifyTimeout {
		t.Errorf("unexpected printify timeout: %s", cfg.Printify.Timeout)
	}
	if cfg.Cache.File != defaultCacheFile {
		t.Errorf("expected default cache file, got %s", cfg.Cache.File)
	}
	if cfg.Cache.TTL != defaultCacheTTL {
		t.Errorf("unexpected default cache ttl: %s", cfg.Cache.TTL)
	}
	if cfg.Cache.Serverless {
		t.Error("expected serverless detection false without markers")
	}
	if cfg.Session.DedupWindow != defaultDedupWindow {
		t.Errorf("unexpected default dedup window: %s", cfg.Session.DedupWindow)
	}
	if cfg.Resolver.MaxAlternatives != defaultMaxAlternatives {
		t.Errorf("unexpected default max alternatives: %d", cfg.Resolver.MaxAlternatives)
	}
}

func TestLoadWithOverridesAndSecrets(t *testing.T) {
	env := map[string]string{
		"MIM_SERVER_PORT":               "9090",
		"MIM_SERVER_READ_TIMEOUT":       "20s",
		"MIM_SERVER_IDLE_TIMEOUT":       "2m",
		"MIM_PRINTIFY_BASE_URL":         "https://printify.test/v1",
		"MIM_PRINTIFY_API_TOKEN":        "secret://printify/token",
		"MIM_PRINTIFY_TIMEOUT":          "45s",
		"MIM_CACHE_FILE":                "/tmp/catalog.json",
		"MIM_CACHE_TTL":                 "6h",
		"MIM_CACHE_REFRESH_ON_STARTUP":  "true",
		"MIM_SESSION_DEDUP_WINDOW":      "10s",
		"MIM_RESOLVER_MAX_ALTERNATIVES": "5",
	}

	secrets := map[string]string{
		"secret://printify/token": "printify-token",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
	})

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.IdleTimeout != 2*time.Minute {
		t.Errorf("unexpected idle timeout: %s", cfg.Server.IdleTimeout)
	}
	if cfg.Printify.BaseURL != "https://printify.test/v1" {
		t.Errorf("unexpected printify base url %s", cfg.Printify.BaseURL)
	}
	if cfg.Printify.APIToken != "printify-token" {
		t.Errorf("expected resolved printify token, got %s", cfg.Printify.APIToken)
	}
	if cfg.Printify.Timeout != 45*time.Second {
		t.Errorf("unexpected printify timeout %s", cfg.Printify.Timeout)
	}
	if cfg.Cache.File != "/tmp/catalog.json" {
		t.Errorf("unexpected cache file %s", cfg.Cache.File)
	}
	if cfg.Cache.TTL != 6*time.Hour {
		t.Errorf("unexpected cache ttl %s", cfg.Cache.TTL)
	}
	if !cfg.Cache.RefreshOnStartup {
		t.Error("expected refresh on startup enabled")
	}
	if cfg.Session.DedupWindow != 10*time.Second {
		t.Errorf("unexpected dedup window %s", cfg.Session.DedupWindow)
	}
	if cfg.Resolver.MaxAlternatives != 5 {
		t.Errorf("unexpected max alternatives %d", cfg.Resolver.MaxAlternatives)
	}
}

func TestLoadServerlessExtendsCacheTTL(t *testing.T) {
	env := map[string]string{
		"VERCEL": "1",
	}

	cfg, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if !cfg.Cache.Serverless {
		t.Fatal("expected serverless detection from VERCEL marker")
	}
	if cfg.Cache.TTL != defaultServerlessTTL {
		t.Errorf("expected serverless cache ttl %s, got %s", defaultServerlessTTL, cfg.Cache.TTL)
	}

	env = map[string]string{
		"AWS_LAMBDA_FUNCTION_NAME": "mim-resolver",
		"MIM_CACHE_TTL":            "12h",
	}
	cfg, err = Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !cfg.Cache.Serverless {
		t.Fatal("expected serverless detection from lambda marker")
	}
	if cfg.Cache.TTL != 12*time.Hour {
		t.Errorf("expected explicit ttl to win over serverless default, got %s", cfg.Cache.TTL)
	}
}

func TestLoadDotEnvFallback(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "MIM_SERVER_PORT=7070\nMIM_CACHE_FILE=dot_cache.json\n"
	if err := os.WriteFile(envPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write dotenv file: %v", err)
	}

	cfg, err := Load(context.Background(), WithEnvFile(envPath), WithoutSystemEnv())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Port != "7070" {
		t.Errorf("expected port from dotenv 7070, got %s", cfg.Server.Port)
	}
	if cfg.Cache.File != "dot_cache.json" {
		t.Errorf("expected cache file from dotenv, got %s", cfg.Cache.File)
	}
}

func TestLoadInvalidDurationsFailValidation(t *testing.T) {
	env := map[string]string{
		"MIM_SESSION_DEDUP_WINDOW": "-5s",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %T", err)
	}
	if fields := validation.Fields(); len(fields) != 1 || fields[0] != "Session.DedupWindow" {
		t.Fatalf("unexpected invalid fields %v", fields)
	}
}

func TestLoadSecretResolverError(t *testing.T) {
	env := map[string]string{
		"MIM_PRINTIFY_API_TOKEN": "secret://missing",
	}

	_, err := Load(context.Background(), WithEnvMap(env), WithoutSystemEnv(), WithEnvFile(""))
	if err == nil {
		t.Fatal("expected secret resolution error, got nil")
	}
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected SecretError, got %T", err)
	}
	if secretErr.Ref != "secret://missing" {
		t.Errorf("unexpected secret ref %s", secretErr.Ref)
	}
}

func TestEnvironmentValuesMergesSources(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env.test")
	content := "MIM_PRINTIFY_BASE_URL=https://dot.example/v1\nMIM_SECRET_FALLBACK_FILE=.dot.local\n"
	if err := os.WriteFile(envPath, []byte(content), 0o600); err != nil {
		t.Fatalf("failed writing env file: %v", err)
	}

	t.Setenv("MIM_PRINTIFY_BASE_URL", "https://os.example/v1")
	t.Setenv("MIM_SECRET_PROJECT_IDS", "prod=project-prod")

	overrides := map[string]string{
		"MIM_PRINTIFY_BASE_URL": "https://override.example/v1",
	}

	values, err := EnvironmentValues(WithEnvFile(envPath), WithEnvMap(overrides))
	if err != nil {
		t.Fatalf("EnvironmentValues returned error: %v", err)
	}

	if got := values["MIM_PRINTIFY_BASE_URL"]; got != "https://override.example/v1" {
		t.Fatalf("expected override base url, got %s", got)
	}
	if got := values["MIM_SECRET_FALLBACK_FILE"]; got != ".dot.local" {
		t.Fatalf("expected dotenv fallback file, got %s", got)
	}
	if got := values["MIM_SECRET_PROJECT_IDS"]; got != "prod=project-prod" {
		t.Fatalf("expected system env project map, got %s", got)
	}
}

func TestLoadMissingRequiredSecrets(t *testing.T) {
	_, err := Load(context.Background(),
		WithEnvMap(map[string]string{}),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Printify.APIToken"),
	)
	if err == nil {
		t.Fatal("expected missing secrets error, got nil")
	}
	var missing *MissingSecretsError
	if !errors.As(err, &missing) {
		t.Fatalf("expected MissingSecretsError, got %T", err)
	}
	expectedRedacted := redactSecretName("Printify.APIToken")
	if got := missing.RedactedNames(); len(got) != 1 || got[0] != expectedRedacted {
		t.Fatalf("unexpected redacted names %v", got)
	}
}

func TestLoadMissingRequiredSecretsPanic(t *testing.T) {
	defer func() {
		rec := recover()
		if rec == nil {
			t.Fatal("expected panic when required secrets missing")
		}
		missing, ok := rec.(*MissingSecretsError)
		if !ok {
			t.Fatalf("expected MissingSecretsError panic, got %T", rec)
		}
		if len(missing.Names()) != 1 || missing.Names()[0] != "Printify.APIToken" {
			t.Fatalf("unexpected missing secrets %v", missing.Names())
		}
	}()

	Load(context.Background(),
		WithEnvMap(map[string]string{}),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithRequiredSecrets("Printify.APIToken"),
		WithPanicOnMissingSecrets(),
	)
}

func TestLoadSupportsLegacySecretScheme(t *testing.T) {
	env := map[string]string{
		"MIM_PRINTIFY_API_TOKEN": "sm://printify/token",
	}

	secrets := map[string]string{
		"secret://printify/token": "legacy-token",
	}

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if v, ok := secrets[ref]; ok {
			return v, nil
		}
		return "", &SecretError{Ref: ref, Err: errors.New("not found")}
	})

	cfg, err := Load(context.Background(),
		WithEnvMap(env),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithSecretResolver(resolver),
	)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Printify.APIToken != "legacy-token" {
		t.Fatalf("expected legacy secret, got %s", cfg.Printify.APIToken)
	}
}
