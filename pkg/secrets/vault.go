// Package secrets loads deployment secrets (JWT_SECRET, DB_PASSWORD, ...)
// from a HashiCorp Vault KV engine into the process environment before
// configuration is read.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"
)

// ErrIncomplete is returned when Vault is enabled without address, token or path
var ErrIncomplete = errors.New("vault configuration incomplete (VAULT_ADDR, VAULT_TOKEN, VAULT_PATH)")

// Vault reads one secret from a KV mount
type Vault struct {
	Addr      string
	Token     string
	Namespace string
	Mount     string
	Path      string
	KVVersion int
	// Overwrite replaces variables that are already set
	Overwrite bool

	client *http.Client
}

// Result summarizes what Apply did
type Result struct {
	Path    string
	Loaded  int
	Skipped int
}

// FromEnv builds a Vault from VAULT_* variables. ok is false when
// VAULT_ENABLED is not "true".
func FromEnv() (v *Vault, ok bool) {
	if !strings.EqualFold(os.Getenv("VAULT_ENABLED"), "true") {
		return nil, false
	}

	kvVersion := 2
	if raw := os.Getenv("VAULT_KV_VERSION"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			kvVersion = parsed
		}
	}
	timeout := 5 * time.Second
	if raw := os.Getenv("VAULT_TIMEOUT"); raw != "" {
		if parsed, err := time.ParseDuration(raw); err == nil {
			timeout = parsed
		}
	}
	mount := os.Getenv("VAULT_MOUNT")
	if mount == "" {
		mount = "secret"
	}

	return &Vault{
		Addr:      os.Getenv("VAULT_ADDR"),
		Token:     os.Getenv("VAULT_TOKEN"),
		Namespace: os.Getenv("VAULT_NAMESPACE"),
		Mount:     mount,
		Path:      os.Getenv("VAULT_PATH"),
		KVVersion: kvVersion,
		Overwrite: strings.EqualFold(os.Getenv("VAULT_OVERWRITE"), "true"),
		client:    &http.Client{Timeout: timeout},
	}, true
}

// Fetch returns the key/value pairs stored at the configured path
func (v *Vault) Fetch(ctx context.Context) (map[string]string, error) {
	if v.Addr == "" || v.Token == "" || v.Path == "" {
		return nil, ErrIncomplete
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, v.url(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Vault-Token", v.Token)
	if v.Namespace != "" {
		req.Header.Set("X-Vault-Namespace", v.Namespace)
	}

	client := v.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("vault request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("vault fetch failed: %s %s", resp.Status, strings.TrimSpace(string(body)))
	}

	var payload struct {
		Data map[string]json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("invalid vault response: %w", err)
	}

	raw := payload.Data
	if v.KVVersion != 1 {
		inner, ok := raw["data"]
		if !ok {
			return nil, errors.New("vault response missing data for KV v2")
		}
		raw = nil
		if err := json.Unmarshal(inner, &raw); err != nil {
			return nil, fmt.Errorf("invalid vault secret data: %w", err)
		}
	}
	if raw == nil {
		return nil, errors.New("vault response missing data")
	}

	out := make(map[string]string, len(raw))
	for key, value := range raw {
		out[key] = stringify(value)
	}
	return out, nil
}

// Apply fetches the secret and exports each key as an environment variable
func (v *Vault) Apply(ctx context.Context) (Result, error) {
	result := Result{Path: v.Path}

	values, err := v.Fetch(ctx)
	if err != nil {
		return result, err
	}

	for key, value := range values {
		if !v.Overwrite && os.Getenv(key) != "" {
			result.Skipped++
			continue
		}
		if err := os.Setenv(key, value); err != nil {
			return result, err
		}
		result.Loaded++
	}
	return result, nil
}

func (v *Vault) url() string {
	addr := strings.TrimRight(v.Addr, "/")
	mount := strings.Trim(v.Mount, "/")
	path := strings.TrimLeft(v.Path, "/")
	if v.KVVersion == 1 {
		return fmt.Sprintf("%s/v1/%s/%s", addr, mount, path)
	}
	return fmt.Sprintf("%s/v1/%s/data/%s", addr, mount, path)
}

// stringify renders strings bare and any other JSON value in its JSON form
func stringify(value json.RawMessage) string {
	var s string
	if err := json.Unmarshal(value, &s); err == nil {
		return s
	}
	if string(value) == "null" {
		return ""
	}
	return string(value)
}
