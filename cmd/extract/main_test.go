package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testProfilesYAML = `
acme:
  name: Acme Industrial
  priority: 10
  detect:
    - class_contains: acme-product
  specs:
    - type: table

generic:
  name: Generic
  priority: 1000
  specs:
    - type: table
`

const acmePage = `<html><body class="acme-product">
<h2>Specifications</h2>
<table><tr><th>Voltage</th><td>230 V</td></tr></table>
</body></html>`

func writeProfiles(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vendors.yaml")
	if err := os.WriteFile(path, []byte(testProfilesYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun_StdinToJSON(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run(
		context.Background(),
		[]string{"-profiles", writeProfiles(t)},
		strings.NewReader(acmePage),
		&stdout, &stderr, nil,
	)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr.String())
	}

	var rec struct {
		Vendor string                    `json:"vendor"`
		KV     map[string]map[string]any `json:"kv"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &rec); err != nil {
		t.Fatalf("output not JSON: %v\n%s", err, stdout.String())
	}
	if rec.Vendor != "Acme Industrial" {
		t.Fatalf("vendor = %q", rec.Vendor)
	}
	if rec.KV["Specifications"]["Voltage"] != "230 V" {
		t.Fatalf("kv = %#v", rec.KV)
	}
}

func TestRun_File(t *testing.T) {
	t.Parallel()

	page := filepath.Join(t.TempDir(), "page.html")
	if err := os.WriteFile(page, []byte(acmePage), 0o644); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	code := run(
		context.Background(),
		[]string{"-profiles", writeProfiles(t), "-file", page},
		strings.NewReader(""),
		&stdout, &stderr, nil,
	)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Acme Industrial") {
		t.Fatalf("output: %s", stdout.String())
	}
}

// TestRun_DebugSelector verifies the selector debug mode works without a
// profiles file.
func TestRun_DebugSelector(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	code := run(
		context.Background(),
		[]string{"-selector", "table"},
		strings.NewReader(acmePage),
		&stdout, &stderr, nil,
	)
	if code != 0 {
		t.Fatalf("exit %d, stderr: %s", code, stderr.String())
	}
	if !strings.Contains(stdout.String(), "Voltage") {
		t.Fatalf("output: %s", stdout.String())
	}
}

func TestRun_UsageErrors(t *testing.T) {
	t.Parallel()

	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), nil, strings.NewReader(""), &stdout, &stderr, nil); code != 2 {
		t.Fatalf("missing -profiles: exit %d", code)
	}
	if !strings.Contains(stderr.String(), "missing -profiles") {
		t.Fatalf("stderr: %s", stderr.String())
	}

	stderr.Reset()
	code := run(
		context.Background(),
		[]string{"-profiles", filepath.Join(t.TempDir(), "nope.yaml")},
		strings.NewReader(""),
		&stdout, &stderr, nil,
	)
	if code != 2 {
		t.Fatalf("bad profiles path: exit %d", code)
	}

	if code := run(context.Background(), []string{"-no-such-flag"}, strings.NewReader(""), &stdout, &stderr, nil); code != 2 {
		t.Fatalf("bad flag: exit %d", code)
	}
}
