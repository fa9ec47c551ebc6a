package main

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vango-dev/navintent/internal/config"
	"github.com/vango-dev/navintent/internal/errors"
	"github.com/vango-dev/navintent/pkg/deeplink"
)

func runCmd(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestResolveCommand_Args(t *testing.T) {
	_, err := runCmd(t, "", "resolve", "--config", t.TempDir(),
		"https://shop.example.com/en/products/55",
		"/ar/categories/12",
		"/about")
	if !errors.HasCode(err, "E141") {
		t.Fatalf("resolve with an empty config dir = %v, want E141", err)
	}

	dir := t.TempDir()
	if err := config.New().SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "", "resolve", "--config", dir,
		"https://shop.example.com/en/products/55",
		"/ar/categories/12",
		"/about")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	want := "/product/55\n/category/12\n/home\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestResolveCommand_StdinAndSegmentIDs(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.ConfigFileName)
	if err := config.New().SaveTo(path); err != nil {
		t.Fatal(err)
	}

	stdin := "/products/55/reviews\r\n/brands/nike?ref=push\n\n"
	out, err := runCmd(t, stdin, "resolve", "--config", path, "--segment-ids")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}
	want := "/product/55\n/brand/nike\n/home\n"
	if out != want {
		t.Errorf("output = %q, want %q", out, want)
	}
}

func TestResolveCommand_JSON(t *testing.T) {
	dir := t.TempDir()
	if err := config.New().SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		t.Fatal(err)
	}

	out, err := runCmd(t, "", "resolve", "--config", dir, "--json", "/en/brands/nike")
	if err != nil {
		t.Fatalf("resolve error: %v", err)
	}

	var intent deeplink.Intent
	if err := json.Unmarshal([]byte(strings.TrimSpace(out)), &intent); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	want := deeplink.Intent{Input: "/en/brands/nike", Route: "/brand/nike", Kind: deeplink.KindBrand, ID: "nike", Locale: "en"}
	if intent != want {
		t.Errorf("intent = %+v, want %+v", intent, want)
	}
}

func TestResolveCommand_InvalidConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"deeplink": {"identifiers": "words"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := runCmd(t, "", "resolve", "--config", path, "/products/1")
	if !errors.HasCode(err, "E125") {
		t.Errorf("error = %v, want E125", err)
	}
}

func TestExecute_ErrorOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), config.ConfigFileName)
	if err := os.WriteFile(path, []byte(`{"deeplink": {"identifiers": "words"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	run := func(args ...string) (int, string) {
		root := newRootCmd()
		root.SetOut(&bytes.Buffer{})
		root.SetArgs(args)
		var stderr bytes.Buffer
		return execute(root, &stderr), stderr.String()
	}

	code, stderr := run("resolve", "--config", path, "--json", "/products/1")
	if code != 1 {
		t.Errorf("exit code = %d, want 1", code)
	}
	var report struct {
		Code     string `json:"code"`
		Category string `json:"category"`
	}
	if err := json.Unmarshal([]byte(stderr), &report); err != nil {
		t.Fatalf("stderr is not JSON: %v\n%s", err, stderr)
	}
	if report.Code != "E125" || report.Category != "config" {
		t.Errorf("report = %+v, want E125 config", report)
	}

	code, stderr = run("resolve", "--config", path, "/products/1")
	if code != 1 || !strings.Contains(stderr, "ERROR E125:") {
		t.Errorf("text error = %d %q, want exit 1 and ERROR E125", code, stderr)
	}

	dir := t.TempDir()
	if err := config.New().SaveTo(filepath.Join(dir, config.ConfigFileName)); err != nil {
		t.Fatal(err)
	}
	if code, stderr := run("resolve", "--config", dir, "/products/1"); code != 0 || stderr != "" {
		t.Errorf("success = %d %q, want exit 0 and no stderr", code, stderr)
	}
}

func TestInitCommand(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "deploy")

	out, err := runCmd(t, "", "init", dir)
	if err != nil {
		t.Fatalf("init error: %v", err)
	}
	if !strings.Contains(out, "Created") {
		t.Errorf("output = %q, want a Created message", out)
	}

	cfg, err := config.Load(dir)
	if err != nil {
		t.Fatalf("Load after init: %v", err)
	}
	if len(cfg.Deeplink.Routes) != 3 {
		t.Errorf("Routes = %d, want 3", len(cfg.Deeplink.Routes))
	}

	if _, err := runCmd(t, "", "init", dir); !errors.HasCode(err, "E120") {
		t.Errorf("second init = %v, want E120", err)
	}
	if _, err := runCmd(t, "", "init", dir, "--force"); err != nil {
		t.Errorf("init --force error: %v", err)
	}
}

func TestVersionCommand(t *testing.T) {
	out, err := runCmd(t, "", "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if out != version+"\n" {
		t.Errorf("version --short = %q, want %q", out, version+"\n")
	}

	out, err = runCmd(t, "", "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Go version:") {
		t.Errorf("version output missing Go version: %q", out)
	}
}

func TestNewLogger(t *testing.T) {
	prev := slog.Default()
	defer slog.SetDefault(prev)

	var buf bytes.Buffer
	logger, err := newLogger(&buf, "json", "warn")
	if err != nil {
		t.Fatal(err)
	}
	logger.Info("hidden")
	logger.Warn("shown", "k", "v")
	if out := buf.String(); strings.Contains(out, "hidden") || !strings.Contains(out, `"msg":"shown"`) {
		t.Errorf("log output = %q", out)
	}

	if _, err := newLogger(&buf, "xml", "info"); !errors.HasCode(err, "E160") {
		t.Errorf("bad format = %v, want E160", err)
	}
	if _, err := newLogger(&buf, "text", "loud"); !errors.HasCode(err, "E160") {
		t.Errorf("bad level = %v, want E160", err)
	}
}
