package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/appsize/internal/config"
	"github.com/JonMunkholm/appsize/internal/service"
)

const reportPath = "../../internal/ios/testdata/App Thinning Size Report.txt"

const sizeCSV = `SDK,ABI,SCREEN_DENSITY,LANGUAGE,TEXTURE_COMPRESSION_FORMAT,DEVICE_TIER,MIN,MAX
21-22,armeabi-v7a,MDPI,en,ETC1_RGB8,0,4000000,4100000
21-22,arm64-v8a,HDPI,en,ETC1_RGB8,0,5000000,5300000
23-,arm64-v8a,XXHDPI,en,ASTC,1,6000000,6500000
`

func env(vars map[string]string) func(string) string {
	return func(k string) string { return vars[k] }
}

func runCLI(t *testing.T, vars map[string]string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), args, env(vars), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func writeCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sizes.csv")
	if err := os.WriteFile(path, []byte(sizeCSV), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestIOSJSON(t *testing.T) {
	code, out, _ := runCLI(t, nil, "ios-json", reportPath)
	if code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	var variants []map[string]any
	if err := json.Unmarshal([]byte(out), &variants); err != nil {
		t.Fatalf("stdout is not JSON: %v\n%s", err, out)
	}
	if len(variants) != 3 {
		t.Errorf("len(variants) = %d, want 3", len(variants))
	}
	if _, ok := variants[0]["supported_variant_descriptors"]; !ok {
		t.Errorf("variant keys = %v", variants[0])
	}
}

func TestIOS(t *testing.T) {
	tests := []struct {
		name       string
		args       []string
		wantCode   int
		wantStderr string
	}{
		{"defaults pass", []string{"ios", reportPath}, 0, ""},
		{"warning only", []string{"ios", reportPath, "--limit-size", "13", "--limit-unit", "MB"}, 0,
			"warning: The size limit of 13 MB has been exceeded by one or more variants"},
		{"flags before file", []string{"ios", "--fail-on-warning", "--limit-size=13", "--limit-unit=mb", reportPath}, 1,
			"failure: The size limit of 13 MB has been exceeded by one or more variants"},
		{"clip clamp", []string{"ios", reportPath, "--build-type", "Clip"}, 0,
			"message: The size limit was set to 10 MB as the given limit of 4 GB exceeds Apple's App Clip size restrictions"},
		{"bad build type", []string{"ios", reportPath, "--build-type", "Instant"}, 1,
			`The 'build_type' argument only accepts the values "App" and "Clip" (Code: ARG001)`},
		{"bad limit size", []string{"ios", reportPath, "--limit-size", "lots"}, 1,
			"The 'limit_size' argument only accepts numeric values"},
		{"missing file", []string{"ios", "/does/not/exist.txt"}, 1, "error:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, stderr := runCLI(t, nil, tt.args...)
			if code != tt.wantCode {
				t.Errorf("exit code = %d, want %d\nstderr: %s", code, tt.wantCode, stderr)
			}
			if !strings.Contains(stderr, tt.wantStderr) {
				t.Errorf("stderr = %q, want it to contain %q", stderr, tt.wantStderr)
			}
			if tt.wantCode == 0 && !strings.Contains(out, "Powered by") {
				t.Errorf("stdout missing report footer:\n%s", out)
			}
		})
	}
}

func TestAndroidCSV(t *testing.T) {
	path := writeCSV(t)

	code, out, stderr := runCLI(t, map[string]string{"ANDROID_LIMIT_SIZE": "5"},
		"android-csv", path, "--densities", "MDPI,HDPI,XXHDPI", "--fail-on-warning")
	if code != 1 {
		t.Errorf("exit code = %d, want 1\nstderr: %s", code, stderr)
	}
	if !strings.Contains(stderr, "failure: The size limit of 5 MB has been exceeded by 2 variants") {
		t.Errorf("stderr = %q", stderr)
	}
	if !strings.Contains(out, "6500000") {
		t.Errorf("stdout missing exceeding row:\n%s", out)
	}
}

func TestUsage(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want int
	}{
		{"no command", nil, 2},
		{"unknown command", []string{"frobnicate"}, 2},
		{"missing file", []string{"ios"}, 2},
		{"extra argument", []string{"ios", "a.txt", "b.txt"}, 2},
		{"unknown flag", []string{"android-csv", "--nope", "x.csv"}, 2},
		{"help", []string{"help"}, 0},
		{"command help", []string{"ios", "-h"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if code, _, _ := runCLI(t, nil, tt.args...); code != tt.want {
				t.Errorf("exit code = %d, want %d", code, tt.want)
			}
		})
	}
}

func TestInvalidConfig(t *testing.T) {
	code, _, stderr := runCLI(t, map[string]string{"IOS_LIMIT_UNIT": "TB"}, "ios", reportPath)
	if code != 2 {
		t.Errorf("exit code = %d, want 2", code)
	}
	if !strings.Contains(stderr, "IOS_LIMIT_UNIT") {
		t.Errorf("stderr = %q", stderr)
	}
}

// csvRunner stands in for java: get-size prints the size CSV.
type csvRunner struct{ args [][]string }

func (r *csvRunner) Run(_ context.Context, _ string, args ...string) ([]byte, error) {
	r.args = append(r.args, args)
	if len(args) > 2 && args[2] == "get-size" {
		return []byte(sizeCSV), nil
	}
	return nil, nil
}

func TestAndroid(t *testing.T) {
	cfg, err := config.LoadFrom(env(nil))
	if err != nil {
		t.Fatal(err)
	}
	cfg.Android.WorkDir = t.TempDir()

	runner := &csvRunner{}
	var stdout, stderr bytes.Buffer
	app := &cli{cfg: cfg, stdout: &stdout, stderr: &stderr, opts: []service.Option{service.WithRunner(runner)}}

	err = app.android(context.Background(), []string{
		"app.aab", "--ks", "release.jks", "--ks-alias", "upload", "--ks-pass", "p1", "--key-pass", "p2",
		"--bundletool", "/opt/bundletool.jar", "--limit-size", "5",
	})
	if err != nil {
		t.Fatalf("android() error = %v\n%s", err, stderr.String())
	}

	if len(runner.args) != 2 {
		t.Fatalf("bundletool calls = %d, want 2", len(runner.args))
	}
	if got := strings.Join(runner.args[0], " "); !strings.Contains(got, "--bundle=app.aab") || !strings.Contains(got, "--ks-pass=pass:p1") {
		t.Errorf("build-apks args = %s", got)
	}
	if !strings.Contains(stderr.String(), "warning: The size limit of 5 MB has been exceeded by 2 variants") {
		t.Errorf("stderr = %q", stderr.String())
	}
}

func TestLoadDotenv(t *testing.T) {
	dir := t.TempDir()
	good := filepath.Join(dir, "good.env")
	bad := filepath.Join(dir, "bad.env")
	if err := os.WriteFile(good, []byte("APPSIZE_DOTENV_TEST=loaded\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(bad, []byte("APPSIZE_DOTENV_TEST='unterminated\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("APPSIZE_DOTENV_TEST", "")

	tests := []struct {
		name     string
		file     string
		wantWarn bool
	}{
		{"missing file", filepath.Join(dir, "absent.env"), false},
		{"valid file", good, false},
		{"malformed file", bad, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			loadDotenv(&stderr, tt.file)
			if got := stderr.Len() > 0; got != tt.wantWarn {
				t.Errorf("warning printed = %v, want %v (stderr %q)", got, tt.wantWarn, stderr.String())
			}
		})
	}
	if got := os.Getenv("APPSIZE_DOTENV_TEST"); got != "loaded" {
		t.Errorf("APPSIZE_DOTENV_TEST = %q, want loaded", got)
	}
}
