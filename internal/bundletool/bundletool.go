// Package bundletool downloads Google's bundletool and drives it to turn an
// Android App Bundle into a per-configuration size CSV.
package bundletool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/JonMunkholm/appsize/internal/logging"
)

const (
	// DefaultVersion is the bundletool release fetched when none is configured.
	DefaultVersion = "1.8.2"

	// DefaultJava is the java executable used to run the jar.
	DefaultJava = "java"

	passPrefix = "pass:"
	redacted   = "****"
)

// ErrToolFailed wraps a non-zero bundletool exit.
var ErrToolFailed = errors.New("bundletool failed")

// Runner executes a program and returns its standard output.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// ExecRunner runs programs with os/exec.
type ExecRunner struct{}

// Run starts name and waits for it. On a non-zero exit the error carries the
// program's standard error.
func (ExecRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, fmt.Errorf("run %s: %w", name, err)
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return nil, fmt.Errorf("%w: %s", ErrToolFailed, msg)
	}
	return stdout.Bytes(), nil
}

// Tool invokes a downloaded bundletool jar.
type Tool struct {
	Java   string
	Jar    string
	Runner Runner
}

// New returns a Tool for jar run by java. An empty java uses DefaultJava.
func New(java, jar string, runner Runner) *Tool {
	if java == "" {
		java = DefaultJava
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &Tool{Java: java, Jar: jar, Runner: runner}
}

// BuildAPKsRequest describes a signed build-apks invocation.
type BuildAPKsRequest struct {
	Bundle       string
	Output       string
	Keystore     string
	KeyAlias     string
	KeystorePass string
	KeyPass      string
}

// BuildAPKsArgs returns the bundletool arguments for req, jar excluded.
func BuildAPKsArgs(req BuildAPKsRequest) []string {
	return []string{
		"build-apks",
		"--bundle=" + req.Bundle,
		"--output=" + req.Output,
		"--ks=" + req.Keystore,
		"--ks-key-alias=" + req.KeyAlias,
		"--ks-pass=" + passPrefix + req.KeystorePass,
		"--key-pass=" + passPrefix + req.KeyPass,
	}
}

// GetSizeArgs returns the get-size arguments for an APK set.
func GetSizeArgs(apks string, instant bool) []string {
	args := []string{
		"get-size", "total",
		"--apks=" + apks,
		"--dimensions=ALL",
	}
	if instant {
		args = append(args, "--instant")
	}
	return args
}

// BuildAPKs generates a signed APK set from an App Bundle.
func (t *Tool) BuildAPKs(ctx context.Context, req BuildAPKsRequest) error {
	if _, err := t.run(ctx, BuildAPKsArgs(req)); err != nil {
		return fmt.Errorf("build apks: %w", err)
	}
	return nil
}

// GetSize returns the size CSV of an APK set, as printed by bundletool.
func (t *Tool) GetSize(ctx context.Context, apks string, instant bool) ([]byte, error) {
	out, err := t.run(ctx, GetSizeArgs(apks, instant))
	if err != nil {
		return nil, fmt.Errorf("get size: %w", err)
	}
	return out, nil
}

func (t *Tool) run(ctx context.Context, args []string) ([]byte, error) {
	argv := append([]string{"-jar", t.Jar}, args...)
	logging.FromContext(ctx).Debug("running bundletool",
		"java", t.Java,
		"args", strings.Join(Redact(argv), " "),
	)
	return t.Runner.Run(ctx, t.Java, argv...)
}

// Redact masks keystore passwords in an argument list.
func Redact(args []string) []string {
	out := make([]string, len(args))
	for i, a := range args {
		if name, _, ok := strings.Cut(a, "="+passPrefix); ok {
			a = name + "=" + passPrefix + redacted
		}
		out[i] = a
	}
	return out
}
