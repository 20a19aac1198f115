package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/JonMunkholm/appsize/internal/android"
	"github.com/JonMunkholm/appsize/internal/bundletool"
	"github.com/JonMunkholm/appsize/internal/ios"
	"github.com/JonMunkholm/appsize/internal/logging"
	"github.com/JonMunkholm/appsize/internal/policy"
)

// Filter selects the size table rows to evaluate.
type Filter struct {
	Densities []string
	Languages []string
}

// BundleRequest describes an App Bundle and the key that signs its APKs.
type BundleRequest struct {
	Bundle       string
	Keystore     string
	KeyAlias     string
	KeystorePass string
	KeyPass      string

	// Jar is an existing bundletool jar; empty downloads the configured version.
	Jar string
}

// ParseIOS reads an App Thinning Size Report into its variants.
func (s *Service) ParseIOS(ctx context.Context, r io.Reader) ([]ios.Variant, error) {
	variants, err := ios.ParseReader(r)
	if err != nil {
		return nil, fmt.Errorf("read report: %w", err)
	}
	logging.FromContext(ctx).Debug("report parsed", "variants", len(variants))
	return variants, nil
}

// EvaluateIOS parses a report and checks every variant against opts.
func (s *Service) EvaluateIOS(ctx context.Context, r io.Reader, opts policy.Options) (*Run, error) {
	settings, err := opts.Validate(policy.IOS)
	if err != nil {
		return nil, err
	}
	variants, err := s.ParseIOS(ctx, r)
	if err != nil {
		return nil, err
	}

	res := policy.EvaluateIOS(variants, settings)
	run := newRun(policy.IOS, res.Settings, res.FlaggedCount(), s.renderer.IOSReport(res))
	run.IOS = &res
	s.record(ctx, run)
	return run, nil
}

// EvaluateAndroidCSV checks a bundletool size CSV against opts.
func (s *Service) EvaluateAndroidCSV(ctx context.Context, r io.Reader, f Filter, opts policy.Options) (*Run, error) {
	settings, err := opts.Validate(policy.Android)
	if err != nil {
		return nil, err
	}
	return s.evaluateTable(ctx, r, f, settings)
}

func (s *Service) evaluateTable(ctx context.Context, r io.Reader, f Filter, settings policy.Settings) (*Run, error) {
	rows, err := android.FilterCSV(r, f.Densities, f.Languages)
	if err != nil {
		return nil, fmt.Errorf("read size csv: %w", err)
	}
	logging.FromContext(ctx).Debug("size table filtered",
		"rows", len(rows),
		"densities", f.Densities,
		"languages", f.Languages,
	)

	res := policy.EvaluateAndroid(android.Sort(rows), settings)
	run := newRun(policy.Android, res.Settings, res.Classification.Violations(), s.renderer.AndroidReport(res))
	run.Android = &res
	s.record(ctx, run)
	return run, nil
}

// EvaluateBundle builds APKs from an App Bundle with bundletool, measures
// them and checks the size table against opts. Arguments are validated
// before anything is downloaded or run.
func (s *Service) EvaluateBundle(ctx context.Context, req BundleRequest, f Filter, opts policy.Options) (run *Run, err error) {
	settings, err := opts.Validate(policy.Android)
	if err != nil {
		return nil, err
	}
	if req.Bundle == "" {
		return nil, &policy.ArgumentError{Name: "bundle", Message: "An Android App Bundle (.aab) path is required"}
	}

	if t := s.cfg.Android.Timeout; t > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t)
		defer cancel()
	}

	ws, err := bundletool.NewWorkspace(s.cfg.Android.WorkDir)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			err = errors.Join(err, fmt.Errorf("remove work dir: %w", cerr))
		}
	}()

	log := logging.WithFields(ctx, "bundle", req.Bundle, "work_dir", ws.Dir)

	jar := req.Jar
	if jar == "" {
		jar = ws.JarPath()
		if err := s.downloader.Download(ctx, s.cfg.Android.BundletoolVersion, jar); err != nil {
			return nil, err
		}
	}

	tool := bundletool.New(s.cfg.Android.JavaPath, jar, s.runner)
	log.Info("building apks")
	if err := tool.BuildAPKs(ctx, bundletool.BuildAPKsRequest{
		Bundle:       req.Bundle,
		Output:       ws.APKSPath(),
		Keystore:     req.Keystore,
		KeyAlias:     req.KeyAlias,
		KeystorePass: req.KeystorePass,
		KeyPass:      req.KeyPass,
	}); err != nil {
		return nil, err
	}

	csv, err := tool.GetSize(ctx, ws.APKSPath(), settings.BuildType == policy.Instant)
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(ws.CSVPath(), csv, 0o644); err != nil {
		return nil, fmt.Errorf("write size csv: %w", err)
	}

	file, err := os.Open(ws.CSVPath())
	if err != nil {
		return nil, fmt.Errorf("open size csv: %w", err)
	}
	defer file.Close()

	return s.evaluateTable(ctx, file, f, settings)
}
