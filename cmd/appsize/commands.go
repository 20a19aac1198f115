package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/JonMunkholm/appsize/internal/config"
	"github.com/JonMunkholm/appsize/internal/policy"
	"github.com/JonMunkholm/appsize/internal/review"
	"github.com/JonMunkholm/appsize/internal/service"
)

// errFailed reports that an evaluation raised a failure. The findings have
// already been printed.
var errFailed = errors.New("evaluation failed")

type usageError struct{ msg string }

func (e usageError) Error() string { return e.msg }

func isUsage(err error) bool {
	var u usageError
	return errors.As(err, &u)
}

type cli struct {
	cfg    *config.Config
	stdout io.Writer
	stderr io.Writer
	opts   []service.Option
}

// evalFlags binds the flags shared by every evaluating command.
type evalFlags struct {
	buildType     *string
	limitSize     *string
	limitUnit     *string
	failOnWarning *bool
}

func bindEvalFlags(fs *flag.FlagSet, defaults policy.Options, buildTypes []policy.BuildType) evalFlags {
	names := make([]string, len(buildTypes))
	for i, bt := range buildTypes {
		names[i] = string(bt)
	}
	return evalFlags{
		buildType:     fs.String("build-type", defaults.BuildType, "build type: "+strings.Join(names, "|")),
		limitSize:     fs.String("limit-size", strconv.FormatFloat(defaults.LimitSize, 'f', -1, 64), "size limit"),
		limitUnit:     fs.String("limit-unit", defaults.LimitUnit, "size limit unit: KB|MB|GB"),
		failOnWarning: fs.Bool("fail-on-warning", defaults.FailOnWarning, "raise a failure instead of a warning"),
	}
}

func (f evalFlags) options() (policy.Options, error) {
	size, err := policy.ParseLimitSize(*f.limitSize)
	if err != nil {
		return policy.Options{}, err
	}
	return policy.Options{
		BuildType:     *f.buildType,
		LimitSize:     size,
		LimitUnit:     *f.limitUnit,
		FailOnWarning: *f.failOnWarning,
	}, nil
}

// parse accepts flags before and after the single positional argument.
func parse(fs *flag.FlagSet, args []string) (string, error) {
	if err := parseFlags(fs, args); err != nil {
		return "", err
	}
	if fs.NArg() == 0 {
		return "", usageError{fmt.Sprintf("%s: missing file argument", fs.Name())}
	}
	path := fs.Arg(0)
	if err := parseFlags(fs, fs.Args()[1:]); err != nil {
		return "", err
	}
	if fs.NArg() > 0 {
		return "", usageError{fmt.Sprintf("%s: unexpected arguments %v", fs.Name(), fs.Args())}
	}
	return path, nil
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	err := fs.Parse(args)
	if err == nil || errors.Is(err, flag.ErrHelp) {
		return err
	}
	return usageError{err.Error()}
}

func (c *cli) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(c.stderr)
	return fs
}

func (c *cli) iosJSON(ctx context.Context, args []string) error {
	path, err := parse(c.flagSet("ios-json"), args)
	if err != nil {
		return err
	}
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	variants, err := service.New(c.cfg, c.opts...).ParseIOS(ctx, f)
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(variants, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(c.stdout, string(out))
	return err
}

func (c *cli) ios(ctx context.Context, args []string) error {
	fs := c.flagSet("ios")
	defaults := service.New(c.cfg)
	ef := bindEvalFlags(fs, defaults.IOSOptions(), policy.BuildTypes(policy.IOS))

	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	opts, err := ef.options()
	if err != nil {
		return err
	}

	return c.withService(ctx, func(svc *service.Service) (*service.Run, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return svc.EvaluateIOS(ctx, f, opts)
	})
}

func (c *cli) androidCSV(ctx context.Context, args []string) error {
	fs := c.flagSet("android-csv")
	defaults := service.New(c.cfg)
	ef := bindEvalFlags(fs, defaults.AndroidOptions(), policy.BuildTypes(policy.Android))
	filter := bindFilterFlags(fs, defaults.AndroidFilter())

	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	opts, err := ef.options()
	if err != nil {
		return err
	}

	return c.withService(ctx, func(svc *service.Service) (*service.Run, error) {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return svc.EvaluateAndroidCSV(ctx, f, filter(), opts)
	})
}

func (c *cli) android(ctx context.Context, args []string) error {
	fs := c.flagSet("android")
	defaults := service.New(c.cfg)
	ef := bindEvalFlags(fs, defaults.AndroidOptions(), policy.BuildTypes(policy.Android))
	filter := bindFilterFlags(fs, defaults.AndroidFilter())
	var req service.BundleRequest
	fs.StringVar(&req.Keystore, "ks", "", "keystore path")
	fs.StringVar(&req.KeyAlias, "ks-alias", "", "key alias")
	fs.StringVar(&req.KeystorePass, "ks-pass", "", "keystore password")
	fs.StringVar(&req.KeyPass, "key-pass", "", "key password")
	fs.StringVar(&req.Jar, "bundletool", "", "existing bundletool jar (default: download)")

	path, err := parse(fs, args)
	if err != nil {
		return err
	}
	opts, err := ef.options()
	if err != nil {
		return err
	}
	req.Bundle = path

	return c.withService(ctx, func(svc *service.Service) (*service.Run, error) {
		return svc.EvaluateBundle(ctx, req, filter(), opts)
	})
}

func bindFilterFlags(fs *flag.FlagSet, defaults service.Filter) func() service.Filter {
	densities := fs.String("densities", strings.Join(defaults.Densities, ","), "comma-separated screen densities")
	languages := fs.String("languages", strings.Join(defaults.Languages, ","), "comma-separated languages")
	return func() service.Filter {
		return service.Filter{
			Densities: config.SplitList(*densities),
			Languages: config.SplitList(*languages),
		}
	}
}

// withService runs one evaluation, recording it in history when a
// database is configured, and publishes the result.
func (c *cli) withService(ctx context.Context, eval func(*service.Service) (*service.Run, error)) error {
	st, err := openStore(ctx, c.cfg.Database)
	if err != nil {
		return err
	}
	if st != nil {
		defer st.Close()
	}

	run, err := eval(newService(c.cfg, st, c.opts...))
	if err != nil {
		return err
	}

	review.Publish(review.WriterSink{Out: c.stdout, Diag: c.stderr}, run.Report())
	if run.Failed {
		return errFailed
	}
	return nil
}
