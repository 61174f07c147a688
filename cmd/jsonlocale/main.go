package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/pitabwire/util"

	"github.com/pitabwire/jsonlocale"
	"github.com/pitabwire/jsonlocale/localization"
)

const (
	minArgsCommand = 2
	serviceName    = "jsonlocale"
)

var (
	ErrEmptyKey       = errors.New("key is required")
	ErrCultureMissing = errors.New("culture is required")
	ErrKeyNotFound    = errors.New("key not found")
)

func main() {
	if len(os.Args) < minArgsCommand {
		usage(os.Stdout)
		os.Exit(1)
	}

	exitOnErr(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		usage(stdout)
		return nil
	}

	switch args[0] {
	case "lookup":
		return cmdLookup(ctx, args[1:], stdout, stderr)
	case "dump":
		return cmdDump(ctx, args[1:], stdout, stderr)
	case "validate":
		return cmdValidate(ctx, args[1:], stdout, stderr)
	case "help", "-h", "--help":
		usage(stdout)
		return nil
	default:
		usage(stderr)
		return fmt.Errorf("unknown command: %q", args[0])
	}
}

func usage(w io.Writer) {
	_, _ = fmt.Fprintln(w, "jsonlocale <command> [flags] [args]")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Commands:")
	_, _ = fmt.Fprintln(w, "  lookup --culture C [--format] <key> [args...]")
	_, _ = fmt.Fprintln(w, "  dump --culture C [--json]")
	_, _ = fmt.Fprintln(w, "  validate")
	_, _ = fmt.Fprintln(w, "")
	_, _ = fmt.Fprintln(w, "Source flags, shared by every command:")
	_, _ = fmt.Fprintln(w, "  --dir DIR --name NAME | --manifest FILE | --bucket URL [--prefix P]")
	_, _ = fmt.Fprintln(w, "  [--config FILE] [--case-insensitive] [--delimiter D] [--default-culture C]")
	_, _ = fmt.Fprintln(w, "  [--parent-fallback] [--log-level LEVEL]")
	_, _ = fmt.Fprintln(w, "Without a source flag the LOCALIZATION_* environment decides.")
}

// sourceFlags selects where translations come from. They are applied over the
// configuration read from the environment or --config.
type sourceFlags struct {
	configFile      string
	dir             string
	name            string
	manifest        string
	bucket          string
	prefix          string
	caseInsensitive bool
	strict          bool
	delimiter       string
	defaultCulture  string
	parentFallback  bool
	logLevel        string
}

func (f *sourceFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&f.configFile, "config", "", "yaml configuration file")
	fs.StringVar(&f.dir, "dir", "", "directory holding <name>.<culture>.json files")
	fs.StringVar(&f.name, "name", "Strings", "resource name")
	fs.StringVar(&f.manifest, "manifest", "", "yaml or toml manifest listing the sources")
	fs.StringVar(&f.bucket, "bucket", "", "bucket url, e.g. file:///srv/locales")
	fs.StringVar(&f.prefix, "prefix", "", "object key prefix inside the bucket")
	fs.BoolVar(&f.caseInsensitive, "case-insensitive", false, "fold keys and cultures")
	fs.BoolVar(&f.strict, "strict", false, "discard everything when one source fails")
	fs.StringVar(&f.delimiter, "delimiter", "", "separator for nested keys")
	fs.StringVar(&f.defaultCulture, "default-culture", "", "culture tried after the requested one")
	fs.BoolVar(&f.parentFallback, "parent-fallback", false, "try it before it-IT misses")
	fs.StringVar(&f.logLevel, "log-level", "warn", "log level written to stderr")
}

func (f *sourceFlags) options(stderr io.Writer) []jsonlocale.Option {
	var opts []jsonlocale.Option

	if f.configFile != "" {
		opts = append(opts, jsonlocale.WithConfigFile(f.configFile))
	}

	switch {
	case f.manifest != "":
		opts = append(opts, jsonlocale.WithManifestFile(f.manifest))
	case f.bucket != "":
		opts = append(opts, jsonlocale.WithBucket(f.bucket, f.prefix, f.name))
	case f.dir != "":
		opts = append(opts, jsonlocale.WithDirectory(f.dir, f.name))
	}

	var buildOpts []localization.BuildOption
	if f.caseInsensitive {
		buildOpts = append(buildOpts, localization.WithCaseInsensitiveKeys(true))
	}
	if f.strict {
		buildOpts = append(buildOpts, localization.WithStrictLoad(true))
	}
	if f.delimiter != "" {
		buildOpts = append(buildOpts, localization.WithKeyDelimiter(f.delimiter))
	}
	opts = append(opts, jsonlocale.WithBuildOptions(buildOpts...))

	var localizerOpts []localization.Option
	if f.defaultCulture != "" {
		localizerOpts = append(localizerOpts, localization.WithDefaultCulture(f.defaultCulture))
	}
	if f.parentFallback {
		localizerOpts = append(localizerOpts, localization.WithParentCultureFallback(true))
	}
	opts = append(opts, jsonlocale.WithLocalizerOptions(localizerOpts...))

	logOpts := []util.Option{util.WithLogOutput(stderr), util.WithLogNoColor(true)}
	if level, err := util.ParseLevel(f.logLevel); err == nil {
		logOpts = append(logOpts, util.WithLogLevel(level))
	}
	return append(opts, jsonlocale.WithLogger(logOpts...))
}

func cmdLookup(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("lookup", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var sf sourceFlags
	sf.register(fs)
	culture := fs.String("culture", "", "culture to resolve the key in")
	format := fs.Bool("format", false, "format the template with the remaining arguments")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 || fs.Arg(0) == "" {
		return ErrEmptyKey
	}
	key := fs.Arg(0)

	ctx, svc := jsonlocale.NewService(ctx, serviceName, sf.options(stderr)...)
	defer svc.Close(ctx)

	var res localization.LookupResult
	if *format {
		formatArgs := make([]any, 0, fs.NArg()-1)
		for _, a := range fs.Args()[1:] {
			formatArgs = append(formatArgs, a)
		}

		var err error
		res, err = svc.Localizer().LookupFormattedIn(ctx, *culture, key, formatArgs...)
		if err != nil {
			return err
		}
	} else {
		res = svc.Localizer().LookupIn(ctx, *culture, key)
	}

	_, _ = fmt.Fprintln(stdout, res.Value)
	if res.ResourceNotFound {
		return fmt.Errorf("%w: %q in culture %q", ErrKeyNotFound, key, *culture)
	}
	return nil
}

func cmdDump(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var sf sourceFlags
	sf.register(fs)
	culture := fs.String("culture", "", "culture to list")
	asJSON := fs.Bool("json", false, "print a json object instead of a table")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *culture == "" {
		return ErrCultureMissing
	}

	ctx, svc := jsonlocale.NewService(ctx, serviceName, sf.options(stderr)...)
	defer svc.Close(ctx)

	entries := svc.Localizer().GetAllForCulture(*culture)

	if *asJSON {
		out := map[string]string{}
		for res := range entries {
			out[res.Name] = res.Value
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	for res := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\n", res.Name, res.Value)
	}
	return tw.Flush()
}

func cmdValidate(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(stderr)
	var sf sourceFlags
	sf.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, svc := jsonlocale.NewService(ctx, serviceName, sf.options(stderr)...)
	defer svc.Close(ctx)

	for _, loadErr := range svc.LoadErrors() {
		_, _ = fmt.Fprintf(stdout, "FAIL %s %s: %v\n", loadErr.Culture, loadErr.Location, loadErr.Err)
	}

	cultures := svc.Localizer().Cultures()
	_, _ = fmt.Fprintf(stdout, "%d sources, %d failed, %d cultures\n",
		len(svc.Manifest()), len(svc.LoadErrors()), len(cultures))
	for _, c := range cultures {
		_, _ = fmt.Fprintf(stdout, "  %s\t%d keys\t%s\n", c, svc.Store().Len(c), svc.Store().Location(c))
	}

	return svc.Validate()
}

func exitOnErr(err error) {
	if err == nil {
		return
	}
	_, _ = fmt.Fprintln(os.Stderr, err.Error())
	os.Exit(1)
}
