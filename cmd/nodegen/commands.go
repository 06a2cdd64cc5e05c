package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/goccy/go-json"

	"github.com/goliatone/go-nodegen"
	"github.com/goliatone/go-nodegen/internal/openapi/validate"
	"github.com/goliatone/go-nodegen/pkg/config"
	"github.com/goliatone/go-nodegen/pkg/importer"
	"github.com/goliatone/go-nodegen/pkg/model"
	"github.com/goliatone/go-nodegen/pkg/registry"
	"github.com/goliatone/go-nodegen/pkg/render/catalog"
	"github.com/goliatone/go-nodegen/pkg/renderers/tui"
	"github.com/goliatone/go-nodegen/pkg/schema"
	"github.com/goliatone/go-nodegen/pkg/server"
)

var errLintFailed = errors.New("lint failed")

const lintFetchTimeout = 30 * time.Second

type common struct {
	configPath string
}

func (c *common) register(fs *flag.FlagSet) {
	fs.StringVar(&c.configPath, "config", os.Getenv("NODEGEN_CONFIG"), "path to the YAML config file")
}

func (c *common) load() (config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, nil, err
	}
	logger := cfg.Log.NewLogger(os.Stderr)
	slog.SetDefault(logger)
	return cfg, logger, nil
}

func loadRegistry(ctx context.Context, cfg config.Config, logger *slog.Logger) (*registry.Registry, []*registry.BoundModel, error) {
	reg := nodegen.NewRegistry(cfg, logger)
	models, err := reg.Load(ctx)
	if err != nil {
		return nil, nil, err
	}
	return reg, models, nil
}

func runImport(ctx context.Context, args []string) error {
	var c common
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	c.register(fs)
	list := fs.String("models", "", "model list file (defaults to schemas.model_list)")
	dir := fs.String("dir", "", "output directory (defaults to schemas.dir)")
	normalize := fs.Bool("normalize", false, "only reset run_count in existing documents")
	_ = fs.Parse(args)

	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	target := firstNonEmpty(*dir, cfg.Schemas.Dir)
	if *normalize {
		return importer.NormalizeDir(target)
	}

	models := fs.Args()
	if len(models) == 0 {
		models, err = importer.LoadModelList(firstNonEmpty(*list, cfg.Schemas.ModelList))
		if err != nil {
			return err
		}
	}
	imp := importer.New(target,
		importer.WithBaseURL(cfg.Replicate.BaseURL),
		importer.WithToken(cfg.Replicate.Token),
		importer.WithLogger(logger),
	)
	imported, err := imp.Import(ctx, models)
	for _, item := range imported {
		fmt.Printf("%s -> %s\n", item.Model, item.Path)
	}
	return err
}

func runList(ctx context.Context, args []string) error {
	var c common
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	c.register(fs)
	_ = fs.Parse(args)

	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	_, models, err := loadRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NODE\tMODEL\tINPUTS\tOUTPUTS")
	for _, bound := range models {
		binding := bound.Binding()
		outputs := make([]string, 0, len(bound.ReturnNames()))
		types := bound.ReturnTypes()
		for idx, name := range bound.ReturnNames() {
			if binding.Output.Named() {
				outputs = append(outputs, fmt.Sprintf("%s:%s", name, types[idx]))
				continue
			}
			outputs = append(outputs, name)
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", bound.Name(), binding.ModelID, len(binding.Inputs.All()), strings.Join(outputs, ","))
	}
	return w.Flush()
}

func runInspect(ctx context.Context, args []string) error {
	var c common
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	c.register(fs)
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: nodegen inspect [flags] <owner/name>")
	}

	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	reg, _, err := loadRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	bound, err := reg.Lookup(fs.Arg(0))
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(bound.Binding(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runLint(ctx context.Context, args []string) error {
	var c common
	fs := flag.NewFlagSet("lint", flag.ExitOnError)
	c.register(fs)
	skipExamples := fs.Bool("skip-examples", false, "do not validate default_example against the schemas")
	_ = fs.Parse(args)

	cfg, _, err := c.load()
	if err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) == 0 {
		paths, err = filepath.Glob(filepath.Join(cfg.Schemas.Dir, cfg.Schemas.Pattern))
		if err != nil {
			return err
		}
	}

	loader := nodegen.NewLoader(schema.WithHTTPFallback(lintFetchTimeout))
	validator := validate.New(validate.Options{SkipExamples: *skipExamples})
	builder := model.NewBuilder(model.WithNodePrefix(cfg.Nodes.Prefix))
	failed := false
	for _, path := range paths {
		src, err := sourceFor(path)
		if err != nil {
			return err
		}
		ok, err := lintSource(ctx, os.Stdout, loader, validator, builder, src)
		if err != nil {
			return err
		}
		failed = failed || !ok
	}
	if failed {
		return errLintFailed
	}
	return nil
}

// sourceFor accepts a local path or an http(s) URL.
func sourceFor(arg string) (schema.Source, error) {
	if strings.HasPrefix(arg, "http://") || strings.HasPrefix(arg, "https://") {
		return schema.ParseSourceURL(arg)
	}
	return schema.SourceFromFile(arg), nil
}

func lintSource(ctx context.Context, w io.Writer, loader schema.Loader, validator *validate.Validator, builder model.Builder, src schema.Source) (bool, error) {
	path := src.Location()
	doc, err := loader.Load(ctx, src)
	if err != nil {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		fmt.Fprintf(w, "%s: error: %v\n", path, err)
		return false, nil
	}
	if _, err := builder.Build(doc); err != nil {
		fmt.Fprintf(w, "%s: error: %v\n", path, err)
		return false, nil
	}
	report, err := validator.Document(ctx, doc)
	if err != nil {
		return false, err
	}
	for _, diagnostic := range report.Diagnostics {
		fmt.Fprintf(w, "%s: %s\n", path, diagnostic)
	}
	return report.OK(), nil
}

func runCatalog(ctx context.Context, args []string) error {
	var c common
	fs := flag.NewFlagSet("catalog", flag.ExitOnError)
	c.register(fs)
	format := fs.String("format", "markdown", "output format: markdown or html")
	title := fs.String("title", "", "catalog heading")
	output := fs.String("output", "", "output file (stdout if empty)")
	_ = fs.Parse(args)

	parsed, err := catalog.ParseFormat(*format)
	if err != nil {
		return err
	}
	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	_, models, err := loadRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	bindings := make([]model.Binding, 0, len(models))
	for _, bound := range models {
		bindings = append(bindings, bound.Binding())
	}

	var w io.Writer = os.Stdout
	if *output != "" {
		f, err := os.Create(*output)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	if err := catalog.New(catalog.WithTitle(*title)).Render(w, parsed, bindings); err != nil {
		return err
	}
	if *output != "" {
		fmt.Fprintf(os.Stderr, "Catalog written to %s\n", *output)
	}
	return nil
}

func runNode(ctx context.Context, args []string) error {
	var c common
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	c.register(fs)
	inputs := inputFlags{}
	fs.Var(inputs, "input", "input value as name=value (repeatable); JSON literals are decoded")
	interactive := fs.Bool("interactive", false, "prompt for inputs in the terminal")
	outDir := fs.String("out", ".", "directory for image and audio outputs")
	_ = fs.Parse(args)
	if fs.NArg() != 1 {
		return errors.New("usage: nodegen run [flags] <owner/name>")
	}

	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	reg, _, err := loadRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	bound, err := reg.Lookup(fs.Arg(0))
	if err != nil {
		return err
	}

	values, err := inputs.values(ctx, bound.InputTypes())
	if err != nil {
		return err
	}
	if *interactive {
		values, err = tui.New(tui.WithPrefill(values), tui.WithLogger(logger)).Collect(ctx, bound.Binding())
		if err != nil {
			return err
		}
	}

	result, err := bound.Invoke(ctx, values)
	if err != nil {
		return err
	}
	return writeOutputs(os.Stdout, *outDir, bound.ReturnNames(), result.Values)
}

func runServe(ctx context.Context, args []string) error {
	var c common
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	c.register(fs)
	addr := fs.String("addr", "", "listen address (defaults to server.addr)")
	_ = fs.Parse(args)

	cfg, logger, err := c.load()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)
	reg, models, err := loadRegistry(ctx, cfg, logger)
	if err != nil {
		return err
	}
	logger.Info("nodegen: nodes loaded", "count", len(models))

	engine := server.New(reg, server.WithLogger(logger)).Engine()
	return server.ListenAndServe(ctx, firstNonEmpty(*addr, cfg.Server.Addr), engine, logger)
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
