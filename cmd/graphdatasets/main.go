// Command graphdatasets downloads public graph datasets and normalizes
// them into canonical CSV (and binary CSR) files.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	graphdatasets "github.com/WittenYeh/GraphDatasets"
	"github.com/WittenYeh/GraphDatasets/csrbin"
	"github.com/WittenYeh/GraphDatasets/dataset"
	"github.com/WittenYeh/GraphDatasets/fetch"
	"github.com/WittenYeh/GraphDatasets/graphcsv"
	"github.com/WittenYeh/GraphDatasets/typemeta"
)

const usage = `Usage: graphdatasets [-v] [-json] <command> [arguments]

Commands:
  convert [-weights] [-mirror] [-declared-ids] [-out dir] <file.mtx>...
        convert Matrix Market files to nodes.csv/edges.csv
  fetch [-dir root] [-parallel n] [-rate bytes/s] <name|url>...
        download datasets; catalog names run the full pipeline
  verify <dir>...
        check converted outputs against the format contract
  typemeta <dir>...
        generate type_meta.json from converted outputs
  csr <dir> <name>
        export converted outputs as <name>_{row,col,weight}.bin
  list
        print the dataset catalog
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	global := flag.NewFlagSet("graphdatasets", flag.ContinueOnError)
	global.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	verbose := global.Bool("v", false, "enable debug logging")
	jsonLogs := global.Bool("json", false, "emit JSON logs")
	if err := global.Parse(args); err != nil {
		return 1
	}
	if global.NArg() == 0 {
		global.Usage()
		return 1
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	var log *graphdatasets.Logger
	if *jsonLogs {
		log = graphdatasets.NewJSONLogger(level)
	} else {
		log = graphdatasets.NewTextLogger(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd, rest := global.Arg(0), global.Args()[1:]
	var err error
	switch cmd {
	case "convert":
		err = cmdConvert(ctx, log, rest)
	case "fetch":
		err = cmdFetch(ctx, log, rest)
	case "verify":
		err = cmdVerify(ctx, log, rest)
	case "typemeta":
		err = cmdTypeMeta(ctx, log, rest)
	case "csr":
		err = cmdCSR(ctx, log, rest)
	case "list":
		err = cmdList()
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", cmd)
		global.Usage()
		return 1
	}
	if err != nil {
		log.ErrorContext(ctx, "command failed", "command", cmd, "error", err)
		return 1
	}
	return 0
}

func cmdConvert(ctx context.Context, log *graphdatasets.Logger, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ContinueOnError)
	weights := fs.Bool("weights", false, "pass the value column through as a weight column")
	mirror := fs.Bool("mirror", false, "emit reversed rows for symmetric matrices")
	declared := fs.Bool("declared-ids", false, "derive node IDs from the header dimensions instead of first-seen order")
	out := fs.String("out", "", "output directory (default: next to each input)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("convert: no input files")
	}

	opts := []graphdatasets.Option{
		graphdatasets.WithWeights(*weights),
		graphdatasets.WithMirrorSymmetric(*mirror),
		graphdatasets.WithLogger(log),
	}
	if *declared {
		opts = append(opts, graphdatasets.WithIDPolicy(graphdatasets.IDDeclared))
	}
	if *out != "" {
		opts = append(opts, graphdatasets.WithOutputDir(*out))
	}

	for _, path := range fs.Args() {
		if _, err := graphdatasets.Convert(ctx, path, opts...); err != nil {
			return fmt.Errorf("convert %s: %w", path, err)
		}
	}
	return nil
}

func cmdFetch(ctx context.Context, log *graphdatasets.Logger, args []string) error {
	fs := flag.NewFlagSet("fetch", flag.ContinueOnError)
	dir := fs.String("dir", "datasets", "root directory for downloads")
	parallel := fs.Int("parallel", 2, "concurrent downloads")
	rateLimit := fs.Float64("rate", 0, "transfer cap in bytes per second, 0 for unlimited")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("fetch: no dataset names or URLs")
	}

	client := fetch.NewClient(func(o *fetch.Options) {
		o.RateLimitBytesPerSec = *rateLimit
		o.Logger = log.Logger
	})

	var names []string
	var reqs []fetch.Request
	for _, arg := range fs.Args() {
		if _, ok := dataset.Lookup(arg); ok {
			names = append(names, arg)
			continue
		}
		u, err := url.Parse(arg)
		if err != nil || u.Scheme == "" {
			return fmt.Errorf("fetch: %q is neither a catalog dataset nor a URL", arg)
		}
		reqs = append(reqs, fetch.Request{
			URL:  arg,
			Dest: filepath.Join(*dir, filepath.Base(u.Path)),
		})
	}

	if len(reqs) > 0 {
		if err := os.MkdirAll(*dir, 0755); err != nil {
			return err
		}
		if err := client.FetchAll(ctx, reqs, *parallel); err != nil {
			return err
		}
	}
	if len(names) > 0 {
		p := dataset.NewPipeline(*dir, func(o *dataset.PipelineOptions) {
			o.Client = client
			o.Logger = log
			o.Parallelism = *parallel
		})
		if err := p.Run(ctx, names...); err != nil {
			return err
		}
	}
	return nil
}

func cmdVerify(ctx context.Context, log *graphdatasets.Logger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("verify: no directories")
	}
	for _, dir := range args {
		report, err := graphcsv.Verify(nil, dir)
		if err != nil {
			return fmt.Errorf("verify %s: %w", dir, err)
		}
		log.InfoContext(ctx, "verified",
			"dir", dir,
			"nodes", report.Nodes,
			"edges", report.Edges,
			"weighted", report.Weighted,
			"isolated_nodes", report.IsolatedNodes,
		)
	}
	return nil
}

func cmdTypeMeta(ctx context.Context, log *graphdatasets.Logger, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("typemeta: no directories")
	}
	for _, dir := range args {
		if _, err := typemeta.Generate(nil, dir); err != nil {
			return fmt.Errorf("typemeta %s: %w", dir, err)
		}
		log.InfoContext(ctx, "wrote type metadata", "path", filepath.Join(dir, typemeta.FileName))
	}
	return nil
}

func cmdCSR(ctx context.Context, log *graphdatasets.Logger, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("csr: want <dir> <name>")
	}
	dir, name := args[0], args[1]
	stats, err := csrbin.Export(ctx, nil, dir, name)
	if err != nil {
		return fmt.Errorf("csr %s: %w", dir, err)
	}
	log.InfoContext(ctx, "exported csr",
		"dir", dir,
		"name", name,
		"nodes", stats.Nodes,
		"edges", stats.Edges,
		"weighted", stats.Weighted,
	)
	return nil
}

func cmdList() error {
	w := os.Stdout
	for _, ds := range dataset.All() {
		fmt.Fprintf(w, "%-20s %-12s %-9s %s\n", ds.Name, ds.Source, ds.Format, ds.URL)
	}
	return nil
}
