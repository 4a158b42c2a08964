package dataset

import (
	"context"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	graphdatasets "github.com/WittenYeh/GraphDatasets"
	"github.com/WittenYeh/GraphDatasets/archive"
	"github.com/WittenYeh/GraphDatasets/codec"
	"github.com/WittenYeh/GraphDatasets/fetch"
	"github.com/WittenYeh/GraphDatasets/graphcsv"
	"github.com/WittenYeh/GraphDatasets/typemeta"
)

// ManifestFileName marks a dataset directory as completed.
const ManifestFileName = "dataset.json"

// Manifest records what a completed dataset directory contains.
type Manifest struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	URL    string `json:"url"`
	Format Format `json:"format"`
	Nodes  int64  `json:"nodes,omitempty"`
	Edges  int64  `json:"edges,omitempty"`
}

// PipelineOptions configure a Pipeline.
type PipelineOptions struct {
	// Client downloads archives. Defaults to fetch.NewClient().
	Client *fetch.Client
	// Logger for per-dataset progress. Defaults to a noop logger.
	Logger *graphdatasets.Logger
	// Parallelism caps how many datasets run concurrently. Default 2.
	Parallelism int
	// ConvertOptions are passed through to the converter for Matrix
	// Market datasets.
	ConvertOptions []graphdatasets.Option
	// TypeMeta controls whether a type_meta.json is generated next to
	// converted outputs. Default true.
	TypeMeta bool
}

// Pipeline acquires datasets into per-dataset directories under a root
// and normalizes Matrix Market datasets into canonical CSV files.
//
// Each dataset directory is owned by exactly one goroutine per run, so
// work across datasets runs in parallel while steps within a dataset
// stay sequential.
type Pipeline struct {
	root string
	opts PipelineOptions
}

// NewPipeline creates a Pipeline rooted at root.
func NewPipeline(root string, optFns ...func(*PipelineOptions)) *Pipeline {
	opts := PipelineOptions{
		Parallelism: 2,
		TypeMeta:    true,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Client == nil {
		opts.Client = fetch.NewClient()
	}
	if opts.Logger == nil {
		opts.Logger = graphdatasets.NoopLogger()
	}
	return &Pipeline{root: root, opts: opts}
}

// Run processes the named catalog datasets. With no names it processes
// the whole catalog. The first failure cancels the remaining datasets.
func (p *Pipeline) Run(ctx context.Context, names ...string) error {
	var sets []Dataset
	if len(names) == 0 {
		sets = All()
	} else {
		for _, name := range names {
			ds, ok := Lookup(name)
			if !ok {
				return fmt.Errorf("unknown dataset %q", name)
			}
			sets = append(sets, ds)
		}
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.opts.Parallelism)
	for _, ds := range sets {
		g.Go(func() error {
			if err := p.RunDataset(ctx, ds); err != nil {
				return fmt.Errorf("dataset %s: %w", ds.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// RunDataset processes a single dataset entry: download the archive,
// extract it, and for Matrix Market payloads convert and verify the
// canonical CSV outputs. Completed datasets are skipped, so reruns only
// redo missing work.
func (p *Pipeline) RunDataset(ctx context.Context, ds Dataset) error {
	log := p.opts.Logger.WithDataset(ds.Name)
	dir := filepath.Join(p.root, ds.Name)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	if completed(dir, ds.Format) {
		log.InfoContext(ctx, "outputs already present, skipping")
		return nil
	}

	archiveName, err := remoteFileName(ds.URL)
	if err != nil {
		return err
	}
	archivePath := filepath.Join(dir, archiveName)
	if err := p.opts.Client.Fetch(ctx, fetch.Request{
		URL:    ds.URL,
		Dest:   archivePath,
		SHA256: ds.SHA256,
	}); err != nil {
		return err
	}

	var extracted []string
	if archive.Supported(archivePath) {
		log.InfoContext(ctx, "extracting archive", "archive", archiveName)
		extracted, err = extractNested(archivePath)
		if err != nil {
			return err
		}
	}

	if ds.Format != FormatMTX {
		log.InfoContext(ctx, "acquisition completed", "format", string(ds.Format))
		return writeManifest(dir, Manifest{
			Name:   ds.Name,
			Source: ds.Source,
			URL:    ds.URL,
			Format: ds.Format,
		})
	}

	mtxPath, err := findMTX(dir, ds.Name, extracted)
	if err != nil {
		return err
	}

	convertOpts := append([]graphdatasets.Option{}, p.opts.ConvertOptions...)
	convertOpts = append(convertOpts,
		graphdatasets.WithOutputDir(dir),
		graphdatasets.WithLogger(log),
	)
	if ds.Weighted {
		convertOpts = append(convertOpts, graphdatasets.WithWeights(true))
	}
	if _, err := graphdatasets.Convert(ctx, mtxPath, convertOpts...); err != nil {
		return err
	}

	report, err := graphcsv.Verify(nil, dir)
	if err != nil {
		return err
	}
	log.InfoContext(ctx, "verified outputs",
		"nodes", report.Nodes,
		"edges", report.Edges,
		"isolated_nodes", report.IsolatedNodes,
	)

	if p.opts.TypeMeta {
		if _, err := typemeta.Generate(nil, dir); err != nil {
			return err
		}
	}
	return writeManifest(dir, Manifest{
		Name:   ds.Name,
		Source: ds.Source,
		URL:    ds.URL,
		Format: ds.Format,
		Nodes:  report.Nodes,
		Edges:  report.Edges,
	})
}

// extractNested unpacks an archive and then any archives it produced,
// so zip-containing-tar bundles unfold in one call. Nested archives are
// extracted next to themselves.
func extractNested(archivePath string) ([]string, error) {
	var files []string
	pending := []string{archivePath}
	for len(pending) > 0 {
		next := pending[0]
		pending = pending[1:]
		produced, err := archive.Extract(next, filepath.Dir(next))
		if err != nil {
			return nil, err
		}
		for _, f := range produced {
			if archive.Supported(f) {
				pending = append(pending, f)
				continue
			}
			files = append(files, f)
		}
	}
	return files, nil
}

func completed(dir string, format Format) bool {
	if _, err := os.Stat(filepath.Join(dir, ManifestFileName)); err != nil {
		return false
	}
	if format != FormatMTX {
		return true
	}
	for _, name := range []string{graphcsv.NodesFileName, graphcsv.EdgesFileName} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}

func writeManifest(dir string, m Manifest) error {
	data, err := codec.Default.Marshal(m)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, ManifestFileName)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return err
	}
	return nil
}

func remoteFileName(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" || name == "" {
		return "", fmt.Errorf("cannot derive file name from %q", rawURL)
	}
	return name, nil
}

// findMTX locates the Matrix Market file to convert. A file named after
// the dataset wins over auxiliary files (coordinate lists, node name
// tables) that ship in the same archive.
func findMTX(dir, name string, extracted []string) (string, error) {
	candidates := make([]string, 0, 1)
	for _, f := range extracted {
		if strings.HasSuffix(f, ".mtx") {
			candidates = append(candidates, f)
		}
	}
	if len(candidates) == 0 {
		err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.IsDir() && strings.HasSuffix(p, ".mtx") {
				candidates = append(candidates, p)
			}
			return nil
		})
		if err != nil {
			return "", err
		}
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("no .mtx file found under %s", dir)
	}

	sort.Strings(candidates)
	want := name + ".mtx"
	for _, c := range candidates {
		if filepath.Base(c) == want {
			return c, nil
		}
	}
	return candidates[0], nil
}
