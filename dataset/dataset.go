// Package dataset carries the catalog of built-in graph datasets and the
// pipeline that turns a catalog entry into converted CSV files.
package dataset

import (
	"sort"
)

// Format describes the payload inside a dataset archive.
type Format string

const (
	// FormatMTX archives contain a Matrix Market file that the converter
	// turns into nodes.csv/edges.csv.
	FormatMTX Format = "mtx"
	// FormatEdgeList archives contain a whitespace-delimited edge list;
	// acquisition only, conversion is handled by format-specific tooling.
	FormatEdgeList Format = "edgelist"
	// FormatJSON archives contain JSON documents (Yelp-style dumps).
	FormatJSON Format = "json"
)

// Dataset is one catalog entry.
type Dataset struct {
	Name     string
	Source   string // repository family: snap, suitesparse, netrepo, yelp
	URL      string
	SHA256   string // optional, verified when set
	Format   Format
	Weighted bool
}

var catalog = map[string]Dataset{
	"com-dblp": {
		Name:   "com-dblp",
		Source: "snap",
		URL:    "https://snap.stanford.edu/data/bigdata/communities/com-dblp.ungraph.txt.gz",
		Format: FormatEdgeList,
	},
	"com-lj": {
		Name:   "com-lj",
		Source: "snap",
		URL:    "https://snap.stanford.edu/data/bigdata/communities/com-lj.ungraph.txt.gz",
		Format: FormatEdgeList,
	},
	"com-orkut": {
		Name:   "com-orkut",
		Source: "snap",
		URL:    "https://snap.stanford.edu/data/bigdata/communities/com-orkut.ungraph.txt.gz",
		Format: FormatEdgeList,
	},
	"com-friendster": {
		Name:   "com-friendster",
		Source: "snap",
		URL:    "https://snap.stanford.edu/data/bigdata/communities/com-friendster.ungraph.txt.gz",
		Format: FormatEdgeList,
	},
	"cit-Patents": {
		Name:   "cit-Patents",
		Source: "snap",
		URL:    "https://snap.stanford.edu/data/cit-Patents.txt.gz",
		Format: FormatEdgeList,
	},
	"twitter-2010": {
		Name:   "twitter-2010",
		Source: "snap",
		URL:    "https://snap.stanford.edu/data/twitter-2010.txt.gz",
		Format: FormatEdgeList,
	},
	"soc-LiveJournal1": {
		Name:   "soc-LiveJournal1",
		Source: "suitesparse",
		URL:    "https://suitesparse-collection-website.herokuapp.com/MM/SNAP/soc-LiveJournal1.tar.gz",
		Format: FormatMTX,
	},
	"road-usa": {
		Name:   "road-usa",
		Source: "suitesparse",
		URL:    "https://suitesparse-collection-website.herokuapp.com/MM/DIMACS10/road_usa.tar.gz",
		Format: FormatMTX,
	},
	"hollywood-2009": {
		Name:   "hollywood-2009",
		Source: "suitesparse",
		URL:    "https://suitesparse-collection-website.herokuapp.com/MM/LAW/hollywood-2009.tar.gz",
		Format: FormatMTX,
	},
	"yelp": {
		Name:   "yelp",
		Source: "yelp",
		URL:    "https://business.yelp.com/external-assets/files/Yelp-JSON.zip",
		Format: FormatJSON,
	},
}

// Lookup returns the catalog entry for name.
func Lookup(name string) (Dataset, bool) {
	ds, ok := catalog[name]
	return ds, ok
}

// All returns the catalog sorted by name.
func All() []Dataset {
	out := make([]Dataset, 0, len(catalog))
	for _, ds := range catalog {
		out = append(out, ds)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
