// Package retriever implements a small offline TF-IDF retriever
// over a folder of text documents.
package retriever

import (
	"math"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/effective-security/xlog"
)

var logger = xlog.NewPackageLogger("github.com/effective-security/miniagent/pkg", "retriever")

var wordRE = regexp.MustCompile(`[A-Za-z0-9_]+`)

// Tokenize returns lower-cased word tokens
func Tokenize(text string) []string {
	words := wordRE.FindAllString(text, -1)
	for i, w := range words {
		words[i] = strings.ToLower(w)
	}
	return words
}

// Doc is a corpus document
type Doc struct {
	// ID is the file name
	ID    string
	Title string
	Text  string
}

// Hit is a search result
type Hit struct {
	Doc   *Doc
	Score float64
}

// Retriever scores documents with TF-IDF cosine similarity.
// It is immutable after construction and safe for concurrent use.
type Retriever struct {
	docs []*Doc
	tf   []map[string]int
	df   map[string]int
}

// New returns a retriever over the documents
func New(docs ...*Doc) *Retriever {
	r := &Retriever{
		df: make(map[string]int),
	}
	for _, doc := range docs {
		tf := make(map[string]int)
		for _, term := range Tokenize(doc.Text) {
			tf[term]++
		}
		r.docs = append(r.docs, doc)
		r.tf = append(r.tf, tf)
		for term := range tf {
			r.df[term]++
		}
	}
	return r
}

// Load reads all *.txt files in dir, sorted by name.
// The title is the file name without extension, with underscores as spaces.
// A missing folder yields an empty retriever.
func Load(dir string) (*Retriever, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, errors.WithStack(err)
	}
	sort.Strings(files)

	docs := make([]*Doc, 0, len(files))
	for _, file := range files {
		text, err := os.ReadFile(file)
		if err != nil {
			return nil, errors.Wrapf(err, "unable to read %s", file)
		}
		name := filepath.Base(file)
		docs = append(docs, &Doc{
			ID:    name,
			Title: strings.ReplaceAll(strings.TrimSuffix(name, filepath.Ext(name)), "_", " "),
			Text:  string(text),
		})
	}

	logger.KV(xlog.DEBUG, "corpus", dir, "docs", len(docs))
	return New(docs...), nil
}

// Len returns the number of documents
func (r *Retriever) Len() int {
	return len(r.docs)
}

func (r *Retriever) idf(term string) float64 {
	n := float64(len(r.docs))
	return math.Log((n+1)/float64(r.df[term]+1)) + 1.0
}

// Search returns up to k documents with a positive score,
// best first.
func (r *Retriever) Search(query string, k int) []Hit {
	terms := Tokenize(query)
	if len(terms) == 0 || len(r.docs) == 0 || k <= 0 {
		return nil
	}

	qtf := make(map[string]int)
	var order []string
	for _, t := range terms {
		if _, ok := qtf[t]; !ok {
			order = append(order, t)
		}
		qtf[t]++
	}

	qvec := make(map[string]float64, len(qtf))
	var normQ float64
	for _, t := range order {
		w := float64(qtf[t]) * r.idf(t)
		qvec[t] = w
		normQ += w * w
	}
	normQ = math.Sqrt(normQ)
	if normQ == 0 {
		normQ = 1
	}

	hits := make([]Hit, 0, len(r.docs))
	for i, tf := range r.tf {
		var dot, normD float64
		for _, t := range order {
			dw := float64(tf[t]) * r.idf(t)
			dot += qvec[t] * dw
			normD += dw * dw
		}
		normD = math.Sqrt(normD)
		if normD == 0 {
			normD = 1
		}
		hits = append(hits, Hit{Doc: r.docs[i], Score: dot / (normQ * normD)})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	var res []Hit
	for _, h := range hits[:min(k, len(hits))] {
		if h.Score <= 0 {
			continue
		}
		res = append(res, h)
	}
	return res
}
