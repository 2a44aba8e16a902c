// Command viewer serves archived Handlords runs over HTTP: a games index,
// per-game tick traces, and bucketed aggregate stats, all queried live from
// the parquet shards through DuckDB. An optional SQLite results index adds
// a fast win/loss summary endpoint.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brensch/handlords/db"
)

func main() {
	fs := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	listen := fs.String("listen", "127.0.0.1:8080", "HTTP listen address")
	dataDirs := fs.String("data-dirs", "data/runs", "Comma-separated directories containing tick parquet shards")
	resultsDB := fs.String("results-db", "", "Optional SQLite results index (enables /api/results)")
	staticDir := fs.String("static-dir", "", "Optional directory to serve as SPA static")
	if err := fs.Parse(os.Args[1:]); err != nil {
		log.Fatalf("flag parse: %v", err)
	}

	roots := parseDataRoots(*dataDirs)
	log.Printf("Viewer data roots: %s", strings.Join(roots, ","))

	var results *db.DB
	if *resultsDB != "" {
		var err error
		results, err = db.New(*resultsDB)
		if err != nil {
			log.Fatalf("open results db: %v", err)
		}
		defer results.Close()
	}

	srv := NewServer(roots, results)
	defer srv.dbCache.Close()

	mux := http.NewServeMux()
	srv.RegisterRoutes(mux)

	if *staticDir != "" {
		spa := spaHandler{staticPath: *staticDir, indexPath: filepath.Join(*staticDir, "index.html")}
		mux.Handle("/", spa)
	}

	httpSrv := &http.Server{
		Addr:              *listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	log.Printf("Viewer listening on %s", *listen)
	if err := httpSrv.ListenAndServe(); err != nil {
		log.Fatal(err)
	}
}

func parseDataRoots(csv string) []string {
	parts := strings.Split(csv, ",")
	roots := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			roots = append(roots, p)
		}
	}
	return roots
}

type spaHandler struct {
	staticPath string
	indexPath  string
}

func (h spaHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Serve the exact static asset when it exists; anything else falls back
	// to index.html for client-side routing.
	path := filepath.Clean(r.URL.Path)
	if path == "/" {
		http.ServeFile(w, r, h.indexPath)
		return
	}
	candidate := filepath.Join(h.staticPath, strings.TrimPrefix(path, "/"))
	if fi, err := os.Stat(candidate); err == nil && !fi.IsDir() {
		http.ServeFile(w, r, candidate)
		return
	}
	http.ServeFile(w, r, h.indexPath)
}
