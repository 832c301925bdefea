package web

import (
	"embed"
	"io"
	"io/fs"
	"net/http"
	"time"
)

//go:embed index.html static
var embeddedFiles embed.FS

// GetFileSystem returns the embedded web bundle as an http.FileSystem
func GetFileSystem() http.FileSystem {
	fsys, err := fs.Sub(embeddedFiles, ".")
	if err != nil {
		panic(err)
	}
	return http.FS(fsys)
}

// ServeIndex serves the SPA entry point
func ServeIndex(w http.ResponseWriter, r *http.Request) {
	// http.ServeFileFS requires Go 1.22+; this is its equivalent on Go 1.21.
	f, err := embeddedFiles.Open("index.html")
	if err != nil {
		http.Error(w, "404 page not found", http.StatusNotFound)
		return
	}
	defer f.Close()
	http.ServeContent(w, r, "index.html", time.Time{}, f.(io.ReadSeeker))
}
