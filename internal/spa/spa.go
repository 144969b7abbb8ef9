// Package spa serves the single-page application that hosts guests in a browser.
package spa

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
)

const (
	IndexFileName    = "index.html"
	NotFoundFileName = "404.html"
)

// IndexHandler serves the root's index.html for every request.
type IndexHandler struct {
	indexPath string
}

func NewIndexHandler(root http.Dir) *IndexHandler {
	return &IndexHandler{indexPath: filepath.Join(string(root), IndexFileName)}
}

func (h *IndexHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	http.ServeFile(w, r, h.indexPath)
}

// FileServer serves files under a root directory. Missing files are
// answered by NotFound, which serves 404.html with a 404 status by default.
type FileServer struct {
	root     http.Dir
	NotFound http.Handler
}

func NewFileServer(root http.Dir) *FileServer {
	return &FileServer{
		root:     root,
		NotFound: FileWithStatus(filepath.Join(string(root), NotFoundFileName), http.StatusNotFound),
	}
}

func (fsrv *FileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if containsDotDot(r.URL.Path) {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}

	dir := string(fsrv.root)
	if dir == "" {
		dir = "."
	}
	upath := r.URL.Path
	if !strings.HasPrefix(upath, "/") {
		upath = "/" + upath
		r.URL.Path = upath
	}
	name := filepath.Join(dir, filepath.FromSlash(path.Clean(upath)))

	if _, err := os.Stat(name); os.IsNotExist(err) {
		fsrv.NotFound.ServeHTTP(w, r)
		return
	}
	http.ServeFile(w, r, name)
}

// FileWithStatus serves the file name with the given status code.
func FileWithStatus(name string, code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(statusWriter{ResponseWriter: w, status: code}, r, name)
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (sw statusWriter) WriteHeader(int) {
	sw.ResponseWriter.WriteHeader(sw.status)
}

func containsDotDot(v string) bool {
	if !strings.Contains(v, "..") {
		return false
	}
	for _, part := range strings.FieldsFunc(v, isSlash) {
		if part == ".." {
			return true
		}
	}
	return false
}

func isSlash(r rune) bool { return r == '/' || r == '\\' }
