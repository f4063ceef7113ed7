package api

import (
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

const indexPage = "index.html"

// GameDependencies defines the interface for counting served games.
type GameDependencies interface {
	GameServed()
}

// GameHandler serves the static game files under /tetris/.
type GameHandler struct {
	root  string
	deps  GameDependencies
	files http.Handler
}

// NewGameHandler creates a handler serving files from root. Directories are
// never listed.
func NewGameHandler(root string, deps GameDependencies) *GameHandler {
	return &GameHandler{
		root:  root,
		deps:  deps,
		files: http.StripPrefix(strings.TrimSuffix(GamePrefix, "/"), http.FileServer(filesOnly{http.Dir(root)})),
	}
}

// ServeHTTP implements http.Handler.
func (h *GameHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch strings.TrimPrefix(r.URL.Path, GamePrefix) {
	case "", indexPage:
		h.serveIndex(w, r)
	default:
		h.files.ServeHTTP(w, r)
	}
}

// serveIndex serves the game page in place and counts it. The file server
// would redirect .../index.html to the directory.
func (h *GameHandler) serveIndex(w http.ResponseWriter, r *http.Request) {
	f, err := os.Open(filepath.Join(h.root, indexPage))
	if err != nil {
		http.NotFound(w, r)
		return
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil || info.IsDir() {
		http.NotFound(w, r)
		return
	}

	h.deps.GameServed()
	http.ServeContent(w, r, indexPage, info.ModTime(), f)
}

// filesOnly reports directories as missing.
type filesOnly struct {
	fs http.FileSystem
}

func (f filesOnly) Open(name string) (http.File, error) {
	file, err := f.fs.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := file.Stat()
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	if info.IsDir() {
		_ = file.Close()
		return nil, fs.ErrNotExist
	}
	return file, nil
}
