package handlers

import (
	"bytes"
	"context"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/MrSnakeDoc/navbar/internal/dom"
	"github.com/MrSnakeDoc/navbar/internal/httpserver/deps"
	"github.com/MrSnakeDoc/navbar/internal/logger"
	"github.com/MrSnakeDoc/navbar/internal/utils"
)

const indexPage = "index.html"

// Page serves the rendered book. HTML pages are parsed, run through the
// page-change handlers and re-rendered; everything else is served as is.
func Page(d deps.Deps) http.HandlerFunc {
	root := http.Dir(d.SiteDir)
	static := http.FileServer(root)

	return func(w http.ResponseWriter, r *http.Request) {
		name := path.Clean("/" + r.URL.Path)

		info, err := stat(root, name)
		if err != nil {
			http.NotFound(w, r)
			return
		}
		if info.IsDir() {
			if !strings.HasSuffix(r.URL.Path, "/") {
				redirectToDir(w, r)
				return
			}
			name = path.Join(name, indexPage)
			if _, err := stat(root, name); err != nil {
				http.NotFound(w, r)
				return
			}
		}

		if !isHTML(name) {
			static.ServeHTTP(w, r)
			return
		}

		body, err := renderPage(root, name, d)
		if err != nil {
			d.Logger.Error("failed to render page",
				logger.String("path", name),
				logger.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		if _, err := w.Write(body); err != nil {
			d.Logger.Debug("failed to write response", logger.Error(err))
		}

		countRender(r.Context(), d, name)
	}
}

// redirectToDir sends directory requests to their slash form so relative
// links in the index page resolve inside the directory.
func redirectToDir(w http.ResponseWriter, r *http.Request) {
	target := r.URL.Path + "/"
	if r.URL.RawQuery != "" {
		target += "?" + r.URL.RawQuery
	}
	http.Redirect(w, r, target, http.StatusMovedPermanently)
}

func renderPage(root http.FileSystem, name string, d deps.Deps) ([]byte, error) {
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer utils.Close(f)

	page, err := dom.Parse(f)
	if err != nil {
		return nil, err
	}
	if err := d.Bus.EmitPageChange(page); err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := page.Render(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func countRender(parent context.Context, d deps.Deps, name string) {
	if d.Store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), time.Second)
	defer cancel()
	if _, err := d.Store.IncrementRenders(ctx, name); err != nil {
		d.Logger.Debug("failed to count page render",
			logger.String("path", name),
			logger.Error(err))
	}
}

func stat(root http.FileSystem, name string) (fs.FileInfo, error) {
	f, err := root.Open(name)
	if err != nil {
		return nil, err
	}
	defer utils.Close(f)

	return f.Stat()
}

func isHTML(name string) bool {
	ext := strings.ToLower(path.Ext(name))
	return ext == ".html" || ext == ".htm"
}
