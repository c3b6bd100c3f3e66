package middleware

import (
	"net/http"
	"os"
	"path/filepath"
)

const placeholderSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 200 200"><rect width="200" height="200" fill="#f0f0f0"/><circle cx="100" cy="95" r="45" fill="none" stroke="#c9a227" stroke-width="8"/><text x="100" y="103" text-anchor="middle" font-family="Arial" font-size="28" fill="#999">P</text><text x="100" y="170" text-anchor="middle" font-family="Arial" font-size="14" fill="#666">PREMIUM</text></svg>`

// StaticFileServer serves storefront assets such as package icons,
// falling back to a placeholder when the file is missing.
func StaticFileServer(dir string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := filepath.Join(dir, filepath.Clean(r.URL.Path))

		if _, err := os.Stat(path); err == nil {
			w.Header().Set("Cache-Control", "public, max-age=2592000")
			http.ServeFile(w, r, path)
			return
		}

		w.Header().Set("Content-Type", "image/svg+xml")
		w.Header().Set("Cache-Control", "public, max-age=86400")
		w.Write([]byte(placeholderSVG))
	})
}
