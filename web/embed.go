// Package web holds the browser client served at "/".
package web

import (
	"embed"
	"io/fs"
	"net/http"
)

//go:embed static
var static embed.FS

// FileSystem returns the client assets rooted at the static directory.
func FileSystem() http.FileSystem {
	sub, err := fs.Sub(static, "static")
	if err != nil {
		// Only reachable if the embed directive above is changed.
		panic(err)
	}
	return http.FS(sub)
}
