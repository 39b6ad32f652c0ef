// Package webui serves the browser console.
package webui

import (
	"embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed static
var static embed.FS

const assetCacheControl = "public, max-age=1209600, s-maxage=86400"

type asset struct {
	path        string
	file        string
	contentType string
	cacheable   bool
}

var assets = []asset{
	{path: "/", file: "static/index.html", contentType: "text/html; charset=utf-8"},
	{path: "/style.css", file: "static/style.css", contentType: "text/css; charset=utf-8", cacheable: true},
	{path: "/app.js", file: "static/app.js", contentType: "application/javascript; charset=utf-8", cacheable: true},
}

// Register mounts the console pages on the router.
func Register(router gin.IRouter) error {
	for _, a := range assets {
		content, err := static.ReadFile(a.file)
		if err != nil {
			return err
		}

		router.GET(a.path, serve(a, content))
	}

	return nil
}

func serve(a asset, content []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		if a.cacheable {
			c.Header("Cache-Control", assetCacheControl)
		}

		c.Data(http.StatusOK, a.contentType, content)
	}
}
