// Package site serves the embedded ticket tracker page.
package site

import (
	"context"
	"net/http"
)

// Register attaches the embedded tracker page and its assets to mux at /.
func Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.Handle("/", http.FileServer(FS()))
}
