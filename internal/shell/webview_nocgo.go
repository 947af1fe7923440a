//go:build !cgo

package shell

import "errors"

// WebviewWindow needs cgo. This build can only run headless.
type WebviewWindow struct {
	Title  string
	Width  int
	Height int
	Debug  bool
}

func NewWebviewWindow(title string, width, height int) *WebviewWindow {
	return &WebviewWindow{Title: title, Width: width, Height: height}
}

func (w *WebviewWindow) Run(string) error {
	return errors.New("built without cgo: run with --headless")
}

func (w *WebviewWindow) Terminate() {}
