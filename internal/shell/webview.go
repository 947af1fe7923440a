//go:build cgo

package shell

import (
	"sync"

	webview "github.com/webview/webview_go"
)

// WebviewWindow is a native window backed by the system web engine.
type WebviewWindow struct {
	Title  string
	Width  int
	Height int
	Debug  bool

	mu         sync.Mutex
	view       webview.WebView
	terminated bool
}

func NewWebviewWindow(title string, width, height int) *WebviewWindow {
	return &WebviewWindow{Title: title, Width: width, Height: height}
}

func (w *WebviewWindow) Run(url string) error {
	view := webview.New(w.Debug)

	w.mu.Lock()
	if w.terminated {
		w.mu.Unlock()
		view.Destroy()
		return nil
	}
	w.view = view
	w.mu.Unlock()

	view.SetTitle(w.Title)
	view.SetSize(w.Width, w.Height, webview.HintNone)
	view.Navigate(url)
	view.Run()

	w.mu.Lock()
	w.view = nil
	w.terminated = true
	w.mu.Unlock()

	view.Destroy()
	return nil
}

func (w *WebviewWindow) Terminate() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.terminated {
		return
	}
	w.terminated = true
	if view := w.view; view != nil {
		view.Dispatch(view.Terminate)
	}
}
