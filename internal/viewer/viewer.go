// Package viewer coordinates the two-layer document display: a base layer
// holding the rasterized page and an overlay layer holding only the highlight
// decoration. The two layers invalidate independently so hover changes never
// re-rasterize the page.
package viewer

import (
	"context"
	"fmt"
	"sync"

	"github.com/admitkit/docverify/internal/enquiry"
)

// Size is a rendered page's pixel dimensions.
type Size struct {
	Width  float64
	Height float64
}

// PixelRect is a highlight rectangle in page pixels.
type PixelRect struct {
	X float64
	Y float64
	W float64
	H float64
}

// BaseLayer rasterizes document pages. RenderPage blocks until the page is
// drawn and reports its pixel dimensions at the requested zoom.
type BaseLayer interface {
	RenderPage(ctx context.Context, documentID string, page int, zoom float64) (Size, error)
}

// OverlayLayer draws highlight decoration above the base layer.
type OverlayLayer interface {
	Clear()
	DrawRect(r PixelRect, s Style)
}

// MapRect converts a percentage bounding box to page pixels. Boxes outside
// the page bounds map as-is; nothing is clamped.
func MapRect(b enquiry.BoundingBox, page Size) PixelRect {
	return PixelRect{
		X: b.X / 100 * page.Width,
		Y: b.Y / 100 * page.Height,
		W: b.Width / 100 * page.Width,
		H: b.Height / 100 * page.Height,
	}
}

type target struct {
	documentID string
	page       int
	zoom       float64
}

type pendingHighlight struct {
	box   enquiry.BoundingBox
	label enquiry.Label
}

// Viewer drives one document display surface. The base layer re-renders only
// when document identity, page, or zoom changes; highlight updates touch the
// overlay alone. Safe for concurrent use.
type Viewer struct {
	base    BaseLayer
	overlay OverlayLayer

	mu        sync.Mutex
	current   target
	want      target
	pageSize  Size
	rendering bool
	deferred  *pendingHighlight
}

func New(base BaseLayer, overlay OverlayLayer) *Viewer {
	return &Viewer{base: base, overlay: overlay, current: target{zoom: 1}, want: target{zoom: 1}}
}

// ShowDocument switches the viewer to a document's first page.
func (v *Viewer) ShowDocument(ctx context.Context, documentID string) error {
	v.mu.Lock()
	t := target{documentID: documentID, page: 1, zoom: v.want.zoom}
	v.mu.Unlock()
	return v.render(ctx, t)
}

// SetPage navigates to a page of the current document.
func (v *Viewer) SetPage(ctx context.Context, page int) error {
	if page < 1 {
		return fmt.Errorf("page %d out of range", page)
	}
	v.mu.Lock()
	t := v.want
	t.page = page
	v.mu.Unlock()
	return v.render(ctx, t)
}

// SetZoom changes the zoom level of the current page.
func (v *Viewer) SetZoom(ctx context.Context, zoom float64) error {
	if zoom <= 0 {
		return fmt.Errorf("zoom %v out of range", zoom)
	}
	v.mu.Lock()
	t := v.want
	t.zoom = zoom
	v.mu.Unlock()
	return v.render(ctx, t)
}

// Page returns the currently displayed page number.
func (v *Viewer) Page() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.current.page
}

// render settles the base layer onto the wanted target. A render already in
// flight absorbs the new request instead of racing it: the request is recorded
// and the in-flight loop picks it up, so page swaps are never corrupted
// mid-draw.
func (v *Viewer) render(ctx context.Context, t target) error {
	v.mu.Lock()
	v.want = t
	if v.rendering {
		v.mu.Unlock()
		return nil
	}
	if v.want == v.current {
		// base layer untouched when nothing changed
		v.mu.Unlock()
		v.flushDeferred()
		return nil
	}
	v.rendering = true

	var renderErr error
	for v.want != v.current {
		next := v.want
		v.mu.Unlock()
		size, err := v.base.RenderPage(ctx, next.documentID, next.page, next.zoom)
		v.mu.Lock()
		if err != nil {
			// blocking, document-scoped failure; abandon the target
			v.want = v.current
			renderErr = fmt.Errorf("render page %d: %w", next.page, err)
			break
		}
		v.current = next
		v.pageSize = size
	}
	v.rendering = false
	v.mu.Unlock()

	if renderErr != nil {
		return renderErr
	}
	v.flushDeferred()
	return nil
}

// flushDeferred draws a highlight that was waiting for its page's base layer.
func (v *Viewer) flushDeferred() {
	v.mu.Lock()
	p := v.deferred
	if p == nil || p.box.Page != v.current.page {
		v.mu.Unlock()
		return
	}
	v.deferred = nil
	size := v.pageSize
	v.mu.Unlock()

	v.overlay.Clear()
	v.overlay.DrawRect(MapRect(p.box, size), StyleForLabel(p.label))
}

// Highlight shows one field's source location. If the box lives on another
// page the viewer navigates there first and draws only once that page's base
// layer has finished rendering.
func (v *Viewer) Highlight(ctx context.Context, c enquiry.Confidence) error {
	if c.Box == nil {
		v.overlay.Clear()
		return nil
	}
	box := *c.Box

	v.mu.Lock()
	if box.Page != v.current.page || v.rendering {
		v.deferred = &pendingHighlight{box: box, label: c.Label}
		t := v.want
		t.page = box.Page
		v.mu.Unlock()
		return v.render(ctx, t)
	}
	size := v.pageSize
	v.mu.Unlock()

	v.overlay.Clear()
	v.overlay.DrawRect(MapRect(box, size), StyleForLabel(c.Label))
	return nil
}

// ClearHighlight removes the decoration, leaving the base layer untouched.
func (v *Viewer) ClearHighlight() {
	v.mu.Lock()
	v.deferred = nil
	v.mu.Unlock()
	v.overlay.Clear()
}
