package viewer

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/admitkit/docverify/internal/enquiry"
)

type renderCall struct {
	documentID string
	page       int
	zoom       float64
}

// fakeBase records renders and can block to simulate slow rasterization.
type fakeBase struct {
	mu      sync.Mutex
	calls   []renderCall
	size    Size
	err     error
	release chan struct{} // when non-nil, RenderPage blocks until closed
}

func (f *fakeBase) RenderPage(ctx context.Context, documentID string, page int, zoom float64) (Size, error) {
	f.mu.Lock()
	f.calls = append(f.calls, renderCall{documentID, page, zoom})
	release := f.release
	f.mu.Unlock()
	if release != nil {
		<-release
	}
	if f.err != nil {
		return Size{}, f.err
	}
	return f.size, nil
}

func (f *fakeBase) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

type overlayOp struct {
	clear bool
	rect  PixelRect
	style Style
}

type fakeOverlay struct {
	mu  sync.Mutex
	ops []overlayOp
}

func (f *fakeOverlay) Clear() {
	f.mu.Lock()
	f.ops = append(f.ops, overlayOp{clear: true})
	f.mu.Unlock()
}

func (f *fakeOverlay) DrawRect(r PixelRect, s Style) {
	f.mu.Lock()
	f.ops = append(f.ops, overlayOp{rect: r, style: s})
	f.mu.Unlock()
}

func (f *fakeOverlay) lastDraw(t *testing.T) overlayOp {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.ops) - 1; i >= 0; i-- {
		if !f.ops[i].clear {
			return f.ops[i]
		}
	}
	t.Fatalf("no draw recorded")
	return overlayOp{}
}

func TestMapRect(t *testing.T) {
	box := enquiry.BoundingBox{Page: 1, X: 10, Y: 20, Width: 30, Height: 5}
	r := MapRect(box, Size{Width: 1000, Height: 1400})
	want := PixelRect{X: 100, Y: 280, W: 300, H: 70}
	if r != want {
		t.Fatalf("MapRect = %+v, want %+v", r, want)
	}
}

func TestMapRect_OutOfBoundsBoxKeptAsIs(t *testing.T) {
	box := enquiry.BoundingBox{Page: 1, X: 90, Y: 95, Width: 20, Height: 10}
	r := MapRect(box, Size{Width: 100, Height: 100})
	if r.X+r.W <= 100 || r.Y+r.H <= 100 {
		t.Fatalf("expected unclamped rect, got %+v", r)
	}
}

func TestStyleForLabel(t *testing.T) {
	if s := StyleForLabel(enquiry.LabelGreen); s.Stroke != "#10b981" {
		t.Fatalf("green stroke = %s", s.Stroke)
	}
	if s := StyleForLabel(enquiry.LabelYellow); s.Stroke != "#f59e0b" {
		t.Fatalf("yellow stroke = %s", s.Stroke)
	}
	if s := StyleForLabel(enquiry.LabelRed); s.Stroke != "#ef4444" {
		t.Fatalf("red stroke = %s", s.Stroke)
	}
	if s := StyleForLabel(""); s.Stroke != "#2563eb" {
		t.Fatalf("missing label should map to neutral, got %s", s.Stroke)
	}
}

func TestHighlight_DoesNotTouchBaseLayer(t *testing.T) {
	base := &fakeBase{size: Size{Width: 1000, Height: 1400}}
	overlay := &fakeOverlay{}
	v := New(base, overlay)
	ctx := context.Background()

	if err := v.ShowDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("ShowDocument: %v", err)
	}
	renders := base.callCount()

	box := &enquiry.BoundingBox{Page: 1, X: 10, Y: 20, Width: 30, Height: 5}
	for i := 0; i < 3; i++ {
		err := v.Highlight(ctx, enquiry.Confidence{Value: enquiry.StringValue("x"), Score: 92, Label: enquiry.LabelGreen, Box: box})
		if err != nil {
			t.Fatalf("Highlight: %v", err)
		}
	}

	if base.callCount() != renders {
		t.Fatalf("highlight must not re-render the base layer: %d -> %d", renders, base.callCount())
	}

	op := overlay.lastDraw(t)
	if op.rect != (PixelRect{X: 100, Y: 280, W: 300, H: 70}) {
		t.Fatalf("unexpected rect: %+v", op.rect)
	}
	if op.style.Stroke != "#10b981" {
		t.Fatalf("unexpected style: %+v", op.style)
	}
}

func TestHighlight_AutoNavigatesToBoxPage(t *testing.T) {
	base := &fakeBase{size: Size{Width: 800, Height: 1100}}
	overlay := &fakeOverlay{}
	v := New(base, overlay)
	ctx := context.Background()

	if err := v.ShowDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("ShowDocument: %v", err)
	}

	box := &enquiry.BoundingBox{Page: 3, X: 50, Y: 50, Width: 10, Height: 10}
	if err := v.Highlight(ctx, enquiry.Confidence{Box: box, Label: enquiry.LabelYellow}); err != nil {
		t.Fatalf("Highlight: %v", err)
	}

	if v.Page() != 3 {
		t.Fatalf("viewer should have navigated to page 3, is on %d", v.Page())
	}
	// the draw happened after the base render, against the new page size
	op := overlay.lastDraw(t)
	if op.rect.X != 400 || op.rect.Y != 550 {
		t.Fatalf("highlight drawn before page settled: %+v", op.rect)
	}
}

func TestRender_InFlightGuardCoalesces(t *testing.T) {
	release := make(chan struct{})
	base := &fakeBase{size: Size{Width: 100, Height: 100}, release: release}
	overlay := &fakeOverlay{}
	v := New(base, overlay)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- v.ShowDocument(ctx, "doc-1") }()

	// wait until the first render is in flight
	for base.callCount() == 0 {
		time.Sleep(time.Millisecond)
	}

	// these land while the base layer is busy; they must not start their own
	// renders, only retarget the in-flight loop
	if err := v.SetPage(ctx, 2); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if err := v.SetPage(ctx, 5); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if got := base.callCount(); got != 1 {
		t.Fatalf("busy guard leaked renders: %d", got)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("ShowDocument: %v", err)
	}
	if v.Page() != 5 {
		t.Fatalf("expected final page 5, got %d", v.Page())
	}
	// the intermediate target (page 2) was coalesced away
	if got := base.callCount(); got > 2 {
		t.Fatalf("expected at most 2 renders, got %d", got)
	}
}

func TestRender_NoRerenderWhenTargetUnchanged(t *testing.T) {
	base := &fakeBase{size: Size{Width: 100, Height: 100}}
	overlay := &fakeOverlay{}
	v := New(base, overlay)
	ctx := context.Background()

	if err := v.ShowDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("ShowDocument: %v", err)
	}
	n := base.callCount()
	if err := v.SetPage(ctx, 1); err != nil {
		t.Fatalf("SetPage: %v", err)
	}
	if err := v.SetZoom(ctx, 1); err != nil {
		t.Fatalf("SetZoom: %v", err)
	}
	if base.callCount() != n {
		t.Fatalf("unchanged target must not re-render")
	}

	if err := v.SetZoom(ctx, 2); err != nil {
		t.Fatalf("SetZoom: %v", err)
	}
	if base.callCount() != n+1 {
		t.Fatalf("zoom change must re-render exactly once")
	}
}

func TestRender_FailureIsScopedAndRecoverable(t *testing.T) {
	base := &fakeBase{size: Size{Width: 100, Height: 100}}
	overlay := &fakeOverlay{}
	v := New(base, overlay)
	ctx := context.Background()

	if err := v.ShowDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("ShowDocument: %v", err)
	}

	base.err = errors.New("decode failed")
	if err := v.SetPage(ctx, 2); err == nil {
		t.Fatalf("expected render error")
	}
	// the viewer stays on the last good page
	if v.Page() != 1 {
		t.Fatalf("failed render must not move the page, on %d", v.Page())
	}

	base.err = nil
	if err := v.SetPage(ctx, 2); err != nil {
		t.Fatalf("retry after failure: %v", err)
	}
	if v.Page() != 2 {
		t.Fatalf("expected page 2 after recovery")
	}
}

func TestHighlight_NoBoxClearsOverlay(t *testing.T) {
	base := &fakeBase{size: Size{Width: 100, Height: 100}}
	overlay := &fakeOverlay{}
	v := New(base, overlay)
	ctx := context.Background()

	if err := v.ShowDocument(ctx, "doc-1"); err != nil {
		t.Fatalf("ShowDocument: %v", err)
	}
	if err := v.Highlight(ctx, enquiry.Confidence{Value: enquiry.StringValue("x"), Score: 40}); err != nil {
		t.Fatalf("Highlight: %v", err)
	}

	overlay.mu.Lock()
	last := overlay.ops[len(overlay.ops)-1]
	overlay.mu.Unlock()
	if !last.clear {
		t.Fatalf("boxless highlight should only clear the overlay")
	}
}
