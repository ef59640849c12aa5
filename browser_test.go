package resmgr

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestNewBrowser_Options(t *testing.T) {
	t.Parallel()

	b := NewBrowser()
	if b.timeout != defaultPageTimeout {
		t.Errorf("default timeout = %v, want %v", b.timeout, defaultPageTimeout)
	}

	b = NewBrowser(WithPageTimeout(5*time.Second), WithBrowserBin("/usr/bin/chromium"), WithNoSandbox(true))
	if b.timeout != 5*time.Second || b.bin != "/usr/bin/chromium" || !b.noSandbox {
		t.Errorf("options not applied: %+v", b)
	}
}

func TestWithPageTimeout_Panics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("WithPageTimeout(0) should panic")
		}
	}()
	WithPageTimeout(0)
}

func TestBrowser_OpenCanceledContext(t *testing.T) {
	t.Parallel()

	b := NewBrowser()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := b.Open(ctx, "about:blank"); !errors.Is(err, context.Canceled) {
		t.Errorf("Open() error = %v, want context.Canceled", err)
	}
	if b.browser != nil {
		t.Error("Chrome should not launch for a canceled context")
	}
}

func TestBrowser_CloseUnlaunched(t *testing.T) {
	t.Parallel()

	if err := NewBrowser().Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}
}

func TestPage_CreateElement(t *testing.T) {
	t.Parallel()

	p := &Page{}
	if _, err := p.CreateElement(""); err == nil {
		t.Error("empty tag should fail")
	}

	el, err := p.CreateElement("script")
	if err != nil {
		t.Fatal(err)
	}
	// Attributes are buffered until the element is attached
	if err := el.SetAttribute("src", "a.js"); err != nil {
		t.Fatal(err)
	}
	if v, ok := el.Attribute("src"); !ok || v != "a.js" {
		t.Errorf("Attribute(src) = (%q, %v)", v, ok)
	}
	if err := el.Remove(); err != nil {
		t.Errorf("Remove() on detached element error = %v", err)
	}
}

func TestPage_AppendForeignElement(t *testing.T) {
	t.Parallel()

	p := &Page{}
	other := &Page{}
	el, _ := other.CreateElement("script")

	if err := p.AppendToHead(el); !errors.Is(err, ErrForeignElement) {
		t.Errorf("error = %v, want ErrForeignElement", err)
	}
	if err := p.AppendToHead(&mockElement{}); !errors.Is(err, ErrForeignElement) {
		t.Errorf("error = %v, want ErrForeignElement", err)
	}
}
