//go:build windows

package capture

// Window capture via PrintWindow into a per-frame top-down DIB. Works for
// windows parked off-screen, which plain screen BitBlt does not.

import (
	"fmt"
	"image"
	"strings"
	"sync/atomic"
	"syscall"
	"time"
	"unicode/utf16"
	"unsafe"

	"golang.org/x/sys/windows"
)

const (
	srccopy             = 0x00CC0020
	dibRGBColors        = 0
	biRgb               = 0
	pwRenderFullContent = 0x00000002
	swpNoZOrder         = 0x0004
	swpNoActivate       = 0x0010
)

var (
	user32                 = windows.NewLazySystemDLL("user32.dll")
	gdi32                  = windows.NewLazySystemDLL("gdi32.dll")
	procEnumWindows        = user32.NewProc("EnumWindows")
	procGetWindowTextW     = user32.NewProc("GetWindowTextW")
	procIsWindowVisible    = user32.NewProc("IsWindowVisible")
	procIsWindow           = user32.NewProc("IsWindow")
	procGetWindowRect      = user32.NewProc("GetWindowRect")
	procGetClientRect      = user32.NewProc("GetClientRect")
	procClientToScreen     = user32.NewProc("ClientToScreen")
	procSetWindowPos       = user32.NewProc("SetWindowPos")
	procGetWindowDC        = user32.NewProc("GetWindowDC")
	procReleaseDC          = user32.NewProc("ReleaseDC")
	procPrintWindow        = user32.NewProc("PrintWindow")
	procCreateCompatibleDC = gdi32.NewProc("CreateCompatibleDC")
	procDeleteDC           = gdi32.NewProc("DeleteDC")
	procSelectObject       = gdi32.NewProc("SelectObject")
	procBitBlt             = gdi32.NewProc("BitBlt")
	procCreateDIBSection   = gdi32.NewProc("CreateDIBSection")
	procDeleteObject       = gdi32.NewProc("DeleteObject")
)

type rect32 struct{ Left, Top, Right, Bottom int32 }

type point32 struct{ X, Y int32 }

type bitmapInfoHeader struct {
	BiSize          uint32
	BiWidth         int32
	BiHeight        int32
	BiPlanes        uint16
	BiBitCount      uint16
	BiCompression   uint32
	BiSizeImage     uint32
	BiXPelsPerMeter int32
	BiYPelsPerMeter int32
	BiClrUsed       uint32
	BiClrImportant  uint32
}

type bitmapInfo struct {
	Header bitmapInfoHeader
	_      [4]byte
}

// WindowCapturer captures top-level windows by title.
type WindowCapturer struct {
	width    int
	titleBar int
	seq      atomic.Uint64
}

// NewWindowCapturer returns a capturer that crops titleBar rows and scales
// frames to width.
func NewWindowCapturer(width, titleBar int) *WindowCapturer {
	return &WindowCapturer{width: width, titleBar: titleBar}
}

// Resolve finds a visible top-level window whose title equals name, falling
// back to the first case-insensitive substring match.
func (c *WindowCapturer) Resolve(name string) (Window, error) {
	var exact, partial uintptr
	want := strings.ToLower(strings.TrimSpace(name))
	cb := syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if vis, _, _ := procIsWindowVisible.Call(hwnd); vis == 0 {
			return 1
		}
		title := strings.ToLower(windowText(hwnd))
		if title == "" {
			return 1
		}
		if title == want {
			exact = hwnd
			return 0
		}
		if partial == 0 && strings.Contains(title, want) {
			partial = hwnd
		}
		return 1
	})
	_, _, _ = procEnumWindows.Call(cb, 0)
	h := exact
	if h == 0 {
		h = partial
	}
	if h == 0 {
		return Window{}, fmt.Errorf("%w: window %q not found", ErrCaptureUnavailable, name)
	}
	return Window{Name: name, Handle: h}, nil
}

// Rect returns the window rectangle in screen coordinates.
func (c *WindowCapturer) Rect(w Window) (image.Rectangle, error) {
	var r rect32
	ok, _, err := procGetWindowRect.Call(w.Handle, uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return image.Rectangle{}, fmt.Errorf("%w: GetWindowRect %q: %v", ErrCaptureUnavailable, w.Name, err)
	}
	return image.Rect(int(r.Left), int(r.Top), int(r.Right), int(r.Bottom)), nil
}

// ClientRect returns the client area in screen coordinates.
func (c *WindowCapturer) ClientRect(w Window) (image.Rectangle, error) {
	var r rect32
	ok, _, err := procGetClientRect.Call(w.Handle, uintptr(unsafe.Pointer(&r)))
	if ok == 0 {
		return image.Rectangle{}, fmt.Errorf("%w: GetClientRect %q: %v", ErrCaptureUnavailable, w.Name, err)
	}
	var origin point32
	ok, _, err = procClientToScreen.Call(w.Handle, uintptr(unsafe.Pointer(&origin)))
	if ok == 0 {
		return image.Rectangle{}, fmt.Errorf("%w: ClientToScreen %q: %v", ErrCaptureUnavailable, w.Name, err)
	}
	return image.Rect(0, 0, int(r.Right-r.Left), int(r.Bottom-r.Top)).Add(image.Pt(int(origin.X), int(origin.Y))), nil
}

// SetPosition moves and resizes the window without activating it.
func (c *WindowCapturer) SetPosition(w Window, r image.Rectangle) error {
	ok, _, err := procSetWindowPos.Call(w.Handle, 0,
		uintptr(int32(r.Min.X)), uintptr(int32(r.Min.Y)),
		uintptr(int32(r.Dx())), uintptr(int32(r.Dy())),
		swpNoZOrder|swpNoActivate)
	if ok == 0 {
		return fmt.Errorf("SetWindowPos %q: %v", w.Name, err)
	}
	return nil
}

// Capture renders the window into a DIB and returns a normalised frame.
func (c *WindowCapturer) Capture(w Window) (Frame, error) {
	if ok, _, _ := procIsWindow.Call(w.Handle); ok == 0 {
		return Frame{}, fmt.Errorf("%w: window %q closed", ErrCaptureUnavailable, w.Name)
	}
	r, err := c.Rect(w)
	if err != nil {
		return Frame{}, err
	}
	img, err := printWindow(w.Handle, r.Dx(), r.Dy())
	if err != nil {
		return Frame{}, fmt.Errorf("%w: %q: %v", ErrCaptureUnavailable, w.Name, err)
	}
	return Frame{
		Image:      c.client(w, r, img),
		CapturedAt: time.Now(),
		Sequence:   c.seq.Add(1),
	}, nil
}

// client cuts the client area out of a full window render. The fixed
// title bar crop is used when the client rectangle cannot be read.
func (c *WindowCapturer) client(w Window, win image.Rectangle, img *image.RGBA) *image.RGBA {
	cr, err := c.ClientRect(w)
	if err != nil {
		return Normalize(img, c.width, c.titleBar)
	}
	area := cr.Sub(win.Min).Intersect(img.Bounds())
	if area.Empty() {
		return Normalize(img, c.width, c.titleBar)
	}
	return Normalize(img.SubImage(area), c.width, 0)
}

// printWindow renders hwnd into a top-down 32-bit DIB and converts BGRA to
// a heap-owned RGBA image.
func printWindow(hwnd uintptr, w, h int) (*image.RGBA, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("invalid window size %dx%d", w, h)
	}
	winDC, _, _ := procGetWindowDC.Call(hwnd)
	if winDC == 0 {
		return nil, fmt.Errorf("GetWindowDC failed")
	}
	defer procReleaseDC.Call(hwnd, winDC)

	memDC, _, _ := procCreateCompatibleDC.Call(winDC)
	if memDC == 0 {
		return nil, fmt.Errorf("CreateCompatibleDC failed")
	}
	defer procDeleteDC.Call(memDC)

	var bi bitmapInfo
	bi.Header.BiSize = uint32(unsafe.Sizeof(bi.Header))
	bi.Header.BiWidth = int32(w)
	bi.Header.BiHeight = -int32(h)
	bi.Header.BiPlanes = 1
	bi.Header.BiBitCount = 32
	bi.Header.BiCompression = biRgb
	bi.Header.BiSizeImage = uint32(w * h * 4)

	var bitsPtr unsafe.Pointer
	bmp, _, _ := procCreateDIBSection.Call(memDC, uintptr(unsafe.Pointer(&bi)), dibRGBColors, uintptr(unsafe.Pointer(&bitsPtr)), 0, 0)
	if bmp == 0 {
		return nil, fmt.Errorf("CreateDIBSection failed")
	}
	defer procDeleteObject.Call(bmp)

	prev, _, _ := procSelectObject.Call(memDC, bmp)
	if prev == 0 || prev == ^uintptr(0) {
		return nil, fmt.Errorf("SelectObject failed")
	}

	if ok, _, _ := procPrintWindow.Call(hwnd, memDC, pwRenderFullContent); ok == 0 {
		if ok, _, _ := procBitBlt.Call(memDC, 0, 0, uintptr(w), uintptr(h), winDC, 0, 0, srccopy); ok == 0 {
			return nil, fmt.Errorf("PrintWindow and BitBlt failed")
		}
	}

	pixLen := w * h * 4
	src := unsafe.Slice((*byte)(bitsPtr), pixLen)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := 0; i < pixLen; i += 4 {
		dst.Pix[i+0] = src[i+2]
		dst.Pix[i+1] = src[i+1]
		dst.Pix[i+2] = src[i+0]
		dst.Pix[i+3] = 0xFF
	}
	return dst, nil
}

func windowText(hwnd uintptr) string {
	buf := make([]uint16, 256)
	n, _, _ := procGetWindowTextW.Call(hwnd, uintptr(unsafe.Pointer(&buf[0])), uintptr(len(buf)))
	if n == 0 {
		return ""
	}
	return strings.TrimSpace(string(utf16.Decode(buf[:n])))
}

// ListWindows returns titles of visible top-level windows.
func ListWindows() []string {
	var titles []string
	cb := syscall.NewCallback(func(hwnd uintptr, _ uintptr) uintptr {
		if vis, _, _ := procIsWindowVisible.Call(hwnd); vis == 0 {
			return 1
		}
		if t := windowText(hwnd); t != "" {
			titles = append(titles, t)
		}
		return 1
	})
	_, _, _ = procEnumWindows.Call(cb, 0)
	return titles
}
