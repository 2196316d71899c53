package render

import (
	"context"
	"errors"
	"image"
	"image/color"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/MrJamesThe3rd/invoicer/internal/invoice"
)

var ErrAlreadyPrepared = errors.New("surface already prepared")

// Source is what the raster draws from; *invoice.Service satisfies it.
type Source interface {
	Resolved() invoice.Invoice
}

const (
	pad        = 32
	rowHeight  = 20
	gapHeight  = 10
	titleScale = 2
	labelWidth = 120
	colQty     = 260 // right edges, measured from the right padding
	colAmount  = 130
	logoMaxW   = 160
	logoMaxH   = 80
)

var (
	face      = basicfont.Face7x13
	colorInk  = color.RGBA{0x1f, 0x29, 0x37, 0xff}
	colorMute = color.RGBA{0x6b, 0x72, 0x80, 0xff}
	colorRule = color.RGBA{0xe5, 0xe7, 0xeb, 0xff}
	colorBand = color.RGBA{0xf3, 0xf4, 0xf6, 0xff}
)

// Raster draws the invoice layout into an image. It is the export surface:
// Prepare pins the invoice being captured so edits made while an export runs
// do not tear the snapshot.
type Raster struct {
	src       Source
	client    *http.Client
	logoBases []string
	width     int
	scale     int

	mu     sync.Mutex
	pinned *frame
}

type frame struct {
	inv    invoice.Invoice
	totals invoice.Totals
}

type Option func(*Raster)

// WithWidth sets the page width in unscaled pixels.
func WithWidth(px int) Option {
	return func(r *Raster) { r.width = px }
}

// WithScale multiplies the output resolution.
func WithScale(n int) Option {
	return func(r *Raster) { r.scale = n }
}

// WithHTTPClient is used to fetch logos stored behind a URL.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Raster) { r.client = c }
}

// WithLogoBases lists the URL prefixes logos may be fetched from, usually the
// object store. Without any, only embedded logos are drawn. A bare scheme such
// as "https://" trusts every host on it.
func WithLogoBases(bases ...string) Option {
	return func(r *Raster) { r.logoBases = append(r.logoBases, bases...) }
}

func NewRaster(src Source, opts ...Option) *Raster {
	r := &Raster{
		src: src,
		client: &http.Client{
			Timeout: 10 * time.Second,
			// A trusted base must not bounce the fetch somewhere else.
			CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
		},
		width: 800,
		scale: 2,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Prepare pins the current invoice. The returned restore unpins it and must
// always be called.
func (r *Raster) Prepare(ctx context.Context) (func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.pinned != nil {
		return nil, ErrAlreadyPrepared
	}

	r.pinned = r.current()

	return func() {
		r.mu.Lock()
		r.pinned = nil
		r.mu.Unlock()
	}, nil
}

// current takes one snapshot so the totals always match the drawn items.
func (r *Raster) current() *frame {
	inv := r.src.Resolved()
	return &frame{inv: inv, totals: invoice.Compute(inv)}
}

func (r *Raster) snapshot() *frame {
	r.mu.Lock()
	f := r.pinned
	r.mu.Unlock()

	if f == nil {
		f = r.current()
	}

	return f
}

// Validate checks the pinned invoice, or the live one when not prepared.
func (r *Raster) Validate() error {
	return invoice.Validate(r.snapshot().inv)
}

// Capture draws the pinned invoice, or the live one when not prepared.
func (r *Raster) Capture(ctx context.Context) (image.Image, error) {
	f := r.snapshot()

	var logo image.Image
	if f.inv.Logo != nil && *f.inv.Logo != "" {
		img, err := LoadLogo(ctx, r.client, *f.inv.Logo, r.logoBases...)
		if err != nil {
			slog.Warn("failed to load logo, rendering without it", "invoice_id", f.inv.ID, "error", err)
		} else {
			logo = img
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	page := r.draw(Layout(f.inv, f.totals), logo)
	if r.scale <= 1 {
		return page, nil
	}

	b := page.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx()*r.scale, b.Dy()*r.scale))
	xdraw.NearestNeighbor.Scale(out, out.Bounds(), page, b, xdraw.Src, nil)

	return out, nil
}

func (r *Raster) draw(lines []Line, logo image.Image) *image.RGBA {
	inner := r.width - 2*pad

	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height(lines, inner)))
	xdraw.Draw(img, img.Bounds(), image.White, image.Point{}, xdraw.Src)

	if logo != nil {
		drawLogo(img, logo, r.width-pad)
	}

	right := r.width - pad
	y := pad

	for _, l := range lines {
		switch l.Kind {
		case KindTitle:
			drawScaled(img, l.Cells[0], pad, y, titleScale)
			y += rowHeight * titleScale
		case KindHeading:
			text(img, l.Cells[0], pad, y, colorInk)
			fill(img, image.Rect(pad, y+rowHeight-3, right, y+rowHeight-2), colorRule)
			y += rowHeight
		case KindField:
			text(img, l.Cells[0], pad, y, colorMute)
			text(img, fit(l.Cells[1], inner-labelWidth), pad+labelWidth, y, colorInk)
			y += rowHeight
		case KindItemHead, KindItem:
			c := colorInk
			if l.Kind == KindItemHead {
				fill(img, image.Rect(pad, y, right, y+rowHeight), colorBand)
				c = colorMute
			}

			text(img, fit(l.Cells[0], inner-colQty-2*face.Advance*6), pad+4, y, c)
			textRight(img, l.Cells[1], right-colQty, y, c)
			textRight(img, l.Cells[2], right-colAmount, y, c)
			textRight(img, l.Cells[3], right-4, y, c)
			y += rowHeight
		case KindTotal, KindGrand:
			if l.Kind == KindGrand {
				fill(img, image.Rect(right-colQty, y, right, y+1), colorInk)
			}

			text(img, l.Cells[0], right-colQty, y, colorInk)
			textRight(img, l.Cells[1], right-4, y, colorInk)

			if l.Kind == KindGrand {
				// Faux bold.
				textRight(img, l.Cells[1], right-3, y, colorInk)
			}

			y += rowHeight
		case KindText:
			for _, w := range wrap(l.Cells[0], inner) {
				text(img, w, pad, y, colorInk)
				y += rowHeight
			}
		case KindGap:
			y += gapHeight
		}
	}

	return img
}

func (r *Raster) height(lines []Line, inner int) int {
	h := 2 * pad

	for _, l := range lines {
		switch l.Kind {
		case KindTitle:
			h += rowHeight * titleScale
		case KindText:
			h += rowHeight * len(wrap(l.Cells[0], inner))
		case KindGap:
			h += gapHeight
		default:
			h += rowHeight
		}
	}

	return h
}

// text draws s with its cell top at y.
func text(dst *image.RGBA, s string, x, y int, c color.Color) {
	d := font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y+(rowHeight+face.Ascent-face.Descent)/2),
	}
	d.DrawString(s)
}

func textRight(dst *image.RGBA, s string, right, y int, c color.Color) {
	text(dst, s, right-font.MeasureString(face, s).Ceil(), y, c)
}

func drawScaled(dst *image.RGBA, s string, x, y, scale int) {
	w := font.MeasureString(face, s).Ceil()
	small := image.NewRGBA(image.Rect(0, 0, w, rowHeight))
	text(small, s, 0, 0, colorInk)

	target := image.Rect(x, y, x+w*scale, y+rowHeight*scale)
	xdraw.NearestNeighbor.Scale(dst, target, small, small.Bounds(), xdraw.Over, nil)
}

func fill(dst *image.RGBA, r image.Rectangle, c color.Color) {
	xdraw.Draw(dst, r, image.NewUniform(c), image.Point{}, xdraw.Src)
}

// drawLogo fits logo into the top-right corner, keeping its aspect ratio.
func drawLogo(dst *image.RGBA, logo image.Image, right int) {
	b := logo.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return
	}

	w, h := b.Dx(), b.Dy()
	if w > logoMaxW {
		h = h * logoMaxW / w
		w = logoMaxW
	}

	if h > logoMaxH {
		w = w * logoMaxH / h
		h = logoMaxH
	}

	target := image.Rect(right-w, pad, right, pad+h)
	xdraw.CatmullRom.Scale(dst, target, logo, b, xdraw.Over, nil)
}

// fit truncates s with an ellipsis so it spans at most px.
func fit(s string, px int) string {
	if font.MeasureString(face, s).Ceil() <= px {
		return s
	}

	runes := []rune(s)
	for len(runes) > 0 && font.MeasureString(face, string(runes)+"...").Ceil() > px {
		runes = runes[:len(runes)-1]
	}

	return string(runes) + "..."
}

// wrap breaks s into lines of at most px, on spaces where possible.
func wrap(s string, px int) []string {
	perLine := max(px/face.Advance, 1)

	var out []string

	for _, para := range strings.Split(s, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			out = append(out, "")
			continue
		}

		var cur []rune

		for _, w := range words {
			wr := []rune(w)

			if len(cur) > 0 && len(cur)+1+len(wr) > perLine {
				out = append(out, string(cur))
				cur = nil
			}

			if len(cur) > 0 {
				cur = append(cur, ' ')
			}

			cur = append(cur, wr...)

			for len(cur) > perLine {
				out = append(out, string(cur[:perLine]))
				cur = cur[perLine:]
			}
		}

		out = append(out, string(cur))
	}

	return out
}
