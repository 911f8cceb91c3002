// Package badge renders Code 128 badge images for registrants and writes
// them into a district/church folder tree.
package badge

import (
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"strconv"

	"github.com/boombuler/barcode"
	"github.com/boombuler/barcode/code128"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"

	"checkin/internal/registrant"
	"checkin/internal/slugify"
)

// Options control the badge layout and rendering.
type Options struct {
	Width         int
	Height        int
	BarcodeHeight int
	FontPath      string // optional TTF; basicfont fallback when missing
	NameFontSize  float64
	IDFontSize    float64
}

// DefaultOptions mirror the layout the badges were designed around.
func DefaultOptions() Options {
	return Options{
		Width:         600,
		Height:        300,
		BarcodeHeight: 120,
		NameFontSize:  34,
		IDFontSize:    28,
	}
}

// Renderer draws badge images. Faces are loaded once and reused across the
// whole batch.
type Renderer struct {
	opts     Options
	nameFace font.Face
	idFace   font.Face
}

// NewRenderer builds a renderer, loading the configured TTF when it exists
// and falling back to the built-in bitmap face otherwise.
func NewRenderer(opts Options) (*Renderer, error) {
	r := &Renderer{opts: opts}

	r.nameFace = basicfont.Face7x13
	r.idFace = basicfont.Face7x13
	if opts.FontPath != "" {
		data, err := os.ReadFile(opts.FontPath)
		if err == nil {
			ft, err := opentype.Parse(data)
			if err != nil {
				return nil, fmt.Errorf("parse font %s: %w", opts.FontPath, err)
			}
			r.nameFace, err = opentype.NewFace(ft, &opentype.FaceOptions{Size: opts.NameFontSize, DPI: 72, Hinting: font.HintingFull})
			if err != nil {
				return nil, fmt.Errorf("font face: %w", err)
			}
			r.idFace, err = opentype.NewFace(ft, &opentype.FaceOptions{Size: opts.IDFontSize, DPI: 72, Hinting: font.HintingFull})
			if err != nil {
				return nil, fmt.Errorf("font face: %w", err)
			}
		}
	}
	return r, nil
}

// PathFor returns the deterministic output path for a registrant's badge.
func PathFor(baseDir string, row registrant.BadgeRow) string {
	file := fmt.Sprintf("%d-%s.png", row.ID, slugify.Name(row.Name))
	return filepath.Join(baseDir, slugify.District(row.District), slugify.Church(row.Church), file)
}

// Render draws the badge: name on top, Code 128 barcode of the id in the
// middle, and the literal id near the bottom, all centered on a white canvas.
func (r *Renderer) Render(row registrant.BadgeRow) (image.Image, error) {
	w, h := r.opts.Width, r.opts.Height
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), image.White, image.Point{}, draw.Src)

	r.centerText(img, r.nameFace, row.Name, 80)

	bc, err := code128.Encode(strconv.FormatInt(row.ID, 10))
	if err != nil {
		return nil, fmt.Errorf("encode barcode for id %d: %w", row.ID, err)
	}
	modules := bc.Bounds().Dx()
	bw := modules * 2
	if maxW := w * 85 / 100; bw > maxW {
		bw = maxW
	}
	if bw < modules {
		bw = modules
	}
	scaled, err := barcode.Scale(bc, bw, r.opts.BarcodeHeight)
	if err != nil {
		return nil, fmt.Errorf("scale barcode for id %d: %w", row.ID, err)
	}

	// Barcode center sits 30px below the canvas center, leaving room for the
	// id line underneath.
	bb := scaled.Bounds()
	x0 := (w - bb.Dx()) / 2
	y0 := (h-bb.Dy())/2 + 30
	draw.Draw(img, image.Rect(x0, y0, x0+bb.Dx(), y0+bb.Dy()), scaled, bb.Min, draw.Over)

	r.centerText(img, r.idFace, "ID: "+strconv.FormatInt(row.ID, 10), h-30)

	return img, nil
}

// Generate renders one badge and writes it under baseDir, creating the
// district/church folders as needed.
func (r *Renderer) Generate(baseDir string, row registrant.BadgeRow) (string, error) {
	img, err := r.Render(row)
	if err != nil {
		return "", err
	}
	path := PathFor(baseDir, row)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create badge folder: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create badge file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return "", fmt.Errorf("encode badge png: %w", err)
	}
	return path, nil
}

func (r *Renderer) centerText(dst draw.Image, face font.Face, s string, baseline int) {
	d := font.Drawer{Dst: dst, Src: image.Black, Face: face}
	width := d.MeasureString(s)
	d.Dot = fixed.Point26_6{
		X: (fixed.I(r.opts.Width) - width) / 2,
		Y: fixed.I(baseline),
	}
	d.DrawString(s)
}
