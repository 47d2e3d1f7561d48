package assets

import (
	"bytes"
	"image"
	"math"
	"path"
	"strings"

	"github.com/disintegration/imaging"
)

// rasterFormats maps source extensions to the format written for resized variants.
// webp has no encoder in the ecosystem we use, so webp sources become jpeg variants.
var rasterFormats = map[string]imaging.Format{
	".jpg":  imaging.JPEG,
	".jpeg": imaging.JPEG,
	".png":  imaging.PNG,
	".gif":  imaging.GIF,
	".bmp":  imaging.BMP,
	".tif":  imaging.TIFF,
	".tiff": imaging.TIFF,
	".webp": imaging.JPEG,
}

var formatExt = map[imaging.Format]string{
	imaging.JPEG: ".jpg",
	imaging.PNG:  ".png",
	imaging.GIF:  ".gif",
	imaging.BMP:  ".bmp",
	imaging.TIFF: ".tif",
}

// processRaster computes the variant for ref. It returns nil bytes when the source
// can be published unchanged, together with the extension to publish under.
func (r *Resolver) processRaster(ref Reference, data []byte, format imaging.Format, res *Resolved) ([]byte, string, error) {
	cfg, err := decodeConfig(data)
	if err != nil {
		return nil, "", &ProcessError{Ref: ref, Op: "decode", Err: err}
	}
	srcExt := strings.ToLower(path.Ext(ref.Path))
	w, h := r.targetSize(ref, cfg.Width, cfg.Height)
	reencode := srcExt == ".webp" || ref.Quality > 0
	if w == cfg.Width && h == cfg.Height && !reencode {
		res.Width, res.Height = cfg.Width, cfg.Height
		res.Format = strings.ToLower(format.String())
		return nil, srcExt, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", &ProcessError{Ref: ref, Op: "decode", Err: err}
	}
	var dst image.Image = img
	switch {
	case w == cfg.Width && h == cfg.Height:
	case ref.Fit == FitCover:
		dst = imaging.Fill(img, w, h, imaging.Center, imaging.Lanczos)
	default:
		dst = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	quality := r.opts.Quality
	if ref.Quality > 0 {
		quality = ref.Quality
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, dst, format, imaging.JPEGQuality(quality)); err != nil {
		return nil, "", &ProcessError{Ref: ref, Op: "encode", Err: err}
	}
	b := dst.Bounds()
	res.Width, res.Height = b.Dx(), b.Dy()
	res.Format = strings.ToLower(format.String())
	ext := srcExt
	if srcExt == ".webp" {
		ext = formatExt[format]
	}
	return buf.Bytes(), ext, nil
}

// targetSize applies the requested box and the MaxWidth clamp. Images are never
// upscaled, and the resulting width never exceeds MaxWidth.
func (r *Resolver) targetSize(ref Reference, srcW, srcH int) (int, int) {
	boxW, boxH := ref.Width, ref.Height
	if r.opts.MaxWidth > 0 && (boxW == 0 || boxW > r.opts.MaxWidth) {
		boxW = r.opts.MaxWidth
	}
	if ref.Fit == FitCover && boxW > 0 && boxH > 0 {
		if boxW > srcW {
			boxH = boxH * srcW / boxW
			boxW = srcW
		}
		if boxH > srcH {
			boxW = boxW * srcH / boxH
			boxH = srcH
		}
		return max(boxW, 1), max(boxH, 1)
	}
	scale := 1.0
	if boxW > 0 && srcW > boxW {
		scale = float64(boxW) / float64(srcW)
	}
	if boxH > 0 && srcH > boxH {
		scale = min(scale, float64(boxH)/float64(srcH))
	}
	if scale == 1.0 {
		return srcW, srcH
	}
	w := int(math.Round(float64(srcW) * scale))
	if boxW > 0 && w > boxW {
		w = boxW
	}
	h := int(math.Round(float64(srcH) * scale))
	if boxH > 0 && h > boxH {
		h = boxH
	}
	return max(w, 1), max(h, 1)
}
