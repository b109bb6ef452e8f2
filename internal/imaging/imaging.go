// Package imaging compresse les images envoyées depuis l'admin (data URI base64).
package imaging

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"strings"

	"golang.org/x/image/draw"
)

const (
	MaxInputBytes  = 5 << 20   // fichier source refusé au-delà de 5 MB
	MaxOutputBytes = 1 << 20   // charge utile finale refusée au-delà de 1 MB
	RetryThreshold = 300 << 10 // au-delà de 300 KB on ré-encode plus fort
	MaxDimension   = 600
	MaxPixels      = 40_000_000 // dimensions déclarées refusées au-delà de 40 MP
	Quality        = 50
	RetryQuality   = 30
	ContentType    = "image/jpeg"
)

var (
	ErrNotDataURI   = errors.New("image: data URI attendu")
	ErrTooLarge     = errors.New("image trop volumineuse")
	ErrInvalidImage = errors.New("image illisible")
)

// Result est l'image compressée, toujours en JPEG.
type Result struct {
	Data        []byte
	ContentType string
	Width       int
	Height      int
}

// IsDataURI indique si la valeur est une image inline plutôt qu'une URL.
func IsDataURI(s string) bool {
	return strings.HasPrefix(strings.TrimSpace(s), "data:image/")
}

// DecodeDataURI extrait les octets d'un data URI base64.
func DecodeDataURI(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if !IsDataURI(s) {
		return nil, ErrNotDataURI
	}
	comma := strings.IndexByte(s, ',')
	if comma < 0 || !strings.HasSuffix(s[:comma], ";base64") {
		return nil, ErrNotDataURI
	}

	payload := s[comma+1:]
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxInputBytes+3 {
		return nil, ErrTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if len(data) > MaxInputBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}

// CompressDataURI décode puis compresse un data URI.
func CompressDataURI(s string) (Result, error) {
	data, err := DecodeDataURI(s)
	if err != nil {
		return Result{}, err
	}
	return Compress(data)
}

// Compress redimensionne (côté le plus long ≤ 600 px, jamais d'agrandissement)
// et encode en JPEG qualité 50, puis 30 si le résultat dépasse 300 KB.
func Compress(data []byte) (Result, error) {
	if len(data) > MaxInputBytes {
		return Result{}, ErrTooLarge
	}

	// DecodeConfig ne lit que l'en-tête : on borne la taille du buffer avant de décoder.
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Result{}, ErrInvalidImage
	}
	if cfg.Width > MaxPixels/cfg.Height {
		return Result{}, ErrTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	w, h := fit(src.Bounds().Dx(), src.Bounds().Dy(), MaxDimension)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)

	out, err := encode(dst, Quality)
	if err != nil {
		return Result{}, err
	}
	if len(out) > RetryThreshold {
		if out, err = encode(dst, RetryQuality); err != nil {
			return Result{}, err
		}
	}
	if len(out) > MaxOutputBytes {
		return Result{}, ErrTooLarge
	}

	return Result{Data: out, ContentType: ContentType, Width: w, Height: h}, nil
}

func encode(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, fmt.Errorf("encodage jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

// fit calcule les dimensions cibles en gardant le ratio.
func fit(w, h, limit int) (int, int) {
	if w <= limit && h <= limit {
		return w, h
	}
	if w >= h {
		nh := h * limit / w
		if nh < 1 {
			nh = 1
		}
		return limit, nh
	}
	nw := w * limit / h
	if nw < 1 {
		nw = 1
	}
	return nw, limit
}
