package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"

	_ "golang.org/x/image/webp"
)

// Channels is the fixed channel count of an ImageBatch (RGB).
const Channels = 3

var (
	// ErrShapeMismatch reports a tensor whose dimensions cannot be used.
	ErrShapeMismatch = errors.New("media: shape mismatch")
	// ErrUnsupportedFormat reports a payload no registered codec understands.
	ErrUnsupportedFormat = errors.New("media: unsupported format")
)

// ImageBatch is the host image representation: Batch frames of Height x Width
// RGB pixels stored as float32 in [0,1], laid out [B,H,W,C].
type ImageBatch struct {
	Batch  int
	Height int
	Width  int
	Pix    []float32
}

// Validate checks that Pix matches the declared dimensions.
func (b *ImageBatch) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: image batch is nil", ErrShapeMismatch)
	}
	if b.Batch <= 0 || b.Height <= 0 || b.Width <= 0 {
		return fmt.Errorf("%w: image batch dimensions [%d,%d,%d,%d] must be positive", ErrShapeMismatch, b.Batch, b.Height, b.Width, Channels)
	}
	if want := b.Batch * b.Height * b.Width * Channels; len(b.Pix) != want {
		return fmt.Errorf("%w: image batch [%d,%d,%d,%d] expects %d values, has %d", ErrShapeMismatch, b.Batch, b.Height, b.Width, Channels, want, len(b.Pix))
	}
	return nil
}

// Empty reports whether the batch holds no frames.
func (b *ImageBatch) Empty() bool {
	return b == nil || b.Batch == 0 || len(b.Pix) == 0
}

// FromImage converts a decoded image into a single-frame batch, dropping alpha.
func FromImage(img image.Image) *ImageBatch {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	batch := &ImageBatch{
		Batch:  1,
		Height: height,
		Width:  width,
		Pix:    make([]float32, 0, width*height*Channels),
	}
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			batch.Pix = append(batch.Pix,
				float32(c.R)/255,
				float32(c.G)/255,
				float32(c.B)/255,
			)
		}
	}
	return batch
}

// Frame returns frame i as an opaque image.
func (b *ImageBatch) Frame(i int) (image.Image, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}
	if i < 0 || i >= b.Batch {
		return nil, fmt.Errorf("media: frame %d out of range [0,%d)", i, b.Batch)
	}
	out := image.NewNRGBA(image.Rect(0, 0, b.Width, b.Height))
	offset := i * b.Height * b.Width * Channels
	for y := 0; y < b.Height; y++ {
		for x := 0; x < b.Width; x++ {
			idx := offset + (y*b.Width+x)*Channels
			out.SetNRGBA(x, y, color.NRGBA{
				R: toByte(b.Pix[idx]),
				G: toByte(b.Pix[idx+1]),
				B: toByte(b.Pix[idx+2]),
				A: 0xff,
			})
		}
	}
	return out, nil
}

// Stack concatenates batches along the batch axis. Nil batches are skipped;
// a nil result means there was nothing to stack.
func Stack(batches ...*ImageBatch) (*ImageBatch, error) {
	var out *ImageBatch
	for _, batch := range batches {
		if batch.Empty() {
			continue
		}
		if err := batch.Validate(); err != nil {
			return nil, err
		}
		if out == nil {
			out = &ImageBatch{
				Height: batch.Height,
				Width:  batch.Width,
			}
		}
		if batch.Height != out.Height || batch.Width != out.Width {
			return nil, fmt.Errorf("%w: cannot stack %dx%d frame onto %dx%d batch", ErrShapeMismatch, batch.Width, batch.Height, out.Width, out.Height)
		}
		out.Batch += batch.Batch
		out.Pix = append(out.Pix, batch.Pix...)
	}
	return out, nil
}

// DecodeImage decodes png, jpeg, gif (first frame) or webp bytes into a
// single-frame RGB batch.
func DecodeImage(data []byte) (*ImageBatch, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, fmt.Errorf("%w: %v", ErrUnsupportedFormat, err)
		}
		return nil, fmt.Errorf("media: decode image: %w", err)
	}
	return FromImage(img), nil
}

// EncodePNG encodes frame i as PNG bytes.
func EncodePNG(batch *ImageBatch, i int) ([]byte, error) {
	frame, err := batch.Frame(i)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, frame); err != nil {
		return nil, fmt.Errorf("media: encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// ImageDataURI encodes the first frame of batch as a PNG data URI.
func ImageDataURI(batch *ImageBatch) (string, error) {
	data, err := EncodePNG(batch, 0)
	if err != nil {
		return "", err
	}
	return EncodeDataURI("image/png", data), nil
}

// ImageDataURIs encodes every frame of batch as a PNG data URI.
func ImageDataURIs(batch *ImageBatch) ([]string, error) {
	if batch.Empty() {
		return nil, nil
	}
	out := make([]string, 0, batch.Batch)
	for i := 0; i < batch.Batch; i++ {
		data, err := EncodePNG(batch, i)
		if err != nil {
			return nil, err
		}
		out = append(out, EncodeDataURI("image/png", data))
	}
	return out, nil
}

func toByte(value float32) uint8 {
	switch {
	case value <= 0:
		return 0
	case value >= 1:
		return 0xff
	default:
		return uint8(value*255 + 0.5)
	}
}
