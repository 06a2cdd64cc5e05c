package media

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
	"github.com/hajimehoshi/go-mp3"
	"github.com/mewkiz/flac"
)

const wavBitDepth = 16

// Tensor is a dense float32 array with an explicit shape.
type Tensor struct {
	Shape []int
	Data  []float32
}

// Validate checks that Data matches Shape.
func (t Tensor) Validate() error {
	if len(t.Shape) == 0 {
		return fmt.Errorf("%w: tensor has no dimensions", ErrShapeMismatch)
	}
	size := 1
	for _, dim := range t.Shape {
		if dim <= 0 {
			return fmt.Errorf("%w: tensor shape %v has non-positive dimension", ErrShapeMismatch, t.Shape)
		}
		size *= dim
	}
	if size != len(t.Data) {
		return fmt.Errorf("%w: tensor shape %v expects %d values, has %d", ErrShapeMismatch, t.Shape, size, len(t.Data))
	}
	return nil
}

// Audio is the host audio representation: a waveform shaped [B,C,T] (or
// [C,T]) with samples in [-1,1], plus its sample rate.
type Audio struct {
	Waveform   Tensor
	SampleRate int
}

// Empty reports whether the clip carries no samples.
func (a *Audio) Empty() bool {
	return a == nil || len(a.Waveform.Data) == 0
}

// Channels returns the waveform as per-channel sample slices. A leading batch
// dimension of one is squeezed; any other dimensionality is rejected.
func (a *Audio) Channels() ([][]float32, error) {
	if a == nil {
		return nil, fmt.Errorf("%w: audio is nil", ErrShapeMismatch)
	}
	if err := a.Waveform.Validate(); err != nil {
		return nil, err
	}
	shape := a.Waveform.Shape
	switch {
	case len(shape) == 3 && shape[0] == 1:
		shape = shape[1:]
	case len(shape) == 2:
	default:
		return nil, fmt.Errorf("%w: unsupported waveform dimensions %v, want [C,T] or [1,C,T]", ErrShapeMismatch, a.Waveform.Shape)
	}
	channels, samples := shape[0], shape[1]
	out := make([][]float32, channels)
	for c := 0; c < channels; c++ {
		out[c] = a.Waveform.Data[c*samples : (c+1)*samples]
	}
	return out, nil
}

// NewAudio builds a [1,C,T] clip from per-channel samples.
func NewAudio(channels [][]float32, sampleRate int) (*Audio, error) {
	if len(channels) == 0 {
		return nil, fmt.Errorf("%w: audio needs at least one channel", ErrShapeMismatch)
	}
	samples := len(channels[0])
	data := make([]float32, 0, len(channels)*samples)
	for idx, channel := range channels {
		if len(channel) != samples {
			return nil, fmt.Errorf("%w: channel %d has %d samples, want %d", ErrShapeMismatch, idx, len(channel), samples)
		}
		data = append(data, channel...)
	}
	return &Audio{
		Waveform:   Tensor{Shape: []int{1, len(channels), samples}, Data: data},
		SampleRate: sampleRate,
	}, nil
}

// EncodeWAV renders the clip as 16-bit PCM WAV bytes.
func EncodeWAV(a *Audio) ([]byte, error) {
	channels, err := a.Channels()
	if err != nil {
		return nil, err
	}
	if a.SampleRate <= 0 {
		return nil, fmt.Errorf("media: invalid sample rate %d", a.SampleRate)
	}
	samples := len(channels[0])
	scale := float32(int(1)<<(wavBitDepth-1) - 1)
	interleaved := make([]int, 0, samples*len(channels))
	for t := 0; t < samples; t++ {
		for c := range channels {
			interleaved = append(interleaved, int(clamp(channels[c][t])*scale))
		}
	}

	out := &writeSeeker{}
	encoder := wav.NewEncoder(out, a.SampleRate, wavBitDepth, len(channels), 1)
	buf := &audio.IntBuffer{
		Format:         &audio.Format{NumChannels: len(channels), SampleRate: a.SampleRate},
		Data:           interleaved,
		SourceBitDepth: wavBitDepth,
	}
	if err := encoder.Write(buf); err != nil {
		return nil, fmt.Errorf("media: encode wav: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("media: finalize wav: %w", err)
	}
	return out.Bytes(), nil
}

// AudioDataURI encodes the clip as a WAV data URI.
func AudioDataURI(a *Audio) (string, error) {
	data, err := EncodeWAV(a)
	if err != nil {
		return "", err
	}
	return EncodeDataURI("audio/wav", data), nil
}

// DecodeAudio decodes WAV, MP3 or FLAC bytes. hint (a file name, URL or MIME
// type) is consulted when the payload has no recognisable header. AAC in an
// MP4 container (.m4a) has no decoder and reports ErrUnsupportedFormat.
func DecodeAudio(data []byte, hint string) (*Audio, error) {
	switch sniffAudio(data, hint) {
	case "wav":
		return decodeWAV(data)
	case "mp3":
		return decodeMP3(data)
	case "flac":
		return decodeFLAC(data)
	default:
		return nil, fmt.Errorf("%w: audio %q", ErrUnsupportedFormat, hint)
	}
}

func sniffAudio(data []byte, hint string) string {
	switch {
	case len(data) >= 12 && string(data[:4]) == "RIFF" && string(data[8:12]) == "WAVE":
		return "wav"
	case len(data) >= 4 && string(data[:4]) == "fLaC":
		return "flac"
	case len(data) >= 3 && string(data[:3]) == "ID3":
		return "mp3"
	case len(data) >= 2 && data[0] == 0xff && data[1]&0xe0 == 0xe0:
		return "mp3"
	}
	lower := strings.ToLower(hint)
	switch {
	case strings.Contains(lower, "wav"):
		return "wav"
	case strings.Contains(lower, "flac"):
		return "flac"
	case strings.Contains(lower, "mp3"), strings.Contains(lower, "mpeg"), strings.Contains(lower, "mpga"):
		return "mp3"
	}
	return ""
}

func decodeWAV(data []byte) (*Audio, error) {
	decoder := wav.NewDecoder(bytes.NewReader(data))
	if !decoder.IsValidFile() {
		return nil, fmt.Errorf("%w: invalid wav payload", ErrUnsupportedFormat)
	}
	buf, err := decoder.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("media: decode wav: %w", err)
	}
	channels := int(decoder.NumChans)
	bitDepth := int(decoder.BitDepth)
	if channels <= 0 || bitDepth <= 0 {
		return nil, fmt.Errorf("%w: wav with %d channels at %d bits", ErrShapeMismatch, channels, bitDepth)
	}
	scale := float32(int64(1) << (bitDepth - 1))
	// 8-bit PCM is unsigned, centred on 128
	var offset int
	if bitDepth == 8 {
		offset = 128
	}
	samples := len(buf.Data) / channels
	split := make([][]float32, channels)
	for c := range split {
		split[c] = make([]float32, samples)
	}
	for t := 0; t < samples; t++ {
		for c := 0; c < channels; c++ {
			split[c][t] = float32(buf.Data[t*channels+c]-offset) / scale
		}
	}
	return NewAudio(split, int(decoder.SampleRate))
}

func decodeMP3(data []byte) (*Audio, error) {
	decoder, err := mp3.NewDecoder(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("media: decode mp3: %w", err)
	}
	pcm, err := io.ReadAll(decoder)
	if err != nil {
		return nil, fmt.Errorf("media: read mp3: %w", err)
	}
	// go-mp3 always yields 16-bit little-endian stereo frames
	const frameBytes = 4
	samples := len(pcm) / frameBytes
	left := make([]float32, samples)
	right := make([]float32, samples)
	for t := 0; t < samples; t++ {
		offset := t * frameBytes
		left[t] = float32(int16(binary.LittleEndian.Uint16(pcm[offset:]))) / 32768
		right[t] = float32(int16(binary.LittleEndian.Uint16(pcm[offset+2:]))) / 32768
	}
	return NewAudio([][]float32{left, right}, decoder.SampleRate())
}

func decodeFLAC(data []byte) (*Audio, error) {
	stream, err := flac.New(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: flac: %v", ErrUnsupportedFormat, err)
	}
	defer func() {
		_ = stream.Close()
	}()

	channels := int(stream.Info.NChannels)
	bitDepth := int(stream.Info.BitsPerSample)
	if channels <= 0 || bitDepth <= 0 {
		return nil, fmt.Errorf("%w: flac with %d channels at %d bits", ErrShapeMismatch, channels, bitDepth)
	}
	scale := float32(int64(1) << (bitDepth - 1))
	split := make([][]float32, channels)
	for {
		frame, err := stream.ParseNext()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("media: decode flac: %w", err)
		}
		if len(frame.Subframes) != channels {
			return nil, fmt.Errorf("%w: flac frame has %d channels, stream declares %d", ErrShapeMismatch, len(frame.Subframes), channels)
		}
		for c, subframe := range frame.Subframes {
			for _, sample := range subframe.Samples {
				split[c] = append(split[c], float32(sample)/scale)
			}
		}
	}
	return NewAudio(split, int(stream.Info.SampleRate))
}

func clamp(value float32) float32 {
	switch {
	case value < -1:
		return -1
	case value > 1:
		return 1
	default:
		return value
	}
}

// writeSeeker is an in-memory io.WriteSeeker; the wav encoder seeks back to
// patch chunk sizes on Close.
type writeSeeker struct {
	buf []byte
	pos int
}

func (w *writeSeeker) Write(p []byte) (int, error) {
	end := w.pos + len(p)
	if end > len(w.buf) {
		w.buf = append(w.buf, make([]byte, end-len(w.buf))...)
	}
	copy(w.buf[w.pos:end], p)
	w.pos = end
	return len(p), nil
}

func (w *writeSeeker) Seek(offset int64, whence int) (int64, error) {
	var next int64
	switch whence {
	case io.SeekStart:
		next = offset
	case io.SeekCurrent:
		next = int64(w.pos) + offset
	case io.SeekEnd:
		next = int64(len(w.buf)) + offset
	default:
		return 0, errors.New("media: invalid whence")
	}
	if next < 0 {
		return 0, errors.New("media: negative seek position")
	}
	w.pos = int(next)
	return next, nil
}

func (w *writeSeeker) Bytes() []byte {
	return append([]byte(nil), w.buf...)
}
