package adapter_test

import (
	"context"
	"errors"
	"image"
	"image/color"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nodegen/pkg/adapter"
	"github.com/goliatone/go-nodegen/pkg/inference"
	"github.com/goliatone/go-nodegen/pkg/media"
	"github.com/goliatone/go-nodegen/pkg/model"
	"github.com/goliatone/go-nodegen/pkg/testsupport"
)

func textBinding() model.Binding {
	return model.Binding{
		ModelID:     "meta/llama:v1",
		DisplayName: "meta/llama",
		Inputs: model.InputSet{
			Required: []model.InputDescriptor{
				{Name: "prompt", Type: model.TypeText, SchemaType: "string", Required: true},
			},
			Optional: []model.InputDescriptor{
				{Name: "system_prompt", Type: model.TypeText, SchemaType: "string"},
				{Name: "max_tokens", Type: model.TypeInteger, SchemaType: "integer"},
				{Name: "temperature", Type: model.TypeFloat, SchemaType: "number"},
				{Name: "stop_sequences", Type: model.TypeText, SchemaType: "array"},
				{Name: "image", Type: model.TypeImage, SchemaType: "string"},
				{Name: model.ForceRerunInput, Type: model.TypeBoolean, SchemaType: "boolean"},
			},
		},
		Output: model.OutputSpec{Type: model.TypeText},
	}
}

func TestInvoke_TextEndToEnd(t *testing.T) {
	var got inference.Request
	client := inference.ClientFunc(func(ctx context.Context, req inference.Request) (any, error) {
		got = req
		return []any{"  Hello", ",", " world\n"}, nil
	})

	values := map[string]any{
		"prompt":              "",
		"system_prompt":       "",
		"max_tokens":          0,
		"temperature":         0.7,
		"stop_sequences":      "###\nEND",
		model.ForceRerunInput: true,
		"host_only_extra":     "kept",
	}
	result, err := adapter.New(client, adapter.WithLogger(testsupport.QuietLogger())).Invoke(context.Background(), textBinding(), values)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}

	wantInput := map[string]any{
		"prompt":          "",
		"temperature":     0.7,
		"stop_sequences":  []string{"###", "END"},
		"host_only_extra": "kept",
	}
	if diff := cmp.Diff(wantInput, got.Input); diff != "" {
		t.Fatalf("request input mismatch (-want +got):\n%s", diff)
	}
	if got.Model != "meta/llama:v1" || !got.Stream {
		t.Fatalf("unexpected request %+v", got)
	}
	if diff := cmp.Diff([]any{"Hello, world"}, result.Values); diff != "" {
		t.Fatalf("result mismatch (-want +got):\n%s", diff)
	}
	if _, ok := values[model.ForceRerunInput]; !ok {
		t.Fatalf("caller values must not be mutated")
	}
}

func TestPrepare_EncodesMedia(t *testing.T) {
	inputs := model.InputSet{
		Required: []model.InputDescriptor{
			{Name: "image", Type: model.TypeImage, SchemaType: "string", Required: true},
			{Name: "audio", Type: model.TypeAudio, SchemaType: "string", Required: true},
			{Name: "mask", Type: model.TypeImage, SchemaType: "string", Required: true},
			{Name: "raw", Type: model.TypeImage, SchemaType: "string", Required: true},
		},
	}
	batch := &media.ImageBatch{Batch: 2, Height: 1, Width: 1, Pix: []float32{1, 0, 0, 0, 1, 0}}
	clip, err := media.NewAudio([][]float32{{0, 0.5, -0.5}}, 8000)
	if err != nil {
		t.Fatalf("new audio: %v", err)
	}
	gray := image.NewGray(image.Rect(0, 0, 2, 2))

	payload, err := adapter.Prepare(inputs, map[string]any{
		"image": batch,
		"audio": clip,
		"mask":  gray,
		"raw":   "https://cdn.example.com/in.png",
	})
	if err != nil {
		t.Fatalf("prepare: %v", err)
	}

	for key, prefix := range map[string]string{
		"image": "data:image/png;base64,",
		"mask":  "data:image/png;base64,",
		"audio": "data:audio/wav;base64,",
	} {
		value, _ := payload[key].(string)
		if !strings.HasPrefix(value, prefix) {
			t.Fatalf("%s: expected %s prefix, got %.40q", key, prefix, value)
		}
	}
	if payload["raw"] != "https://cdn.example.com/in.png" {
		t.Fatalf("expected url to pass through, got %v", payload["raw"])
	}

	_, data, err := media.ParseDataURI(payload["image"].(string))
	if err != nil {
		t.Fatalf("parse data uri: %v", err)
	}
	decoded, err := media.DecodeImage(data)
	if err != nil {
		t.Fatalf("decode first frame: %v", err)
	}
	if decoded.Batch != 1 || decoded.Pix[0] != 1 || decoded.Pix[1] != 0 {
		t.Fatalf("expected first (red) frame, got %+v", decoded)
	}
}

func TestPrepare_Errors(t *testing.T) {
	inputs := model.InputSet{
		Required: []model.InputDescriptor{
			{Name: "image", Type: model.TypeImage, SchemaType: "string", Required: true},
		},
	}

	_, err := adapter.Prepare(inputs, map[string]any{"image": 42})
	if !errors.Is(err, adapter.ErrUnsupportedValue) {
		t.Fatalf("expected ErrUnsupportedValue, got %v", err)
	}

	broken := &media.ImageBatch{Batch: 1, Height: 2, Width: 2, Pix: []float32{0, 0, 0}}
	_, err = adapter.Prepare(inputs, map[string]any{"image": broken})
	if !errors.Is(err, adapter.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}

	audioInputs := model.InputSet{
		Required: []model.InputDescriptor{{Name: "audio", Type: model.TypeAudio, Required: true}},
	}
	bad := &media.Audio{Waveform: media.Tensor{Shape: []int{2, 1, 2}, Data: []float32{0, 0, 0, 0}}, SampleRate: 8000}
	_, err = adapter.Prepare(audioInputs, map[string]any{"audio": bad})
	if !errors.Is(err, adapter.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch for batched audio, got %v", err)
	}
}

func TestPruneOptional(t *testing.T) {
	inputs := model.InputSet{
		Required: []model.InputDescriptor{{Name: "seed", Required: true}},
		Optional: []model.InputDescriptor{
			{Name: "a"}, {Name: "b"}, {Name: "c"}, {Name: "d"}, {Name: "e"},
			{Name: "f"}, {Name: "g"}, {Name: "h"}, {Name: "i"},
		},
	}
	values := map[string]any{
		"seed": 0,
		"a":    nil,
		"b":    false,
		"c":    0.0,
		"d":    []string{},
		"e":    map[string]any{},
		"f":    (*media.ImageBatch)(nil),
		"g":    "x",
		"h":    -1,
		"i":    true,
	}

	adapter.PruneOptional(inputs, values)

	want := map[string]any{"seed": 0, "g": "x", "h": -1, "i": true}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("pruned mismatch (-want +got):\n%s", diff)
	}
}

func TestCoerceArrays(t *testing.T) {
	inputs := model.InputSet{
		Optional: []model.InputDescriptor{
			{Name: "lines", SchemaType: "array"},
			{Name: "empty", SchemaType: "array"},
			{Name: "scalar", SchemaType: "array"},
			{Name: "list", SchemaType: "array"},
			{Name: "plain", SchemaType: "string"},
		},
	}
	values := map[string]any{
		"lines":  "a\nb\n",
		"empty":  "",
		"scalar": 3,
		"list":   []any{"x"},
		"plain":  "p\nq",
	}

	adapter.CoerceArrays(inputs, values)

	want := map[string]any{
		"lines":  []string{"a", "b", ""},
		"empty":  []string{},
		"scalar": []any{3},
		"list":   []any{"x"},
		"plain":  "p\nq",
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("coerced mismatch (-want +got):\n%s", diff)
	}
}

func mediaServer(t *testing.T) *httptest.Server {
	t.Helper()
	clip, err := media.NewAudio([][]float32{{0, 0.25, -0.25, 0.5}}, 16000)
	if err != nil {
		t.Fatalf("new audio: %v", err)
	}
	wavData, err := media.EncodeWAV(clip)
	if err != nil {
		t.Fatalf("encode wav: %v", err)
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/red.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(testsupport.PNG(t, 2, 2, color.RGBA{R: 255, A: 255}))
	})
	mux.HandleFunc("/blue.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(testsupport.PNG(t, 2, 2, color.RGBA{B: 255, A: 255}))
	})
	mux.HandleFunc("/wide.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(testsupport.PNG(t, 4, 2, color.White))
	})
	mux.HandleFunc("/garbage.png", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("not an image"))
	})
	mux.HandleFunc("/speech.wav", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(wavData)
	})
	return httptest.NewServer(mux)
}

func newMediaAdapter(server *httptest.Server, output any) *adapter.Adapter {
	client := inference.ClientFunc(func(context.Context, inference.Request) (any, error) {
		return output, nil
	})
	return adapter.New(client,
		adapter.WithFetcher(media.NewHTTPFetcher(server.Client())),
		adapter.WithLogger(testsupport.QuietLogger()),
	)
}

func imageBinding() model.Binding {
	return model.Binding{ModelID: "acme/img:v1", DisplayName: "acme/img", Output: model.OutputSpec{Type: model.TypeImage}}
}

func TestInvoke_ImageOutputsStackAndSkipFailures(t *testing.T) {
	server := mediaServer(t)
	defer server.Close()

	output := []any{server.URL + "/red.png", server.URL + "/missing.png", server.URL + "/garbage.png", server.URL + "/blue.png"}
	result, err := newMediaAdapter(server, output).Invoke(context.Background(), imageBinding(), nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}

	batch, ok := result.Values[0].(*media.ImageBatch)
	if !ok {
		t.Fatalf("expected *media.ImageBatch, got %T", result.Values[0])
	}
	if batch.Batch != 2 || batch.Height != 2 || batch.Width != 2 {
		t.Fatalf("unexpected batch shape %dx%dx%d", batch.Batch, batch.Height, batch.Width)
	}
	frameSize := 2 * 2 * media.Channels
	if batch.Pix[0] != 1 || batch.Pix[frameSize+2] != 1 {
		t.Fatalf("expected red then blue frames")
	}
}

func TestInvoke_ImageOutputsNone(t *testing.T) {
	server := mediaServer(t)
	defer server.Close()

	result, err := newMediaAdapter(server, server.URL+"/missing.png").Invoke(context.Background(), imageBinding(), nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result.Values[0] != nil {
		t.Fatalf("expected nil batch, got %v", result.Values[0])
	}
}

func TestInvoke_ImageOutputsShapeMismatch(t *testing.T) {
	server := mediaServer(t)
	defer server.Close()

	output := []any{server.URL + "/red.png", server.URL + "/wide.png"}
	_, err := newMediaAdapter(server, output).Invoke(context.Background(), imageBinding(), nil)
	if !errors.Is(err, adapter.ErrShapeMismatch) {
		t.Fatalf("expected ErrShapeMismatch, got %v", err)
	}
}

func TestInvoke_NamedOutputs(t *testing.T) {
	server := mediaServer(t)
	defer server.Close()

	binding := model.Binding{
		ModelID:     "acme/tts:v1",
		DisplayName: "acme/tts",
		Output: model.OutputSpec{Fields: []model.OutputField{
			{Name: "audio_out", Type: model.TypeAudio},
			{Name: "transcript", Type: model.TypeText},
			{Name: "preview", Type: model.TypeVideo},
			{Name: "missing", Type: model.TypeImage},
		}},
	}
	output := map[string]any{
		"audio_out":  server.URL + "/speech.wav",
		"transcript": map[string]any{"text": "hi"},
		"preview":    []any{"https://cdn.example.com/a.mp4"},
	}

	result, err := newMediaAdapter(server, output).Invoke(context.Background(), binding, nil)
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if len(result.Values) != 4 {
		t.Fatalf("expected 4 values, got %d", len(result.Values))
	}
	clip, ok := result.Values[0].(*media.Audio)
	if !ok {
		t.Fatalf("expected *media.Audio, got %T", result.Values[0])
	}
	if clip.SampleRate != 16000 {
		t.Fatalf("unexpected sample rate %d", clip.SampleRate)
	}
	if diff := cmp.Diff([]int{1, 1, 4}, clip.Waveform.Shape); diff != "" {
		t.Fatalf("waveform shape mismatch (-want +got):\n%s", diff)
	}
	if result.Values[1] != `{"text":"hi"}` {
		t.Fatalf("expected JSON-encoded text, got %v", result.Values[1])
	}
	if diff := cmp.Diff([]string{"https://cdn.example.com/a.mp4"}, result.Values[2]); diff != "" {
		t.Fatalf("video mismatch (-want +got):\n%s", diff)
	}
	if result.Values[3] != nil {
		t.Fatalf("expected nil for missing field, got %v", result.Values[3])
	}
}

func TestInvoke_ClientError(t *testing.T) {
	boom := inference.FromStatus(http.StatusServiceUnavailable, "down")
	client := inference.ClientFunc(func(context.Context, inference.Request) (any, error) {
		return nil, boom
	})

	_, err := adapter.New(client).Invoke(context.Background(), textBinding(), map[string]any{"prompt": "hi"})
	if !inference.IsTransient(err) {
		t.Fatalf("expected transient error to surface, got %v", err)
	}
}

func TestInvoke_NamedOutputRejectsScalar(t *testing.T) {
	client := inference.ClientFunc(func(context.Context, inference.Request) (any, error) {
		return "just text", nil
	})
	binding := model.Binding{Output: model.OutputSpec{Fields: []model.OutputField{{Name: "a", Type: model.TypeText}}}}

	_, err := adapter.New(client).Invoke(context.Background(), binding, nil)
	if !errors.Is(err, adapter.ErrUnsupportedValue) {
		t.Fatalf("expected ErrUnsupportedValue, got %v", err)
	}
}
