package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nodegen/pkg/media"
	"github.com/goliatone/go-nodegen/pkg/model"
)

func TestInputFlags_Values(t *testing.T) {
	flags := inputFlags{}
	for _, raw := range []string{"prompt=42", "steps=30", "scale=7.5", "loras=[\"a\",\"b\"]", "negative=blurry", "image=https://cdn.example.com/a.png"} {
		if err := flags.Set(raw); err != nil {
			t.Fatalf("set %q: %v", raw, err)
		}
	}
	inputs := model.InputSet{
		Required: []model.InputDescriptor{{Name: "prompt", Type: model.TypeText}},
		Optional: []model.InputDescriptor{{Name: "image", Type: model.TypeImage}},
	}

	got, err := flags.values(context.Background(), inputs)
	if err != nil {
		t.Fatalf("values: %v", err)
	}
	want := map[string]any{
		"prompt":   "42",
		"steps":    int64(30),
		"scale":    7.5,
		"loras":    []any{"a", "b"},
		"negative": "blurry",
		"image":    "https://cdn.example.com/a.png",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	if err := flags.Set("novalue"); err == nil {
		t.Fatalf("expected error for flag without '='")
	}
}

func TestWriteOutputs(t *testing.T) {
	dir := t.TempDir()
	clip, err := media.NewAudio([][]float32{{0, 0.5, -0.5}}, 8000)
	if err != nil {
		t.Fatalf("new audio: %v", err)
	}
	image := &media.ImageBatch{Batch: 1, Height: 1, Width: 1, Pix: []float32{1, 1, 1}}

	var buf bytes.Buffer
	err = writeOutputs(&buf, dir, []string{"TEXT", "Mask Image", "audio", "missing"}, []any{"hello", image, clip})
	if err != nil {
		t.Fatalf("write outputs: %v", err)
	}

	for _, name := range []string{"mask_image-0.png", "audio.wav"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
	want := "TEXT:\nhello\n" +
		"Mask Image: " + filepath.Join(dir, "mask_image-0.png") + "\n" +
		"audio: " + filepath.Join(dir, "audio.wav") + "\n" +
		"missing: (none)\n"
	if diff := cmp.Diff(want, buf.String()); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}
