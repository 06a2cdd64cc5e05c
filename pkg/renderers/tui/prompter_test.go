package tui

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nodegen/pkg/media"
	"github.com/goliatone/go-nodegen/pkg/model"
)

type stubDriver struct {
	inputs       []string
	selectIdx    []int
	confirm      []bool
	textAreas    []string
	infoMessages []string
	inputConfigs []InputConfig
	selects      []SelectConfig
	inputPos     int
	selectPos    int
	confirmPos   int
	textPos      int
	err          error
}

func (s *stubDriver) Input(_ context.Context, cfg InputConfig) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.inputConfigs = append(s.inputConfigs, cfg)
	if s.inputPos >= len(s.inputs) {
		return "", errors.New("no input scripted")
	}
	val := s.inputs[s.inputPos]
	s.inputPos++
	return val, nil
}

func (s *stubDriver) Confirm(_ context.Context, _ ConfirmConfig) (bool, error) {
	if s.confirmPos >= len(s.confirm) {
		return false, errors.New("no confirm scripted")
	}
	val := s.confirm[s.confirmPos]
	s.confirmPos++
	return val, nil
}

func (s *stubDriver) Select(_ context.Context, cfg SelectConfig) (int, error) {
	s.selects = append(s.selects, cfg)
	if s.selectPos >= len(s.selectIdx) {
		return -1, errors.New("no select scripted")
	}
	val := s.selectIdx[s.selectPos]
	s.selectPos++
	return val, nil
}

func (s *stubDriver) TextArea(_ context.Context, _ TextAreaConfig) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.textPos >= len(s.textAreas) {
		return "", errors.New("no textarea scripted")
	}
	val := s.textAreas[s.textPos]
	s.textPos++
	return val, nil
}

func (s *stubDriver) Info(_ context.Context, msg string) error {
	s.infoMessages = append(s.infoMessages, msg)
	return nil
}

func float(v float64) *float64 { return &v }

func sampleBinding() model.Binding {
	return model.Binding{
		ModelID:  "acme/img2img",
		NodeName: "Replicate img2img",
		Inputs: model.InputSet{
			Required: []model.InputDescriptor{
				{Name: "prompt", Label: "Prompt", Type: model.TypeText, SchemaType: "string", Required: true,
					Widget: model.WidgetConfig{Multiline: true}},
				{Name: "image", Label: "Image", Type: model.TypeImage, SchemaType: "string", Required: true},
			},
			Optional: []model.InputDescriptor{
				{Name: "steps", Label: "Steps", Type: model.TypeInteger, SchemaType: "integer",
					Widget: model.WidgetConfig{Default: int64(50), HasDefault: true, Min: float(1), Max: float(100)}},
				{Name: "scheduler", Label: "Scheduler", Type: model.TypeEnum, SchemaType: "string",
					Enum: []any{"DDIM", "K_EULER"}, Widget: model.WidgetConfig{Default: "DDIM", HasDefault: true}},
				{Name: "refine", Label: "Refine", Type: model.TypeBoolean, SchemaType: "boolean"},
				{Name: "seed", Label: "Seed", Type: model.TypeInteger, SchemaType: "integer"},
				{Name: model.ForceRerunInput, Type: model.TypeBoolean, SchemaType: "boolean",
					Widget: model.WidgetConfig{Default: false, HasDefault: true}},
			},
		},
		Output: model.OutputSpec{Type: model.TypeImage},
	}
}

func writePNG(t *testing.T) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{B: 255, A: 255})
	path := filepath.Join(t.TempDir(), "in.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return path
}

func TestCollect_AsksEveryInputInOrder(t *testing.T) {
	path := writePNG(t)
	driver := &stubDriver{
		textAreas: []string{"", "a cat"},
		inputs:    []string{path, "abc", "500", "30", ""},
		selectIdx: []int{1},
		confirm:   []bool{true},
	}

	values, err := New(WithPromptDriver(driver)).Collect(context.Background(), sampleBinding())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	img, ok := values["image"].(*media.ImageBatch)
	if !ok {
		t.Fatalf("expected image batch, got %T", values["image"])
	}
	if img.Batch != 1 || img.Height != 1 || img.Width != 2 {
		t.Fatalf("unexpected image shape %dx%dx%d", img.Batch, img.Height, img.Width)
	}
	delete(values, "image")

	want := map[string]any{
		"prompt":    "a cat",
		"steps":     int64(30),
		"scheduler": "K_EULER",
		"refine":    true,
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}

	wantInfo := []string{
		"Prompt is required",
		"Invalid Steps: expected a whole number",
		"Invalid Steps: must be at most 100",
	}
	if diff := cmp.Diff(wantInfo, driver.infoMessages); diff != "" {
		t.Fatalf("info mismatch (-want +got):\n%s", diff)
	}
	if got := driver.inputConfigs[1].Default; got != "50" {
		t.Fatalf("expected steps default 50, got %q", got)
	}
	if got := driver.selects[0].DefaultIndex; got != 0 {
		t.Fatalf("expected scheduler default index 0, got %d", got)
	}
}

func TestCollect_PrefillOverridesDefaults(t *testing.T) {
	driver := &stubDriver{
		textAreas: []string{"a dog"},
		inputs:    []string{"ignored.png", "", ""},
		selectIdx: []int{1},
		confirm:   []bool{false},
	}
	loader := func(_ context.Context, kind model.SemanticType, path string) (any, error) {
		return string(kind) + ":" + path, nil
	}

	values, err := New(
		WithPromptDriver(driver),
		WithMediaLoader(loader),
		WithPrefill(map[string]any{"scheduler": "K_EULER", "steps": int64(12)}),
	).Collect(context.Background(), sampleBinding())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}

	if got := driver.selects[0].DefaultIndex; got != 1 {
		t.Fatalf("expected prefilled default index 1, got %d", got)
	}
	if got := driver.inputConfigs[1].Default; got != "12" {
		t.Fatalf("expected prefilled steps 12, got %q", got)
	}
	want := map[string]any{
		"prompt":    "a dog",
		"image":     "IMAGE:ignored.png",
		"scheduler": "K_EULER",
		"refine":    false,
	}
	if diff := cmp.Diff(want, values); diff != "" {
		t.Fatalf("values mismatch (-want +got):\n%s", diff)
	}
}

func TestCollect_Aborted(t *testing.T) {
	driver := &stubDriver{err: ErrAborted}
	_, err := New(WithPromptDriver(driver)).Collect(context.Background(), sampleBinding())
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
}

func TestCollect_MediaLoadFailureReprompts(t *testing.T) {
	path := writePNG(t)
	driver := &stubDriver{
		textAreas: []string{"a cat"},
		inputs:    []string{filepath.Join(t.TempDir(), "missing.png"), path, "", ""},
		selectIdx: []int{0},
		confirm:   []bool{false},
	}
	values, err := New(WithPromptDriver(driver)).Collect(context.Background(), sampleBinding())
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if _, ok := values["image"].(*media.ImageBatch); !ok {
		t.Fatalf("expected image batch, got %T", values["image"])
	}
	if len(driver.infoMessages) != 1 {
		t.Fatalf("expected one load failure message, got %v", driver.infoMessages)
	}
}
