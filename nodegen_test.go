package nodegen_test

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nodegen"
	"github.com/goliatone/go-nodegen/pkg/config"
	"github.com/goliatone/go-nodegen/pkg/model"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

const whisperDoc = `{
	"owner": "openai", "name": "whisper",
	"description": "Convert speech in audio to text",
	"default_example": {"output": {"transcription": "hello"}},
	"latest_version": {"id": "abc", "openapi_schema": {"components": {"schemas": {
		"Input": {"type": "object", "required": ["audio"], "properties": {
			"audio": {"type": "string", "format": "uri", "x-order": 0},
			"temperature": {"type": "number", "default": 0, "x-order": 1}
		}},
		"Output": {"type": "object", "properties": {
			"transcription": {"type": "string"}
		}}
	}}}}
}`

func TestNewRegistry_LoadsDirectory(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "openai_whisper.json"), []byte(whisperDoc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	cfg := config.Default()
	cfg.Schemas.Dir = dir
	cfg.Nodes.Prefix = "Remote"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	models, err := nodegen.NewRegistry(cfg, logger).Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(models) != 1 {
		t.Fatalf("expected one model, got %d", len(models))
	}
	bound := models[0]
	if bound.Name() != "Remote openai/whisper" {
		t.Fatalf("unexpected node name %q", bound.Name())
	}
	if diff := cmp.Diff([]model.SemanticType{model.TypeText}, bound.ReturnTypes()); diff != "" {
		t.Fatalf("return types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"transcription"}, bound.ReturnNames()); diff != "" {
		t.Fatalf("return names mismatch (-want +got):\n%s", diff)
	}
}

func TestNewLoader_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "openai_whisper.json")
	if err := os.WriteFile(path, []byte(whisperDoc), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	doc, err := nodegen.NewLoader().Load(context.Background(), schema.SourceFromFile(path))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if doc.ModelID() != "openai/whisper:abc" {
		t.Fatalf("unexpected model id %q", doc.ModelID())
	}
}
