package registry_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-nodegen/pkg/adapter"
	"github.com/goliatone/go-nodegen/pkg/model"
	"github.com/goliatone/go-nodegen/pkg/registry"
	"github.com/goliatone/go-nodegen/pkg/schema"
	"github.com/goliatone/go-nodegen/pkg/testsupport"
)

const llamaDoc = `{
	"owner": "meta", "name": "llama",
	"latest_version": {"id": "v2", "openapi_schema": {"components": {"schemas": {
		"Input": {"type": "object", "required": ["prompt"], "properties": {
			"prompt": {"type": "string", "x-order": 0},
			"max_tokens": {"type": "integer", "default": 128, "x-order": 1}
		}},
		"Output": {"type": "array", "items": {"type": "string"}}
	}}}}
}`

const fluxDoc = `{
	"owner": "black-forest-labs", "name": "flux-schnell",
	"default_example": {"output": ["https://cdn.example.com/out-0.webp"]},
	"latest_version": {"id": "v9", "openapi_schema": {"components": {"schemas": {
		"Input": {"type": "object", "required": ["prompt"], "properties": {
			"prompt": {"type": "string"}
		}},
		"Output": {"type": "array", "items": {"type": "string", "format": "uri"}}
	}}}}
}`

type countingStore struct {
	schema.Store
	loads atomic.Int32
}

func (s *countingStore) Load(ctx context.Context, src schema.Source) (schema.Document, error) {
	s.loads.Add(1)
	return s.Store.Load(ctx, src)
}

func newStore(files map[string]string) *countingStore {
	return &countingStore{Store: testsupport.MapStore(files)}
}

func TestGetOrBuild_BuildsOnceUnderConcurrency(t *testing.T) {
	store := newStore(map[string]string{"meta_llama.json": llamaDoc})
	reg := registry.New(store, registry.WithLogger(testsupport.QuietLogger()))
	src := schema.SourceFromFS("meta_llama.json")

	const workers = 32
	results := make([]*registry.BoundModel, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			bound, err := reg.GetOrBuild(context.Background(), src)
			if err != nil {
				t.Errorf("get or build: %v", err)
				return
			}
			results[i] = bound
		}(i)
	}
	wg.Wait()

	if got := store.loads.Load(); got != 1 {
		t.Fatalf("expected one build, got %d", got)
	}
	for i := 1; i < workers; i++ {
		if results[i] != results[0] {
			t.Fatalf("worker %d received a different binding", i)
		}
	}
}

func TestGetOrBuild_CachesFailures(t *testing.T) {
	store := newStore(map[string]string{"broken.json": `{"name": "no-owner"}`})
	reg := registry.New(store, registry.WithLogger(testsupport.QuietLogger()))
	src := schema.SourceFromFS("broken.json")

	for i := 0; i < 3; i++ {
		if _, err := reg.GetOrBuild(context.Background(), src); err == nil {
			t.Fatalf("expected build error")
		}
	}
	if got := store.loads.Load(); got != 1 {
		t.Fatalf("expected failure to be cached, loaded %d times", got)
	}
}

func TestGetOrBuild_DoesNotCacheCancellation(t *testing.T) {
	store := newStore(map[string]string{"meta_llama.json": llamaDoc})
	reg := registry.New(store, registry.WithLogger(testsupport.QuietLogger()))
	src := schema.SourceFromFS("meta_llama.json")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := reg.GetOrBuild(ctx, src); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if _, err := reg.GetOrBuild(context.Background(), src); err != nil {
		t.Fatalf("expected rebuild after cancellation, got %v", err)
	}
}

func TestLoad_SkipsBrokenDocumentsAndSorts(t *testing.T) {
	store := newStore(map[string]string{
		"meta_llama.json":        llamaDoc,
		"bfl_flux.json":          fluxDoc,
		"broken.json":            `{"owner": "x"}`,
		"not-a-schema.txt":       "ignored",
		"black-forest-labs.json": `{`,
	})
	reg := registry.New(store, registry.WithLogger(testsupport.QuietLogger()), registry.WithValidation(true))

	models, err := reg.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	var names []string
	for _, bound := range models {
		names = append(names, bound.Name())
	}
	want := []string{"Replicate black-forest-labs/flux-schnell", "Replicate meta/llama"}
	if diff := cmp.Diff(want, names); diff != "" {
		t.Fatalf("models mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(names, namesOf(reg.Models())); diff != "" {
		t.Fatalf("Models() mismatch (-want +got):\n%s", diff)
	}
}

func namesOf(models []*registry.BoundModel) []string {
	var out []string
	for _, bound := range models {
		out = append(out, bound.Name())
	}
	return out
}

func TestLookup(t *testing.T) {
	store := newStore(map[string]string{"meta_llama.json": llamaDoc})
	reg := registry.New(store, registry.WithLogger(testsupport.QuietLogger()))
	if _, err := reg.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}

	for _, key := range []string{"Replicate meta/llama", "meta/llama", "meta/llama:v2"} {
		bound, err := reg.Lookup(key)
		if err != nil {
			t.Fatalf("lookup %q: %v", key, err)
		}
		if bound.Binding().DisplayName != "meta/llama" {
			t.Fatalf("lookup %q returned %q", key, bound.Binding().DisplayName)
		}
	}
	if _, err := reg.Lookup("meta/unknown"); !errors.Is(err, registry.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

type recordingInvoker struct {
	binding model.Binding
	values  map[string]any
}

func (r *recordingInvoker) Invoke(_ context.Context, binding model.Binding, values map[string]any) (adapter.Result, error) {
	r.binding = binding
	r.values = values
	return adapter.Result{Values: []any{"ok"}}, nil
}

func TestBoundModel(t *testing.T) {
	store := newStore(map[string]string{"bfl_flux.json": fluxDoc})
	invoker := &recordingInvoker{}
	reg := registry.New(store, registry.WithLogger(testsupport.QuietLogger()), registry.WithInvoker(invoker))

	bound, err := reg.GetOrBuild(context.Background(), schema.SourceFromFS("bfl_flux.json"))
	if err != nil {
		t.Fatalf("get or build: %v", err)
	}

	if diff := cmp.Diff([]model.SemanticType{model.TypeImage}, bound.ReturnTypes()); diff != "" {
		t.Fatalf("return types mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"IMAGE"}, bound.ReturnNames()); diff != "" {
		t.Fatalf("return names mismatch (-want +got):\n%s", diff)
	}
	if got := len(bound.InputTypes().Required); got != 1 {
		t.Fatalf("expected one required input, got %d", got)
	}

	result, err := bound.Invoke(context.Background(), map[string]any{"prompt": "a fox"})
	if err != nil {
		t.Fatalf("invoke: %v", err)
	}
	if result.Values[0] != "ok" || invoker.binding.ModelID != "black-forest-labs/flux-schnell:v9" {
		t.Fatalf("unexpected invocation %+v / %+v", result, invoker.binding)
	}

	if token := bound.ChangeToken(map[string]any{"prompt": "a fox"}); token != 0 {
		t.Fatalf("expected zero token without force_rerun, got %d", token)
	}
	if token := bound.ChangeToken(map[string]any{model.ForceRerunInput: false}); token != 0 {
		t.Fatalf("expected zero token for false force_rerun, got %d", token)
	}
	first := bound.ChangeToken(map[string]any{model.ForceRerunInput: true})
	second := bound.ChangeToken(map[string]any{model.ForceRerunInput: true})
	if first == 0 || second <= first {
		t.Fatalf("expected increasing tokens, got %d then %d", first, second)
	}
}

func TestBoundModel_NoInvoker(t *testing.T) {
	store := newStore(map[string]string{"meta_llama.json": llamaDoc})
	reg := registry.New(store, registry.WithLogger(testsupport.QuietLogger()))
	bound, err := reg.GetOrBuild(context.Background(), schema.SourceFromFS("meta_llama.json"))
	if err != nil {
		t.Fatalf("get or build: %v", err)
	}
	if _, err := bound.Invoke(context.Background(), nil); err == nil {
		t.Fatalf("expected error without invoker")
	}
}
