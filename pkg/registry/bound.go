package registry

import (
	"context"
	"sync/atomic"

	"github.com/goliatone/go-nodegen/pkg/adapter"
	"github.com/goliatone/go-nodegen/pkg/model"
	"github.com/goliatone/go-nodegen/pkg/schema"
)

// Invoker executes a binding. *adapter.Adapter satisfies it.
type Invoker interface {
	Invoke(ctx context.Context, binding model.Binding, values map[string]any) (adapter.Result, error)
}

var _ Invoker = (*adapter.Adapter)(nil)

// BoundModel is the single node type every document compiles into; it is
// parameterised by its binding rather than generated per model.
type BoundModel struct {
	binding model.Binding
	source  schema.Source
	invoker Invoker
	reruns  atomic.Uint64
}

func newBoundModel(binding model.Binding, source schema.Source, invoker Invoker) *BoundModel {
	return &BoundModel{binding: binding, source: source, invoker: invoker}
}

// Binding returns the compiled binding. Callers must treat it as read-only.
func (m *BoundModel) Binding() model.Binding {
	return m.binding
}

// Name returns the node name shown by the host.
func (m *BoundModel) Name() string {
	return m.binding.NodeName
}

// Source returns where the model document was loaded from.
func (m *BoundModel) Source() schema.Source {
	return m.source
}

// InputTypes returns the ordered required/optional inputs.
func (m *BoundModel) InputTypes() model.InputSet {
	return m.binding.Inputs
}

// ReturnTypes returns the output type tuple.
func (m *BoundModel) ReturnTypes() []model.SemanticType {
	return m.binding.Output.Types()
}

// ReturnNames returns the output name tuple.
func (m *BoundModel) ReturnNames() []string {
	return m.binding.Output.Names()
}

// Invoke runs the model with the host values.
func (m *BoundModel) Invoke(ctx context.Context, values map[string]any) (adapter.Result, error) {
	if m.invoker == nil {
		return adapter.Result{}, errNoInvoker
	}
	return m.invoker.Invoke(ctx, m.binding, values)
}

// ChangeToken is the host cache key override: zero when force_rerun is unset
// so cached results are reused, a fresh value on every call otherwise.
func (m *BoundModel) ChangeToken(values map[string]any) uint64 {
	value, ok := values[model.ForceRerunInput]
	if !ok || adapter.IsFalsy(value) {
		return 0
	}
	return m.reruns.Add(1)
}
