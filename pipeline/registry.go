package pipeline

import (
	"fmt"
	"sort"
)

// Factory builds a configured stage instance from its environment.
type Factory func(env *Env) (Block, error)

// Registry maps (module, stage name) to the factory that builds it.
// It is populated at process start by whatever stage packages are linked in.
type Registry struct {
	modules map[string]map[string]Factory
}

func NewRegistry() *Registry {
	return &Registry{modules: make(map[string]map[string]Factory)}
}

// Register adds a factory. Registering the same name twice in a module panics.
func (r *Registry) Register(module, name string, f Factory) {
	stages, ok := r.modules[module]
	if !ok {
		stages = make(map[string]Factory)
		r.modules[module] = stages
	}
	if _, dup := stages[name]; dup {
		panic(fmt.Sprintf("pipeline: stage %s.%s registered twice", module, name))
	}
	stages[name] = f
}

func (r *Registry) Resolve(module, name string) (Factory, error) {
	stages, ok := r.modules[module]
	if !ok {
		return nil, stageErrorf(ErrResolution, name, PhaseBuild, nil, "unknown module %q", module)
	}
	f, ok := stages[name]
	if !ok {
		return nil, stageErrorf(ErrResolution, name, PhaseBuild, nil, "module %q has no stage %q", module, name)
	}
	return f, nil
}

func (r *Registry) Modules() []string {
	out := make([]string, 0, len(r.modules))
	for m := range r.modules {
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}
