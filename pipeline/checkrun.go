package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Outputs declares a stage's cached outputs: context key to file name
// relative to the stage output directory.
type Outputs map[string]string

func (o Outputs) keys() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// ComputeFunc produces one value per declared output key.
type ComputeFunc func() (map[string]any, error)

// CheckRun either restores the declared outputs from disk or runs compute and
// persists its results. Either way each key in the data context ends up bound
// to a *Lazy reading the file under the stage output directory.
//
// The cache is fresh only when every declared file exists and recompute is
// off; the decision is all-or-nothing across the declaration.
func (b *Base) CheckRun(outputs Outputs, compute ComputeFunc) error {
	if len(outputs) == 0 {
		return stageErrorf(ErrContractViolation, b.Name, PhaseRun, nil, "no outputs declared")
	}
	for _, key := range outputs.keys() {
		file := outputs[key]
		if file == "" || filepath.IsAbs(file) || !filepath.IsLocal(file) {
			return stageErrorf(ErrContractViolation, b.Name, PhaseRun, nil,
				"output %q has invalid file name %q", key, file)
		}
	}

	fresh, err := b.outputsPresent(outputs)
	if err != nil {
		return err
	}
	if b.Recompute() || !fresh {
		b.Log.Infof("Computing %s (recompute=%t)", b.Name, b.Recompute())
		if err := b.computeAndPersist(outputs, compute); err != nil {
			return err
		}
	} else {
		b.Log.Infof("Loading cached outputs of %s (%s)", b.Name, outputs)
	}
	b.bindLoaders(outputs)
	return nil
}

func (b *Base) outputPath(file string) string {
	return filepath.Join(b.OutDir, file)
}

func (b *Base) outputsPresent(outputs Outputs) (bool, error) {
	for _, key := range outputs.keys() {
		_, err := os.Stat(b.outputPath(outputs[key]))
		if os.IsNotExist(err) {
			return false, nil
		}
		if err != nil {
			return false, stageErrorf(ErrCacheRead, b.Name, PhaseLoad, err, "checking output %q", key)
		}
	}
	return true, nil
}

func (b *Base) computeAndPersist(outputs Outputs, compute ComputeFunc) error {
	results, err := compute()
	if err != nil {
		return err
	}
	var missing, extra []string
	for _, key := range outputs.keys() {
		if _, ok := results[key]; !ok {
			missing = append(missing, key)
		}
	}
	for key := range results {
		if _, ok := outputs[key]; !ok {
			extra = append(extra, key)
		}
	}
	if len(missing) > 0 || len(extra) > 0 {
		sort.Strings(extra)
		return stageErrorf(ErrContractViolation, b.Name, PhaseRun, nil,
			"missing keys [%s], undeclared keys [%s]", strings.Join(missing, ", "), strings.Join(extra, ", "))
	}
	return b.persist(outputs, results)
}

// persist encodes every value to a temp file first and renames only once all
// encodes succeeded, so a failure leaves none of this invocation's files.
func (b *Base) persist(outputs Outputs, results map[string]any) error {
	temps := make(map[string]string, len(outputs))
	cleanup := func() {
		for _, tmp := range temps {
			os.Remove(tmp)
		}
	}

	for _, key := range outputs.keys() {
		tmp, err := b.writeTemp(outputs[key], results[key])
		if err != nil {
			cleanup()
			return stageErrorf(ErrCacheWrite, b.Name, PhasePersist, err, "writing output %q", key)
		}
		temps[key] = tmp
	}

	var renamed []string
	for _, key := range outputs.keys() {
		dst := b.outputPath(outputs[key])
		if err := os.Rename(temps[key], dst); err != nil {
			cleanup()
			for _, p := range renamed {
				os.Remove(p)
			}
			return stageErrorf(ErrCacheWrite, b.Name, PhasePersist, err, "renaming output %q", key)
		}
		delete(temps, key)
		renamed = append(renamed, dst)
		b.Log.Debugf("Saved %s", dst)
	}
	return nil
}

func (b *Base) writeTemp(file string, v any) (string, error) {
	dst := b.outputPath(file)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", err
	}
	f, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*.tmp")
	if err != nil {
		return "", err
	}
	if err := b.Codec.Encode(f, v); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", err
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", err
	}
	return f.Name(), nil
}

func (b *Base) bindLoaders(outputs Outputs) {
	for _, key := range outputs.keys() {
		key, path := key, b.outputPath(outputs[key])
		b.Data.Set(key, NewLazy(func() (any, error) {
			return b.load(key, path)
		}))
	}
}

func (b *Base) load(key, path string) (any, error) {
	b.Log.Debugf("Loading %s", path)
	f, err := os.Open(path)
	if err != nil {
		return nil, stageErrorf(ErrCacheRead, b.Name, PhaseLoad, err, "opening output %q", key)
	}
	defer f.Close()
	v, err := b.Codec.Decode(f)
	if err != nil {
		return nil, stageErrorf(ErrCacheRead, b.Name, PhaseLoad, err, "decoding output %q", key)
	}
	return v, nil
}

// Preload forces every bound loader of outputs, surfacing unreadable
// artifacts immediately instead of at first access downstream.
func (b *Base) Preload(outputs Outputs) error {
	for _, key := range outputs.keys() {
		if _, err := b.Data.Value(key); err != nil {
			return err
		}
	}
	return nil
}

func (o Outputs) String() string {
	parts := make([]string, 0, len(o))
	for _, k := range o.keys() {
		parts = append(parts, fmt.Sprintf("%s=%s", k, o[k]))
	}
	return strings.Join(parts, ",")
}
