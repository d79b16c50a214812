package provider

import (
	"fmt"
	"sort"
	"sync"
)

// ProcessorRegistry manages payment processor implementations
type ProcessorRegistry struct {
	processors map[string]ProcessorFactory
	mu         sync.RWMutex
}

// NewProcessorRegistry creates a new processor registry
func NewProcessorRegistry() *ProcessorRegistry {
	return &ProcessorRegistry{
		processors: make(map[string]ProcessorFactory),
	}
}

// Register adds a processor factory to the registry
func (r *ProcessorRegistry) Register(name string, factory ProcessorFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.processors[name] = factory
}

// Get retrieves a processor factory by name
func (r *ProcessorRegistry) Get(name string) (ProcessorFactory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	factory, exists := r.processors[name]
	if !exists {
		return nil, fmt.Errorf("payment processor '%s' is not registered", name)
	}

	return factory, nil
}

// Open creates a processor and initializes it with the given configuration.
// The caller owns the returned processor and must Close it.
func (r *ProcessorRegistry) Open(name string, config map[string]string) (Processor, error) {
	factory, err := r.Get(name)
	if err != nil {
		return nil, err
	}

	processor := factory()
	if err := processor.ValidateConfig(config); err != nil {
		return nil, err
	}
	if err := processor.Initialize(config); err != nil {
		return nil, err
	}
	return processor, nil
}

// Names returns the sorted names of all registered processors
func (r *ProcessorRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.processors))
	for name := range r.processors {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// DefaultRegistry is the global default processor registry
var DefaultRegistry = NewProcessorRegistry()

// Register registers a processor with the default registry
func Register(name string, factory ProcessorFactory) {
	DefaultRegistry.Register(name, factory)
}

// Open creates and initializes a processor from the default registry
func Open(name string, config map[string]string) (Processor, error) {
	return DefaultRegistry.Open(name, config)
}
