// Package nodes exposes the library's three stages as plugin nodes for a
// node graph host: model loading, pose extraction and sampling.  Each node
// publishes a typed parameter specification the host uses to build its
// editor widgets, and a typed Process method the host graph invokes.
package nodes

import (
	"fmt"
	"sort"
	"sync"
)

// Category all nodes are published under in the host's node menu
const Category = "MimicMotionWrapper"

// ParamKind is the host widget type of a node parameter
type ParamKind int

const (
	KindInt ParamKind = iota
	KindFloat
	KindBool
	KindChoice
	KindImage
	KindModel
)

// ParamSpec describes one node parameter to the host
type ParamSpec struct {
	// Name of the parameter
	Name string
	// Kind of widget the host renders
	Kind ParamKind
	// Default value
	Default interface{}
	// Min and Max bound numeric parameters
	Min float64
	Max float64
	// Step of the host's numeric widget
	Step float64
	// Choices for KindChoice parameters
	Choices []string
}

// NodeSpec describes a node class to the host
type NodeSpec struct {
	// ClassName the host graph refers to the node by
	ClassName string
	// Category in the host's node menu
	Category string
	// ReturnType and ReturnName of the node's single output
	ReturnType string
	ReturnName string
	// Params are the node's input parameters
	Params []ParamSpec
}

// Node is a plugin node that can describe itself to the host
type Node interface {
	Spec() NodeSpec
}

// Registry maps node class names to node instances
type Registry struct {
	mu    sync.RWMutex
	nodes map[string]Node
}

// NewRegistry returns an empty registry
func NewRegistry() *Registry {
	return &Registry{
		nodes: make(map[string]Node),
	}
}

// Register adds a node under its class name.  Registering the same class
// twice is an error
func (r *Registry) Register(n Node) error {

	class := n.Spec().ClassName

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.nodes[class]; ok {
		return fmt.Errorf("node class %q already registered", class)
	}

	r.nodes[class] = n

	return nil
}

// Lookup returns the node registered under the class name
func (r *Registry) Lookup(class string) (Node, bool) {

	r.mu.RLock()
	defer r.mu.RUnlock()

	n, ok := r.nodes[class]
	return n, ok
}

// Classes returns the registered class names in sorted order
func (r *Registry) Classes() []string {

	r.mu.RLock()
	defer r.mu.RUnlock()

	classes := make([]string, 0, len(r.nodes))

	for class := range r.nodes {
		classes = append(classes, class)
	}

	sort.Strings(classes)

	return classes
}

// defaultRegistry holds the nodes this package publishes to the host
var defaultRegistry = NewRegistry()

func init() {
	for _, n := range []Node{
		&LoadModelNode{},
		&SamplerNode{},
		&GetPosesNode{},
	} {
		if err := defaultRegistry.Register(n); err != nil {
			panic(err)
		}
	}
}

// Default returns the registry holding this package's nodes
func Default() *Registry {
	return defaultRegistry
}

// clampInt restricts an int parameter to the node's declared range
func clampInt(val, min, max int) int {

	if val < min {
		return min
	}

	if val > max {
		return max
	}

	return val
}

// clampFloat restricts a float parameter to the node's declared range
func clampFloat(val, min, max float64) float64 {

	if val < min {
		return min
	}

	if val > max {
		return max
	}

	return val
}
