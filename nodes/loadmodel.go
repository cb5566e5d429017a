package nodes

import (
	mimicmotion "github.com/poseworks/go-mimicmotion"
)

// LoadModelNode resolves the MimicMotion checkpoint, downloading it if
// absent, constructs the diffusion pipeline through the configured builder
// and returns the loaded handle
type LoadModelNode struct {
	// Builder constructs the opaque diffusion pipeline
	Builder mimicmotion.PipelineBuilder
	// ModelsDir the checkpoints are stored in
	ModelsDir string
	// BaseModelDir overrides the stable video diffusion model location
	BaseModelDir string
	// Device to load onto, cuda when empty
	Device mimicmotion.Device
	// Hub used to fetch absent checkpoints, the default hub when nil
	Hub *mimicmotion.Hub
	// Cache keeps loaded handles resident between runs
	Cache *mimicmotion.ModelCache
}

// Spec describes the node to the host
func (n *LoadModelNode) Spec() NodeSpec {
	return NodeSpec{
		ClassName:  "DownloadAndLoadMimicMotionModel",
		Category:   Category,
		ReturnType: "MIMICPIPE",
		ReturnName: "mimic_pipeline",
		Params: []ParamSpec{
			{
				Name:    "model",
				Kind:    KindChoice,
				Default: mimicmotion.DefaultVariant,
				Choices: []string{mimicmotion.DefaultVariant},
			},
			{
				Name:    "precision",
				Kind:    KindChoice,
				Default: "fp16",
				Choices: []string{"fp32", "fp16", "bf16"},
			},
		},
	}
}

// Process loads the model variant at the requested precision
func (n *LoadModelNode) Process(model, precision string) (*mimicmotion.Model, error) {

	prec, err := mimicmotion.ParsePrecision(precision)

	if err != nil {
		return nil, err
	}

	hub := n.Hub

	if hub == nil {
		hub = mimicmotion.NewHub()
	}

	loader, err := mimicmotion.NewLoader(mimicmotion.LoaderConfig{
		ModelsDir:    n.ModelsDir,
		Variant:      model,
		BaseModelDir: n.BaseModelDir,
		Device:       n.Device,
		Precision:    prec,
		Hub:          hub,
		Cache:        n.Cache,
	}, n.Builder)

	if err != nil {
		return nil, err
	}

	return loader.Load()
}
