package nodes

import (
	mimicmotion "github.com/poseworks/go-mimicmotion"
)

// SamplerNode feeds the reference image and aligned pose images into the
// loaded pipeline and returns the generated frames
type SamplerNode struct{}

// Spec describes the node to the host
func (n *SamplerNode) Spec() NodeSpec {
	return NodeSpec{
		ClassName:  "MimicMotionSampler",
		Category:   Category,
		ReturnType: "IMAGE",
		ReturnName: "images",
		Params: []ParamSpec{
			{Name: "mimic_pipeline", Kind: KindModel},
			{Name: "ref_image", Kind: KindImage},
			{Name: "pose_images", Kind: KindImage},
			{Name: "steps", Kind: KindInt, Default: 25,
				Min: mimicmotion.MinSteps, Max: mimicmotion.MaxSteps, Step: 1},
			{Name: "cfg_min", Kind: KindFloat, Default: 2.0,
				Min: mimicmotion.MinCFG, Max: mimicmotion.MaxCFG, Step: 0.01},
			{Name: "cfg_max", Kind: KindFloat, Default: 2.0,
				Min: mimicmotion.MinCFG, Max: mimicmotion.MaxCFG, Step: 0.01},
			{Name: "seed", Kind: KindInt, Default: 0,
				Min: 0, Max: float64(^uint64(0))},
			{Name: "fps", Kind: KindInt, Default: 15,
				Min: mimicmotion.MinFPS, Max: mimicmotion.MaxFPS, Step: 1},
			{Name: "noise_aug_strength", Kind: KindFloat, Default: 0.0,
				Min: mimicmotion.MinNoiseAug, Max: mimicmotion.MaxNoiseAug, Step: 0.01},
			{Name: "keep_model_loaded", Kind: KindBool, Default: true},
		},
	}
}

// Process clamps the host supplied parameters to the node's declared ranges
// and runs the sampler
func (n *SamplerNode) Process(model *mimicmotion.Model,
	refImage mimicmotion.Frame, poseImages []mimicmotion.Frame,
	params mimicmotion.SamplerParams) ([]mimicmotion.Frame, error) {

	params.Steps = clampInt(params.Steps, mimicmotion.MinSteps, mimicmotion.MaxSteps)
	params.CFGMin = clampFloat(params.CFGMin, mimicmotion.MinCFG, mimicmotion.MaxCFG)
	params.CFGMax = clampFloat(params.CFGMax, mimicmotion.MinCFG, mimicmotion.MaxCFG)
	params.FPS = clampInt(params.FPS, mimicmotion.MinFPS, mimicmotion.MaxFPS)
	params.NoiseAugStrength = clampFloat(params.NoiseAugStrength,
		mimicmotion.MinNoiseAug, mimicmotion.MaxNoiseAug)

	return mimicmotion.Sample(model, refImage, poseImages, params)
}
