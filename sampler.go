package mimicmotion

import (
	"fmt"
)

// fixed internal tiling parameters passed to the generation pipeline
const (
	tileSize        = 16
	tileOverlap     = 6
	decodeChunkSize = 8
)

// parameter ranges enforced for host supplied sampler values
const (
	MinSteps    = 1
	MaxSteps    = 200
	MinCFG      = 0.0
	MaxCFG      = 20.0
	MinFPS      = 2
	MaxFPS      = 100
	MinNoiseAug = 0.0
	MaxNoiseAug = 10.0
)

// SamplerParams are the host exposed sampling parameters
type SamplerParams struct {
	// Steps is the denoising step count, range [1,200]
	Steps int
	// CFGMin and CFGMax define the guidance scale schedule, range [0,20]
	CFGMin float64
	CFGMax float64
	// Seed initializes the noise generator
	Seed uint64
	// FPS conditioning value, range [2,100]
	FPS int
	// NoiseAugStrength applied to the reference image, range [0,10]
	NoiseAugStrength float64
	// KeepModelLoaded keeps the pipeline resident after the run
	KeepModelLoaded bool
}

// DefaultSamplerParams returns the host node's default sampling parameters
func DefaultSamplerParams() SamplerParams {
	return SamplerParams{
		Steps:            25,
		CFGMin:           2.0,
		CFGMax:           2.0,
		Seed:             0,
		FPS:              15,
		NoiseAugStrength: 0.0,
		KeepModelLoaded:  true,
	}
}

// Validate checks the parameters against the host's allowed ranges
func (p SamplerParams) Validate() error {

	if p.Steps < MinSteps || p.Steps > MaxSteps {
		return fmt.Errorf("steps %d out of range [%d,%d]", p.Steps, MinSteps, MaxSteps)
	}

	if p.CFGMin < MinCFG || p.CFGMin > MaxCFG {
		return fmt.Errorf("cfg_min %.2f out of range [%.1f,%.1f]", p.CFGMin, MinCFG, MaxCFG)
	}

	if p.CFGMax < MinCFG || p.CFGMax > MaxCFG {
		return fmt.Errorf("cfg_max %.2f out of range [%.1f,%.1f]", p.CFGMax, MinCFG, MaxCFG)
	}

	if p.FPS < MinFPS || p.FPS > MaxFPS {
		return fmt.Errorf("fps %d out of range [%d,%d]", p.FPS, MinFPS, MaxFPS)
	}

	if p.NoiseAugStrength < MinNoiseAug || p.NoiseAugStrength > MaxNoiseAug {
		return fmt.Errorf("noise_aug_strength %.2f out of range [%.1f,%.1f]",
			p.NoiseAugStrength, MinNoiseAug, MaxNoiseAug)
	}

	return nil
}

// Sample feeds the reference image and aligned pose image sequence into the
// loaded pipeline and returns the generated frame sequence.  The output
// count equals the pose image count, no reference frame is prepended.  Any
// failure inside the pipeline is fatal and surfaced unmodified, there are no
// retries
func Sample(model *Model, refImage Frame, poseImages []Frame,
	p SamplerParams) ([]Frame, error) {

	if model == nil || model.Generator == nil {
		return nil, fmt.Errorf("no pipeline loaded")
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	if len(poseImages) == 0 {
		return nil, fmt.Errorf("no pose images supplied")
	}

	height := poseImages[0].Height()
	width := poseImages[0].Width()

	if refImage.Height() != height || refImage.Width() != width {
		return nil, fmt.Errorf("reference image %dx%d does not match pose images %dx%d",
			refImage.Width(), refImage.Height(), width, height)
	}

	for i, img := range poseImages {
		if img.Height() != height || img.Width() != width {
			return nil, fmt.Errorf("pose image %d is %dx%d, want %dx%d",
				i, img.Width(), img.Height(), width, height)
		}
	}

	// normalize conditioning inputs to [-1,1] channel first at the model's
	// precision
	poseCond := make([]Tensor, len(poseImages))

	for i, img := range poseImages {
		poseCond[i] = img.Conditioning(model.Precision)
	}

	frames, err := model.Generator.Generate(GenerateParams{
		RefImage:          refImage.Conditioning(model.Precision),
		PoseImages:        poseCond,
		NumFrames:         len(poseImages),
		TileSize:          tileSize,
		TileOverlap:       tileOverlap,
		Height:            height,
		Width:             width,
		FPS:               p.FPS,
		NoiseAugStrength:  p.NoiseAugStrength,
		NumInferenceSteps: p.Steps,
		Seed:              p.Seed,
		MinGuidanceScale:  p.CFGMin,
		MaxGuidanceScale:  p.CFGMax,
		DecodeChunkSize:   decodeChunkSize,
		Device:            model.Device,
	})

	if err != nil {
		return nil, err
	}

	if len(frames) != len(poseImages) {
		return nil, fmt.Errorf("pipeline returned %d frames, want %d",
			len(frames), len(poseImages))
	}

	out := make([]Frame, len(frames))

	for i, t := range frames {
		out[i], err = frameFromTensor(t)

		if err != nil {
			return nil, fmt.Errorf("pipeline output frame %d: %w", i, err)
		}
	}

	if !p.KeepModelLoaded {
		_ = model.Release()
	}

	return out, nil
}
