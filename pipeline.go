package mimicmotion

import "sync"

// Device identifies the compute device pipeline components are placed on
type Device string

const (
	DeviceCUDA Device = "cuda"
	DeviceCPU  Device = "cpu"
	DeviceMPS  Device = "mps"
)

// GenerateParams are the arguments passed to the opaque diffusion pipeline
// for a single sampling run
type GenerateParams struct {
	// RefImage is the conditioning reference image, [-1,1] CHW
	RefImage Tensor
	// PoseImages are the aligned pose conditioning frames, [-1,1] CHW
	PoseImages []Tensor
	// NumFrames is the number of output frames, equal to len(PoseImages)
	NumFrames int
	// TileSize is the temporal tile length used during denoising
	TileSize int
	// TileOverlap is the frame overlap between consecutive temporal tiles
	TileOverlap int
	// Height and Width of the output frames
	Height int
	Width  int
	// FPS conditioning value
	FPS int
	// NoiseAugStrength is the noise augmentation applied to the reference
	NoiseAugStrength float64
	// NumInferenceSteps is the denoising step count
	NumInferenceSteps int
	// Seed initializes the noise generator
	Seed uint64
	// MinGuidanceScale and MaxGuidanceScale define the guidance schedule
	// applied across the denoising trajectory
	MinGuidanceScale float64
	MaxGuidanceScale float64
	// DecodeChunkSize is the number of latent frames decoded per VAE call
	DecodeChunkSize int
	// Device the pipeline runs on
	Device Device
}

// Generator is the opaque video diffusion pipeline.  Implementations wrap an
// external denoising backend, this library never looks inside it.  Generate
// returns one output tensor per pose image, CHW layout with values in [0,1].
// Any failure is fatal and surfaced to the caller unmodified
type Generator interface {
	Generate(params GenerateParams) ([]Tensor, error)
	Close() error
}

// Model is a loaded pipeline handle as produced by the Loader and consumed
// by the Sampler.  A Model is not safe for concurrent use, callers must
// serialize access to a given handle
type Model struct {
	// Generator is the constructed diffusion pipeline
	Generator Generator
	// Precision the pipeline components were placed at
	Precision Precision
	// Device the pipeline components were placed on
	Device Device
	// Variant is the checkpoint file name the pipeline was loaded from
	Variant string

	// release tears the handle down, set by the Loader
	release func() error
	close   sync.Once
}

// Release frees the loaded pipeline.  When the Model is held in a ModelCache
// it is evicted from the cache as well.  Safe to call multiple times
func (m *Model) Release() error {

	var err error

	m.close.Do(func() {
		if m.release != nil {
			err = m.release()
			return
		}

		if m.Generator != nil {
			err = m.Generator.Close()
		}
	})

	return err
}
