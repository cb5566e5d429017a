package mimicmotion

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
)

const (
	// DefaultModelRepo is the registry repository holding the pruned
	// MimicMotion checkpoints
	DefaultModelRepo = "Kijai/MimicMotion_pruned"
	// DefaultVariant is the default checkpoint variant file
	DefaultVariant = "MimicMotion-fp16.safetensors"
	// baseModelName is the stable video diffusion base model directory the
	// pipeline is constructed from.  It is too large to auto-fetch and must
	// be provided by the user
	baseModelName = "stable-video-diffusion-img2vid-xt-1-1"
)

// BuildConfig carries the resolved inputs a PipelineBuilder needs to
// construct the diffusion pipeline
type BuildConfig struct {
	// CheckpointPath is the local path of the MimicMotion checkpoint
	CheckpointPath string
	// BaseModelDir is the local stable video diffusion model directory
	BaseModelDir string
	// Device to place pipeline components on
	Device Device
	// Precision to place pipeline components at
	Precision Precision
}

// PipelineBuilder constructs the opaque diffusion pipeline from resolved
// checkpoint files.  The backend is an external collaborator injected by the
// caller
type PipelineBuilder interface {
	Build(cfg BuildConfig) (Generator, error)
}

// LoaderConfig holds the model loader configuration
type LoaderConfig struct {
	// ModelsDir is the directory MimicMotion checkpoints are stored in
	ModelsDir string
	// Variant is the checkpoint variant file name, DefaultVariant when empty
	Variant string
	// BaseModelDir is the stable video diffusion model directory.  When
	// empty it defaults to <ModelsDir>/../diffusers/<base model name>
	BaseModelDir string
	// Device to load onto
	Device Device
	// Precision to load at
	Precision Precision
	// Hub used to fetch an absent checkpoint.  When nil an absent checkpoint
	// is an error
	Hub *Hub
	// Cache keeps loaded handles resident.  When nil every Load constructs a
	// new pipeline and Release closes it directly
	Cache *ModelCache
}

// Loader resolves checkpoint files and constructs pipeline handles
type Loader struct {
	cfg     LoaderConfig
	builder PipelineBuilder
}

// NewLoader returns a Loader using the given pipeline builder
func NewLoader(cfg LoaderConfig, builder PipelineBuilder) (*Loader, error) {

	if builder == nil {
		return nil, fmt.Errorf("pipeline builder is required")
	}

	if cfg.ModelsDir == "" {
		return nil, fmt.Errorf("models directory is required")
	}

	if cfg.Variant == "" {
		cfg.Variant = DefaultVariant
	}

	if cfg.BaseModelDir == "" {
		cfg.BaseModelDir = filepath.Join(filepath.Dir(cfg.ModelsDir),
			"diffusers", baseModelName)
	}

	if cfg.Device == "" {
		cfg.Device = DeviceCUDA
	}

	return &Loader{
		cfg:     cfg,
		builder: builder,
	}, nil
}

// Load resolves the checkpoint files, constructs the pipeline and returns
// the loaded handle.  When a cache is configured a resident handle for the
// same variant and precision is returned without reloading
func (l *Loader) Load() (*Model, error) {

	key := cacheKey(l.cfg.Variant, l.cfg.Precision)

	if l.cfg.Cache != nil {
		if m, ok := l.cfg.Cache.Get(key); ok {
			return m, nil
		}
	}

	ckptPath := filepath.Join(l.cfg.ModelsDir, l.cfg.Variant)

	if _, err := os.Stat(ckptPath); err != nil {
		if l.cfg.Hub == nil {
			return nil, fmt.Errorf("%w: %s", ErrNoDownloader, ckptPath)
		}

		ckptPath, err = l.cfg.Hub.EnsureFile(DefaultModelRepo, l.cfg.Variant,
			l.cfg.ModelsDir)

		if err != nil {
			return nil, err
		}
	}

	// the base model cannot be auto-fetched
	if _, err := os.Stat(l.cfg.BaseModelDir); err != nil {
		return nil, fmt.Errorf("%w: please download %s to %s",
			ErrMissingDependency, baseModelName, l.cfg.BaseModelDir)
	}

	log.Printf("loading model from: %s", ckptPath)

	gen, err := l.builder.Build(BuildConfig{
		CheckpointPath: ckptPath,
		BaseModelDir:   l.cfg.BaseModelDir,
		Device:         l.cfg.Device,
		Precision:      l.cfg.Precision,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to build pipeline: %w", err)
	}

	model := &Model{
		Generator: gen,
		Precision: l.cfg.Precision,
		Device:    l.cfg.Device,
		Variant:   l.cfg.Variant,
	}

	if l.cfg.Cache != nil {
		cache := l.cfg.Cache
		model.release = func() error {
			cache.Evict(key)
			return gen.Close()
		}
		cache.Put(key, model)
	}

	return model, nil
}
