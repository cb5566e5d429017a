package mimicmotion

import (
	"errors"
	"strings"
	"testing"
)

// fakeGenerator records the params it was called with and returns canned
// frames
type fakeGenerator struct {
	params  GenerateParams
	calls   int
	frames  []Tensor
	err     error
	closed  bool
	nFrames int
}

func (g *fakeGenerator) Generate(params GenerateParams) ([]Tensor, error) {

	g.params = params
	g.calls++

	if g.err != nil {
		return nil, g.err
	}

	if g.frames != nil {
		return g.frames, nil
	}

	n := g.nFrames

	if n == 0 {
		n = len(params.PoseImages)
	}

	out := make([]Tensor, n)

	for i := range out {
		out[i] = Tensor{
			Data:     make([]float32, 3*params.Height*params.Width),
			Channels: 3,
			Height:   params.Height,
			Width:    params.Width,
		}
	}

	return out, nil
}

func (g *fakeGenerator) Close() error {
	g.closed = true
	return nil
}

// testModel returns a loaded model backed by a fake generator
func testModel(gen *fakeGenerator) *Model {
	return &Model{
		Generator: gen,
		Precision: PrecisionFP32,
		Device:    DeviceCPU,
		Variant:   DefaultVariant,
	}
}

// testFrames builds n identical frames of the given size
func testFrames(t *testing.T, n, h, w int) []Frame {

	t.Helper()

	frames := make([]Frame, n)

	for i := range frames {
		f, err := NewFrame(h, w)

		if err != nil {
			t.Fatalf("NewFrame failed: %v", err)
		}

		frames[i] = f
	}

	return frames
}

func TestSampleFrameCountAndTiling(t *testing.T) {

	gen := &fakeGenerator{}
	model := testModel(gen)

	ref := testFrames(t, 1, 8, 6)[0]
	poses := testFrames(t, 5, 8, 6)

	p := DefaultSamplerParams()
	p.Steps = 25
	p.CFGMin = 2.0
	p.CFGMax = 2.0

	out, err := Sample(model, ref, poses, p)

	if err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	// output count equals the driving sequence length, no reference frame
	// prepended
	if len(out) != len(poses) {
		t.Fatalf("got %d frames, want %d", len(out), len(poses))
	}

	// output values stay in [0,1]
	for i, frame := range out {
		for y := 0; y < frame.Height(); y++ {
			for x := 0; x < frame.Width(); x++ {
				for c := 0; c < FrameChannels; c++ {
					v := frame.At(y, x, c)
					if v < 0 || v > 1 {
						t.Fatalf("frame %d value %f out of [0,1]", i, v)
					}
				}
			}
		}
	}

	// fixed internal tiling parameters reach the pipeline unchanged
	if gen.params.TileSize != 16 || gen.params.TileOverlap != 6 ||
		gen.params.DecodeChunkSize != 8 {
		t.Errorf("tiling params = (%d,%d,%d), want (16,6,8)",
			gen.params.TileSize, gen.params.TileOverlap,
			gen.params.DecodeChunkSize)
	}

	if gen.params.NumFrames != len(poses) {
		t.Errorf("NumFrames = %d, want %d", gen.params.NumFrames, len(poses))
	}

	if gen.params.NumInferenceSteps != 25 {
		t.Errorf("steps = %d, want 25", gen.params.NumInferenceSteps)
	}

	if gen.params.MinGuidanceScale != 2.0 || gen.params.MaxGuidanceScale != 2.0 {
		t.Errorf("guidance = (%f,%f), want (2,2)",
			gen.params.MinGuidanceScale, gen.params.MaxGuidanceScale)
	}
}

func TestSampleConditioningRange(t *testing.T) {

	gen := &fakeGenerator{}
	model := testModel(gen)

	ref := testFrames(t, 1, 2, 2)[0]

	// a mid gray reference maps to 0 in conditioning space
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			for c := 0; c < FrameChannels; c++ {
				ref.Set(y, x, c, 0.5)
			}
		}
	}

	poses := testFrames(t, 1, 2, 2)

	if _, err := Sample(model, ref, poses, DefaultSamplerParams()); err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	for _, v := range gen.params.RefImage.Data {
		if v != 0 {
			t.Fatalf("reference conditioning value %f, want 0", v)
		}
	}

	// black pose images map to -1
	for _, v := range gen.params.PoseImages[0].Data {
		if v != -1 {
			t.Fatalf("pose conditioning value %f, want -1", v)
		}
	}
}

func TestSampleParamValidation(t *testing.T) {

	gen := &fakeGenerator{}
	model := testModel(gen)

	ref := testFrames(t, 1, 4, 4)[0]
	poses := testFrames(t, 1, 4, 4)

	cases := []struct {
		name   string
		mutate func(*SamplerParams)
	}{
		{"steps too low", func(p *SamplerParams) { p.Steps = 0 }},
		{"steps too high", func(p *SamplerParams) { p.Steps = 201 }},
		{"cfg_min negative", func(p *SamplerParams) { p.CFGMin = -0.1 }},
		{"cfg_max too high", func(p *SamplerParams) { p.CFGMax = 20.5 }},
		{"fps too low", func(p *SamplerParams) { p.FPS = 1 }},
		{"fps too high", func(p *SamplerParams) { p.FPS = 101 }},
		{"noise aug too high", func(p *SamplerParams) { p.NoiseAugStrength = 10.5 }},
	}

	for _, tc := range cases {
		p := DefaultSamplerParams()
		tc.mutate(&p)

		if _, err := Sample(model, ref, poses, p); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}

	if gen.calls != 0 {
		t.Errorf("pipeline ran %d times on invalid params", gen.calls)
	}
}

func TestSampleSizeMismatch(t *testing.T) {

	gen := &fakeGenerator{}
	model := testModel(gen)

	ref := testFrames(t, 1, 4, 4)[0]
	poses := testFrames(t, 1, 8, 8)

	_, err := Sample(model, ref, poses, DefaultSamplerParams())

	if err == nil || !strings.Contains(err.Error(), "does not match") {
		t.Fatalf("got error %v, want size mismatch", err)
	}
}

func TestSamplePipelineErrorPropagates(t *testing.T) {

	genErr := errors.New("cuda out of memory")
	gen := &fakeGenerator{err: genErr}
	model := testModel(gen)

	ref := testFrames(t, 1, 4, 4)[0]
	poses := testFrames(t, 2, 4, 4)

	_, err := Sample(model, ref, poses, DefaultSamplerParams())

	// surfaced unmodified, no retry
	if !errors.Is(err, genErr) {
		t.Fatalf("got error %v, want pipeline error", err)
	}

	if gen.calls != 1 {
		t.Fatalf("pipeline ran %d times, want 1", gen.calls)
	}
}

func TestSampleWrongFrameCount(t *testing.T) {

	gen := &fakeGenerator{nFrames: 3}
	model := testModel(gen)

	ref := testFrames(t, 1, 4, 4)[0]
	poses := testFrames(t, 2, 4, 4)

	if _, err := Sample(model, ref, poses, DefaultSamplerParams()); err == nil {
		t.Fatal("expected error on frame count mismatch")
	}
}

func TestSampleKeepModelLoaded(t *testing.T) {

	gen := &fakeGenerator{}
	model := testModel(gen)

	ref := testFrames(t, 1, 4, 4)[0]
	poses := testFrames(t, 1, 4, 4)

	p := DefaultSamplerParams()
	p.KeepModelLoaded = true

	if _, err := Sample(model, ref, poses, p); err != nil {
		t.Fatalf("Sample failed: %v", err)
	}

	if gen.closed {
		t.Fatal("model released despite keep_model_loaded")
	}

	p.KeepModelLoaded = false

	if _, err := Sample(model, ref, poses, p); err != nil {
		t.Fatalf("second Sample failed: %v", err)
	}

	if !gen.closed {
		t.Fatal("model not released with keep_model_loaded disabled")
	}
}
