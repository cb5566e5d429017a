package dwpose

import (
	"errors"
	"math"
	"testing"
)

// floatsNear compares two values within epsilon
func floatsNear(a, b, epsilon float64) bool {
	return math.Abs(a-b) <= epsilon
}

// testPose builds a single person pose where the landmarks at the given
// indices carry the supplied coordinates and a confident score, and every
// other landmark carries a zero score
func testPose(idx []int, pts []Point) Pose {

	candidate := make([]Point, NumBodyPoints)
	score := make([]float64, NumBodyPoints)

	for i, id := range idx {
		candidate[id] = pts[i]
		score[id] = 0.9
	}

	return Pose{
		Bodies: Bodies{
			Candidate: candidate,
			Score:     [][]float64{score},
		},
	}
}

// scalePose returns a copy of the pose with every candidate coordinate
// scaled
func scalePose(p Pose, sx, sy float64) Pose {

	candidate := make([]Point, len(p.Bodies.Candidate))

	for i, pt := range p.Bodies.Candidate {
		candidate[i] = Point{X: pt.X * sx, Y: pt.Y * sy}
	}

	return Pose{
		Bodies: Bodies{
			Candidate: candidate,
			Score:     p.Bodies.Score,
		},
	}
}

func TestReferenceIndicesFiltering(t *testing.T) {

	// confident landmarks at nose, neck and right shoulder only
	ref := testPose([]int{Nose, Neck, RShoulder},
		[]Point{{X: 20, Y: 100}, {X: 40, Y: 150}, {X: 60, Y: 200}})

	idx, err := referenceIndices(ref)

	if err != nil {
		t.Fatalf("referenceIndices failed: %v", err)
	}

	want := []int{Nose, Neck, RShoulder}

	if len(idx) != len(want) {
		t.Fatalf("got %d indices, want %d", len(idx), len(want))
	}

	for i := range want {
		if idx[i] != want[i] {
			t.Errorf("index %d is %d, want %d", i, idx[i], want[i])
		}
	}

	// repeated calls yield the identical set
	again, err := referenceIndices(ref)

	if err != nil {
		t.Fatalf("second referenceIndices failed: %v", err)
	}

	for i := range idx {
		if idx[i] != again[i] {
			t.Fatalf("index set not stable across calls")
		}
	}
}

func TestReferenceIndicesExcludesUnstableLandmarks(t *testing.T) {

	// a confident wrist is not part of the stable landmark set
	ref := testPose([]int{Nose, RWrist},
		[]Point{{X: 20, Y: 100}, {X: 90, Y: 300}})

	idx, err := referenceIndices(ref)

	if err != nil {
		t.Fatalf("referenceIndices failed: %v", err)
	}

	if len(idx) != 1 || idx[0] != Nose {
		t.Fatalf("got indices %v, want [%d]", idx, Nose)
	}
}

func TestReferenceIndicesEmpty(t *testing.T) {

	// no detected people at all
	_, err := referenceIndices(Pose{})

	if !errors.Is(err, ErrInsufficientKeypoints) {
		t.Fatalf("got error %v, want ErrInsufficientKeypoints", err)
	}
}

func TestFitAffineHalfScaleDriving(t *testing.T) {

	// reference landmarks at y 100,150,200 and a driving frame at half
	// scale should fit a vertical scale of 2 with no offset
	ref := testPose([]int{Nose, Neck, RShoulder},
		[]Point{{X: 20, Y: 100}, {X: 40, Y: 150}, {X: 60, Y: 200}})

	driving := testPose([]int{Nose, Neck, RShoulder},
		[]Point{{X: 10, Y: 50}, {X: 20, Y: 75}, {X: 30, Y: 100}})

	a, err := FitAffine(ref, []Pose{driving}, 512, 512, 512, 512)

	if err != nil {
		t.Fatalf("FitAffine failed: %v", err)
	}

	if !floatsNear(a.AY, 2.0, 1e-9) {
		t.Errorf("AY = %f, want 2.0", a.AY)
	}

	if !floatsNear(a.BY, 0.0, 1e-9) {
		t.Errorf("BY = %f, want 0.0", a.BY)
	}

	// square frames and canvas, so the horizontal scale matches the
	// vertical and the x offset vanishes too
	if !floatsNear(a.AX, 2.0, 1e-9) {
		t.Errorf("AX = %f, want 2.0", a.AX)
	}

	if !floatsNear(a.BX, 0.0, 1e-9) {
		t.Errorf("BX = %f, want 0.0", a.BX)
	}
}

func TestFitAffineIdentity(t *testing.T) {

	// identical reference and driving poses fit the identity map
	ref := testPose([]int{Nose, Neck, RShoulder, LShoulder},
		[]Point{{X: 0.2, Y: 0.1}, {X: 0.3, Y: 0.4}, {X: 0.25, Y: 0.45}, {X: 0.35, Y: 0.42}})

	frames := []Pose{ref, ref, ref}

	a, err := FitAffine(ref, frames, 768, 1024, 768, 1024)

	if err != nil {
		t.Fatalf("FitAffine failed: %v", err)
	}

	for name, got := range map[string]float64{"AX": a.AX, "AY": a.AY} {
		if !floatsNear(got, 1.0, 1e-9) {
			t.Errorf("%s = %f, want 1.0", name, got)
		}
	}

	for name, got := range map[string]float64{"BX": a.BX, "BY": a.BY} {
		if !floatsNear(got, 0.0, 1e-9) {
			t.Errorf("%s = %f, want 0.0", name, got)
		}
	}
}

func TestFitAffineDuplicationInvariant(t *testing.T) {

	// the pooled fit must not change when the driving sequence repeats one
	// frame many times
	ref := testPose([]int{Nose, Neck, RShoulder},
		[]Point{{X: 0.2, Y: 0.2}, {X: 0.4, Y: 0.5}, {X: 0.5, Y: 0.6}})

	driving := testPose([]int{Nose, Neck, RShoulder},
		[]Point{{X: 0.1, Y: 0.15}, {X: 0.3, Y: 0.35}, {X: 0.35, Y: 0.4}})

	single, err := FitAffine(ref, []Pose{driving}, 512, 512, 640, 480)

	if err != nil {
		t.Fatalf("single frame fit failed: %v", err)
	}

	repeated := make([]Pose, 20)

	for i := range repeated {
		repeated[i] = driving
	}

	many, err := FitAffine(ref, repeated, 512, 512, 640, 480)

	if err != nil {
		t.Fatalf("repeated fit failed: %v", err)
	}

	if !floatsNear(single.AX, many.AX, 1e-9) || !floatsNear(single.AY, many.AY, 1e-9) ||
		!floatsNear(single.BX, many.BX, 1e-9) || !floatsNear(single.BY, many.BY, 1e-9) {
		t.Fatalf("fit changed under duplication: single %+v, repeated %+v", single, many)
	}
}

func TestFitAffineInverseScaling(t *testing.T) {

	// scaling all driving y coordinates by k scales the fitted vertical
	// scale by 1/k
	ref := testPose([]int{Nose, Neck, RShoulder},
		[]Point{{X: 0.2, Y: 0.2}, {X: 0.4, Y: 0.5}, {X: 0.5, Y: 0.6}})

	driving := testPose([]int{Nose, Neck, RShoulder},
		[]Point{{X: 0.1, Y: 0.15}, {X: 0.3, Y: 0.35}, {X: 0.35, Y: 0.4}})

	base, err := FitAffine(ref, []Pose{driving}, 512, 512, 512, 512)

	if err != nil {
		t.Fatalf("base fit failed: %v", err)
	}

	k := 3.0

	scaled, err := FitAffine(ref, []Pose{scalePose(driving, 1, k)},
		512, 512, 512, 512)

	if err != nil {
		t.Fatalf("scaled fit failed: %v", err)
	}

	if !floatsNear(scaled.AY, base.AY/k, 1e-9) {
		t.Errorf("scaled AY = %f, want %f", scaled.AY, base.AY/k)
	}
}

func TestFitAffineSkipsIncompleteFrames(t *testing.T) {

	ref := testPose([]int{Nose, Neck, RShoulder},
		[]Point{{X: 0.2, Y: 0.2}, {X: 0.4, Y: 0.5}, {X: 0.5, Y: 0.6}})

	complete := testPose([]int{Nose, Neck, RShoulder},
		[]Point{{X: 0.1, Y: 0.15}, {X: 0.3, Y: 0.35}, {X: 0.35, Y: 0.4}})

	// a frame with a truncated candidate list must not contribute
	incomplete := Pose{
		Bodies: Bodies{
			Candidate: make([]Point, NumBodyPoints-3),
			Score:     [][]float64{make([]float64, NumBodyPoints)},
		},
	}

	// a two person frame is also excluded from the fit
	twoPeople := Pose{
		Bodies: Bodies{
			Candidate: make([]Point, NumBodyPoints*2),
			Score: [][]float64{make([]float64, NumBodyPoints),
				make([]float64, NumBodyPoints)},
		},
	}

	withExtras, err := FitAffine(ref,
		[]Pose{incomplete, complete, twoPeople}, 512, 512, 512, 512)

	if err != nil {
		t.Fatalf("fit with extras failed: %v", err)
	}

	alone, err := FitAffine(ref, []Pose{complete}, 512, 512, 512, 512)

	if err != nil {
		t.Fatalf("fit alone failed: %v", err)
	}

	if withExtras != alone {
		t.Fatalf("incomplete frames influenced the fit: %+v vs %+v",
			withExtras, alone)
	}
}

func TestFitAffineNoCompleteFrames(t *testing.T) {

	ref := testPose([]int{Nose, Neck},
		[]Point{{X: 0.2, Y: 0.2}, {X: 0.4, Y: 0.5}})

	incomplete := Pose{
		Bodies: Bodies{
			Candidate: make([]Point, NumBodyPoints-1),
			Score:     [][]float64{make([]float64, NumBodyPoints)},
		},
	}

	_, err := FitAffine(ref, []Pose{incomplete}, 512, 512, 512, 512)

	if !errors.Is(err, ErrIncompleteFittingSet) {
		t.Fatalf("got error %v, want ErrIncompleteFittingSet", err)
	}

	// an empty driving sequence fails the same way
	_, err = FitAffine(ref, nil, 512, 512, 512, 512)

	if !errors.Is(err, ErrIncompleteFittingSet) {
		t.Fatalf("empty sequence: got error %v, want ErrIncompleteFittingSet", err)
	}
}

func TestFitAffineDegenerate(t *testing.T) {

	ref := testPose([]int{Nose, Neck},
		[]Point{{X: 0.2, Y: 0.2}, {X: 0.4, Y: 0.5}})

	// all driving y coordinates identical leaves the scale unsolvable
	flat := testPose([]int{Nose, Neck},
		[]Point{{X: 0.1, Y: 0.3}, {X: 0.4, Y: 0.3}})

	_, err := FitAffine(ref, []Pose{flat}, 512, 512, 512, 512)

	if !errors.Is(err, ErrDegenerateFit) {
		t.Fatalf("got error %v, want ErrDegenerateFit", err)
	}
}

func TestFitAffineAspectCorrection(t *testing.T) {

	ref := testPose([]int{Nose, Neck, RShoulder},
		[]Point{{X: 0.2, Y: 0.2}, {X: 0.4, Y: 0.5}, {X: 0.5, Y: 0.6}})

	driving := testPose([]int{Nose, Neck, RShoulder},
		[]Point{{X: 0.1, Y: 0.15}, {X: 0.3, Y: 0.35}, {X: 0.35, Y: 0.4}})

	// 1280x720 driving frames onto a 512x768 reference canvas
	a, err := FitAffine(ref, []Pose{driving}, 512, 768, 1280, 720)

	if err != nil {
		t.Fatalf("FitAffine failed: %v", err)
	}

	ratio := 720.0 / 1280.0 / 768.0 * 512.0

	if !floatsNear(a.AX, a.AY/ratio, 1e-12) {
		t.Errorf("AX = %f, want AY/ratio = %f", a.AX, a.AY/ratio)
	}
}

func TestAffineRescale(t *testing.T) {

	a := Affine{AX: 2, AY: 3, BX: 0.5, BY: -1}

	pose := Pose{
		Bodies: Bodies{
			Candidate: []Point{{X: 1, Y: 1}},
			Score:     [][]float64{{0.9}},
		},
		Hands: [][]Point{{{X: 2, Y: 2}}},
		Faces: [][]Point{{{X: 3, Y: 3}}},
	}

	out := a.Rescale(pose)

	if got := out.Bodies.Candidate[0]; got != (Point{X: 2.5, Y: 2}) {
		t.Errorf("body point = %+v, want {2.5 2}", got)
	}

	if got := out.Hands[0][0]; got != (Point{X: 4.5, Y: 5}) {
		t.Errorf("hand point = %+v, want {4.5 5}", got)
	}

	if got := out.Faces[0][0]; got != (Point{X: 6.5, Y: 8}) {
		t.Errorf("face point = %+v, want {6.5 8}", got)
	}

	// the source pose must be untouched
	if pose.Bodies.Candidate[0] != (Point{X: 1, Y: 1}) {
		t.Errorf("source pose was mutated")
	}
}
