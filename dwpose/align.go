package dwpose

import (
	"gonum.org/v1/gonum/stat"
)

// Affine holds the per axis linear mapping that rescales driving sequence
// coordinates into the reference image's coordinate frame
type Affine struct {
	// AX and AY are the scales per axis
	AX float64
	AY float64
	// BX and BY are the offsets per axis
	BX float64
	BY float64
}

// Apply maps a single point through the affine
func (a Affine) Apply(p Point) Point {
	return Point{
		X: a.AX*p.X + a.BX,
		Y: a.AY*p.Y + a.BY,
	}
}

// applyAll maps a point slice through the affine, returning a new slice
func (a Affine) applyAll(pts []Point) []Point {

	out := make([]Point, len(pts))

	for i, p := range pts {
		out[i] = a.Apply(p)
	}

	return out
}

// applyGroups maps grouped point slices (hands, faces) through the affine
func (a Affine) applyGroups(groups [][]Point) [][]Point {

	out := make([][]Point, len(groups))

	for i, g := range groups {
		out[i] = a.applyAll(g)
	}

	return out
}

// referenceIndices selects the correspondence basis from the reference pose:
// the stable body landmarks whose detection confidence in the first detected
// person exceeds the landmark threshold.  The same index set must be reused
// when extracting the matching landmarks from every driving frame
func referenceIndices(ref Pose) ([]int, error) {

	idx := make([]int, 0, len(stableLandmarks))

	for _, i := range stableLandmarks {
		if len(ref.Bodies.Score) > 0 && ref.Bodies.Score[0][i] > minLandmarkScore {
			idx = append(idx, i)
		}
	}

	if len(idx) == 0 {
		return nil, ErrInsufficientKeypoints
	}

	return idx, nil
}

// FitAffine fits the rescale mapping from the driving sequence onto the
// reference pose.  Only driving frames with a complete body detection
// contribute to the fit.  The vertical scale and offset come from a pooled
// least squares fit over all fitting correspondences, the horizontal scale
// is the vertical scale corrected for the aspect ratio difference between
// the driving frames and the reference canvas, and the horizontal offset is
// the mean residual.  Frame dimensions are taken from the first driving
// frame only
func FitAffine(ref Pose, driving []Pose, refWidth, refHeight,
	frameWidth, frameHeight int) (Affine, error) {

	idx, err := referenceIndices(ref)

	if err != nil {
		return Affine{}, err
	}

	// pool correspondences across every driving frame with a complete body
	// detection.  the target for each fitting frame is the same reference
	// landmark subset
	var drivingX, drivingY, targetX, targetY []float64

	for _, pose := range driving {
		if len(pose.Bodies.Candidate) != NumBodyPoints {
			continue
		}

		for _, i := range idx {
			drivingX = append(drivingX, pose.Bodies.Candidate[i].X)
			drivingY = append(drivingY, pose.Bodies.Candidate[i].Y)
			targetX = append(targetX, ref.Bodies.Candidate[i].X)
			targetY = append(targetY, ref.Bodies.Candidate[i].Y)
		}
	}

	if len(drivingY) == 0 {
		return Affine{}, ErrIncompleteFittingSet
	}

	if !hasSpread(drivingY) {
		return Affine{}, ErrDegenerateFit
	}

	// degree-1 least squares fit of reference y against driving y
	by, ay := stat.LinearRegression(drivingY, targetY, nil, false)

	// correct the horizontal scale for the aspect ratio difference between
	// the driving frame shape and the reference canvas
	ratio := float64(frameHeight) / float64(frameWidth) /
		float64(refHeight) * float64(refWidth)
	ax := ay / ratio

	// horizontal offset is the mean residual once the scale is applied
	resid := make([]float64, len(drivingX))

	for i := range drivingX {
		resid[i] = targetX[i] - drivingX[i]*ax
	}

	bx := stat.Mean(resid, nil)

	return Affine{
		AX: ax,
		AY: ay,
		BX: bx,
		BY: by,
	}, nil
}

// hasSpread reports whether the values are not all identical
func hasSpread(vals []float64) bool {

	for _, v := range vals[1:] {
		if v != vals[0] {
			return true
		}
	}

	return false
}

// Rescale maps a detected pose through the affine: body candidates, hand
// points and face points alike.  The input pose is left untouched
func (a Affine) Rescale(pose Pose) Pose {

	return Pose{
		Bodies: Bodies{
			Candidate: a.applyAll(pose.Bodies.Candidate),
			Score:     pose.Bodies.Score,
		},
		Hands: a.applyGroups(pose.Hands),
		Faces: a.applyGroups(pose.Faces),
	}
}
