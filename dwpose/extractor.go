package dwpose

import (
	"fmt"

	"gocv.io/x/gocv"
)

// Extractor detects keypoints in a reference image and a driving frame
// sequence, rescales the driving poses onto the reference subject's
// proportions and renders the aligned skeleton images.  It holds no state
// between calls, every extraction recomputes the reference pose and fit from
// scratch
type Extractor struct {
	det  Detector
	rend Renderer
}

// NewExtractor returns an Extractor using the given detector and renderer
func NewExtractor(det Detector, rend Renderer) *Extractor {
	return &Extractor{
		det:  det,
		rend: rend,
	}
}

// ExtractAndAlign detects keypoints on the reference image and every driving
// frame, fits the rescale mapping from the driving sequence onto the
// reference pose, reprojects every driving frame's body, hand and face
// keypoints through it and renders each pose at the reference image's
// resolution.  The returned sequence is the unmodified reference rendering
// followed by one rendering per driving frame in input order, so its length
// is always 1 + len(frames)
func (e *Extractor) ExtractAndAlign(refImage gocv.Mat, frames []gocv.Mat,
	opts DrawOptions) ([]gocv.Mat, error) {

	if refImage.Empty() {
		return nil, fmt.Errorf("reference image is empty")
	}

	if len(frames) == 0 {
		return nil, ErrIncompleteFittingSet
	}

	refPose, err := e.det.Detect(refImage)

	if err != nil {
		return nil, fmt.Errorf("reference detection failed: %w", err)
	}

	height := refImage.Rows()
	width := refImage.Cols()

	poses, err := detectAll(e.det, frames)

	if err != nil {
		return nil, fmt.Errorf("driving detection failed: %w", err)
	}

	// frame shape for the aspect correction comes from the first driving
	// frame only
	affine, err := FitAffine(refPose, poses, width, height,
		frames[0].Cols(), frames[0].Rows())

	if err != nil {
		return nil, err
	}

	out := make([]gocv.Mat, 0, len(frames)+1)

	refImg, err := e.rend.DrawPose(refPose, height, width, opts)

	if err != nil {
		return nil, err
	}

	out = append(out, refImg)

	// every frame is reprojected, including those excluded from the fit
	for _, pose := range poses {
		img, err := e.rend.DrawPose(affine.Rescale(pose), height, width, opts)

		if err != nil {
			closeMats(out)
			return nil, err
		}

		out = append(out, img)
	}

	return out, nil
}

// closeMats frees a partially built output sequence
func closeMats(mats []gocv.Mat) {
	for i := range mats {
		_ = mats[i].Close()
	}
}
