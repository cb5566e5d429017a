package dwpose

import (
	"gocv.io/x/gocv"
)

// Detector produces whole body keypoints for a single image.  Images are
// 8-bit 3 channel BGR Mats in the [0,255] pixel range
type Detector interface {
	// Detect analyzes the image and returns the detected keypoints
	Detect(img gocv.Mat) (Pose, error)

	// Close releases any resources held by the detector
	Close() error
}

// batchDetector is implemented by detectors that can process a frame
// sequence themselves, eg: the Pool which fans frames out over several
// detector instances
type batchDetector interface {
	DetectAll(frames []gocv.Mat) ([]Pose, error)
}

// detectAll runs the detector over every frame.  Frames are processed
// sequentially in input order unless the detector provides its own ordered
// batch implementation
func detectAll(det Detector, frames []gocv.Mat) ([]Pose, error) {

	if bd, ok := det.(batchDetector); ok {
		return bd.DetectAll(frames)
	}

	poses := make([]Pose, len(frames))

	for i, frame := range frames {
		pose, err := det.Detect(frame)

		if err != nil {
			return nil, err
		}

		poses[i] = pose
	}

	return poses, nil
}

// DrawOptions control which skeleton parts are rendered.  They affect
// drawing only, never the alignment computation
type DrawOptions struct {
	Body bool
	Hand bool
	Face bool
}

// DrawAll returns options with every skeleton part enabled
func DrawAll() DrawOptions {
	return DrawOptions{
		Body: true,
		Hand: true,
		Face: true,
	}
}

// Renderer rasterizes a pose into a skeleton image of the given dimensions
type Renderer interface {
	DrawPose(pose Pose, height, width int, opts DrawOptions) (gocv.Mat, error)
}
