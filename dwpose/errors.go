package dwpose

import "errors"

var (
	// ErrInsufficientKeypoints occurs when the reference image yields no
	// stable body landmark above the confidence threshold, so there is no
	// correspondence basis to fit the rescale mapping from
	ErrInsufficientKeypoints = errors.New("reference pose has no usable keypoints")

	// ErrIncompleteFittingSet occurs when no driving frame holds a complete
	// body detection, leaving the rescale fit without data.  An empty
	// driving sequence fails the same way
	ErrIncompleteFittingSet = errors.New("no driving frame has a complete body detection")

	// ErrDegenerateFit occurs when the pooled driving keypoints have no
	// vertical spread, making the least squares scale unsolvable
	ErrDegenerateFit = errors.New("driving keypoints are degenerate, cannot fit rescale")
)
