// Package dwpose provides whole body keypoint detection and the pose
// rescaling used to map driving video motion onto a reference subject's
// proportions.
package dwpose

/* body keypoints, OpenPose 18 point schema
0: Nose
1: Neck
2: Right Shoulder
3: Right Elbow
4: Right Wrist
5: Left Shoulder
6: Left Elbow
7: Left Wrist
8: Right Hip
9: Right Knee
10: Right Ankle
11: Left Hip
12: Left Knee
13: Left Ankle
14: Right Eye
15: Left Eye
16: Right Ear
17: Left Ear
*/

const (
	Nose      = 0
	Neck      = 1
	RShoulder = 2
	RElbow    = 3
	RWrist    = 4
	LShoulder = 5
	LElbow    = 6
	LWrist    = 7
	RHip      = 8
	RKnee     = 9
	RAnkle    = 10
	LHip      = 11
	LKnee     = 12
	LAnkle    = 13
	REye      = 14
	LEye      = 15
	REar      = 16
	LEar      = 17

	// NumBodyPoints is the full canonical body landmark count.  A detection
	// is complete when its candidate rows hold exactly one person with all
	// landmarks present
	NumBodyPoints = 18

	// HandPoints is the landmark count per detected hand
	HandPoints = 21
	// FacePoints is the landmark count per detected face
	FacePoints = 68
)

var (
	// stableLandmarks are the anatomically stable body landmark indices used
	// as the correspondence basis when fitting the rescale mapping
	stableLandmarks = []int{Nose, Neck, RShoulder, LShoulder, RHip, LHip,
		REye, LEye, REar, LEar}
)

// minLandmarkScore is the detection confidence below which a landmark is
// treated as absent
const minLandmarkScore = 0.3

// Point is a 2D keypoint location.  Coordinates are normalized to [0,1] by
// the source image width and height.  Absent landmarks carry negative
// coordinates
type Point struct {
	X float64
	Y float64
}

// Bodies holds the body keypoints of all people detected in one image.
// Candidate is the flattened landmark rows, NumBodyPoints per person, and
// Score holds the per person, per landmark detection confidences
type Bodies struct {
	Candidate []Point
	Score     [][]float64
}

// Pose is the full detection result for one image
type Pose struct {
	Bodies Bodies
	// Hands are the detected hand landmark groups, HandPoints each, two per
	// person (left then right)
	Hands [][]Point
	// Faces are the detected face landmark groups, FacePoints each
	Faces [][]Point
}
