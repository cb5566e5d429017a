package dwpose

import (
	"fmt"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
	"gocv.io/x/gocv"
)

// person detector input size for yolox_l
const (
	detInputWidth  = 640
	detInputHeight = 640
)

// openposeFromUCOCO reorders the UCOCO body keypoints (with the synthesized
// neck appended at index 17) into the OpenPose 18 point schema
var openposeFromUCOCO = [NumBodyPoints]int{
	0, 17, 6, 8, 10, 5, 7, 9, 12, 14, 16, 11, 13, 15, 2, 1, 4, 3,
}

// UCOCO whole body layout offsets once the neck has been inserted after the
// 17 body points
const (
	ucocoFaceStart  = 24
	ucocoLHandStart = 92
	ucocoRHandStart = 113
)

// Config holds the DWPose detector configuration
type Config struct {
	// DetModelPath is the yolox_l person detection ONNX model file
	DetModelPath string
	// PoseModelPath is the dw-ll_ucoco_384 pose estimation ONNX model file
	PoseModelPath string
	// OrtLibPath optionally points at the onnxruntime shared library.  When
	// empty the platform default lookup is used
	OrtLibPath string
	// yolox post processing parameters
	yolox yoloxParams
}

// DefaultConfig returns a Config for the standard DWPose model pair
func DefaultConfig(detModelPath, poseModelPath string) Config {
	return Config{
		DetModelPath:  detModelPath,
		PoseModelPath: poseModelPath,
		yolox:         defaultYOLOXParams(),
	}
}

// ortInit guards one time initialization of the onnxruntime environment
var ortInit sync.Once

// initORT initializes the shared onnxruntime environment
func initORT(libPath string) error {

	var err error

	ortInit.Do(func() {
		if libPath != "" {
			ort.SetSharedLibraryPath(libPath)
		}

		err = ort.InitializeEnvironment()
	})

	return err
}

// DWPose is a whole body keypoint detector: a yolox_l person detector
// followed by a dw-ll_ucoco_384 SimCC pose model run on each detected
// person.  Not safe for concurrent use, wrap instances in a Pool for
// parallel detection
type DWPose struct {
	cfg Config

	// person detection session
	detSession *ort.AdvancedSession
	detInput   *ort.Tensor[float32]
	detOutput  *ort.Tensor[float32]

	// pose estimation session
	poseSession *ort.AdvancedSession
	poseInput   *ort.Tensor[float32]
	simccX      *ort.Tensor[float32]
	simccY      *ort.Tensor[float32]

	// scratch Mats reused between frames
	resizer *letterBox
	detMat  gocv.Mat
	cropMat gocv.Mat
}

// NewDWPose creates a DWPose detector from the given model files
func NewDWPose(cfg Config) (*DWPose, error) {

	if cfg.yolox.Strides == nil {
		cfg.yolox = defaultYOLOXParams()
	}

	if err := initORT(cfg.OrtLibPath); err != nil {
		return nil, fmt.Errorf("failed to initialize onnxruntime: %w", err)
	}

	d := &DWPose{
		cfg:     cfg,
		resizer: newLetterBox(detInputWidth, detInputHeight),
		detMat:  gocv.NewMat(),
		cropMat: gocv.NewMatWithSize(poseInputHeight, poseInputWidth, gocv.MatTypeCV8UC3),
	}

	var err error

	// grid cells across all strides
	detRows := 0

	for _, stride := range cfg.yolox.Strides {
		detRows += (detInputWidth / stride) * (detInputHeight / stride)
	}

	d.detInput, err = ort.NewEmptyTensor[float32](
		ort.NewShape(1, 3, detInputHeight, detInputWidth))

	if err != nil {
		return nil, err
	}

	d.detOutput, err = ort.NewEmptyTensor[float32](
		ort.NewShape(1, int64(detRows), int64(5+cfg.yolox.ObjectClassNum)))

	if err != nil {
		_ = d.Close()
		return nil, err
	}

	d.detSession, err = ort.NewAdvancedSession(cfg.DetModelPath,
		[]string{"images"}, []string{"output"},
		[]ort.ArbitraryTensor{d.detInput},
		[]ort.ArbitraryTensor{d.detOutput}, nil)

	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("failed to load detection model %s: %w",
			cfg.DetModelPath, err)
	}

	d.poseInput, err = ort.NewEmptyTensor[float32](
		ort.NewShape(1, 3, poseInputHeight, poseInputWidth))

	if err != nil {
		_ = d.Close()
		return nil, err
	}

	d.simccX, err = ort.NewEmptyTensor[float32](
		ort.NewShape(1, wholeBodyPoints, poseInputWidth*simccSplitRatio))

	if err != nil {
		_ = d.Close()
		return nil, err
	}

	d.simccY, err = ort.NewEmptyTensor[float32](
		ort.NewShape(1, wholeBodyPoints, poseInputHeight*simccSplitRatio))

	if err != nil {
		_ = d.Close()
		return nil, err
	}

	d.poseSession, err = ort.NewAdvancedSession(cfg.PoseModelPath,
		[]string{"input"}, []string{"simcc_x", "simcc_y"},
		[]ort.ArbitraryTensor{d.poseInput},
		[]ort.ArbitraryTensor{d.simccX, d.simccY}, nil)

	if err != nil {
		_ = d.Close()
		return nil, fmt.Errorf("failed to load pose model %s: %w",
			cfg.PoseModelPath, err)
	}

	return d, nil
}

// Close releases the ONNX sessions and scratch buffers
func (d *DWPose) Close() error {

	if d.detSession != nil {
		_ = d.detSession.Destroy()
	}

	if d.poseSession != nil {
		_ = d.poseSession.Destroy()
	}

	for _, t := range []*ort.Tensor[float32]{d.detInput, d.detOutput,
		d.poseInput, d.simccX, d.simccY} {
		if t != nil {
			_ = t.Destroy()
		}
	}

	_ = d.resizer.Close()
	_ = d.detMat.Close()

	return d.cropMat.Close()
}

// Detect runs person detection then pose estimation on each detected person
// and returns the assembled whole body keypoints.  Keypoint coordinates are
// normalized to [0,1] by the image dimensions, landmarks below the
// confidence threshold are marked absent with coordinate -1
func (d *DWPose) Detect(img gocv.Mat) (Pose, error) {

	if img.Empty() {
		return Pose{}, fmt.Errorf("input image is empty")
	}

	boxes, err := d.detectPersons(img)

	if err != nil {
		return Pose{}, err
	}

	pose := Pose{}

	for _, box := range boxes {
		points, scores, err := d.estimatePose(img, box)

		if err != nil {
			return Pose{}, err
		}

		appendPerson(&pose, points, scores, img.Cols(), img.Rows())
	}

	return pose, nil
}

// detectPersons runs the yolox model over the letterboxed image
func (d *DWPose) detectPersons(img gocv.Mat) ([]boxRect, error) {

	d.resizer.Resize(img, &d.detMat)

	// yolox consumes the raw BGR bytes without normalization
	fillCHW(d.detMat, d.detInput.GetData(), false, nil, nil)

	if err := d.detSession.Run(); err != nil {
		return nil, fmt.Errorf("person detection failed: %w", err)
	}

	return d.cfg.yolox.decodePersons(d.detOutput.GetData(),
		detInputWidth, detInputHeight, d.resizer.ScaleFactor(),
		img.Cols(), img.Rows()), nil
}

// estimatePose runs the SimCC pose model over one person crop and returns
// the whole body keypoints in source image coordinates
func (d *DWPose) estimatePose(img gocv.Mat, box boxRect) ([]Point, []float64, error) {

	region := cropFromBox(box)

	if err := warpCrop(img, region, &d.cropMat); err != nil {
		return nil, nil, err
	}

	// the pose model expects normalized RGB input
	fillCHW(d.cropMat, d.poseInput.GetData(), true, &poseMean, &poseStd)

	if err := d.poseSession.Run(); err != nil {
		return nil, nil, fmt.Errorf("pose estimation failed: %w", err)
	}

	points, scores := decodeSimCC(d.simccX.GetData(), d.simccY.GetData())

	return region.toImageSpace(points), scores, nil
}

// fillCHW writes an 8-bit 3 channel Mat into a channel first float32 tensor
// buffer, optionally swapping BGR to RGB and normalizing with per channel
// mean and standard deviation
func fillCHW(img gocv.Mat, buf []float32, toRGB bool, mean, std *[3]float32) {

	data := img.ToBytes()

	rows := img.Rows()
	cols := img.Cols()
	plane := rows * cols

	for i := 0; i < plane; i++ {

		b := float32(data[i*3+0])
		g := float32(data[i*3+1])
		r := float32(data[i*3+2])

		c0, c1, c2 := b, g, r

		if toRGB {
			c0, c1, c2 = r, g, b
		}

		if mean != nil {
			c0 = (c0 - mean[0]) / std[0]
			c1 = (c1 - mean[1]) / std[1]
			c2 = (c2 - mean[2]) / std[2]
		}

		buf[i] = c0
		buf[plane+i] = c1
		buf[2*plane+i] = c2
	}
}

// appendPerson converts one person's UCOCO keypoints into the OpenPose
// layout and appends them to the pose: 18 body rows plus score row, left and
// right hand groups and the face group.  Coordinates are normalized by the
// image dimensions
func appendPerson(pose *Pose, points []Point, scores []float64, imgW, imgH int) {

	// synthesize the neck as the shoulder midpoint.  it is only considered
	// present when both shoulders are
	neck := Point{
		X: (points[5].X + points[6].X) / 2,
		Y: (points[5].Y + points[6].Y) / 2,
	}

	neckScore := scores[5]

	if scores[6] < neckScore {
		neckScore = scores[6]
	}

	// insert neck after the 17 body points
	full := make([]Point, 0, len(points)+1)
	full = append(full, points[:17]...)
	full = append(full, neck)
	full = append(full, points[17:]...)

	fullScores := make([]float64, 0, len(scores)+1)
	fullScores = append(fullScores, scores[:17]...)
	fullScores = append(fullScores, neckScore)
	fullScores = append(fullScores, scores[17:]...)

	norm := func(p Point, score float64) Point {
		if score < minLandmarkScore {
			return Point{X: -1, Y: -1}
		}
		return Point{
			X: p.X / float64(imgW),
			Y: p.Y / float64(imgH),
		}
	}

	bodyScores := make([]float64, NumBodyPoints)

	for i, src := range openposeFromUCOCO {
		pose.Bodies.Candidate = append(pose.Bodies.Candidate,
			norm(full[src], fullScores[src]))
		bodyScores[i] = fullScores[src]
	}

	pose.Bodies.Score = append(pose.Bodies.Score, bodyScores)

	lhand := make([]Point, HandPoints)
	rhand := make([]Point, HandPoints)

	for i := 0; i < HandPoints; i++ {
		lhand[i] = norm(full[ucocoLHandStart+i], fullScores[ucocoLHandStart+i])
		rhand[i] = norm(full[ucocoRHandStart+i], fullScores[ucocoRHandStart+i])
	}

	pose.Hands = append(pose.Hands, lhand, rhand)

	face := make([]Point, FacePoints)

	for i := 0; i < FacePoints; i++ {
		face[i] = norm(full[ucocoFaceStart+i], fullScores[ucocoFaceStart+i])
	}

	pose.Faces = append(pose.Faces, face)
}
