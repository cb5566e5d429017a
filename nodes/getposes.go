package nodes

import (
	"path/filepath"
	"sync"

	"gocv.io/x/gocv"

	mimicmotion "github.com/poseworks/go-mimicmotion"
	"github.com/poseworks/go-mimicmotion/dwpose"
	"github.com/poseworks/go-mimicmotion/render"
)

// DWPose model files and the registry repository they are fetched from
const (
	dwposeRepo      = "yzd-v/DWPose"
	yoloModelFile   = "yolox_l.onnx"
	dwPoseModelFile = "dw-ll_ucoco_384.onnx"
)

// GetPosesNode extracts keypoints from a reference image and a driving
// frame sequence, rescales the driving poses onto the reference subject and
// returns the rendered skeleton image sequence, reference rendering first.
// The DWPose detector is constructed lazily on first use and cached for the
// node's lifetime
type GetPosesNode struct {
	// ModelsDir the DWPose ONNX models are stored in, fetched if absent
	ModelsDir string
	// OrtLibPath optionally points at the onnxruntime shared library
	OrtLibPath string
	// Hub used to fetch absent models, the default hub when nil
	Hub *mimicmotion.Hub

	once sync.Once
	det  *dwpose.DWPose
	err  error
}

// Spec describes the node to the host
func (n *GetPosesNode) Spec() NodeSpec {
	return NodeSpec{
		ClassName:  "MimicMotionGetPoses",
		Category:   Category,
		ReturnType: "IMAGE",
		ReturnName: "images",
		Params: []ParamSpec{
			{Name: "ref_image", Kind: KindImage},
			{Name: "pose_images", Kind: KindImage},
			{Name: "include_body", Kind: KindBool, Default: true},
			{Name: "include_hand", Kind: KindBool, Default: true},
			{Name: "include_face", Kind: KindBool, Default: true},
		},
	}
}

// detector returns the node's DWPose detector, ensuring the model files
// exist locally and constructing it on first use
func (n *GetPosesNode) detector() (*dwpose.DWPose, error) {

	n.once.Do(func() {
		hub := n.Hub

		if hub == nil {
			hub = mimicmotion.NewHub()
		}

		modelDir := filepath.Join(n.ModelsDir, "DWPose")

		detPath, err := hub.EnsureFile(dwposeRepo, yoloModelFile, modelDir)

		if err != nil {
			n.err = err
			return
		}

		posePath, err := hub.EnsureFile(dwposeRepo, dwPoseModelFile, modelDir)

		if err != nil {
			n.err = err
			return
		}

		cfg := dwpose.DefaultConfig(detPath, posePath)
		cfg.OrtLibPath = n.OrtLibPath

		n.det, n.err = dwpose.NewDWPose(cfg)
	})

	return n.det, n.err
}

// Process extracts, aligns and renders the pose sequence
func (n *GetPosesNode) Process(refImage gocv.Mat, poseImages []gocv.Mat,
	includeBody, includeHand, includeFace bool) ([]gocv.Mat, error) {

	det, err := n.detector()

	if err != nil {
		return nil, err
	}

	extractor := dwpose.NewExtractor(det, render.NewSkeleton())

	return extractor.ExtractAndAlign(refImage, poseImages, dwpose.DrawOptions{
		Body: includeBody,
		Hand: includeHand,
		Face: includeFace,
	})
}

// Close releases the cached detector
func (n *GetPosesNode) Close() error {

	if n.det != nil {
		return n.det.Close()
	}

	return nil
}
