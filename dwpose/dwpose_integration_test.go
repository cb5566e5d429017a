//go:build integration
// +build integration

package dwpose

import (
	"os"
	"testing"

	"gocv.io/x/gocv"
)

func TestDWPoseDetect(t *testing.T) {

	detModel := os.Getenv("DWPOSE_DET_MODEL")

	if detModel == "" {
		t.Fatalf("No detection model file provided in DWPOSE_DET_MODEL")
	}

	poseModel := os.Getenv("DWPOSE_POSE_MODEL")

	if poseModel == "" {
		t.Fatalf("No pose model file provided in DWPOSE_POSE_MODEL")
	}

	imgFile := os.Getenv("DWPOSE_IMAGE")

	if imgFile == "" {
		t.Fatalf("No image file provided in DWPOSE_IMAGE")
	}

	cfg := DefaultConfig(detModel, poseModel)
	cfg.OrtLibPath = os.Getenv("DWPOSE_ORT_LIB")

	det, err := NewDWPose(cfg)

	if err != nil {
		t.Fatalf("NewDWPose failed: %v", err)
	}

	defer det.Close()

	// load image
	img := gocv.IMRead(imgFile, gocv.IMReadColor)

	if img.Empty() {
		t.Fatalf("Error reading image from: %s", imgFile)
	}

	defer img.Close()

	pose, err := det.Detect(img)

	if err != nil {
		t.Fatalf("Detect error: %v", err)
	}

	people := len(pose.Bodies.Score)

	if people == 0 {
		t.Fatalf("no person detected in %s", imgFile)
	}

	if len(pose.Bodies.Candidate) != people*NumBodyPoints {
		t.Fatalf("candidate rows %d do not match %d people",
			len(pose.Bodies.Candidate), people)
	}

	if len(pose.Hands) != people*2 || len(pose.Faces) != people {
		t.Fatalf("got %d hand and %d face groups for %d people",
			len(pose.Hands), len(pose.Faces), people)
	}

	// present landmarks carry normalized coordinates, absent ones -1
	for i, p := range pose.Bodies.Candidate {

		if p.X == -1 && p.Y == -1 {
			continue
		}

		if p.X < 0 || p.X > 1 || p.Y < 0 || p.Y > 1 {
			t.Errorf("landmark %d: coordinates (%v, %v) out of [0,1]", i, p.X, p.Y)
		}
	}

	for n := 0; n < people; n++ {
		if len(pose.Bodies.Score[n]) != NumBodyPoints {
			t.Errorf("person %d: %d score entries, want %d",
				n, len(pose.Bodies.Score[n]), NumBodyPoints)
		}
	}
}
