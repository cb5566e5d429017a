// Package render rasterizes detected poses into skeleton images.
package render

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/poseworks/go-mimicmotion/dwpose"
)

var (
	// limbSeq defines the body skeleton limbs to draw lines between as
	// pairs of 1-based OpenPose joint numbers, so (2,3) means draw a line
	// from the neck to the right shoulder
	limbSeq = [34]int{2, 3, 2, 6, 3, 4, 4, 5, 6, 7, 7, 8, 2, 9, 9, 10,
		10, 11, 2, 12, 12, 13, 13, 14, 2, 1, 1, 15, 15, 16, 1, 17, 1, 18}

	// handEdges defines the finger segments to draw per hand as pairs of
	// hand landmark indices
	handEdges = [40]int{0, 1, 1, 2, 2, 3, 3, 4, 0, 5, 5, 6, 6, 7, 7, 8,
		0, 9, 9, 10, 10, 11, 11, 12, 0, 13, 13, 14, 14, 15, 15, 16,
		0, 17, 17, 18, 18, 19, 19, 20}

	// minDrawScore is the landmark confidence below which body joints and
	// limbs are not drawn
	minDrawScore = 0.3
)

// Skeleton renders poses as OpenPose style skeleton drawings on a black
// canvas.  It implements the dwpose Renderer interface
type Skeleton struct {
	// LineThickness of limb and finger lines
	LineThickness int
	// JointRadius of body joint circles
	JointRadius int
	// FaceRadius of face landmark dots
	FaceRadius int
}

// NewSkeleton returns a Skeleton with the standard drawing sizes
func NewSkeleton() *Skeleton {
	return &Skeleton{
		LineThickness: 4,
		JointRadius:   4,
		FaceRadius:    3,
	}
}

// DrawPose renders the pose into a new height x width image, honoring the
// part inclusion flags.  Keypoint coordinates are the detector's normalized
// [0,1] values and are scaled by the canvas dimensions.  Landmarks marked
// absent are skipped
func (s *Skeleton) DrawPose(pose dwpose.Pose, height, width int,
	opts dwpose.DrawOptions) (gocv.Mat, error) {

	if height <= 0 || width <= 0 {
		return gocv.Mat{}, fmt.Errorf("invalid canvas dimensions %dx%d", width, height)
	}

	canvas := gocv.NewMatWithSize(height, width, gocv.MatTypeCV8UC3)

	if opts.Body {
		s.drawBodies(&canvas, pose.Bodies, height, width)
	}

	if opts.Hand {
		s.drawHands(&canvas, pose.Hands, height, width)
	}

	if opts.Face {
		s.drawFaces(&canvas, pose.Faces, height, width)
	}

	return canvas, nil
}

// drawBodies draws limb lines and joint circles for every detected person
func (s *Skeleton) drawBodies(canvas *gocv.Mat, bodies dwpose.Bodies,
	height, width int) {

	for n := 0; n < len(bodies.Score); n++ {

		person := bodies.Candidate[n*dwpose.NumBodyPoints : (n+1)*dwpose.NumBodyPoints]
		score := bodies.Score[n]

		// limb lines
		for i := 0; i < len(limbSeq)/2; i++ {

			a := limbSeq[2*i] - 1
			b := limbSeq[2*i+1] - 1

			if score[a] < minDrawScore || score[b] < minDrawScore {
				continue
			}

			gocv.Line(canvas,
				toPixel(person[a], height, width),
				toPixel(person[b], height, width),
				bodyColors[i], s.LineThickness)
		}

		// joint circles
		for i := 0; i < dwpose.NumBodyPoints; i++ {

			if score[i] < minDrawScore {
				continue
			}

			gocv.Circle(canvas, toPixel(person[i], height, width),
				s.JointRadius, bodyColors[i], -1)
		}
	}
}

// drawHands draws the finger segments of every detected hand
func (s *Skeleton) drawHands(canvas *gocv.Mat, hands [][]dwpose.Point,
	height, width int) {

	edges := len(handEdges) / 2

	thickness := s.LineThickness / 2

	if thickness < 1 {
		thickness = 1
	}

	for _, hand := range hands {
		for i := 0; i < edges; i++ {

			a := hand[handEdges[2*i]]
			b := hand[handEdges[2*i+1]]

			if !visible(a) || !visible(b) {
				continue
			}

			gocv.Line(canvas, toPixel(a, height, width),
				toPixel(b, height, width),
				handEdgeColor(i, edges), thickness)
		}
	}
}

// drawFaces draws the face landmark dots
func (s *Skeleton) drawFaces(canvas *gocv.Mat, faces [][]dwpose.Point,
	height, width int) {

	for _, face := range faces {
		for _, p := range face {

			if !visible(p) {
				continue
			}

			gocv.Circle(canvas, toPixel(p, height, width),
				s.FaceRadius, White, -1)
		}
	}
}

// visible reports whether a landmark carries drawable coordinates
func visible(p dwpose.Point) bool {
	return p.X > 0 && p.Y > 0
}

// toPixel scales a normalized point onto the canvas
func toPixel(p dwpose.Point, height, width int) image.Point {
	return image.Pt(int(p.X*float64(width)), int(p.Y*float64(height)))
}
