/*
Example code showing how to extract poses from a driving video and rescale
them onto a reference subject using the DWPose models, producing the aligned
skeleton image sequence used to condition video generation
*/
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"
	"time"

	"github.com/poseworks/go-mimicmotion/dwpose"
	"github.com/poseworks/go-mimicmotion/render"
	"gocv.io/x/gocv"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

const (
	// Size of label TTF font
	TTFFontSize = 18
)

// Labeler writes frame annotations onto the rendered skeleton images
type Labeler struct {
	// fontFace is the loaded TTF font face, nil to use the built in
	// Hershey font instead
	fontFace font.Face
}

// NewLabeler returns a Labeler, loading the TTF font when a path is given
func NewLabeler(ttfFont string) (*Labeler, error) {

	l := &Labeler{}

	if ttfFont == "" {
		return l, nil
	}

	fontBytes, err := os.ReadFile(ttfFont)

	if err != nil {
		return nil, fmt.Errorf("failed to load font: %w", err)
	}

	f, err := opentype.Parse(fontBytes)

	if err != nil {
		return nil, fmt.Errorf("failed to parse font: %w", err)
	}

	l.fontFace, err = opentype.NewFace(f, &opentype.FaceOptions{
		Size:    TTFFontSize,
		DPI:     72,
		Hinting: font.HintingFull,
	})

	if err != nil {
		return nil, fmt.Errorf("failed to create type face: %w", err)
	}

	return l, nil
}

// Label writes the text onto the image at the top left corner
func (l *Labeler) Label(img *gocv.Mat, text string) error {

	if l.fontFace == nil {
		gocv.PutText(img, text, image.Pt(8, 24), gocv.FontHersheyDuplex,
			0.6, color.RGBA{R: 255, G: 255, B: 255, A: 0}, 1)
		return nil
	}

	// draw the text into an RGBA image then overlay it on the Mat
	rgba := image.NewRGBA(image.Rect(0, 0, img.Cols(), img.Rows()))
	draw.Draw(rgba, rgba.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 0}),
		image.Point{}, draw.Src)

	dr := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(color.RGBA{255, 255, 255, 255}),
		Face: l.fontFace,
		Dot: fixed.Point26_6{
			X: fixed.Int26_6(8 * 64),
			Y: fixed.Int26_6(24 * 64),
		},
	}
	dr.DrawString(text)

	imgRGBA, err := gocv.NewMatFromBytes(rgba.Bounds().Dy(),
		rgba.Bounds().Dx(), gocv.MatTypeCV8UC4, rgba.Pix)

	if imgRGBA.Empty() || err != nil {
		return fmt.Errorf("error creating Mat from RGBA")
	}

	defer imgRGBA.Close()

	gocv.CvtColor(imgRGBA, &imgRGBA, gocv.ColorRGBAToBGR)
	gocv.AddWeighted(*img, 1.0, imgRGBA, 1.0, 0, img)

	return nil
}

// readFrames reads all frames of the driving video
func readFrames(videoFile string) ([]gocv.Mat, error) {

	cap, err := gocv.VideoCaptureFile(videoFile)

	if err != nil {
		return nil, fmt.Errorf("error opening video file: %w", err)
	}

	defer cap.Close()

	var frames []gocv.Mat

	for {
		frame := gocv.NewMat()

		if ok := cap.Read(&frame); !ok {
			frame.Close()
			break
		}

		frames = append(frames, frame)
	}

	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames read from %s", videoFile)
	}

	return frames, nil
}

func main() {
	// disable logging timestamps
	log.SetFlags(0)

	// read in cli flags
	detModelFile := flag.String("d", "../data/yolox_l.onnx", "DWPose person detection ONNX model file")
	poseModelFile := flag.String("p", "../data/dw-ll_ucoco_384.onnx", "DWPose whole body estimation ONNX model file")
	refFile := flag.String("r", "../data/reference.jpg", "Reference image of the subject to animate")
	videoFile := flag.String("i", "../data/driving.mp4", "Driving video to extract motion from")
	saveFile := flag.String("o", "../data/poses-out.mp4", "The output video of aligned skeleton renderings")
	ortLib := flag.String("s", "", "Path of the onnxruntime shared library, leave empty for the platform default")
	ttfFont := flag.String("f", "", "Optional TTF font used for frame labels")
	fps := flag.Float64("fps", 15, "Frame rate of the output video")
	noBody := flag.Bool("nobody", false, "Exclude body skeletons from the renderings")
	noHand := flag.Bool("nohand", false, "Exclude hands from the renderings")
	noFace := flag.Bool("noface", false, "Exclude faces from the renderings")

	flag.Parse()

	cfg := dwpose.DefaultConfig(*detModelFile, *poseModelFile)
	cfg.OrtLibPath = *ortLib

	det, err := dwpose.NewDWPose(cfg)

	if err != nil {
		log.Fatal("Error initializing DWPose: ", err)
	}

	labeler, err := NewLabeler(*ttfFont)

	if err != nil {
		log.Fatal("Error initializing labeler: ", err)
	}

	// load reference image
	refImg := gocv.IMRead(*refFile, gocv.IMReadColor)

	if refImg.Empty() {
		log.Fatalf("Error reading reference image from: %s", *refFile)
	}

	defer refImg.Close()

	// load driving video frames
	frames, err := readFrames(*videoFile)

	if err != nil {
		log.Fatal("Error reading driving video: ", err)
	}

	defer func() {
		for _, f := range frames {
			f.Close()
		}
	}()

	log.Printf("Extracting poses from %d driving frames\n", len(frames))

	start := time.Now()

	extractor := dwpose.NewExtractor(det, render.NewSkeleton())

	renders, err := extractor.ExtractAndAlign(refImg, frames, dwpose.DrawOptions{
		Body: !*noBody,
		Hand: !*noHand,
		Face: !*noFace,
	})

	if err != nil {
		log.Fatal("Error extracting poses: ", err)
	}

	defer func() {
		for _, r := range renders {
			r.Close()
		}
	}()

	log.Printf("Pose extraction and alignment took %s, %s per frame\n",
		time.Since(start).String(),
		(time.Since(start) / time.Duration(len(frames))).String())

	// write the skeleton renderings out as a video, reference rendering first
	writer, err := gocv.VideoWriterFile(*saveFile, "mp4v", *fps,
		renders[0].Cols(), renders[0].Rows(), true)

	if err != nil {
		log.Fatal("Error opening video writer: ", err)
	}

	defer writer.Close()

	for i, r := range renders {

		text := fmt.Sprintf("frame %d", i)

		if i == 0 {
			text = "reference"
		}

		if err := labeler.Label(&r, text); err != nil {
			log.Fatal("Error labeling frame: ", err)
		}

		if err := writer.Write(r); err != nil {
			log.Fatal("Error writing frame: ", err)
		}
	}

	log.Printf("Saved %d skeleton renderings to %s\n", len(renders), *saveFile)

	err = det.Close()

	if err != nil {
		log.Fatal("Error closing DWPose: ", err)
	}

	log.Println("done")
}
