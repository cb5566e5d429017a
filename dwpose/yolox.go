package dwpose

import (
	"math"
)

// yoloxParams configure the person detection post processing
type yoloxParams struct {
	// Strides the model output grids are built from
	Strides []int
	// BoxThreshold is the minimum score for a person box to be kept
	BoxThreshold float32
	// NMSThreshold is the maximum allowed IoU between two boxes for both to
	// be kept during Non-Maximum Suppression
	NMSThreshold float32
	// ObjectClassNum is the number of object classes the model was trained
	// with.  Only the person class (0) is kept
	ObjectClassNum int
}

// defaultYOLOXParams returns the post processing parameters matching the
// COCO trained yolox_l person detector
func defaultYOLOXParams() yoloxParams {
	return yoloxParams{
		Strides:        []int{8, 16, 32},
		BoxThreshold:   0.3,
		NMSThreshold:   0.45,
		ObjectClassNum: 80,
	}
}

// boxRect is a detected person bounding box in source image coordinates
type boxRect struct {
	Left   float32
	Top    float32
	Right  float32
	Bottom float32
	Score  float32
}

// decodePersons decodes the raw detector output into person boxes.  The
// output layout is one row of 5+ObjectClassNum values per grid cell, rows
// ordered by stride then row major grid position.  Boxes are mapped back to
// source coordinates using the letterbox scale factor
func (p yoloxParams) decodePersons(output []float32, inputW, inputH int,
	scale float32, srcW, srcH int) []boxRect {

	rowLen := 5 + p.ObjectClassNum

	var boxes []float32
	var scores []float32

	row := 0

	for _, stride := range p.Strides {

		gridH := inputH / stride
		gridW := inputW / stride

		for gy := 0; gy < gridH; gy++ {
			for gx := 0; gx < gridW; gx++ {

				base := row * rowLen
				row++

				// person class only
				score := output[base+4] * output[base+5]

				if score < p.BoxThreshold {
					continue
				}

				cx := (output[base+0] + float32(gx)) * float32(stride)
				cy := (output[base+1] + float32(gy)) * float32(stride)
				w := float32(math.Exp(float64(output[base+2]))) * float32(stride)
				h := float32(math.Exp(float64(output[base+3]))) * float32(stride)

				boxes = append(boxes, cx-w/2, cy-h/2, w, h)
				scores = append(scores, score)
			}
		}
	}

	validCount := len(scores)

	if validCount == 0 {
		return nil
	}

	indexArray := make([]int, validCount)

	for i := 0; i < validCount; i++ {
		indexArray[i] = i
	}

	quickSortIndiceInverse(scores, 0, validCount-1, indexArray)
	nms(validCount, boxes, indexArray, p.NMSThreshold)

	// collate surviving boxes, mapped back to source coordinates
	var results []boxRect

	for i := 0; i < validCount; i++ {
		if indexArray[i] == -1 {
			continue
		}

		n := indexArray[i]

		x1 := boxes[n*4+0] / scale
		y1 := boxes[n*4+1] / scale
		x2 := (boxes[n*4+0] + boxes[n*4+2]) / scale
		y2 := (boxes[n*4+1] + boxes[n*4+3]) / scale

		results = append(results, boxRect{
			Left:   clampF32(x1, 0, float32(srcW)),
			Top:    clampF32(y1, 0, float32(srcH)),
			Right:  clampF32(x2, 0, float32(srcW)),
			Bottom: clampF32(y2, 0, float32(srcH)),
			Score:  scores[i],
		})
	}

	return results
}

// clampF32 restricts the value to be within the range min and max
func clampF32(val, min, max float32) float32 {

	if val < min {
		return min
	}

	if val > max {
		return max
	}

	return val
}

// quickSortIndiceInverse is a quick sort that sorts the scores vector in
// descending order and synchronously updates the indices vector to track the
// reordering of elements
func quickSortIndiceInverse(input []float32, left int, right int, indices []int) int {

	var key float32
	var keyIndex int

	low := left
	high := right

	if left < right {
		keyIndex = indices[left]
		key = input[left]

		for low < high {
			for low < high && input[high] <= key {
				high--
			}

			input[low] = input[high]
			indices[low] = indices[high]

			for low < high && input[low] >= key {
				low++
			}

			input[high] = input[low]
			indices[high] = indices[low]
		}

		input[low] = key
		indices[low] = keyIndex

		quickSortIndiceInverse(input, left, low-1, indices)
		quickSortIndiceInverse(input, low+1, right, indices)
	}

	return low
}

// nms implements a Non-Maximum Suppression algorithm over the single person
// class.  Boxes are stored as x, y, width, height quads
func nms(validCount int, outputLocations []float32, order []int,
	threshold float32) {

	for i := 0; i < validCount; i++ {

		if order[i] == -1 {
			continue
		}

		n := order[i]

		for j := i + 1; j < validCount; j++ {
			m := order[j]

			if m == -1 {
				continue
			}

			xmin0 := outputLocations[n*4+0]
			ymin0 := outputLocations[n*4+1]
			xmax0 := xmin0 + outputLocations[n*4+2]
			ymax0 := ymin0 + outputLocations[n*4+3]

			xmin1 := outputLocations[m*4+0]
			ymin1 := outputLocations[m*4+1]
			xmax1 := xmin1 + outputLocations[m*4+2]
			ymax1 := ymin1 + outputLocations[m*4+3]

			iou := calculateOverlap(xmin0, ymin0, xmax0, ymax0, xmin1, ymin1,
				xmax1, ymax1)

			if iou > threshold {
				order[j] = -1
			}
		}
	}
}

// calculateOverlap works out the Intersection over Union (IoU) value of two
// boxes dimensions
func calculateOverlap(xmin0, ymin0, xmax0, ymax0, xmin1, ymin1,
	xmax1, ymax1 float32) float32 {

	w := math.Max(0.0, math.Min(float64(xmax0), float64(xmax1))-math.Max(float64(xmin0), float64(xmin1)))
	h := math.Max(0.0, math.Min(float64(ymax0), float64(ymax1))-math.Max(float64(ymin0), float64(ymin1)))
	intersection := w * h

	area0 := (xmax0 - xmin0) * (ymax0 - ymin0)
	area1 := (xmax1 - xmin1) * (ymax1 - ymin1)

	union := area0 + area1 - float32(intersection)

	if union <= 0 {
		return 0.0
	}

	return float32(intersection) / union
}
