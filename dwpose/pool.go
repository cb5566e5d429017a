package dwpose

import (
	"fmt"
	"sync"

	"gocv.io/x/gocv"
)

// Pool holds multiple detector instances so independent per frame detection
// can run in parallel.  A Pool satisfies the Detector interface, and its
// DetectAll fans a frame sequence out over the instances whilst reassembling
// results in input order
type Pool struct {
	// pool of detectors
	detectors chan Detector
	// size of pool
	size  int
	close sync.Once
}

// NewPool creates a detector pool of the given size using the factory to
// construct each instance
func NewPool(size int, factory func() (Detector, error)) (*Pool, error) {

	if size < 1 {
		return nil, fmt.Errorf("pool size must be at least 1")
	}

	p := &Pool{
		detectors: make(chan Detector, size),
		size:      size,
	}

	for i := 0; i < size; i++ {
		det, err := factory()

		if err != nil {
			// close any instances that may have been created before
			// receiving the error
			_ = p.Close()
			return nil, err
		}

		// attach to pool
		p.ret(det)
	}

	return p, nil
}

// get a detector from the pool
func (p *Pool) get() Detector {
	return <-p.detectors
}

// ret returns a detector to the pool
func (p *Pool) ret(det Detector) {
	select {
	case p.detectors <- det:
	default:
		// pool is full or closed
	}
}

// Detect borrows an instance from the pool to process a single image
func (p *Pool) Detect(img gocv.Mat) (Pose, error) {

	det := p.get()
	defer p.ret(det)

	return det.Detect(img)
}

// DetectAll processes the frames across all pool instances.  Results are
// placed by frame index so output order always matches input order.  The
// first detection error wins and is returned once all workers drain
func (p *Pool) DetectAll(frames []gocv.Mat) ([]Pose, error) {

	poses := make([]Pose, len(frames))
	errs := make([]error, len(frames))

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.size)

	for i := range frames {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			det := p.get()
			poses[i], errs[i] = det.Detect(frames[i])
			p.ret(det)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return poses, nil
}

// Close the pool and all detectors in it
func (p *Pool) Close() error {

	var err error

	p.close.Do(func() {
		// close channel
		close(p.detectors)

		// close all detectors
		for next := range p.detectors {
			if cerr := next.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}
	})

	return err
}
