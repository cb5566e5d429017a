package mimicmotion

import "errors"

var (
	// ErrMissingDependency occurs when a required base model directory does
	// not exist locally and cannot be fetched automatically
	ErrMissingDependency = errors.New("required base model is missing")

	// ErrNoDownloader occurs when a checkpoint file is absent locally and no
	// Hub has been configured to fetch it
	ErrNoDownloader = errors.New("checkpoint file is missing and no downloader is configured")
)
