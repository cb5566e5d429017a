/*
go-mimicmotion provides Go plugin nodes and a supporting library wrapping the
MimicMotion pose guided video diffusion pipeline for motion transfer, ie:
driving a single reference image with the motion of a pose sequence extracted
from a video.

The library covers the three stages composed by a host node graph: loading
the pretrained model checkpoints into a pipeline handle, extracting and
rescaling DWPose keypoints from a reference image and a driving video so the
driving motion maps onto the reference subject's proportions, and sampling
the diffusion pipeline with the aligned pose images.

The diffusion pipeline itself is consumed as an opaque Generator capability
and is not reimplemented here.

See example code and usage in the example subdirectory.
*/
package mimicmotion
