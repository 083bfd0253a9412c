/*
	Package fusion implements multi-atlas label fusion over dense 3d
	volumes.  Voxels where atlas votes agree strongly take the majority
	label directly.  Voxels where votes disagree are resolved by local
	Markov random field energy minimization: a singleton potential scores
	how well the voxel's intensity fits a per-label Gaussian estimated
	from a surrounding patch, and a doubleton potential penalizes
	disagreement with distance-weighted neighborhood votes.

	Low-confidence voxels are resolved independently of each other, so
	the engine partitions them into bounding boxes and fans the boxes out
	across a worker pool.  The boxed and unboxed paths produce
	bit-identical labels; boxes only bound peak memory and wall time.
*/
package fusion
