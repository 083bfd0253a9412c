/*
	Package volume provides the dense 3d volumes consumed and produced by
	label fusion: subject intensity volumes, atlas label volumes, and the
	per-voxel vote records tallied across atlases.

	All volumes share one grid with voxels stored in x-fastest order, so
	index = x + y*nx + z*nx*ny.  Volumes created for the same fusion run
	must agree on grid size; constructors return errors when they don't.
*/
package volume
