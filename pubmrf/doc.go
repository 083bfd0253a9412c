/*
	Package pubmrf provides types, constants, and functions that have no
	other dependencies and can be used by all packages within PUB-MRF.
	This includes 3d voxel geometry, leveled logging with optional log
	rotation, and compressed serialization of volume data.
*/
package pubmrf
