/*
Package fileio moves volumes between disk formats and the in-memory
types used by the fusion pipeline.

Three formats are supported: NIfTI-1 images for subject intensities and
atlas label maps, numpy .npy arrays for the same data coming out of
array-processing pipelines, and a compressed snapshot format for tallied
vote volumes so an expensive tally can be reused across fusion runs.
*/
package fileio
