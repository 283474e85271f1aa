// Package neighbors finds, for every point in a frame of 3D points, the other points within a
// fixed radius of it.
//
// Results are written into a Matrix: an N x N table of int32 point indices stored in
// page-aligned memory from an aligned.Allocator, so the same buffer can be handed to code that
// requires host memory on a page boundary. Row i lists the neighbors of point i in increasing
// index order and is padded with -1.
package neighbors
