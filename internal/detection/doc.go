// Package detection finds the dot lattice of a kolam in a binary ink mask.
//
// The pipeline works on an [imaging.Mask] produced by thresholding:
//
//  1. Labelling: 8-connected flood fill groups ink pixels into components
//     with area, bounding box and centroid.
//  2. Cleaning: speckles below a minimum area are erased, as are large solid
//     blobs and solid regions touching the frame, which in photographs are
//     shadows, feet or floor edges rather than chalk.
//  3. Dot detection: small, compact, roughly round components whose centroid
//     lies on ink are taken as dots. Curves are long and thin, and closed
//     loops have an empty centre, so neither qualifies.
//  4. Lattice estimation: dot coordinates are clustered into columns and
//     rows, giving the grid size, spacing and the four corner dots used for
//     perspective correction.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner.
// Bounding boxes are inclusive at the top-left and exclusive at the
// bottom-right. Centroids are sub-pixel positions where pixel (x, y) has its
// centre at (x+0.5, y+0.5).
//
// # Limitations
//
// Clustering assumes the drawing is roughly axis-aligned; mild perspective
// is tolerated, strong rotation is not. Dots that touch a stroke merge with
// it and are not reported.
package detection
