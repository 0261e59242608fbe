// Package imaging prepares photographs of kolams for digitization.
//
// It covers decoding and size limits, grayscale conversion, polarity
// detection, denoising, illumination flattening, adaptive thresholding into
// a binary [Mask], perspective correction through a [Homography], lattice
// overlays and ink-based image comparison. Filtering is delegated to bild;
// resizing, cropping and compositing to disintegration/imaging.
//
// # Coordinate System
//
// All pixel coordinates are 0-based with (0,0) at the top-left corner, X
// increasing rightward and Y increasing downward. Sub-pixel positions
// ([PointF]) place pixel (x, y)'s centre at (x+0.5, y+0.5).
//
// # Ink Convention
//
// After preprocessing, ink is dark on a light background. Photographs of
// chalk on a dark floor are detected with [DarkBackground] and inverted
// before thresholding, so a [Mask] always marks the drawn lines and dots.
//
// # Thread Safety
//
// Every function is stateless and safe for concurrent use on distinct
// images.
package imaging
