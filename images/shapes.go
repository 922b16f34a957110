// Package images - Box geometry and image file utilities.
package images

// iouEpsilon keeps CalculateIoU finite when both boxes have zero area.
const iouEpsilon = 1e-16

// Rect is a bounding box in corner form: (xmin, ymin, xmax, ymax), usually in pixels.
type Rect struct {
	X1, Y1, X2, Y2 float64
}

// Box is a bounding box in center form: (x_center, y_center, width, height).
//
// Boxes read from YOLO label files are normalized to the image size, so every
// component lies in [0, 1] for a well-formed annotation.
type Box struct {
	X, Y, W, H float64
}

// Width returns the horizontal extent of the rectangle.
func (r Rect) Width() float64 { return r.X2 - r.X1 }

// Height returns the vertical extent of the rectangle.
func (r Rect) Height() float64 { return r.Y2 - r.Y1 }

// ToBox converts the rectangle to center form without changing units.
func (r Rect) ToBox() Box {
	return Box{
		X: (r.X1 + r.X2) / 2,
		Y: (r.Y1 + r.Y2) / 2,
		W: r.X2 - r.X1,
		H: r.Y2 - r.Y1,
	}
}

// Normalize converts a pixel rectangle to a center-form box expressed as a fraction
// of the image dimensions.
//
// Arguments:
//   - width: The image width in pixels.
//   - height: The image height in pixels.
//
// Returns:
//   - Box: The normalized center-form box.
//
// Example Usage:
// ```go
//
//	r := Rect{X1: 100, Y1: 50, X2: 300, Y2: 250}
//	b := r.Normalize(400, 500) // Box{X: 0.5, Y: 0.3, W: 0.5, H: 0.4}
//
// ```
func (r Rect) Normalize(width, height float64) Box {
	b := r.ToBox()
	return Box{
		X: b.X / width,
		Y: b.Y / height,
		W: b.W / width,
		H: b.H / height,
	}
}

// ToRect converts the box to corner form without changing units.
func (b Box) ToRect() Rect {
	return Rect{
		X1: b.X - b.W/2,
		Y1: b.Y - b.H/2,
		X2: b.X + b.W/2,
		Y2: b.Y + b.H/2,
	}
}

// Area returns W*H. Negative sizes are not corrected.
func (b Box) Area() float64 { return b.W * b.H }

// Valid reports whether the box has a strictly positive width and height.
func (b Box) Valid() bool { return b.W > 0 && b.H > 0 }

// CalculateIoU computes the Intersection over Union of two center-form boxes.
//
// IoU is the ratio of the overlapping area of two boxes to the area they cover
// together. It is 1.0 for identical boxes and 0.0 for boxes that do not overlap:
//
//	IoU = Area of Intersection / (Area of Union + ε)
//
// **1. Intersection**
//
//	Each box is expanded to its extent (cx ± w/2, cy ± h/2). The intersection
//	starts at the larger of the two left/top edges and ends at the smaller of the
//	two right/bottom edges. A negative width or height means no overlap and is
//	clamped to zero.
//
// **2. Union**
//
//	Area(A) + Area(B) - Area(Intersection), so the overlap is not counted twice.
//
// **3. Divide**
//
//	A tiny ε (1e-16) is added to the union. When both boxes are degenerate the
//	result is 0 instead of NaN; for real boxes the bias is far below float64
//	label precision.
//
// Malformed boxes (negative width or height) are not rejected. They flow
// through the arithmetic and usually produce 0.
//
// Arguments:
//   - a: The first box, in center form.
//   - b: The second box, in the same units as a.
//
// Returns:
//   - float64: The IoU score, in [0, 1] for well-formed boxes.
//
// Example Usage:
// ```go
//
//	gt := Box{X: 0.5, Y: 0.5, W: 0.4, H: 0.4}
//	pred := Box{X: 0.6, Y: 0.5, W: 0.4, H: 0.4}
//
//	iou := CalculateIoU(gt, pred) // intersection 0.3*0.4=0.12, union 0.16+0.16-0.12=0.2, IoU 0.6
//
// ```
func CalculateIoU(a, b Box) float64 {
	ra := a.ToRect()
	rb := b.ToRect()

	ix1 := max(ra.X1, rb.X1)
	iy1 := max(ra.Y1, rb.Y1)
	ix2 := min(ra.X2, rb.X2)
	iy2 := min(ra.Y2, rb.Y2)

	interArea := max(0, ix2-ix1) * max(0, iy2-iy1)
	unionArea := a.Area() + b.Area() - interArea

	return interArea / (unionArea + iouEpsilon)
}
