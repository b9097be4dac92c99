package detection

import (
	"image"
	"math"

	"github.com/ironsheep/handseg-mcp/internal/imaging"
)

// Point represents a 2D coordinate in pixel space.
type Point struct {
	X int `json:"x"` // Horizontal position (0 = leftmost)
	Y int `json:"y"` // Vertical position (0 = topmost)
}

// Box is an axis-aligned bounding box. X and Y are the top-left pixel;
// W and H count pixels, so the box covers [X, X+W) x [Y, Y+H).
type Box struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

// Rect converts the box to an image.Rectangle.
func (b Box) Rect() image.Rectangle {
	return image.Rect(b.X, b.Y, b.X+b.W, b.Y+b.H)
}

// MidX is the horizontal centroid x + w/2 used for word ordering.
func (b Box) MidX() int {
	return b.X + b.W/2
}

// MidY is the vertical centroid y + h/2 used for line clustering.
func (b Box) MidY() int {
	return b.Y + b.H/2
}

// Contour is the outer boundary of one 8-connected foreground region,
// traced clockwise from its first pixel in raster order.
type Contour struct {
	// Points are the boundary pixels in tracing order. A one-pixel region
	// has a single point.
	Points []Point `json:"points"`

	// Pixels is the number of foreground pixels in the region.
	Pixels int `json:"pixels"`
}

// Box returns the bounding box of the boundary points.
func (c Contour) Box() Box {
	if len(c.Points) == 0 {
		return Box{}
	}
	minX, minY := c.Points[0].X, c.Points[0].Y
	maxX, maxY := minX, minY
	for _, p := range c.Points[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Box{X: minX, Y: minY, W: maxX - minX + 1, H: maxY - minY + 1}
}

// Area is the area enclosed by the boundary polygon through pixel centres
// (shoelace formula). A filled w x h rectangle encloses (w-1)*(h-1).
func (c Contour) Area() float64 {
	n := len(c.Points)
	if n < 3 {
		return 0
	}
	sum := 0
	for i := 0; i < n; i++ {
		p := c.Points[i]
		q := c.Points[(i+1)%n]
		sum += p.X*q.Y - q.X*p.Y
	}
	return math.Abs(float64(sum)) / 2
}

// Centroid returns the bounding-box centre (x + w/2, y + h/2).
func (c Contour) Centroid() Point {
	b := c.Box()
	return Point{X: b.MidX(), Y: b.MidY()}
}

// neighbours lists the 8-connected offsets clockwise starting from west.
var neighbours = [8]Point{
	{-1, 0},  // W
	{-1, -1}, // NW
	{0, -1},  // N
	{1, -1},  // NE
	{1, 0},   // E
	{1, 1},   // SE
	{0, 1},   // S
	{-1, 1},  // SW
}

func directionOf(d Point) int {
	for i, n := range neighbours {
		if n == d {
			return i
		}
	}
	return 0
}

// FindContours finds every 8-connected foreground region of a binary raster
// and returns its outer boundary. Holes inside a region never produce a
// separate contour. Contours are returned in raster order of their first pixel.
func FindContours(bin *image.Gray) []Contour {
	b := bin.Bounds()
	width, height := b.Dx(), b.Dy()
	labels := make([]int32, width*height)

	isInk := func(x, y int) bool {
		return bin.Pix[bin.PixOffset(b.Min.X+x, b.Min.Y+y)] == imaging.Foreground
	}

	contours := make([]Contour, 0)
	var next int32

	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if labels[y*width+x] != 0 || !isInk(x, y) {
				continue
			}
			next++
			id := next
			pixels := floodFill(isInk, labels, id, x, y, width, height)

			inside := func(px, py int) bool {
				return px >= 0 && px < width && py >= 0 && py < height && labels[py*width+px] == id
			}
			contours = append(contours, Contour{
				Points: traceBoundary(inside, Point{X: x, Y: y}, 4*pixels+16),
				Pixels: pixels,
			})
		}
	}

	return contours
}

// floodFill labels the 8-connected region containing (startX, startY) and
// returns its pixel count. It uses an explicit stack, not recursion, so
// large regions cannot overflow the goroutine stack.
func floodFill(isInk func(x, y int) bool, labels []int32, id int32, startX, startY, width, height int) int {
	stack := []Point{{X: startX, Y: startY}}
	count := 0

	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if p.X < 0 || p.X >= width || p.Y < 0 || p.Y >= height {
			continue
		}
		if labels[p.Y*width+p.X] != 0 || !isInk(p.X, p.Y) {
			continue
		}

		labels[p.Y*width+p.X] = id
		count++

		for _, n := range neighbours {
			stack = append(stack, Point{X: p.X + n.X, Y: p.Y + n.Y})
		}
	}

	return count
}

// traceBoundary walks the outer boundary of a region with Moore-neighbour
// tracing. start must be the region's first pixel in raster order, so its
// west neighbour is outside. Tracing stops when the first move repeats.
func traceBoundary(inside func(x, y int) bool, start Point, limit int) []Point {
	contour := []Point{start}
	p := start
	back := 0 // west
	var second Point
	haveSecond := false

	for i := 0; i < limit; i++ {
		q, dir, ok := nextBoundary(inside, p, back)
		if !ok {
			break
		}
		if !haveSecond {
			second = q
			haveSecond = true
		} else if p == start && q == second {
			break
		}

		// The last outside neighbour examined becomes the new backtrack,
		// expressed relative to q.
		prev := neighbours[(dir+7)%8]
		back = directionOf(Point{X: p.X + prev.X - q.X, Y: p.Y + prev.Y - q.Y})
		p = q
		contour = append(contour, p)
	}

	if n := len(contour); n > 1 && contour[n-1] == start {
		contour = contour[:n-1]
	}
	return contour
}

func nextBoundary(inside func(x, y int) bool, p Point, back int) (Point, int, bool) {
	for i := 1; i <= 8; i++ {
		d := (back + i) % 8
		q := Point{X: p.X + neighbours[d].X, Y: p.Y + neighbours[d].Y}
		if inside(q.X, q.Y) {
			return q, d, true
		}
	}
	return Point{}, 0, false
}
