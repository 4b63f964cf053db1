package geom

import "math"

type Vector4 struct {
	X Element
	Y Element
	Z Element
	W Element
}

type Quaternion = Vector4

func NewVector4(x, y, z, w float32) *Vector4 {
	return &Vector4{X: x, Y: y, Z: z, W: w}
}

func NewIdentityQuaternion() *Quaternion {
	return &Quaternion{W: 1}
}

func NewQuaternionFromArray(arr [4]Element) *Vector4 {
	return &Vector4{X: arr[0], Y: arr[1], Z: arr[2], W: arr[3]}
}

// NewQuaternionFromAxisAngle returns rotation of rad around axis. axis must be normalized.
func NewQuaternionFromAxisAngle(axis *Vector3, rad Element) *Quaternion {
	s := Element(math.Sin(float64(rad / 2)))
	c := Element(math.Cos(float64(rad / 2)))
	return &Quaternion{X: axis.X * s, Y: axis.Y * s, Z: axis.Z * s, W: c}
}

func (v *Vector4) Add(v2 *Vector4) *Vector4 {
	return &Vector4{X: v.X + v2.X, Y: v.Y + v2.Y, Z: v.Z + v2.Z, W: v.W + v2.W}
}

func (v *Vector4) Sub(v2 *Vector4) *Vector4 {
	return &Vector4{X: v.X - v2.X, Y: v.Y - v2.Y, Z: v.Z - v2.Z, W: v.W - v2.W}
}

func (v *Vector4) Dot(v2 *Vector4) Element {
	return v.X*v2.X + v.Y*v2.Y + v.Z*v2.Z + v.W*v2.W
}

func (v *Vector4) Len() Element {
	return Element(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z + v.W*v.W)))
}

func (v *Vector4) LenSqr() Element {
	return v.X*v.X + v.Y*v.Y + v.Z*v.Z + v.W*v.W
}

func (v *Vector4) Normalize() *Vector4 {
	l := v.Len()
	if l > 0 {
		v.X /= l
		v.Y /= l
		v.Z /= l
		v.W /= l
	} else {
		v.W = 1
	}
	return v
}

// Inverse of a unit quaternion (conjugate).
func (v *Vector4) Inverse() *Vector4 {
	return &Vector4{X: -v.X, Y: -v.Y, Z: -v.Z, W: v.W}
}

// Returns Hamilton product
func (a *Vector4) Mul(b *Vector4) *Vector4 {
	return &Vector4{
		W: a.W*b.W - a.X*b.X - a.Y*b.Y - a.Z*b.Z, // 1
		X: a.W*b.X + a.X*b.W + a.Y*b.Z - a.Z*b.Y, // i
		Y: a.W*b.Y - a.X*b.Z + a.Y*b.W + a.Z*b.X, // j
		Z: a.W*b.Z + a.X*b.Y - a.Y*b.X + a.Z*b.W, // k
	}
}

// ApplyTo rotates v.
func (q *Quaternion) ApplyTo(v *Vector3) *Vector3 {
	// t = 2 * cross(q.xyz, v)
	tx := 2 * (q.Y*v.Z - q.Z*v.Y)
	ty := 2 * (q.Z*v.X - q.X*v.Z)
	tz := 2 * (q.X*v.Y - q.Y*v.X)
	return &Vector3{
		X: v.X + q.W*tx + (q.Y*tz - q.Z*ty),
		Y: v.Y + q.W*ty + (q.Z*tx - q.X*tz),
		Z: v.Z + q.W*tz + (q.X*ty - q.Y*tx),
	}
}

func (v *Vector4) ToArray(array []Element) {
	array[0] = v.X
	array[1] = v.Y
	array[2] = v.Z
	array[3] = v.W
}
