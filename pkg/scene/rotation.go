package scene

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
	"gonum.org/v1/gonum/spatial/r3"

	"cardiacxr/internal/models"
)

// Quaternion returns the unit quaternion for e, composed as X then Y then Z
// intrinsic rotations (R = Rx * Ry * Rz).
func Quaternion(e models.Euler) quat.Number {
	qx := axisAngle(r3.Vec{X: 1}, e.X)
	qy := axisAngle(r3.Vec{Y: 1}, e.Y)
	qz := axisAngle(r3.Vec{Z: 1}, e.Z)
	return quat.Mul(quat.Mul(qx, qy), qz)
}

func axisAngle(axis r3.Vec, angle float64) quat.Number {
	s := math.Sin(angle / 2)
	return quat.Number{Real: math.Cos(angle / 2), Imag: axis.X * s, Jmag: axis.Y * s, Kmag: axis.Z * s}
}

// Rotate applies the unit quaternion q to v.
func Rotate(q quat.Number, v r3.Vec) r3.Vec {
	p := quat.Mul(quat.Mul(q, quat.Number{Imag: v.X, Jmag: v.Y, Kmag: v.Z}), quat.Conj(q))
	return r3.Vec{X: p.Imag, Y: p.Jmag, Z: p.Kmag}
}

// WrapAngle maps a into (-pi, pi].
func WrapAngle(a float64) float64 {
	a = math.Remainder(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	}
	return a
}
