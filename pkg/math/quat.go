package math

import "math"

// Quat represents a quaternion for 3D rotations.
// Components are stored as X, Y, Z, W where W is the scalar part.
type Quat struct {
	X, Y, Z, W float32
}

// QuatIdentity returns an identity quaternion (no rotation).
func QuatIdentity() Quat {
	return Quat{X: 0, Y: 0, Z: 0, W: 1}
}

// QuatFromAxisAngle creates a quaternion from axis-angle rotation.
// axis should be normalized, angle is in radians.
func QuatFromAxisAngle(axis Vec3, angle float32) Quat {
	halfAngle := angle / 2
	s := float32(math.Sin(float64(halfAngle)))
	return Quat{
		X: axis.X * s,
		Y: axis.Y * s,
		Z: axis.Z * s,
		W: float32(math.Cos(float64(halfAngle))),
	}
}

// QuatFromEuler creates a quaternion from XYZ Euler angles in radians.
func QuatFromEuler(x, y, z float32) Quat {
	cx := float32(math.Cos(float64(x) / 2))
	sx := float32(math.Sin(float64(x) / 2))
	cy := float32(math.Cos(float64(y) / 2))
	sy := float32(math.Sin(float64(y) / 2))
	cz := float32(math.Cos(float64(z) / 2))
	sz := float32(math.Sin(float64(z) / 2))

	return Quat{
		X: sx*cy*cz - cx*sy*sz,
		Y: cx*sy*cz + sx*cy*sz,
		Z: cx*cy*sz - sx*sy*cz,
		W: cx*cy*cz + sx*sy*sz,
	}
}

// ToEuler converts the quaternion to XYZ Euler angles in radians.
func (q Quat) ToEuler() (x, y, z float32) {
	q = q.Normalize()

	// X (roll)
	sinX := 2 * (q.W*q.X + q.Y*q.Z)
	cosX := 1 - 2*(q.X*q.X+q.Y*q.Y)
	x = float32(math.Atan2(float64(sinX), float64(cosX)))

	// Y (pitch), clamped at the poles
	sinY := 2 * (q.W*q.Y - q.Z*q.X)
	if sinY >= 1 {
		y = float32(math.Pi / 2)
	} else if sinY <= -1 {
		y = float32(-math.Pi / 2)
	} else {
		y = float32(math.Asin(float64(sinY)))
	}

	// Z (yaw)
	sinZ := 2 * (q.W*q.Z + q.X*q.Y)
	cosZ := 1 - 2*(q.Y*q.Y+q.Z*q.Z)
	z = float32(math.Atan2(float64(sinZ), float64(cosZ)))

	return x, y, z
}

// Normalize returns a normalized quaternion.
func (q Quat) Normalize() Quat {
	length := float32(math.Sqrt(float64(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)))
	if length < 0.0001 {
		return QuatIdentity()
	}
	invLen := 1.0 / length
	return Quat{
		X: q.X * invLen,
		Y: q.Y * invLen,
		Z: q.Z * invLen,
		W: q.W * invLen,
	}
}

// Dot returns the dot product of two quaternions.
func (q Quat) Dot(other Quat) float32 {
	return q.X*other.X + q.Y*other.Y + q.Z*other.Z + q.W*other.W
}

// Slerp performs spherical linear interpolation between two quaternions,
// always taking the shortest arc. t should be in range [0, 1].
func (q Quat) Slerp(other Quat, t float32) Quat {
	dot := q.Dot(other)

	// If dot is negative, negate one quaternion to take the shorter path
	if dot < 0 {
		other = Quat{X: -other.X, Y: -other.Y, Z: -other.Z, W: -other.W}
		dot = -dot
	}

	// If quaternions are very close, use linear interpolation to avoid division by zero
	if dot > 0.9995 {
		return Quat{
			X: q.X + t*(other.X-q.X),
			Y: q.Y + t*(other.Y-q.Y),
			Z: q.Z + t*(other.Z-q.Z),
			W: q.W + t*(other.W-q.W),
		}.Normalize()
	}

	theta0 := float32(math.Acos(float64(dot)))
	theta := theta0 * t
	sinTheta := float32(math.Sin(float64(theta)))
	sinTheta0 := float32(math.Sin(float64(theta0)))

	s0 := float32(math.Cos(float64(theta))) - dot*sinTheta/sinTheta0
	s1 := sinTheta / sinTheta0

	return Quat{
		X: q.X*s0 + other.X*s1,
		Y: q.Y*s0 + other.Y*s1,
		Z: q.Z*s0 + other.Z*s1,
		W: q.W*s0 + other.W*s1,
	}
}
