// Copyright 2018 Dan Jacques. All rights reserved.
// Use of this source code is governed under the MIT License
// that can be found in the LICENSE file.

package sendtable

// Multi-component float values produced by the leaf decoders.

type Vector2 struct {
	X, Y float32
}

type Vector3 struct {
	X, Y, Z float32
}

type Vector4 struct {
	X, Y, Z, W float32
}

// QAngle is a Euler rotation in degrees.
type QAngle struct {
	Pitch, Yaw, Roll float32
}

// Transform6 is a position plus the vector part of an orientation
// quaternion.
type Transform6 struct {
	X, Y, Z    float32
	QX, QY, QZ float32
}
