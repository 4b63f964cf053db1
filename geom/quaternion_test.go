package geom

import (
	"math"
	"testing"
)

func TestQuaternion(t *testing.T) {
	const eps = 0.00001

	{
		q := NewEuler(0, 0, 0, RotationOrderXYZ).ToQuaternion()
		v1 := NewVector3(1, 2, 3)
		v2 := q.ApplyTo(v1)
		if v2.Sub(v1).Len() > eps {
			t.Error("v1 != v2: ", v1, v2)
		}
	}

	{
		q := NewEuler(2*math.Pi, 0, 0, RotationOrderXYZ).ToQuaternion()
		v1 := NewVector3(1, 2, 3)
		v2 := q.ApplyTo(v1)
		if v2.Sub(v1).Len() > eps {
			t.Error("v1 != v2: ", v1, v2)
		}
	}

	{
		q := NewEuler(math.Pi, 0, 0, RotationOrderXYZ).ToQuaternion()
		q = q.Mul(q)
		v1 := NewVector3(1, 2, 3)
		v2 := q.ApplyTo(v1)
		if v2.Sub(v1).Len() > eps {
			t.Error("v1 != v2: ", v1, v2)
		}
	}

	{
		q := NewEuler(1, 2, 3, RotationOrderXYZ).ToQuaternion()
		q = q.Mul(q.Inverse())
		v1 := NewVector3(1, 2, 3)
		v2 := q.ApplyTo(v1)
		if v2.Sub(v1).Len() > eps {
			t.Error("v1 != v2: ", v1, v2)
		}
	}
}

func TestQuaternionMatrixAgree(t *testing.T) {
	const eps = 0.00001

	q := NewEuler(0.4, -0.7, 1.2, RotationOrderZXY).ToQuaternion()
	m := NewRotationMatrix4FromQuaternion(q)
	v := NewVector3(1, 2, 3)
	if q.ApplyTo(v).Sub(m.ApplyTo(v)).Len() > eps {
		t.Error("q.ApplyTo != m.ApplyTo: ", q.ApplyTo(v), m.ApplyTo(v))
	}

	// 90 degrees around Z maps +X to +Y
	z90 := NewQuaternionFromAxisAngle(NewVector3(0, 0, 1), math.Pi/2)
	if z90.ApplyTo(NewVector3(1, 0, 0)).Sub(NewVector3(0, 1, 0)).Len() > eps {
		t.Error("z90: ", z90.ApplyTo(NewVector3(1, 0, 0)))
	}

	if r := m.ToQuaternion(); r.Sub(q).Len() > eps && r.Add(q).Len() > eps {
		t.Error("ToQuaternion: ", r, q)
	}
}
