package canopy

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func assertNear(t *testing.T, name string, got, want float64) {
	t.Helper()
	if math.Abs(got-want) > epsilon {
		t.Errorf("%s = %v, want %v", name, got, want)
	}
}

func assertMatrix(t *testing.T, name string, got, want Affine) {
	t.Helper()
	for i := range got {
		if math.Abs(got[i]-want[i]) > epsilon {
			t.Errorf("%s[%d] = %v, want %v (full: %v vs %v)", name, i, got[i], want[i], got, want)
		}
	}
}

func TestIdentity(t *testing.T) {
	m := Identity()
	if !m.IsIdentity() {
		t.Errorf("Identity() = %v, not identity", m)
	}
	var zero Affine
	if zero.IsIdentity() {
		t.Error("zero Affine should not be identity")
	}
}

func TestRotate90(t *testing.T) {
	// cos(90)=0, sin(90)=1 → a=0, b=1, c=-1, d=0
	assertMatrix(t, "rot90", Rotate(math.Pi/2), Affine{0, 1, -1, 0, 0, 0})
	x, y := Rotate(math.Pi/2).Apply(1, 0)
	assertNear(t, "x", x, 0)
	assertNear(t, "y", y, 1)
}

func TestMultiplyAppliesRightFirst(t *testing.T) {
	// Scale then translate.
	m := Translate(10, 20).Multiply(ScaleAffine(2, 3))
	assertMatrix(t, "T*S", m, Affine{2, 0, 0, 3, 10, 20})
	x, y := m.Apply(1, 1)
	assertNear(t, "x", x, 12)
	assertNear(t, "y", y, 23)

	// Translate then scale.
	m = ScaleAffine(2, 3).Multiply(Translate(10, 20))
	assertMatrix(t, "S*T", m, Affine{2, 0, 0, 3, 20, 60})
}

func TestRotateAboutKeepsPivot(t *testing.T) {
	m := RotateAbout(1.234, 50, 75)
	x, y := m.Apply(50, 75)
	assertNear(t, "pivot x", x, 50)
	assertNear(t, "pivot y", y, 75)
}

func TestInvertRoundTrip(t *testing.T) {
	m := Translate(10, -4).Multiply(Rotate(0.7)).Multiply(ScaleAffine(3, 0.25))
	inv, ok := m.Invert()
	if !ok {
		t.Fatal("Invert reported singular matrix")
	}
	assertMatrix(t, "m*inv", m.Multiply(inv), Identity())
	assertMatrix(t, "inv*m", inv.Multiply(m), Identity())
}

func TestInvertSingular(t *testing.T) {
	inv, ok := ScaleAffine(0, 5).Invert()
	if ok {
		t.Error("Invert should fail for a zero scale")
	}
	if !inv.IsIdentity() {
		t.Errorf("singular Invert = %v, want identity", inv)
	}
}

func TestIsTranslation(t *testing.T) {
	if !Translate(3, 4).IsTranslation() {
		t.Error("Translate should be a translation")
	}
	if ScaleAffine(2, 1).IsTranslation() {
		t.Error("scale should not be a translation")
	}
}

func TestBoundingBox(t *testing.T) {
	r := RectXYWH(0, 0, 10, 20)

	got := Translate(5, 5).BoundingBox(r)
	if got != RectXYWH(5, 5, 10, 20) {
		t.Errorf("translated BoundingBox = %v", got)
	}

	got = Rotate(math.Pi / 2).BoundingBox(r)
	assertNear(t, "X", got.X, -20)
	assertNear(t, "Y", got.Y, 0)
	assertNear(t, "Width", got.Width, 20)
	assertNear(t, "Height", got.Height, 10)
}
