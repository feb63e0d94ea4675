package value_test

import (
	"testing"

	"github.com/zond/wiremesh/value"
)

func TestCloneEqual(t *testing.T) {
	cases := []value.Value{
		value.Int_(42),
		value.Float_(3.14),
		value.Bool_(true),
		value.String_("hello"),
		value.Bytes_([]byte{1, 2, 3}),
		value.Seq_(value.Int_(1), value.Int_(2), value.String_("x")),
		value.Table_([]string{"a", "b"}, []value.Value{value.Int_(1), value.Float_(2)}),
		value.Set_(value.Int_(1), value.Int_(2)),
		value.Color_(10, 20),
	}
	for _, v := range cases {
		dst := value.Clone(v)
		if !value.Equal(dst, v) {
			t.Errorf("clone of %v not equal to original", v.Kind)
		}
		value.Destroy(&dst)
		if dst.Kind != value.None {
			t.Errorf("destroy did not reset kind")
		}
	}
}

func TestCloneIntoReusesCapacity(t *testing.T) {
	src := value.Bytes_([]byte{1, 2, 3, 4})
	var dst value.Value
	value.CloneInto(&dst, src)
	backing := dst.BytesVal()
	// Clone a shorter value into the same dst; capacity should be able to
	// be reused (we only assert correctness here, not allocation counts,
	// since that's not observable from outside the package).
	value.CloneInto(&dst, value.Bytes_([]byte{9}))
	if len(dst.BytesVal()) != 1 || dst.BytesVal()[0] != 9 {
		t.Fatalf("unexpected reuse result: %v (backing len was %d)", dst.BytesVal(), len(backing))
	}
}

func TestHashOrderIndependenceForSet(t *testing.T) {
	a := value.Set_(value.Int_(1), value.Int_(2), value.Int_(3))
	b := value.Set_(value.Int_(3), value.Int_(1), value.Int_(2))
	ha, err := value.Hash(a)
	if err != nil {
		t.Fatal(err)
	}
	hb, err := value.Hash(b)
	if err != nil {
		t.Fatal(err)
	}
	if ha != hb {
		t.Errorf("set hash depends on insertion order")
	}
}

func TestHashOrderDependenceForSeq(t *testing.T) {
	a := value.Seq_(value.Int_(1), value.Int_(2))
	b := value.Seq_(value.Int_(2), value.Int_(1))
	ha, _ := value.Hash(a)
	hb, _ := value.Hash(b)
	if ha == hb {
		t.Errorf("seq hash should depend on order")
	}
}

func TestTableHashOrderIndependence(t *testing.T) {
	a := value.Table_([]string{"a", "b"}, []value.Value{value.Int_(1), value.Int_(2)})
	b := value.Table_([]string{"b", "a"}, []value.Value{value.Int_(2), value.Int_(1)})
	ha, _ := value.Hash(a)
	hb, _ := value.Hash(b)
	if ha != hb {
		t.Errorf("table hash depends on key order")
	}
}

func TestVectorBroadcast(t *testing.T) {
	v := value.Int4Scalar(7)
	want := [4]int32{7, 7, 7, 7}
	if got := v.Int4Vals(); got != want {
		t.Errorf("broadcast got %v want %v", got, want)
	}
	c := value.Color_(1, 2)
	if got := c.ColorVals(); got != [4]uint8{1, 2, 0, 255} {
		t.Errorf("color default lanes wrong: %v", got)
	}
}

func TestRecursionLimit(t *testing.T) {
	v := value.Int_(1)
	for i := 0; i < value.DefaultRecursionLimit+5; i++ {
		v = value.Seq_(v)
	}
	if _, err := value.Hash(v); err == nil {
		t.Errorf("expected recursion-limit error for over-deep value")
	}
}
