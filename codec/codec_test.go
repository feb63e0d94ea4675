package codec_test

import (
	"log"
	"testing"

	"github.com/bxcodec/faker/v4"
	"github.com/bxcodec/faker/v4/pkg/options"

	"github.com/zond/wiremesh/codec"
	"github.com/zond/wiremesh/shard"
	"github.com/zond/wiremesh/stdshards"
	"github.com/zond/wiremesh/value"
	"github.com/zond/wiremesh/wire"
)

var fakePayloads struct {
	Strings []string
	Blobs   [][]byte
	Ints    []int64
	Floats  []float64
	Named   map[string]string
}

func init() {
	if err := faker.FakeData(&fakePayloads, options.WithRandomMapAndSliceMaxSize(10)); err != nil {
		log.Panic(err)
	}
}

// TestValueRoundTrip checks decode(encode(v)) == v across one instance of
// every serializable kind.
func TestValueRoundTrip(t *testing.T) {
	cases := []value.Value{
		value.None_(),
		value.Bool_(true),
		value.Int_(-7),
		value.Int2_(1, 2),
		value.Int3_(1, 2, 3),
		value.Int4_(1, 2, 3, 4),
		value.Int8Scalar(5),
		value.Int16Scalar(-1),
		value.Float_(3.5),
		value.Float2_(1.5, 2.5),
		value.Float3_(1, 2, 3),
		value.Float4_(1, 2, 3, 4),
		value.Color_(1, 2, 3),
		value.Enum_(1, 2, 3),
		value.String_("hello"),
		value.Path_("/a/b"),
		value.ContextVar_("x"),
		value.Bytes_([]byte{1, 2, 3}),
		value.Image_(3, 0, 2, 1, []byte{1, 2, 3, 4, 5, 6}),
		value.Audio_(2, 44100, []float32{0.5, -0.5}),
		value.Seq_(value.Int_(1), value.String_("a")),
		value.Table_([]string{"a", "b"}, []value.Value{value.Int_(1), value.Float_(2)}),
		value.Set_(value.Int_(1), value.Int_(2)),
		value.Array_(value.Int, [][16]byte{{1}, {2}}),
	}
	c := codec.New(shard.NewRegistry())
	for _, v := range cases {
		b, err := c.EncodeValue(v)
		if err != nil {
			t.Fatalf("encode %v: %v", v.Kind, err)
		}
		got, err := c.DecodeValue(b)
		if err != nil {
			t.Fatalf("decode %v: %v", v.Kind, err)
		}
		if !value.Equal(got, v) {
			t.Errorf("round trip mismatch for kind %v: got %v", v.Kind, got)
		}
	}
}

// TestValueRoundTripFakedData runs the same round trip over randomly
// generated payloads, so the fixed cases above can't hide a
// length-dependent framing bug.
func TestValueRoundTripFakedData(t *testing.T) {
	c := codec.New(shard.NewRegistry())
	var cases []value.Value
	for _, s := range fakePayloads.Strings {
		cases = append(cases, value.String_(s))
	}
	for _, b := range fakePayloads.Blobs {
		cases = append(cases, value.Bytes_(b))
	}
	var seq []value.Value
	for _, i := range fakePayloads.Ints {
		seq = append(seq, value.Int_(i))
	}
	for _, f := range fakePayloads.Floats {
		seq = append(seq, value.Float_(f))
	}
	cases = append(cases, value.Seq_(seq...))
	var keys []string
	var vals []value.Value
	for k, v := range fakePayloads.Named {
		keys = append(keys, k)
		vals = append(vals, value.String_(v))
	}
	cases = append(cases, value.Table_(keys, vals))
	for _, v := range cases {
		b, err := c.EncodeValue(v)
		if err != nil {
			t.Fatalf("encode %v: %v", v.Kind, err)
		}
		got, err := c.DecodeValue(b)
		if err != nil {
			t.Fatalf("decode %v: %v", v.Kind, err)
		}
		if !value.Equal(got, v) {
			t.Errorf("round trip mismatch for kind %v", v.Kind)
		}
	}
}

// TestValueRoundTripStableBytes checks that re-encoding a decoded value
// produces byte-identical output.
func TestValueRoundTripStableBytes(t *testing.T) {
	c := codec.New(shard.NewRegistry())
	v := value.Table_([]string{"a", "b"}, []value.Value{value.Seq_(value.Int_(1), value.Int_(2)), value.String_("x")})
	b1, err := c.EncodeValue(v)
	if err != nil {
		t.Fatal(err)
	}
	decoded, err := c.DecodeValue(b1)
	if err != nil {
		t.Fatal(err)
	}
	b2, err := c.EncodeValue(decoded)
	if err != nil {
		t.Fatal(err)
	}
	if string(b1) != string(b2) {
		t.Fatalf("re-encode not byte-identical: %x vs %x", b1, b2)
	}
}

// TestWireRoundTrip encodes a small wire, decodes it through a second Codec
// over the same registry, and checks the shard sequence and parameters
// survived and that re-encoding is byte-identical.
func TestWireRoundTrip(t *testing.T) {
	reg := shard.NewRegistry()
	stdshards.Register(reg)

	constShard, _ := reg.Create("Const")
	cs := constShard.(*stdshards.Const)
	if err := cs.SetParam(0, value.Int_(42)); err != nil {
		t.Fatal(err)
	}
	passShard, _ := reg.Create("Pass")

	w, err := wire.New("roundtrip", []shard.Shard{cs, passShard}, wire.Config{Looped: false, Pure: true})
	if err != nil {
		t.Fatal(err)
	}

	c := codec.New(reg)
	b, err := c.EncodeWire(w)
	if err != nil {
		t.Fatalf("encode wire: %v", err)
	}

	c2 := codec.New(reg)
	got, err := c2.DecodeWire(b)
	if err != nil {
		t.Fatalf("decode wire: %v", err)
	}
	if got.WireName() != "roundtrip" || !got.Pure {
		t.Fatalf("unexpected decoded wire: name=%q pure=%v", got.WireName(), got.Pure)
	}
	if len(got.Shards()) != 2 {
		t.Fatalf("expected 2 shards, got %d", len(got.Shards()))
	}
	if got.Shards()[0].GetParam(0).IntVal() != 42 {
		t.Fatalf("Const param did not survive round trip")
	}

	b2, err := c2.EncodeWire(got)
	if err != nil {
		t.Fatalf("re-encode wire: %v", err)
	}
	if string(b) != string(b2) {
		t.Fatalf("wire re-encode not byte-identical")
	}
}
