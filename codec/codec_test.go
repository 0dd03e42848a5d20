package codec

import (
	"strings"
	"testing"
	"time"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

type profile struct {
	Name    string    `json:"name" msgpack:"name" cbor:"name"`
	Updated time.Time `json:"updated" msgpack:"updated" cbor:"updated"`
}

func TestLimitRejectsOversizedPayload(t *testing.T) {
	c := Limit[profile]{Inner: JSON[profile]{}, MaxDecode: 16}
	b, err := c.Encode(profile{Name: strings.Repeat("x", 32)})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if _, err := c.Decode(b); err == nil {
		t.Fatalf("expected size error for %d bytes", len(b))
	}
	if _, err := (Limit[profile]{Inner: JSON[profile]{}}).Decode(b); err != nil {
		t.Fatalf("MaxDecode=0 must disable the limit: %v", err)
	}
}

func TestBytesDecodeCopies(t *testing.T) {
	src := []byte("doc")
	out, _ := Bytes{}.Decode(src)
	out[0] = 'X'
	if src[0] != 'd' {
		t.Fatalf("Decode must not alias the provider buffer")
	}
}

func TestCodecsPreserveResult(t *testing.T) {
	want := profile{Name: "x", Updated: time.Unix(1_700_000_000, 0).UTC()}
	codecs := map[string]Codec[profile]{
		"json":              JSON[profile]{},
		"msgpack":           Msgpack[profile]{},
		"msgpack/json-tags": Msgpack[profile]{JSONTags: true},
		"cbor":              MustCBOR[profile](true),
	}
	for name, c := range codecs {
		b, err := c.Encode(want)
		if err != nil {
			t.Fatalf("%s Encode: %v", name, err)
		}
		got, err := c.Decode(b)
		if err != nil {
			t.Fatalf("%s Decode: %v", name, err)
		}
		if got.Name != want.Name || !got.Updated.Equal(want.Updated) {
			t.Fatalf("%s: got %+v want %+v", name, got, want)
		}
	}
}

func TestProtobufCodec(t *testing.T) {
	c := NewProtobuf(func() *wrapperspb.StringValue { return &wrapperspb.StringValue{} })
	b, err := c.Encode(wrapperspb.String("profile-42"))
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := c.Decode(b)
	if err != nil || got.GetValue() != "profile-42" {
		t.Fatalf("Decode: %v %v", got, err)
	}
	if _, err := c.Decode([]byte{0xff}); err == nil {
		t.Fatalf("expected error on garbage")
	}
}

func TestMsgpackJSONTags(t *testing.T) {
	type doc struct {
		Owner string `json:"owner_id"`
	}
	b, err := Msgpack[doc]{JSONTags: true}.Encode(doc{Owner: "u1"})
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	m, err := Msgpack[map[string]any]{}.Decode(b)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if m["owner_id"] != "u1" {
		t.Fatalf("json tag not honored: %v", m)
	}
}
