package protocol

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func decodeHex(t *testing.T, s string) []byte {
	t.Helper()
	b, err := hex.DecodeString(s)
	if err != nil {
		t.Fatalf("bad hex %q: %v", s, err)
	}
	return b
}

func TestDecodeSimpleVariants(t *testing.T) {
	cases := []struct {
		tag  string
		want Packet
	}{
		{"QINF", QueryInfo{tag("QINF")}},
		{"CIAK", InfoAck{tag("CIAK")}},
		{"CALV", KeepAlive{tag("CALV")}},
		{"CNOP", ClientNoOp{tag("CNOP")}},
		{"CROP", ResetOptions{tag("CROP")}},
		{"EUNK", ErrorUnknownDevice{tag("EUNK")}},
		{"COUT", CursorLeave{tag("COUT")}},
	}
	for _, c := range cases {
		pkt, err := Decode([]byte(c.tag))
		if err != nil {
			t.Fatalf("%s: decode: %v", c.tag, err)
		}
		if pkt != c.want {
			t.Fatalf("%s: decoded %#v, want %#v", c.tag, pkt, c.want)
		}
	}
}

func TestDecodeDeviceInfo(t *testing.T) {
	body := NewBodyWriter().Raw([]byte("DINF")).
		U16(1).U16(2).U16(1920).U16(1080).U16(0xFFFF).U16(3).U16(4).Bytes()
	pkt, err := Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	want := DeviceInfo{tag("DINF"), 1, 2, 1920, 1080, 3, 4}
	if pkt != want {
		t.Fatalf("got %#v, want %#v", pkt, want)
	}
}

func TestDecodeKeyRepeatFieldOrder(t *testing.T) {
	body := NewBodyWriter().Raw([]byte("DKRP")).
		U16(0x0041).U16(0x8000).U16(5).U16(10).Bytes()
	pkt, err := Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	want := KeyRepeat{tag("DKRP"), 0x0041, 0x8000, 5, 10}
	if pkt != want {
		t.Fatalf("got %#v, want %#v (id, mask, count, button order)", pkt, want)
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	pkt, err := Decode([]byte("ZZZZ"))
	if err != nil {
		t.Fatal(err)
	}
	u, ok := pkt.(Unknown)
	if !ok {
		t.Fatalf("got %T, want Unknown", pkt)
	}
	if string(u.Raw[:]) != "ZZZZ" {
		t.Fatalf("Raw = %q", u.Raw)
	}
}

func TestDecodeDiscardsTrailingBytes(t *testing.T) {
	body := NewBodyWriter().Raw([]byte("CALV")).Raw([]byte{0xAA, 0xBB, 0xCC}).Bytes()
	pkt, err := Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	if pkt != (KeepAlive{tag("CALV")}) {
		t.Fatalf("got %#v", pkt)
	}
}

// Scenario 2: keepalive echo.
func TestScenarioKeepaliveEcho(t *testing.T) {
	frame := decodeHex(t, "0000000443414C56")
	var buf bytes.Buffer
	buf.Write(frame)
	fr := NewFrameReader(&buf)
	body, err := fr.ReadFrame()
	if err != nil {
		t.Fatal(err)
	}
	pkt, err := Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := pkt.(KeepAlive); !ok {
		t.Fatalf("got %T, want KeepAlive", pkt)
	}

	var out bytes.Buffer
	fw := NewFrameWriter(&out)
	tagBytes, replyBody, err := Encode(KeepAlive{})
	if err != nil {
		t.Fatal(err)
	}
	if err := fw.WriteFrame(tagBytes, replyBody); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), frame) {
		t.Fatalf("reply = % X, want % X", out.Bytes(), frame)
	}
}

// Scenario 3: QueryInfo reply for a 1920x1080 screen.
func TestScenarioQueryInfoReply(t *testing.T) {
	want := decodeHex(t, "00000012"+ // length
		"44494E46"+ // DINF
		"0000"+ // x
		"0000"+ // y
		"0780"+ // w = 1920
		"0438"+ // h = 1080
		"0000"+ // pad
		"0000"+ // mx
		"0000") // my

	var out bytes.Buffer
	fw := NewFrameWriter(&out)
	tagBytes, body, err := Encode(DeviceInfo{X: 0, Y: 0, W: 1920, H: 1080, MX: 0, MY: 0})
	if err != nil {
		t.Fatal(err)
	}
	if err := fw.WriteFrame(tagBytes, body); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(out.Bytes(), want) {
		t.Fatalf("reply = % X, want % X", out.Bytes(), want)
	}
}
