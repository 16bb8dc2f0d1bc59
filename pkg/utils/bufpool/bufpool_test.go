package bufpool

import (
	"testing"
)

func TestGetPut(t *testing.T) {
	buf := Get()
	if len(buf) != 0 {
		t.Fatalf("fresh buffer has length %d", len(buf))
	}
	if cap(buf) < BufferSize {
		t.Fatalf("fresh buffer capacity %d below %d", cap(buf), BufferSize)
	}
	buf = append(buf, []byte("some envelope bytes")...)
	Put(buf)
	buf2 := Get()
	if len(buf2) != 0 {
		t.Fatal("recycled buffer not reset")
	}
	Put(buf2)
}

func TestPutBytesToleratesGrownBuffers(t *testing.T) {
	buf := Get()
	for range 100 {
		buf = append(buf, "0123456789abcdef"...)
	}
	// grown past BufferSize; must still be returnable
	PutBytes(buf)
}

func BenchmarkGetPut(b *testing.B) {
	for i := 0; i < b.N; i++ {
		buf := Get()
		Put(buf)
	}
}
