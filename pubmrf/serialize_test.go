package pubmrf

import (
	"bytes"
	"testing"
)

func TestSerializationFormat(t *testing.T) {
	for _, compress := range []Compression{Uncompressed, Snappy, Zstd} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			format := EncodeSerializationFormat(compress, checksum)
			gotCompress, gotChecksum := DecodeSerializationFormat(format)
			if gotCompress != compress {
				t.Errorf("format byte lost compression: got %s, expected %s", gotCompress, compress)
			}
			if gotChecksum != checksum {
				t.Errorf("format byte lost checksum: got %s, expected %s", gotChecksum, checksum)
			}
		}
	}
}

func TestSerializeData(t *testing.T) {
	data := []byte("This is a test of the serialization pathways used for volume snapshots.")

	for _, compress := range []Compression{Uncompressed, Snappy, Zstd} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			s, err := SerializeData(data, compress, checksum)
			if err != nil {
				t.Fatalf("SerializeData(%s, %s): %v", compress, checksum, err)
			}
			if len(s) == 0 {
				t.Fatalf("SerializeData(%s, %s) returned empty bytes", compress, checksum)
			}
			out, gotCompress, err := DeserializeData(s, true)
			if err != nil {
				t.Fatalf("DeserializeData(%s, %s): %v", compress, checksum, err)
			}
			if gotCompress != compress {
				t.Errorf("DeserializeData got compression %s, expected %s", gotCompress, compress)
			}
			if !bytes.Equal(out, data) {
				t.Errorf("round trip (%s, %s) modified data", compress, checksum)
			}
		}
	}
}

func TestSerializeChecksum(t *testing.T) {
	data := []byte("checksummed payload")
	s, err := SerializeData(data, Snappy, CRC32)
	if err != nil {
		t.Fatalf("SerializeData: %v", err)
	}

	// Flip a bit in the compressed payload past the format and crc bytes.
	s[len(s)-1] ^= 0x04
	if _, _, err := DeserializeData(s, true); err == nil {
		t.Errorf("DeserializeData should fail on corrupted payload")
	}
}

func TestSerializeObject(t *testing.T) {
	type runRecord struct {
		ID     string
		Counts map[string]int64
	}
	obj := runRecord{
		ID: "run-017",
		Counts: map[string]int64{
			"high": 12837,
			"low":  411,
		},
	}
	s, err := Serialize(obj, Zstd, CRC32)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}
	var returned runRecord
	if err := Deserialize(s, &returned); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if returned.ID != obj.ID || len(returned.Counts) != len(obj.Counts) {
		t.Errorf("round trip got %+v, expected %+v", returned, obj)
	}
	for k, v := range obj.Counts {
		if returned.Counts[k] != v {
			t.Errorf("round trip count %q got %d, expected %d", k, returned.Counts[k], v)
		}
	}
}
