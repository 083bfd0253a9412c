package fileio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"

	"github.com/janelia-flyem/pubmrf/pubmrf"
	"github.com/janelia-flyem/pubmrf/volume"
)

// Snapshot files carry a plain magic prefix so readers can reject
// foreign files before touching the compressed payload, then a format
// version and a payload kind.  The payload itself is serialized with
// snappy compression and a CRC32 checksum.
var snapshotMagic = []byte("PMRF")

const (
	snapshotVersion = 1

	voteKind  = 1 // grid size, atlas count, voxel-major vote records
	labelKind = 2 // grid size, one label per voxel
)

func writeSnapshot(path string, kind byte, payload []byte) error {
	serialized, err := pubmrf.SerializeData(payload, pubmrf.Snappy, pubmrf.CRC32)
	if err != nil {
		return fmt.Errorf("cannot serialize snapshot: %v", err)
	}
	out := make([]byte, 0, len(snapshotMagic)+2+len(serialized))
	out = append(out, snapshotMagic...)
	out = append(out, snapshotVersion, kind)
	out = append(out, serialized...)
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("cannot write snapshot %q: %v", path, err)
	}
	return nil
}

func readSnapshot(path string, kind byte) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read snapshot %q: %v", path, err)
	}
	header := len(snapshotMagic) + 2
	if len(data) < header || !bytes.Equal(data[:len(snapshotMagic)], snapshotMagic) {
		return nil, fmt.Errorf("%q is not a snapshot file", path)
	}
	if version := data[len(snapshotMagic)]; version != snapshotVersion {
		return nil, fmt.Errorf("snapshot %q has format version %d, expected %d",
			path, version, snapshotVersion)
	}
	if got := data[len(snapshotMagic)+1]; got != kind {
		return nil, fmt.Errorf("snapshot %q holds payload kind %d, expected %d", path, got, kind)
	}
	payload, _, err := pubmrf.DeserializeData(data[header:], true)
	if err != nil {
		return nil, fmt.Errorf("snapshot %q: %v", path, err)
	}
	return payload, nil
}

// SaveVotes writes a tallied vote volume so later runs can skip the
// per-atlas tally.
func SaveVotes(path string, votes *volume.VoteVolume) error {
	records := votes.Records()
	size := votes.Size()

	payload := make([]byte, 0, 16+8*len(records))
	payload = append(payload, size.ToBytes()...)
	payload = binary.LittleEndian.AppendUint32(payload, uint32(votes.NumAtlases()))
	for _, rec := range records {
		payload = binary.LittleEndian.AppendUint64(payload, rec)
	}
	return writeSnapshot(path, voteKind, payload)
}

// LoadVotes reads back a vote volume written by SaveVotes.
func LoadVotes(path string) (*volume.VoteVolume, error) {
	payload, err := readSnapshot(path, voteKind)
	if err != nil {
		return nil, err
	}
	if len(payload) < 16 {
		return nil, fmt.Errorf("vote snapshot %q payload is truncated", path)
	}
	size, err := pubmrf.PointFromBytes(payload[:12])
	if err != nil {
		return nil, fmt.Errorf("vote snapshot %q: %v", path, err)
	}
	numAtlases := int(binary.LittleEndian.Uint32(payload[12:16]))

	records, err := uint64Section(payload[16:])
	if err != nil {
		return nil, fmt.Errorf("vote snapshot %q: %v", path, err)
	}
	v, err := volume.NewVoteVolumeFromRecords(size, numAtlases, records)
	if err != nil {
		return nil, fmt.Errorf("vote snapshot %q: %v", path, err)
	}
	return v, nil
}

// SaveLabelsRaw writes a label volume as a compressed snapshot.
func SaveLabelsRaw(path string, labels *volume.LabelVolume) error {
	data := labels.Data()
	size := labels.Size()

	payload := make([]byte, 0, 12+8*len(data))
	payload = append(payload, size.ToBytes()...)
	for _, label := range data {
		payload = binary.LittleEndian.AppendUint64(payload, label)
	}
	return writeSnapshot(path, labelKind, payload)
}

// LoadLabelsRaw reads back a label volume written by SaveLabelsRaw.
func LoadLabelsRaw(path string) (*volume.LabelVolume, error) {
	payload, err := readSnapshot(path, labelKind)
	if err != nil {
		return nil, err
	}
	if len(payload) < 12 {
		return nil, fmt.Errorf("label snapshot %q payload is truncated", path)
	}
	size, err := pubmrf.PointFromBytes(payload[:12])
	if err != nil {
		return nil, fmt.Errorf("label snapshot %q: %v", path, err)
	}
	labels, err := uint64Section(payload[12:])
	if err != nil {
		return nil, fmt.Errorf("label snapshot %q: %v", path, err)
	}
	v, err := volume.NewLabelVolumeFromData(size, labels)
	if err != nil {
		return nil, fmt.Errorf("label snapshot %q: %v", path, err)
	}
	return v, nil
}

func uint64Section(body []byte) ([]uint64, error) {
	if len(body)%8 != 0 {
		return nil, fmt.Errorf("truncated %d-byte record section", len(body))
	}
	vals := make([]uint64, len(body)/8)
	for i := range vals {
		vals[i] = binary.LittleEndian.Uint64(body[8*i:])
	}
	return vals, nil
}
