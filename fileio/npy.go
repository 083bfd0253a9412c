package fileio

import (
	"fmt"

	"github.com/kshedden/gonpy"

	"github.com/janelia-flyem/pubmrf/volume"
)

// npySize maps an array shape onto a volume size with x varying fastest.
// Column-major files store the x axis first; row-major files store it
// last.  Either way the flat buffer is already in x-fastest order.
func npySize(r *gonpy.NpyReader) (volume.Point3d, error) {
	if len(r.Shape) != 3 {
		return volume.Point3d{}, fmt.Errorf("array is %d-dimensional, expected 3", len(r.Shape))
	}
	if r.ColumnMajor {
		return volume.Point3d{int32(r.Shape[0]), int32(r.Shape[1]), int32(r.Shape[2])}, nil
	}
	return volume.Point3d{int32(r.Shape[2]), int32(r.Shape[1]), int32(r.Shape[0])}, nil
}

// LoadIntensityNpy reads a subject image from a 3d float array saved
// with numpy.save.
func LoadIntensityNpy(path string) (*volume.IntensityVolume, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open npy file %q: %v", path, err)
	}
	size, err := npySize(r)
	if err != nil {
		return nil, fmt.Errorf("npy file %q: %v", path, err)
	}

	var data []float32
	switch r.Dtype {
	case "f4":
		if data, err = r.GetFloat32(); err != nil {
			return nil, fmt.Errorf("npy file %q: %v", path, err)
		}
	case "f8":
		vals, err := r.GetFloat64()
		if err != nil {
			return nil, fmt.Errorf("npy file %q: %v", path, err)
		}
		data = make([]float32, len(vals))
		for i, v := range vals {
			data[i] = float32(v)
		}
	default:
		return nil, fmt.Errorf("npy file %q has dtype %q, expected f4 or f8", path, r.Dtype)
	}
	return volume.NewIntensityVolume(size, data)
}

// LoadLabelsNpy reads an atlas segmentation from a 3d integer array
// saved with numpy.save.
func LoadLabelsNpy(path string) (*volume.LabelVolume, error) {
	r, err := gonpy.NewFileReader(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open npy file %q: %v", path, err)
	}
	size, err := npySize(r)
	if err != nil {
		return nil, fmt.Errorf("npy file %q: %v", path, err)
	}
	g, err := volume.NewGrid(size)
	if err != nil {
		return nil, err
	}

	var labels []uint64
	switch r.Dtype {
	case "u8":
		if labels, err = r.GetUint64(); err != nil {
			return nil, fmt.Errorf("npy file %q: %v", path, err)
		}
	case "i8":
		vals, err := r.GetInt64()
		if err != nil {
			return nil, fmt.Errorf("npy file %q: %v", path, err)
		}
		labels = make([]uint64, len(vals))
		for i, v := range vals {
			if v < 0 {
				return nil, fmt.Errorf("label map %q voxel %s holds negative label %d",
					path, g.PointAt(int64(i)), v)
			}
			labels[i] = uint64(v)
		}
	case "u4":
		vals, err := r.GetUint32()
		if err != nil {
			return nil, fmt.Errorf("npy file %q: %v", path, err)
		}
		labels = make([]uint64, len(vals))
		for i, v := range vals {
			labels[i] = uint64(v)
		}
	case "i4":
		vals, err := r.GetInt32()
		if err != nil {
			return nil, fmt.Errorf("npy file %q: %v", path, err)
		}
		labels = make([]uint64, len(vals))
		for i, v := range vals {
			if v < 0 {
				return nil, fmt.Errorf("label map %q voxel %s holds negative label %d",
					path, g.PointAt(int64(i)), v)
			}
			labels[i] = uint64(v)
		}
	default:
		return nil, fmt.Errorf("npy file %q has dtype %q, expected an integer type", path, r.Dtype)
	}
	return volume.NewLabelVolumeFromData(size, labels)
}

// SaveLabelsNpy writes a fused segmentation as a column-major uint64
// array readable with numpy.load.
func SaveLabelsNpy(path string, labels *volume.LabelVolume) error {
	w, err := gonpy.NewFileWriter(path)
	if err != nil {
		return fmt.Errorf("cannot create npy file %q: %v", path, err)
	}
	size := labels.Size()
	w.Shape = []int{int(size[0]), int(size[1]), int(size[2])}
	w.ColumnMajor = true
	if err := w.WriteUint64(labels.Data()); err != nil {
		return fmt.Errorf("cannot write npy file %q: %v", path, err)
	}
	return nil
}
