package fileio

import (
	"fmt"
	"math"
	"os"

	"github.com/KyungWonPark/nifti"

	"github.com/janelia-flyem/pubmrf/volume"
)

// maxNiftiLabel is the largest label that survives a round trip through
// the float32 voxels of a NIfTI-1 image.
const maxNiftiLabel = 1 << 24

// labelTolerance bounds how far a stored label value may sit from an
// integer before it is rejected.  Label maps saved through float
// pipelines often carry rounding error.
const labelTolerance = 1e-3

// loadNifti reads a single 3d NIfTI-1 volume, returning its grid size
// and voxel values in x-fastest order.
func loadNifti(path string) (volume.Point3d, []float32, error) {
	var zero volume.Point3d
	if _, err := os.Stat(path); err != nil {
		return zero, nil, fmt.Errorf("cannot read NIfTI file %q: %v", path, err)
	}

	var header nifti.Nifti1Header
	header.LoadHeader(path)
	size := volume.Point3d{int32(header.Dim[1]), int32(header.Dim[2]), int32(header.Dim[3])}
	if size[0] < 1 || size[1] < 1 || size[2] < 1 {
		return zero, nil, fmt.Errorf("NIfTI file %q has degenerate dimensions %s", path, size)
	}
	if header.Dim[0] > 3 && header.Dim[4] > 1 {
		return zero, nil, fmt.Errorf("NIfTI file %q has %d timepoints, expected a single 3d volume",
			path, header.Dim[4])
	}

	var img nifti.Nifti1Image
	img.LoadImage(path, true)

	data := make([]float32, size.Prod())
	var i int64
	for z := int32(0); z < size[2]; z++ {
		for y := int32(0); y < size[1]; y++ {
			for x := int32(0); x < size[0]; x++ {
				data[i] = img.GetAt(uint32(x), uint32(y), uint32(z), 0)
				i++
			}
		}
	}
	return size, data, nil
}

// LoadIntensity reads a subject image from a NIfTI-1 file.
func LoadIntensity(path string) (*volume.IntensityVolume, error) {
	size, data, err := loadNifti(path)
	if err != nil {
		return nil, err
	}
	return volume.NewIntensityVolume(size, data)
}

// LoadLabels reads an atlas segmentation from a NIfTI-1 label map.
// Every voxel must hold a non-negative integer label.
func LoadLabels(path string) (*volume.LabelVolume, error) {
	size, data, err := loadNifti(path)
	if err != nil {
		return nil, err
	}
	out, err := volume.NewLabelVolume(size)
	if err != nil {
		return nil, err
	}
	for i, val := range data {
		f := float64(val)
		rounded := math.Round(f)
		if rounded < 0 || math.Abs(f-rounded) > labelTolerance {
			return nil, fmt.Errorf("label map %q voxel %s holds %g, expected a non-negative integer",
				path, out.PointAt(int64(i)), f)
		}
		out.SetLabel(out.PointAt(int64(i)), uint64(rounded))
	}
	return out, nil
}

// SaveLabels writes a fused segmentation as a NIfTI-1 image.  When
// templatePath is non-empty, the output copies that file's header so the
// result aligns with the subject image in viewers.
func SaveLabels(path, templatePath string, labels *volume.LabelVolume) error {
	size := labels.Size()
	img := nifti.NewImg(int(size[0]), int(size[1]), int(size[2]), 1)
	if templatePath != "" {
		if _, err := os.Stat(templatePath); err != nil {
			return fmt.Errorf("cannot read NIfTI header template %q: %v", templatePath, err)
		}
		var header nifti.Nifti1Header
		header.LoadHeader(templatePath)
		img.SetNewHeader(header)
		img.SetHeaderDim2(int(size[0]), int(size[1]), int(size[2]), 1)
	}

	data := labels.Data()
	var i int64
	for z := int32(0); z < size[2]; z++ {
		for y := int32(0); y < size[1]; y++ {
			for x := int32(0); x < size[0]; x++ {
				label := data[i]
				if label > maxNiftiLabel {
					return fmt.Errorf("label %d at voxel %s cannot be stored exactly in a NIfTI image",
						label, volume.Point3d{x, y, z})
				}
				img.SetAt(uint32(x), uint32(y), uint32(z), 0, float32(label))
				i++
			}
		}
	}

	img.Save(path)
	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("failed to write NIfTI file %q: %v", path, err)
	}
	return nil
}
