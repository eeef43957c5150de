package paintbody

import "github.com/golang/geo/r3"

// VoxelCoord is an occupied voxel index in (z, y, x) order.
type VoxelCoord [3]int

// SparseVolume is the occupancy of one body instance: occupied voxels with
// their features, the dense out shape (d, h, w) and the world box.
type SparseVolume struct {
	Coords    []VoxelCoord
	Features  [][]float32
	OutShape  [3]int
	BoundsMin r3.Vector
	BoundsMax r3.Vector
}

// VolumeQuery is the sparse-volume input in the layout the predictor
// consumes: every coordinate prefixed with its instance index, features
// flattened, and the out shape taken as the per-axis maximum.
type VolumeQuery struct {
	Coords     [][4]int // instance, z, y, x
	Features   []float32
	FeatureDim int
	OutShape   [3]int
	BatchSize  int
}

// PrepareVolume merges per-instance volumes into one VolumeQuery.
func PrepareVolume(vols []*SparseVolume) (*VolumeQuery, error) {
	q := &VolumeQuery{BatchSize: len(vols), FeatureDim: -1}
	for bi, v := range vols {
		if len(v.Features) != 0 && len(v.Features) != len(v.Coords) {
			return nil, shapeErrorf("volume %d has %d coords and %d feature rows", bi, len(v.Coords), len(v.Features))
		}
		for a := 0; a < 3; a++ {
			q.OutShape[a] = imax(q.OutShape[a], v.OutShape[a])
		}
		for i, c := range v.Coords {
			q.Coords = append(q.Coords, [4]int{bi, c[0], c[1], c[2]})
			if len(v.Features) == 0 {
				continue
			}
			f := v.Features[i]
			if q.FeatureDim < 0 {
				q.FeatureDim = len(f)
			} else if len(f) != q.FeatureDim {
				return nil, shapeErrorf("volume %d feature %d has %d channels, want %d", bi, i, len(f), q.FeatureDim)
			}
			q.Features = append(q.Features, f...)
		}
	}
	if q.FeatureDim < 0 {
		q.FeatureDim = 0
	}
	if q.FeatureDim > 0 && len(q.Features) != len(q.Coords)*q.FeatureDim {
		return nil, shapeErrorf("volumes mix featured and featureless coords")
	}
	return q, nil
}
