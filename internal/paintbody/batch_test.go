package paintbody

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBatchValidate(t *testing.T) {
	opts := testOptions(2, AggregateMasked)
	require.NoError(t, testBatch(t, 2, true).Validate(&opts))

	cases := map[string]func(b *Batch){
		"time steps":   func(b *Batch) { b.Images = b.Images[:1] },
		"vertices":     func(b *Batch) { b.Vertices[1] = b.Vertices[1][:5] },
		"image count":  func(b *Batch) { b.Images[0] = b.Images[0][:1] },
		"image size":   func(b *Batch) { b.Images[1][1] = gradientImage(3, 8, 16, 0) },
		"missing mask": func(b *Batch) { b.VisMasks = nil },
		"mask width":   func(b *Batch) { b.VisMasks[0][1] = b.VisMasks[0][1][:3] },
		"ray shape":    func(b *Batch) { b.RayShape = []int{5, 5} },
		"no rays":      func(b *Batch) { b.Rays = nil; b.RayShape = nil },
		"far < near":   func(b *Batch) { b.Rays[0].Near, b.Rays[0].Far = 2, 1 },
		"rotation":     func(b *Batch) { b.R = nil },
		"no views":     func(b *Batch) { b.Views = nil },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			b := testBatch(t, 2, true)
			mutate(b)
			err := b.Validate(&opts)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrShapeMismatch), err.Error())
		})
	}
}

func TestBatchValidateAverageNeedsNoMask(t *testing.T) {
	opts := testOptions(1, AggregateAverage)
	assert.NoError(t, testBatch(t, 1, false).Validate(&opts))
}
