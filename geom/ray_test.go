package geom

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRay(t *testing.T) {
	t.Run("Normalizes", func(t *testing.T) {
		ray, err := NewRay(NewVec3(1, 2, 3), NewVec3(0, 3, 4), 10)
		require.NoError(t, err)
		assert.InDelta(t, 1.0, ray.Direction().Length(), 1e-12)
		assert.InDelta(t, 0.6, ray.Direction().Y, 1e-12)
		assert.InDelta(t, 0.8, ray.Direction().Z, 1e-12)
		assert.Equal(t, 10.0, ray.Length())
		assert.Equal(t, NewVec3(1, 2, 3), ray.Origin())
	})

	t.Run("ZeroDirection", func(t *testing.T) {
		origins := []Vec3{{}, NewVec3(1, 2, 3), NewVec3(-5, 0, 1e9)}
		for _, o := range origins {
			for _, length := range []float64{0, 1, 1e6} {
				_, err := NewRay(o, Vec3{}, length)
				assert.ErrorIs(t, err, ErrInvalidArgument)
			}
		}
	})

	t.Run("NegativeLength", func(t *testing.T) {
		_, err := NewRay(Vec3{}, NewVec3(1, 0, 0), -1)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("NonFinite", func(t *testing.T) {
		_, err := NewRay(Vec3{}, NewVec3(math.Inf(1), 0, 0), 1)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = NewRay(NewVec3(math.NaN(), 0, 0), NewVec3(1, 0, 0), 1)
		assert.ErrorIs(t, err, ErrInvalidArgument)
		_, err = NewRay(Vec3{}, NewVec3(1, 0, 0), math.NaN())
		assert.ErrorIs(t, err, ErrInvalidArgument)
	})

	t.Run("ZeroValue", func(t *testing.T) {
		var ray Ray
		assert.True(t, ray.IsZero())
	})
}

func TestRay_At(t *testing.T) {
	ray, err := NewRay(NewVec3(1, 1, 1), NewVec3(2, 0, 0), 4)
	require.NoError(t, err)
	assert.Equal(t, NewVec3(3, 1, 1), ray.At(2))
	assert.Equal(t, NewVec3(5, 1, 1), ray.End())
}
