package response

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSuccessWithPagination(t *testing.T) {
	t.Run("rounds total pages up", func(t *testing.T) {
		res := SuccessWithPagination(200, []string{"a"}, 2, 20, 41)

		assert.Equal(t, "success", res.Status)
		assert.Equal(t, int64(3), res.Meta.TotalPages)
		assert.Equal(t, 2, res.Meta.Page)
	})

	t.Run("zero limit yields zero pages", func(t *testing.T) {
		res := SuccessWithPagination(200, nil, 1, 0, 10)
		assert.Equal(t, int64(0), res.Meta.TotalPages)
	})
}

func TestValidationError(t *testing.T) {
	res := ValidationError(422, map[string]string{"name": "The name field is required."})

	assert.Equal(t, "error", res.Status)
	assert.Equal(t, 422, res.StatusCode)
	assert.Equal(t, "The name field is required.", res.Errors["name"])
}
