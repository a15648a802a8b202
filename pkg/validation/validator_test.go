package validation

import (
	"encoding/json"
	"testing"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Username string `json:"username" binding:"required,min=3"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

func validate(t *testing.T, v any) error {
	t.Helper()
	Init()
	engine, ok := binding.Validator.Engine().(*validator.Validate)
	require.True(t, ok)
	return engine.Struct(v)
}

func TestDetailsUseJSONFieldNames(t *testing.T) {
	err := validate(t, sample{Username: "al", Email: "nope", Password: "short"})
	require.Error(t, err)

	details := ToDetails(err)
	assert.Equal(t, "must be at least 3 characters long", details["username"])
	assert.Equal(t, "must be a valid email", details["email"])
	assert.Equal(t, "must be at least 8 characters long", details["password"])
}

func TestPwdAliasAcceptsLongPasswords(t *testing.T) {
	err := validate(t, sample{Username: "alice", Email: "a@b.co", Password: "longenough"})
	assert.NoError(t, err)
}

func TestToDetailsJSONErrors(t *testing.T) {
	var v map[string]any
	err := json.Unmarshal([]byte("{nope"), &v)
	require.Error(t, err)

	assert.Equal(t, map[string]string{"payload": "invalid json"}, ToDetails(err))
	assert.Nil(t, ToDetails(nil))
}
