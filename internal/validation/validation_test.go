package validation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateServicesNothingRequired(t *testing.T) {
	sv := NewServiceValidator(nil)
	sv.Register("redis", func(context.Context) error { return errors.New("down") })
	assert.NoError(t, sv.ValidateServices(context.Background()))
}

func TestValidateServicesRunsRequiredChecksOnly(t *testing.T) {
	var ran []string
	sv := NewServiceValidator([]string{"database"})
	record := func(name string) Check {
		return func(context.Context) error {
			ran = append(ran, name)
			return nil
		}
	}
	sv.Register("database", record("database"))
	sv.Register("redis", record("redis"))

	require.NoError(t, sv.ValidateServices(context.Background()))
	assert.Equal(t, []string{"database"}, ran)
	assert.Equal(t, []string{"database", "redis"}, sv.Configured())
}

func TestValidateServicesFailures(t *testing.T) {
	down := errors.New("connection refused")

	sv := NewServiceValidator([]string{"redis"})
	sv.Register("redis", func(context.Context) error { return down })
	err := sv.ValidateServices(context.Background())
	assert.ErrorIs(t, err, down)
	assert.Contains(t, err.Error(), `"redis"`)

	err = NewServiceValidator([]string{"s3"}).ValidateServices(context.Background())
	assert.EqualError(t, err, `required service "s3" is not configured`)
}

func TestValidateServicesAppliesTimeout(t *testing.T) {
	sv := NewServiceValidator([]string{"ses"})
	sv.Register("ses", func(ctx context.Context) error {
		deadline, ok := ctx.Deadline()
		require.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(CheckTimeout), deadline, time.Second)
		return nil
	})
	assert.NoError(t, sv.ValidateServices(context.Background()))
}
