package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type validatorTestConfig struct {
	Path     string `validate:"required"`
	Capacity int    `validate:"gte=0"`
	Level    string `validate:"omitempty,oneof=debug info"`
}

func TestValidator(t *testing.T) {
	v := NewValidator()

	tests := []struct {
		name    string
		cfg     any
		wantErr error
	}{
		{name: "valid", cfg: &validatorTestConfig{Path: "items.yaml", Capacity: 1, Level: "info"}},
		{name: "missing path", cfg: &validatorTestConfig{Capacity: 1}, wantErr: ErrValidationFailed},
		{name: "negative capacity", cfg: &validatorTestConfig{Path: "x", Capacity: -1}, wantErr: ErrValidationFailed},
		{name: "bad level", cfg: &validatorTestConfig{Path: "x", Level: "trace"}, wantErr: ErrValidationFailed},
		{name: "nil", cfg: nil, wantErr: ErrNilConfig},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.cfg)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestValidatorMessage(t *testing.T) {
	err := NewValidator().Validate(&validatorTestConfig{Capacity: 1})
	assert.ErrorContains(t, err, "validatorTestConfig.Path' is required")
}

func TestValidateField(t *testing.T) {
	v := NewValidator()
	assert.NoError(t, v.ValidateField(3, "gt=0"))
	assert.ErrorIs(t, v.ValidateField(0, "gt=0"), ErrValidationFailed)
}
