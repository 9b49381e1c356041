package main

import (
	"github.com/go-playground/validator/v10"
)

type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

// Config bundles the tool settings; flags populate it in main.
type Config struct {
	MaxConcurrentInputs int         `validate:"min=1,max=16"`
	Mode                ParsingMode `validate:"oneof=strict best-effort"`
	OutDir              string      `validate:"required"`
	Decode              bool
	Unpack              bool
	Verbose             bool
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentInputs: 4,
		Mode:                BestEffort,
		OutDir:              ".",
	}
}

func (cfg *Config) Validate() error {
	validate := validator.New()
	return validate.Struct(cfg)
}
