// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"time"

	"github.com/civictech-fuji/budgetbook/logger"
	"github.com/go-playground/validator/v10"
)

type ParsingMode string

const (
	Strict     ParsingMode = "strict"
	BestEffort ParsingMode = "best-effort"
)

// Config tunes how a run behaves: concurrency, retries and failure policy.
// The page geometry of the book itself lives in Layout.
type Config struct {
	MaxConcurrentBooks int           `validate:"min=1,max=10"`
	MaxWorkersPerBook  int           `validate:"min=1,max=10"`
	WorkerTimeout      time.Duration `validate:"required"`
	ParsingMode        ParsingMode   `validate:"oneof=strict best-effort"`
	MaxRetries         int           `validate:"min=0,max=3"`
	DebugOn            bool
	Logger             logger.LogFunc
}

func NewDefaultConfig() *Config {
	return &Config{
		MaxConcurrentBooks: 5,
		MaxWorkersPerBook:  4,
		WorkerTimeout:      30 * time.Second,
		ParsingMode:        BestEffort,
		MaxRetries:         2,
		DebugOn:            false,
	}
}

func (cfg *Config) Validate() error {
	logger.Debug("Validating Config Object")
	validate := validator.New()
	return validate.Struct(cfg)
}
