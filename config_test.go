// Copyright © 2026, Civictech Fuji, Fuji, Shizuoka, Japan.  All Rights Reserved.
// SPDX-License-Identifier: BSD-3-Clause

package budgetbook

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		cfg       *Config
		shouldErr bool
	}{
		{
			name: "valid config",
			cfg: &Config{
				MaxConcurrentBooks: 10,
				MaxWorkersPerBook:  2,
				WorkerTimeout:      5 * time.Second,
				ParsingMode:        BestEffort,
				MaxRetries:         1,
			},
			shouldErr: false,
		},
		{
			name: "invalid MaxConcurrentBooks (too low)",
			cfg: &Config{
				MaxConcurrentBooks: 0,
				MaxWorkersPerBook:  2,
				WorkerTimeout:      5 * time.Second,
				ParsingMode:        BestEffort,
				MaxRetries:         1,
			},
			shouldErr: true,
		},
		{
			name: "invalid MaxWorkersPerBook (too low)",
			cfg: &Config{
				MaxConcurrentBooks: 10,
				MaxWorkersPerBook:  0,
				WorkerTimeout:      5 * time.Second,
				ParsingMode:        Strict,
				MaxRetries:         1,
			},
			shouldErr: true,
		},
		{
			name: "missing WorkerTimeout",
			cfg: &Config{
				MaxConcurrentBooks: 10,
				MaxWorkersPerBook:  2,
				WorkerTimeout:      0,
				ParsingMode:        BestEffort,
				MaxRetries:         1,
			},
			shouldErr: true,
		},
		{
			name: "invalid ParsingMode",
			cfg: &Config{
				MaxConcurrentBooks: 10,
				MaxWorkersPerBook:  2,
				WorkerTimeout:      5 * time.Second,
				ParsingMode:        "invalid-mode",
				MaxRetries:         1,
			},
			shouldErr: true,
		},
		{
			name: "invalid MaxRetries (too high)",
			cfg: &Config{
				MaxConcurrentBooks: 10,
				MaxWorkersPerBook:  2,
				WorkerTimeout:      5 * time.Second,
				ParsingMode:        BestEffort,
				MaxRetries:         10,
			},
			shouldErr: true,
		},
		{
			name:      "default config is valid",
			cfg:       NewDefaultConfig(),
			shouldErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.shouldErr {
				assert.Error(t, err, "expected validation error")
			} else {
				assert.NoError(t, err, "expected validation to pass")
			}
		})
	}
}
