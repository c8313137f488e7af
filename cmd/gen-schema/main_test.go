// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/ofxbundle/internal/manifest"
)

func TestWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "bundle.schema.json")
	require.NoError(t, write(path))

	got, err := os.ReadFile(path)
	require.NoError(t, err)

	want, err := manifest.GenerateSchema()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}
