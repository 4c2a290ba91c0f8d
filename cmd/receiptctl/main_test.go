package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_TextFromStdin(t *testing.T) {
	var out bytes.Buffer
	stdin := strings.NewReader("CARREFOUR\n1 POULET 5.99\nTOTAL 5.99")

	err := run(context.Background(), []string{"-text", "-"}, stdin, &out)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &got))
	assert.Equal(t, "carrefour", got["parser"])
	assert.Equal(t, 5.99, got["total"])
	assert.Len(t, got["items"], 1)
}

func TestRun_RequiresInput(t *testing.T) {
	err := run(context.Background(), nil, strings.NewReader(""), &bytes.Buffer{})
	assert.Error(t, err)
}
