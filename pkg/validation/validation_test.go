package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type batchRequest struct {
	BatchSize   int `json:"batchSize" validate:"min=1,max=100"`
	BatchOffset int `json:"batchOffset" validate:"min=0"`
}

type scanQuery struct {
	FileType string `form:"fileType" validate:"omitempty,oneof=all images videos audio pdfs documents"`
}

func TestStructReportsJSONFieldName(t *testing.T) {
	err := Struct(batchRequest{BatchSize: 0, BatchOffset: 0})
	require.Error(t, err)

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "batchSize", fe.Field)
	assert.Contains(t, fe.Message, "batchSize")
}

func TestStructUsesFormTagWhenNoJSONTag(t *testing.T) {
	err := Struct(scanQuery{FileType: "spreadsheets"})

	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "fileType", fe.Field)
}

func TestStructPasses(t *testing.T) {
	assert.NoError(t, Struct(batchRequest{BatchSize: 10, BatchOffset: 20}))
	assert.NoError(t, Struct(scanQuery{}))
}

func TestGetIsSingleton(t *testing.T) {
	assert.Same(t, Get(), Get())
}
