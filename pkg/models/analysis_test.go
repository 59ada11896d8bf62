package models

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalysisResult_OptionalFields(t *testing.T) {
	var r AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(`{"descripcion":"Reflectores continuos"}`), &r))

	require.NotNil(t, r.Description)
	assert.Equal(t, "Reflectores continuos", *r.Description)
	assert.Nil(t, r.ProcessedImage)
	assert.Nil(t, r.PDF)
	assert.False(t, r.IsEmpty())
}

func TestAnalysisResult_IsEmpty(t *testing.T) {
	var nilResult *AnalysisResult
	assert.True(t, nilResult.IsEmpty())

	var r AnalysisResult
	require.NoError(t, json.Unmarshal([]byte(`{"otro":"valor","descripcion":null}`), &r))
	assert.True(t, r.IsEmpty())
}

func TestOutcome_Constructors(t *testing.T) {
	ok := Success(200, nil)
	assert.True(t, ok.IsSuccess())
	assert.NotNil(t, ok.Result)
	assert.Equal(t, "Success(200)", ok.String())

	srv := ServerError(500)
	assert.Equal(t, OutcomeServerError, srv.Kind)
	assert.Nil(t, srv.Result)
	assert.Equal(t, "ServerError(500)", srv.String())

	bad := MalformedBody(200, errors.New("invalid character '<'"))
	assert.Equal(t, OutcomeMalformedBody, bad.Kind)
	assert.Equal(t, "invalid character '<'", bad.Message)

	tf := TransportFailure(errors.New("connection refused"), false)
	assert.Equal(t, "TransportFailure(connection refused)", tf.String())
	assert.False(t, tf.Timeout)
}

func TestUploadedFile_Size(t *testing.T) {
	var f *UploadedFile
	assert.Equal(t, int64(0), f.Size())
	assert.Equal(t, int64(3), (&UploadedFile{Data: []byte{1, 2, 3}}).Size())
}
