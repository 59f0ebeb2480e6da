//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package upload

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytesDataURI(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString([]byte("hello"))
	u := Upload{Data: "data:text/plain;base64," + payload, Name: "a.txt"}
	b, err := u.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(b))
}

func TestBytesRawBase64(t *testing.T) {
	u := Upload{Data: base64.StdEncoding.EncodeToString([]byte("raw")), Name: "a.txt"}
	b, err := u.Bytes()
	require.NoError(t, err)
	assert.Equal(t, "raw", string(b))
}

func TestBytesInvalid(t *testing.T) {
	_, err := Upload{Data: "%%%not-base64%%%", Name: "bad.bin"}.Bytes()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.bin")
}

func TestExtractTextMarkdown(t *testing.T) {
	src := []byte("# Quarterly Report\n\nRevenue grew by **12%** this quarter.\n\n- staffing\n- hosting\n")
	got, err := ExtractText("report.md", "", src)
	require.NoError(t, err)
	assert.Contains(t, got, "Quarterly Report")
	assert.Contains(t, got, "Revenue grew by 12% this quarter.")
	assert.NotContains(t, got, "**")
	assert.NotContains(t, got, "#")
}

func TestExtractTextHTML(t *testing.T) {
	src := []byte("<html><body><p>Shipping <em>policy</em> update</p></body></html>")
	got, err := ExtractText("policy.html", "", src)
	require.NoError(t, err)
	assert.Contains(t, got, "Shipping")
	assert.Contains(t, got, "policy")
	assert.NotContains(t, got, "<p>")
}

func TestExtractTextUTF16BOM(t *testing.T) {
	// "hi" as UTF-16LE with BOM.
	src := []byte{0xFF, 0xFE, 'h', 0x00, 'i', 0x00}
	got, err := ExtractText("note.txt", "text/plain", src)
	require.NoError(t, err)
	assert.Equal(t, "hi", got)
}

func TestExtractTextMimeFallback(t *testing.T) {
	got, err := ExtractText("attachment", "text/markdown", []byte("plain *emphasis*"))
	require.NoError(t, err)
	assert.Equal(t, "plain emphasis", got)
}

func TestExtractTextBadPDF(t *testing.T) {
	_, err := ExtractText("broken.pdf", "application/pdf", []byte("not a pdf"))
	require.Error(t, err)
}

func TestExtractAll(t *testing.T) {
	encode := func(s string) string {
		return base64.StdEncoding.EncodeToString([]byte(s))
	}
	got, err := ExtractAll([]Upload{
		{Data: encode("first file"), Name: "a.txt", Mime: "text/plain"},
		{Data: encode("second file"), Name: "b.txt", Mime: "text/plain"},
	})
	require.NoError(t, err)
	assert.Contains(t, got, "<file>a.txt</file>\nfirst file")
	assert.Contains(t, got, "<file>b.txt</file>\nsecond file")
}
