//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

// Package upload turns user file attachments into plain text the engine
// can inject into a flow as the file_attachment runtime reference.
package upload

import (
	"encoding/base64"
	"fmt"
	"path/filepath"
	"strings"
)

// Upload is one attachment sent along with a prediction request. Data is
// either raw base64 or a data URI as produced by browser file pickers.
type Upload struct {
	Data string `json:"data"`
	Type string `json:"type"`
	Name string `json:"name"`
	Mime string `json:"mime"`
}

// Bytes decodes the attachment payload, tolerating a data URI prefix.
func (u Upload) Bytes() ([]byte, error) {
	raw := u.Data
	if strings.HasPrefix(raw, "data:") {
		if _, rest, ok := strings.Cut(raw, ","); ok {
			raw = rest
		}
	}
	b, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("decode upload %q: %w", u.Name, err)
	}
	return b, nil
}

// ExtractText converts one attachment's bytes to plain text based on the
// file extension, falling back to the declared mime type.
func ExtractText(name, mime string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return extractPDF(data)
	case ".md", ".markdown":
		return extractMarkdown(data)
	case ".html", ".htm":
		return extractHTML(data)
	}
	switch mime {
	case "application/pdf":
		return extractPDF(data)
	case "text/markdown":
		return extractMarkdown(data)
	case "text/html":
		return extractHTML(data)
	}
	return decodeText(data)
}

// ExtractAll extracts every attachment and joins them into one block, each
// file introduced by a header line with its name.
func ExtractAll(uploads []Upload) (string, error) {
	var sb strings.Builder
	for i, u := range uploads {
		data, err := u.Bytes()
		if err != nil {
			return "", err
		}
		text, err := ExtractText(u.Name, u.Mime, data)
		if err != nil {
			return "", fmt.Errorf("extract %q: %w", u.Name, err)
		}
		if i > 0 {
			sb.WriteString("\n\n")
		}
		fmt.Fprintf(&sb, "<file>%s</file>\n%s", u.Name, text)
	}
	return sb.String(), nil
}
