//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package stream

// CredentialIDKey is the key under which imported flow definitions embed
// credential references. It must never leave the process on the event
// stream.
const CredentialIDKey = "FLOWISE_CREDENTIAL_ID"

// StripCredentialKeys returns a copy of v with every occurrence of
// CredentialIDKey removed, at any nesting depth. Non-container values are
// returned unchanged.
func StripCredentialKeys(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			if k == CredentialIDKey {
				continue
			}
			out[k] = StripCredentialKeys(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = StripCredentialKeys(item)
		}
		return out
	default:
		return v
	}
}
