//
// Copyright (C) 2026 The FlowKit Authors.  All rights reserved.
//
// flowkit is licensed under the Apache License Version 2.0.
//
//

package log

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type recordingLogger struct {
	debugs []string
	infos  []string
	errors []string
}

func (r *recordingLogger) Debug(args ...any)                 { r.debugs = append(r.debugs, "d") }
func (r *recordingLogger) Debugf(format string, args ...any) { r.debugs = append(r.debugs, format) }
func (r *recordingLogger) Info(args ...any)                  { r.infos = append(r.infos, "i") }
func (r *recordingLogger) Infof(format string, args ...any)  { r.infos = append(r.infos, format) }
func (r *recordingLogger) Warn(args ...any)                  {}
func (r *recordingLogger) Warnf(format string, args ...any)  {}
func (r *recordingLogger) Error(args ...any)                 { r.errors = append(r.errors, "e") }
func (r *recordingLogger) Errorf(format string, args ...any) { r.errors = append(r.errors, format) }
func (r *recordingLogger) Fatal(args ...any)                 {}
func (r *recordingLogger) Fatalf(format string, args ...any) {}

func TestDefaultLoggerReplacement(t *testing.T) {
	orig := Default
	defer func() { Default = orig }()

	rec := &recordingLogger{}
	Default = rec

	Infof("hello %s", "world")
	Errorf("boom")
	Debug("x")

	require.Equal(t, []string{"hello %s"}, rec.infos)
	require.Equal(t, []string{"boom"}, rec.errors)
	require.Equal(t, []string{"d"}, rec.debugs)
}

func TestSetLevelDoesNotPanic(t *testing.T) {
	for _, lvl := range []string{LevelDebug, LevelInfo, LevelWarn, LevelError, LevelFatal, "bogus"} {
		SetLevel(lvl)
	}
	SetLevel(LevelInfo)
}
