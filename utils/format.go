/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package utils

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

const defaultTimestampFormat = "2006-01-02 15:04:05.000"

var (
	levelColors = map[logrus.Level]*color.Color{
		logrus.PanicLevel: color.New(color.FgRed, color.Bold),
		logrus.FatalLevel: color.New(color.FgRed, color.Bold),
		logrus.ErrorLevel: color.New(color.FgRed),
		logrus.WarnLevel:  color.New(color.FgYellow),
		logrus.InfoLevel:  color.New(color.FgGreen),
		logrus.DebugLevel: color.New(color.FgBlue),
		logrus.TraceLevel: color.New(color.FgMagenta),
	}
	nameColor   = color.New(color.FgCyan)
	pidColor    = color.New(color.FgMagenta)
	callerColor = color.New(color.Faint)
)

// TextLogFormatter renders log4j style lines:
//
//	2025-01-02 15:04:05.000    INFO 4242   --- [    SERVER] server/server.go:88 : message key=value
type TextLogFormatter struct {
	LoggerName      string
	TimestampFormat string
	NameWidth       int
}

func (f *TextLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	ts := entry.Time.Format(orDefault(f.TimestampFormat, defaultTimestampFormat))
	lvl := fmt.Sprintf("%7s", strings.ToUpper(entry.Level.String()))
	if c, ok := levelColors[entry.Level]; ok {
		lvl = c.Sprint(lvl)
	}

	name := f.LoggerName
	if f.NameWidth > 0 {
		if r := []rune(name); len(r) > f.NameWidth {
			name = string(r[:f.NameWidth])
		}
		name = fmt.Sprintf("%*s", f.NameWidth, name)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s --- [%s]", ts, lvl, pidColor.Sprintf("%-6d", os.Getpid()), nameColor.Sprint(name))
	if caller := shortCaller(entry); caller != "" {
		b.WriteString(" " + callerColor.Sprint(caller))
	}
	b.WriteString(" : ")
	b.WriteString(entry.Message)
	for _, k := range sortedKeys(entry.Data) {
		fmt.Fprintf(&b, " %s=%v", k, entry.Data[k])
	}
	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// JSONLogFormatter renders one JSON object per line. Request fields written
// by the HTTP middleware are promoted to top level keys.
type JSONLogFormatter struct {
	LoggerName      string
	TimestampFormat string
}

type jsonLogRecord struct {
	Time       string                 `json:"time"`
	Level      string                 `json:"level"`
	Logger     string                 `json:"logger"`
	Caller     string                 `json:"caller,omitempty"`
	Message    string                 `json:"message"`
	RequestID  string                 `json:"request_id,omitempty"`
	ClientIP   string                 `json:"client_ip,omitempty"`
	Method     string                 `json:"method,omitempty"`
	Path       string                 `json:"path,omitempty"`
	StatusCode int                    `json:"status_code,omitempty"`
	Latency    string                 `json:"latency,omitempty"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

func (f *JSONLogFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	rec := jsonLogRecord{
		Time:    entry.Time.Format(orDefault(f.TimestampFormat, defaultTimestampFormat)),
		Level:   entry.Level.String(),
		Logger:  f.LoggerName,
		Caller:  shortCaller(entry),
		Message: entry.Message,
	}

	extra := make(map[string]interface{}, len(entry.Data))
	for k, v := range entry.Data {
		if !rec.promote(k, v) {
			if err, ok := v.(error); ok {
				v = err.Error()
			}
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		rec.Fields = extra
	}

	b, err := json.Marshal(rec)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal log entry: %w", err)
	}
	return append(b, '\n'), nil
}

func (rec *jsonLogRecord) promote(key string, v interface{}) bool {
	switch key {
	case "status_code":
		if n, ok := v.(int); ok {
			rec.StatusCode = n
			return true
		}
		return false
	case "request_id", "client_ip", "method", "path", "latency":
	default:
		return false
	}
	s, ok := v.(string)
	if !ok {
		if d, isDur := v.(time.Duration); isDur && key == "latency" {
			s, ok = d.String(), true
		}
	}
	if !ok || s == "" {
		return false
	}
	switch key {
	case "request_id":
		rec.RequestID = s
	case "client_ip":
		rec.ClientIP = s
	case "method":
		rec.Method = s
	case "path":
		rec.Path = s
	case "latency":
		rec.Latency = s
	}
	return true
}

// shortCaller keeps the last directory and the file name, e.g. "server/server.go:88".
func shortCaller(entry *logrus.Entry) string {
	if entry.Caller == nil {
		return ""
	}
	file := filepath.ToSlash(entry.Caller.File)
	dir := filepath.Base(filepath.Dir(file))
	return fmt.Sprintf("%s/%s:%d", dir, filepath.Base(file), entry.Caller.Line)
}

func sortedKeys(data logrus.Fields) []string {
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
