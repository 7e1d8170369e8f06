/*
 * Copyright 2025 Carver Automation Corporation.
 *
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

package config

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/carverauto/dashgate/pkg/logger"
)

var (
	// ErrDstMustBeNonNilPointer indicates that the destination must be a non-nil pointer.
	ErrDstMustBeNonNilPointer = errors.New("dst must be a non-nil pointer")
	// ErrDstMustBePointerToStruct indicates that the destination must be a pointer to a struct.
	ErrDstMustBePointerToStruct = errors.New("dst must be a pointer to a struct")
)

// EnvConfigLoader overlays environment variables onto a struct using its json
// tags. Nested fields are joined with underscores, so with prefix DASHGATE_
// the field Relay.ReconnectDelay is read from DASHGATE_RELAY_RECONNECT_DELAY.
type EnvConfigLoader struct {
	logger logger.Logger
	prefix string
}

func NewEnvConfigLoader(log logger.Logger, prefix string) *EnvConfigLoader {
	return &EnvConfigLoader{
		logger: log,
		prefix: prefix,
	}
}

// Load implements ConfigLoader. A complete document in <prefix>CONFIG_JSON is
// merged first; individual variables are applied on top of it.
func (e *EnvConfigLoader) Load(_ context.Context, _ string, dst interface{}) error {
	v := reflect.ValueOf(dst)
	if v.Kind() != reflect.Ptr || v.IsNil() {
		return ErrDstMustBeNonNilPointer
	}

	if v.Elem().Kind() != reflect.Struct {
		return ErrDstMustBePointerToStruct
	}

	if jsonConfig := os.Getenv(e.prefix + "CONFIG_JSON"); jsonConfig != "" {
		if err := json.Unmarshal([]byte(jsonConfig), dst); err != nil {
			return fmt.Errorf("failed to unmarshal %sCONFIG_JSON: %w", e.prefix, err)
		}

		e.logger.Info().Msg("Loaded configuration from CONFIG_JSON environment variable")
	}

	count := e.loadStruct(v.Elem(), e.prefix)

	e.logger.Debug().Int("variables", count).Msg("Applied environment overrides")

	return nil
}

// loadStruct walks exported, json-tagged fields and returns how many were set.
func (e *EnvConfigLoader) loadStruct(v reflect.Value, prefix string) int {
	t := v.Type()
	count := 0

	for i := 0; i < t.NumField(); i++ {
		field := v.Field(i)
		if !field.CanSet() {
			continue
		}

		jsonTag := t.Field(i).Tag.Get("json")
		if jsonTag == "" || jsonTag == "-" {
			continue
		}

		envName := prefix + strings.ToUpper(strings.Split(jsonTag, ",")[0])

		if isNestedStruct(field) {
			if field.Kind() == reflect.Ptr {
				if field.IsNil() {
					if !e.hasPrefixedVar(envName + "_") {
						continue
					}

					field.Set(reflect.New(field.Type().Elem()))
				}

				field = field.Elem()
			}

			count += e.loadStruct(field, envName+"_")

			continue
		}

		envValue, ok := os.LookupEnv(envName)
		if !ok || envValue == "" {
			continue
		}

		if err := setField(field, envName, envValue); err != nil {
			e.logger.Warn().Err(err).Str("env", envName).Msg("Ignoring invalid environment variable")
			continue
		}

		e.logger.Debug().Str("env", envName).Str("value", "[set]").Msg("Loaded value from environment variable")

		count++
	}

	return count
}

func (*EnvConfigLoader) hasPrefixedVar(prefix string) bool {
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, prefix) {
			return true
		}
	}

	return false
}

func isNestedStruct(field reflect.Value) bool {
	if field.Kind() == reflect.Struct {
		return true
	}

	return field.Kind() == reflect.Ptr && field.Type().Elem().Kind() == reflect.Struct
}

func isDuration(t reflect.Type) bool {
	return t.Kind() == reflect.Int64 && t.Name() == "Duration"
}

// setField parses raw into field according to the field's kind. Durations
// use time.ParseDuration, string slices are comma separated, and anything
// without a scalar form is decoded as JSON.
func setField(field reflect.Value, envName, raw string) error {
	var err error

	switch kind := field.Kind(); {
	case kind == reflect.String:
		field.SetString(raw)
	case kind == reflect.Bool:
		var b bool
		if b, err = strconv.ParseBool(raw); err == nil {
			field.SetBool(b)
		}
	case isDuration(field.Type()):
		var d time.Duration
		if d, err = time.ParseDuration(raw); err == nil {
			field.SetInt(int64(d))
		}
	case field.CanInt():
		var n int64
		if n, err = strconv.ParseInt(raw, 10, field.Type().Bits()); err == nil {
			field.SetInt(n)
		}
	case field.CanUint():
		var n uint64
		if n, err = strconv.ParseUint(raw, 10, field.Type().Bits()); err == nil {
			field.SetUint(n)
		}
	case field.CanFloat():
		var f float64
		if f, err = strconv.ParseFloat(raw, field.Type().Bits()); err == nil {
			field.SetFloat(f)
		}
	case kind == reflect.Slice && field.Type().Elem().Kind() == reflect.String:
		field.Set(splitList(field.Type(), raw))
	default:
		err = json.Unmarshal([]byte(raw), field.Addr().Interface())
	}

	if err != nil {
		return fmt.Errorf("%s: cannot use %q as %s: %w", envName, raw, field.Type(), err)
	}

	return nil
}

func splitList(t reflect.Type, raw string) reflect.Value {
	parts := strings.Split(raw, ",")
	out := reflect.MakeSlice(t, 0, len(parts))

	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = reflect.Append(out, reflect.ValueOf(part).Convert(t.Elem()))
		}
	}

	return out
}
