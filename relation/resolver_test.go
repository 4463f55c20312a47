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

package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomoncle/crudkit/errors"
	"github.com/tomoncle/crudkit/types"
)

func TestResolveEmpty(t *testing.T) {
	allow := NewAllowList("profile")
	for _, raw := range []string{"", "  ", ",", " , ,"} {
		rels, err := Resolve(raw, allow)
		require.NoError(t, err, raw)
		assert.True(t, rels.IsEmpty(), raw)
	}
}

func TestResolveValid(t *testing.T) {
	allow := NewAllowList("profile", "tags", "profile.avatar")

	rels, err := Resolve("tags,profile", allow)
	require.NoError(t, err)
	assert.Equal(t, types.Relations{"profile", "tags"}, rels)

	again, err := Resolve(" profile , tags,,tags", allow)
	require.NoError(t, err)
	assert.Equal(t, rels, again)

	nested, err := Resolve("profile.avatar", allow)
	require.NoError(t, err)
	assert.True(t, nested.Has("profile.avatar"))
}

func TestResolveRejectsUnknown(t *testing.T) {
	allow := NewAllowList("profile")

	_, err := Resolve("badRelation", allow)
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
	assert.Contains(t, err.Error(), "badRelation")
	assert.Contains(t, err.Error(), "profile")
}

func TestResolveNamesEveryInvalidToken(t *testing.T) {
	allow := NewAllowList("profile", "tags")

	_, err := Resolve("profile,owner,secrets", allow)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner")
	assert.Contains(t, err.Error(), "secrets")
	assert.Contains(t, err.Error(), "Allowed relations: profile, tags")
}

func TestEmptyAllowListRejectsEverything(t *testing.T) {
	_, err := Resolve("profile", NewAllowList())
	assert.True(t, errors.IsValidation(err))
}

func TestAllowListNamesKeepOrder(t *testing.T) {
	allow := NewAllowList("tags", "profile", "tags", " ")
	assert.Equal(t, []string{"tags", "profile"}, allow.Names())
}
