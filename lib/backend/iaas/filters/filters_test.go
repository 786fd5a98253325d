/*
 * Copyright 2018-2023, CS Systemes d'Information, http://csgroup.eu
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

package filters

import (
	"testing"

	fuzz "github.com/google/gofuzz"
	"github.com/stretchr/testify/require"

	"github.com/CS-SI/sharedfs/lib/backend/resources/abstract"
	"github.com/CS-SI/sharedfs/lib/backend/resources/enums/sharestate"
	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

func sampleShares() []*abstract.Share {
	return []*abstract.Share{
		{ID: "1111", Name: "data-prod", Size: 10, Status: sharestate.Available, Metadata: map[string]string{"tier": "gold"}},
		{ID: "2222", Name: "data-test", Size: 1, Status: sharestate.Error, Metadata: map[string]string{"tier": "silver"}},
		{ID: "3333", Name: "logs", Size: 5, Status: sharestate.Creating},
		{ID: "4444", Name: "logs", Size: 5, Status: sharestate.Available},
	}
}

func ids(items []*abstract.Share) []string {
	out := []string{}
	for _, v := range items {
		out = append(out, v.ID)
	}
	return out
}

func TestSelectors(t *testing.T) {
	shares := sampleShares()

	cases := []struct {
		name     string
		selector Selector
		expected []string
	}{
		{"all", All(), []string{"1111", "2222", "3333", "4444"}},
		{"by id", ByID("2222"), []string{"2222"}},
		{"by name", ByName("logs"), []string{"3333", "4444"}},
		{"by name or id with id", ByNameOrID("1111"), []string{"1111"}},
		{"by name or id with name", ByNameOrID("data-test"), []string{"2222"}},
		{"by name or id with glob", ByNameOrID("data-*"), []string{"1111", "2222"}},
		{"by name or id with glob on id", ByNameOrID("3?33"), []string{"3333"}},
		{"by name or id empty", ByNameOrID(""), []string{"1111", "2222", "3333", "4444"}},
		{"by name or id bad pattern", ByNameOrID("[data"), []string{}},
		{"by predicate", ByPredicate(func(i Identifiable) bool { return i.GetID() > "2500" }), []string{"3333", "4444"}},
		{"no match", ByID("9999"), []string{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			found, xerr := Apply(shares, tc.selector, None())
			require.Nil(t, xerr)
			require.Equal(t, tc.expected, ids(found))
		})
	}
}

func TestAttributesFilter(t *testing.T) {
	f, xerr := Attributes(map[string]interface{}{"metadata": map[string]interface{}{"tier": "gold"}})
	require.Nil(t, xerr)
	found, xerr := Apply(sampleShares(), All(), f)
	require.Nil(t, xerr)
	require.Equal(t, []string{"1111"}, ids(found))

	f, xerr = Attributes(map[string]interface{}{"size": 5, "status": "available"})
	require.Nil(t, xerr)
	found, xerr = Apply(sampleShares(), All(), f)
	require.Nil(t, xerr)
	require.Equal(t, []string{"4444"}, ids(found))

	f, xerr = Attributes(map[string]interface{}{"metadata": map[string]interface{}{"tier": "bronze"}})
	require.Nil(t, xerr)
	found, xerr = Apply(sampleShares(), All(), f)
	require.Nil(t, xerr)
	require.Empty(t, found)

	f, xerr = Attributes(nil)
	require.Nil(t, xerr)
	require.True(t, f.IsNone())
}

func TestQueryFilter(t *testing.T) {
	f, xerr := Query(`.status == "available" and .size > 5`)
	require.Nil(t, xerr)
	found, xerr := Apply(sampleShares(), All(), f)
	require.Nil(t, xerr)
	require.Equal(t, []string{"1111"}, ids(found))

	f, xerr = Query(`.metadata.tier == "silver"`)
	require.Nil(t, xerr)
	found, xerr = Apply(sampleShares(), ByNameOrID("data-*"), f)
	require.Nil(t, xerr)
	require.Equal(t, []string{"2222"}, ids(found))

	_, xerr = Query(`.status ==`)
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrSyntax)
	require.True(t, ok)

	f, xerr = Query(`error("boom")`)
	require.Nil(t, xerr)
	_, xerr = Apply(sampleShares(), All(), f)
	require.NotNil(t, xerr)
}

func TestJMESPathFilter(t *testing.T) {
	f, xerr := JMESPath("[?name=='logs']")
	require.Nil(t, xerr)
	found, xerr := Apply(sampleShares(), All(), f)
	require.Nil(t, xerr)
	require.Equal(t, []string{"3333", "4444"}, ids(found))

	f, xerr = JMESPath("[?metadata.tier=='gold']")
	require.Nil(t, xerr)
	found, xerr = Apply(sampleShares(), All(), f)
	require.Nil(t, xerr)
	require.Equal(t, []string{"1111"}, ids(found))

	_, xerr = JMESPath("[?name==")
	require.NotNil(t, xerr)

	f, xerr = JMESPath("length(@)")
	require.Nil(t, xerr)
	_, xerr = Apply(sampleShares(), All(), f)
	require.NotNil(t, xerr)
}

func TestUnique(t *testing.T) {
	shares := sampleShares()

	found, xerr := Unique(shares, ByNameOrID("2222"), None())
	require.Nil(t, xerr)
	require.Equal(t, "data-test", found.Name)

	found, xerr = Unique(shares, ByNameOrID("missing"), None())
	require.Nil(t, xerr)
	require.Nil(t, found)

	_, xerr = Unique(shares, ByNameOrID("logs"), None())
	require.NotNil(t, xerr)
	_, ok := xerr.(*fail.ErrDuplicate)
	require.True(t, ok)

	f, xerr := Attributes(map[string]interface{}{"status": "available"})
	require.Nil(t, xerr)
	found, xerr = Unique(shares, ByNameOrID("logs"), f)
	require.Nil(t, xerr)
	require.Equal(t, "4444", found.ID)
}

func TestApplyKeepsOrderAndSelectsByID(t *testing.T) {
	f := fuzz.NewWithSeed(1984).NilChance(0).NumElements(1, 30)
	for round := 0; round < 50; round++ {
		var shares []*abstract.Share
		f.Fuzz(&shares)

		all, xerr := Apply(shares, All(), None())
		require.Nil(t, xerr)
		require.Equal(t, ids(shares), ids(all))

		target := shares[len(shares)/2].ID
		byID, xerr := Apply(shares, ByID(target), None())
		require.Nil(t, xerr)
		require.NotEmpty(t, byID)
		for _, v := range byID {
			require.Equal(t, target, v.ID)
		}
		count := 0
		for _, v := range shares {
			if v.ID == target {
				count++
			}
		}
		require.Len(t, byID, count)
	}
}
