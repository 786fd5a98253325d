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

package resource

import (
	"github.com/gophercloud/gophercloud"
	"github.com/gophercloud/gophercloud/pagination"
)

// linkedPage is a page whose "next" link is found in "<resources>_links", as a list of {href, rel}
type linkedPage struct {
	pagination.LinkedPageBase
	resourcesKey string
}

// IsEmpty tells if the page contains no item and links to no next page; an empty page with a "next" link does not end the listing
func (p linkedPage) IsEmpty() (bool, error) {
	var items []interface{}
	if err := p.ExtractIntoSlicePtr(&items, p.resourcesKey); err != nil {
		return true, err
	}
	if len(items) > 0 {
		return false, nil
	}
	next, err := p.NextPageURL()
	if err != nil {
		return true, err
	}
	return next == "", nil
}

// NextPageURL returns the href of the link with rel "next", or "" if there is none
func (p linkedPage) NextPageURL() (string, error) {
	var links []gophercloud.Link
	if err := p.ExtractIntoSlicePtr(&links, p.resourcesKey+"_links"); err != nil {
		return "", err
	}
	return gophercloud.ExtractNextURL(links)
}

func extractItems[T any](page pagination.Page, key string) ([]T, error) {
	lp, ok := page.(linkedPage)
	if !ok {
		return nil, gophercloud.ErrUnexpectedType{Expected: "linkedPage"}
	}
	var items []T
	if err := lp.ExtractIntoSlicePtr(&items, key); err != nil {
		return nil, err
	}
	return items, nil
}
