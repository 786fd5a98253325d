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

package openstack

import (
	"net/url"
	"strings"

	"github.com/gophercloud/gophercloud"
	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// NormalizeError translates a gophercloud error into a fail.Error
func NormalizeError(err error) fail.Error {
	if err == nil {
		return nil
	}

	switch e := err.(type) {
	case fail.Error:
		return e
	case gophercloud.ErrDefault400:
		return fail.InvalidRequestError(responseMessage(e.Body))
	case *gophercloud.ErrDefault400:
		return fail.InvalidRequestError(responseMessage(e.Body))
	case gophercloud.ErrDefault401:
		return fail.NotAuthenticatedError(responseMessage(e.Body))
	case *gophercloud.ErrDefault401:
		return fail.NotAuthenticatedError(responseMessage(e.Body))
	case gophercloud.ErrDefault403:
		return fail.ForbiddenError(responseMessage(e.Body))
	case *gophercloud.ErrDefault403:
		return fail.ForbiddenError(responseMessage(e.Body))
	case gophercloud.ErrDefault404:
		return fail.NotFoundError(responseMessage(e.Body))
	case *gophercloud.ErrDefault404:
		return fail.NotFoundError(responseMessage(e.Body))
	case gophercloud.ErrDefault408:
		return fail.OverflowError(nil, 0, responseMessage(e.Body))
	case *gophercloud.ErrDefault408:
		return fail.OverflowError(nil, 0, responseMessage(e.Body))
	case gophercloud.ErrDefault409:
		return fail.InvalidRequestError(responseMessage(e.Body))
	case *gophercloud.ErrDefault409:
		return fail.InvalidRequestError(responseMessage(e.Body))
	case gophercloud.ErrDefault429:
		return fail.OverloadError(responseMessage(e.Body))
	case *gophercloud.ErrDefault429:
		return fail.OverloadError(responseMessage(e.Body))
	case gophercloud.ErrDefault500:
		return fail.ExecutionError(nil, responseMessage(e.Body))
	case *gophercloud.ErrDefault500:
		return fail.ExecutionError(nil, responseMessage(e.Body))
	case gophercloud.ErrDefault503:
		return fail.NotAvailableError(responseMessage(e.Body))
	case *gophercloud.ErrDefault503:
		return fail.NotAvailableError(responseMessage(e.Body))
	case gophercloud.ErrResourceNotFound:
		return fail.NotFoundError(e.Error())
	case *gophercloud.ErrResourceNotFound:
		return fail.NotFoundError(e.Error())
	case gophercloud.ErrMultipleResourcesFound:
		return fail.DuplicateError(e.Error())
	case *gophercloud.ErrMultipleResourcesFound:
		return fail.DuplicateError(e.Error())
	case gophercloud.ErrUnexpectedResponseCode:
		return qualifyGophercloudResponseCode(&e)
	case *gophercloud.ErrUnexpectedResponseCode:
		return qualifyGophercloudResponseCode(e)
	case *url.Error:
		return fail.NewErrorWithCause(e)
	default:
		logrus.Debugf("error not normalized: '%s' (%T)", err.Error(), err)
		return fail.NewError(err.Error())
	}
}

// qualifyGophercloudResponseCode converts a response code not covered by gophercloud typed errors
func qualifyGophercloudResponseCode(err *gophercloud.ErrUnexpectedResponseCode) fail.Error {
	msg := responseMessage(err.Body)
	switch err.Actual {
	case 400, 409, 422:
		return fail.InvalidRequestError(msg)
	case 401:
		return fail.NotAuthenticatedError(msg)
	case 403:
		return fail.ForbiddenError(msg)
	case 404:
		return fail.NotFoundError(msg)
	case 408:
		return fail.OverflowError(nil, 0, msg)
	case 413, 429:
		return fail.OverloadError(msg)
	case 500:
		return fail.ExecutionError(nil, msg)
	case 502, 503, 504:
		return fail.NotAvailableError(msg)
	default:
		logrus.Debugf("unqualified response code %d: %s", err.Actual, msg)
		return fail.NewError("unexpected response code %d: %s", err.Actual, msg)
	}
}

// responseMessage extracts the message from an error body like {"itemNotFound": {"code": 404, "message": "..."}};
// the raw body is returned when no message can be found
func responseMessage(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	raw := strings.TrimSpace(string(body))
	if !gjson.Valid(raw) {
		return raw
	}

	parsed := gjson.Parse(raw)
	if msg := parsed.Get("message"); msg.Exists() {
		return msg.String()
	}

	var out string
	parsed.ForEach(func(_, value gjson.Result) bool {
		if msg := value.Get("message"); msg.Exists() {
			out = msg.String()
			return false
		}
		return true
	})
	if out != "" {
		return out
	}
	return raw
}
