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

package options

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/gophercloud/gophercloud"

	"github.com/CS-SI/sharedfs/lib/utils/fail"
)

// Authentication fields are the union of those recognized by each identity implementation and provider
// to be able to carry different types of authentication
type Authentication struct {
	// IdentityEndpoint specifies the HTTP endpoint of the Identity API
	IdentityEndpoint string `mapstructure:"identity_endpoint" json:"identity_endpoint,omitempty"`

	// In Identity V3, either UserID or a combination of Username and DomainID or DomainName are needed.
	Username string `mapstructure:"username" json:"username,omitempty"`
	UserID   string `mapstructure:"user_id" json:"user_id,omitempty"`
	Password string `mapstructure:"password" json:"-"`

	// ApplicationCredential can be used instead of username/password
	ApplicationCredentialID     string `mapstructure:"application_credential_id" json:"application_credential_id,omitempty"`
	ApplicationCredentialName   string `mapstructure:"application_credential_name" json:"application_credential_name,omitempty"`
	ApplicationCredentialSecret string `mapstructure:"application_credential_secret" json:"-"`

	// At most one of DomainID and DomainName must be provided if using Username with Identity V3
	DomainID   string `mapstructure:"domain_id" json:"domain_id,omitempty"`
	DomainName string `mapstructure:"domain_name" json:"domain_name,omitempty"`

	ProjectID   string `mapstructure:"project_id" json:"project_id,omitempty"`
	ProjectName string `mapstructure:"project_name" json:"project_name,omitempty"`

	// TokenID allows to reuse an existing token
	TokenID string `mapstructure:"token_id" json:"-"`

	Region string `mapstructure:"region" json:"region,omitempty"`

	// AllowReauth grants gophercloud the right to keep credentials in memory to renew an expired token
	AllowReauth bool `mapstructure:"allow_reauth" json:"allow_reauth,omitempty"`
}

var regionPattern = regexp.MustCompile("^[-a-zA-Z0-9_]+$")

// Validate checks the content of the authentication options
func (a Authentication) Validate() fail.Error {
	err := validation.ValidateStruct(&a,
		validation.Field(&a.IdentityEndpoint, validation.Required, is.URL),
		validation.Field(&a.Region, validation.Match(regionPattern)),
		validation.Field(&a.Password, validation.When(a.TokenID == "" && a.ApplicationCredentialSecret == "", validation.Required)),
		validation.Field(&a.DomainName, validation.When(a.DomainID != "", validation.Empty)),
	)
	if err != nil {
		return fail.InvalidRequestErrorWithCause(err, "invalid authentication options")
	}
	return nil
}

// ToGophercloud converts the options to the structure gophercloud expects
func (a Authentication) ToGophercloud() gophercloud.AuthOptions {
	domainName := a.DomainName
	if domainName == "" && a.DomainID == "" && a.UserID == "" && a.TokenID == "" && a.ApplicationCredentialID == "" {
		domainName = "Default"
	}
	return gophercloud.AuthOptions{
		IdentityEndpoint:            a.IdentityEndpoint,
		Username:                    a.Username,
		UserID:                      a.UserID,
		Password:                    a.Password,
		DomainID:                    a.DomainID,
		DomainName:                  domainName,
		TenantID:                    a.ProjectID,
		TenantName:                  a.ProjectName,
		AllowReauth:                 a.AllowReauth,
		TokenID:                     a.TokenID,
		ApplicationCredentialID:     a.ApplicationCredentialID,
		ApplicationCredentialName:   a.ApplicationCredentialName,
		ApplicationCredentialSecret: a.ApplicationCredentialSecret,
	}
}

// FromGophercloud fills Authentication from gophercloud options (as read from OS_* environment variables)
func FromGophercloud(in gophercloud.AuthOptions, region string) Authentication {
	return Authentication{
		IdentityEndpoint:            in.IdentityEndpoint,
		Username:                    in.Username,
		UserID:                      in.UserID,
		Password:                    in.Password,
		DomainID:                    in.DomainID,
		DomainName:                  in.DomainName,
		ProjectID:                   in.TenantID,
		ProjectName:                 in.TenantName,
		TokenID:                     in.TokenID,
		ApplicationCredentialID:     in.ApplicationCredentialID,
		ApplicationCredentialName:   in.ApplicationCredentialName,
		ApplicationCredentialSecret: in.ApplicationCredentialSecret,
		Region:                      region,
		AllowReauth:                 true,
	}
}
