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

package iaas

import (
	"sync"
)

var (
	servicesLock sync.Mutex
	allServices  = map[string]Service{}
)

func registryKey(path, name string) string {
	return path + "#" + name
}

func registered(path, name string) (Service, bool) {
	servicesLock.Lock()
	defer servicesLock.Unlock()

	svc, ok := allServices[registryKey(path, name)]
	return svc, ok
}

// register keeps 'svc' for later uses; if a service was registered meanwhile, it is returned instead
func register(path, name string, svc Service) Service {
	servicesLock.Lock()
	defer servicesLock.Unlock()

	key := registryKey(path, name)
	if existing, ok := allServices[key]; ok {
		return existing
	}
	allServices[key] = svc
	return svc
}

// ForgetServices drops the services kept by UseService
func ForgetServices() {
	servicesLock.Lock()
	defer servicesLock.Unlock()

	allServices = map[string]Service{}
}
