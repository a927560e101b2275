// Copyright 2025 Neteye
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package snmpscope observes and generates SNMP traffic: a passive
// analyzer decodes live captures into durable observations, and an
// active probe emits crafted requests against agents.
package snmpscope

// Version information for the snmpscope tools.
const (
	// Version is the current version of the tools.
	Version = "1.0.0"
)
