// Copyright 2025 Supabase, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package wire

// SameBranch reports whether two server_version_num values share the
// same major.minor release branch, the condition execute.c's
// check_old_conn used (via cmp_branch) to decide whether a connection
// may keep using binary parameter/result formats: a patch-level mismatch
// is fine, a branch mismatch is not, since binary wire formats can
// change between major releases.
func SameBranch(a, b int) bool {
	return branch(a) == branch(b)
}

// branch extracts the major.minor component of a server_version_num.
// PostgreSQL 10+ encodes versions as MMmmPP (e.g. 150003 -> 15.0.3) so
// the branch is the value with the two-digit patch component dropped;
// versions below 100000 use the older MMmmpp scheme where the branch
// drops only the two-digit patch the same way, which happens to be the
// same arithmetic.
func branch(v int) int {
	return v / 100
}
