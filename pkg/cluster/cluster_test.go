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

package cluster

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewClusterRejectsNonPowerOfTwoPartitionCount(t *testing.T) {
	_, err := NewCluster("accounts", DefaultConfig(), []string{"a", "b", "c"})
	require.Error(t, err)
}

func TestNewClusterDeduplicatesRepeatedConnstrs(t *testing.T) {
	cl, err := NewCluster("accounts", DefaultConfig(), []string{
		"host=db0", "host=db1", "host=db0", "host=db1",
	})
	require.NoError(t, err)

	require.Equal(t, 4, cl.PartCount)
	require.Equal(t, 3, cl.PartMask)
	require.Len(t, cl.ConnList, 2, "identical connstrs should share one Connection")

	require.Same(t, cl.PartMap[0], cl.PartMap[2])
	require.Same(t, cl.PartMap[1], cl.PartMap[3])
	require.NotSame(t, cl.PartMap[0], cl.PartMap[1])
}

func TestClusterPartitionWrapsViaMask(t *testing.T) {
	cl, err := NewCluster("accounts", DefaultConfig(), []string{"host=db0", "host=db1"})
	require.NoError(t, err)

	require.Same(t, cl.PartMap[0], cl.Partition(0))
	require.Same(t, cl.PartMap[1], cl.Partition(1))
	require.Same(t, cl.PartMap[0], cl.Partition(2), "partition index must wrap using part_mask")
}

func TestNewClusterAppendsDefaultUserWhenMissing(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DefaultUser = "proxyuser"

	cl, err := NewCluster("accounts", cfg, []string{"host=db0", "host=db1 user=explicit"})
	require.NoError(t, err)

	require.Equal(t, "host=db0 user=proxyuser", cl.ConnList[0].Connstr)
	require.Equal(t, "host=db1 user=explicit", cl.ConnList[1].Connstr, "an explicit user= must not be overridden")
}

func TestNewClusterLeavesConnstrUnchangedWhenNoDefaultUserConfigured(t *testing.T) {
	cl, err := NewCluster("accounts", DefaultConfig(), []string{"host=db0"})
	require.NoError(t, err)

	require.Equal(t, "host=db0", cl.ConnList[0].Connstr)
}

func TestClusterAcquireReleaseIsExclusive(t *testing.T) {
	cl, err := NewCluster("accounts", DefaultConfig(), []string{"host=db0"})
	require.NoError(t, err)

	require.True(t, cl.TryAcquire())
	require.False(t, cl.TryAcquire(), "a second concurrent call must be rejected")

	cl.Release()
	require.True(t, cl.TryAcquire())
}
