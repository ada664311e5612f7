package memory

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlobStorePutAndGet(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	uri, err := store.PutObject(context.Background(), "jobs/run.csv", "text/csv", strings.NewReader("a,b\n1,2\n"))
	require.NoError(t, err)
	require.Equal(t, "memory://jobs/run.csv", uri)

	data, ok := store.Object("jobs/run.csv")
	require.True(t, ok)
	require.Equal(t, "a,b\n1,2\n", string(data))
	require.Equal(t, 1, store.Len())

	_, ok = store.Object("missing")
	require.False(t, ok)
}

func TestBlobStoreReturnsCopies(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	_, err := store.PutObject(context.Background(), "k", "", strings.NewReader("abc"))
	require.NoError(t, err)

	data, _ := store.Object("k")
	data[0] = 'z'
	fresh, _ := store.Object("k")
	require.Equal(t, "abc", string(fresh))
}
