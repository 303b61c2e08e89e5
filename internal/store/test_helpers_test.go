package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/roach88/fspquery/internal/compiler"
	"github.com/roach88/fspquery/internal/testutil"
)

type Customer = testutil.Customer

// createTestStore creates a new file-backed store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// createCustomerTable creates the customers table filled with mixedCustomers.
func createCustomerTable(t *testing.T, s *Store) *Table[Customer] {
	t.Helper()
	ctx := context.Background()
	tbl, err := NewTable[Customer](s, "customers", compiler.Default)
	require.NoError(t, err)
	require.NoError(t, tbl.CreateTable(ctx))
	require.NoError(t, tbl.Insert(ctx, mixedCustomers()...))
	return tbl
}

// mixedCustomers covers null scalars, a null nested record, non-ASCII text
// and mixed case.
func mixedCustomers() []Customer {
	clock := testutil.NewDeterministicClock(24 * time.Hour)
	return []Customer{
		{
			Name:     testutil.Ptr("john"),
			Tier:     testutil.Ptr(1),
			Pet:      &testutil.Animal{Name: testutil.Ptr("scratch"), Age: 2},
			JoinedAt: clock.NextPtr(),
			Active:   true,
		},
		{
			Name:     testutil.Ptr("jane"),
			Tier:     testutil.Ptr(2),
			Pet:      &testutil.Animal{Name: testutil.Ptr("meowie"), Age: 7, Points: testutil.Ptr(12)},
			JoinedAt: clock.NextPtr(),
		},
		{
			Name:   testutil.Ptr("Straße"),
			Active: true,
		},
		{
			Tier: testutil.Ptr(3),
			Pet:  &testutil.Animal{Name: testutil.Ptr("Rex"), Points: testutil.Ptr(3)},
		},
		{
			Name:   testutil.Ptr("JOHANNA"),
			Tier:   testutil.Ptr(1),
			Pet:    &testutil.Animal{Age: 4},
			Active: true,
		},
	}
}

func names(customers []Customer) []string {
	out := make([]string, len(customers))
	for i, c := range customers {
		if c.Name != nil {
			out[i] = *c.Name
		}
	}
	return out
}
