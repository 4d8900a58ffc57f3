package sqlite

import (
	"path/filepath"
	"testing"

	"github.com/calltide/outreach-server/internal/store"
	"github.com/calltide/outreach-server/internal/store/storetest"
)

func TestSQLiteStore_Compliance(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store {
		t.Helper()
		s, err := New(filepath.Join(t.TempDir(), "outreach.db"))
		if err != nil {
			t.Fatalf("sqlite open: %v", err)
		}
		return s
	})
}
