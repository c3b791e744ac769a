package mongoconn_test

import (
	"testing"

	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
	"github.com/dalemusser/cwcconnect/internal/testutil"
	"go.uber.org/zap"
)

func TestRefresh_ReportsTransition(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	h := mongoconn.FromDatabase(db, false, zap.NewNop())
	if h.IsAvailable() {
		t.Fatal("expected handle to start unavailable")
	}

	became, err := h.Refresh(ctx)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if !became {
		t.Error("expected first successful ping to report a transition")
	}
	if !h.IsAvailable() {
		t.Error("expected handle to be available after ping")
	}

	became, err = h.Refresh(ctx)
	if err != nil {
		t.Fatalf("second Refresh failed: %v", err)
	}
	if became {
		t.Error("expected no transition when already available")
	}
}

func TestNilHandleUnavailable(t *testing.T) {
	var h *mongoconn.Handle
	if h.IsAvailable() {
		t.Error("nil handle must report unavailable")
	}
}

func TestStatic(t *testing.T) {
	if !mongoconn.Static(true).IsAvailable() {
		t.Error("Static(true) should be available")
	}
	if mongoconn.Static(false).IsAvailable() {
		t.Error("Static(false) should be unavailable")
	}
}
