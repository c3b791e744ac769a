// internal/app/bootstrap/dbdeps.go
package bootstrap

import (
	"github.com/dalemusser/cwcconnect/internal/app/system/mongoconn"
)

// DBDeps holds database/back-end dependencies for the app.
//
// WAFFLE passes DBDeps by value to every hook, so the services assembled in
// Startup live behind the Runtime pointer created in ConnectDB.
type DBDeps struct {
	Mongo   *mongoconn.Handle
	Runtime *Runtime
}
