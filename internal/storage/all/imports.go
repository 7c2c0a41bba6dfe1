// Package all registers every built-in export backend with the storage
// factory. Import it for side effects:
//
//	import _ "csvmerge/internal/storage/all"
//
// after which storage.New accepts the kinds "sqlite" and "postgres".
package all

import (
	_ "csvmerge/internal/storage/postgres"
	_ "csvmerge/internal/storage/sqlite"
)
