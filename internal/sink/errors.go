package sink

import "fmt"

// StorageWriteError reports a failed artifact upload. No warehouse load has
// been attempted when it is returned.
type StorageWriteError struct {
	Object string
	Err    error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write artifact %s: %v", e.Object, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// WarehouseLoadError reports a failed table load. The artifact upload has
// already succeeded, so the receipt URI remains valid for replay.
type WarehouseLoadError struct {
	Table string
	Err   error
}

func (e *WarehouseLoadError) Error() string {
	return fmt.Sprintf("load table %s: %v", e.Table, e.Err)
}

func (e *WarehouseLoadError) Unwrap() error { return e.Err }
