// Package eepromfs implements a small, FAT-inspired file system for a
// byte-addressable, wear-limited persistent storage medium (an
// EEPROM-class device on a resource-constrained microcontroller).
//
// The medium is partitioned into a metadata header, a static allocation
// table, and a linked-list-organized pool of fixed-size blocks. Files are
// named by small integers and accessed through short-lived handles
// returned by OpenForWrite, OpenForAppend, and OpenForRead.
//
// The package is single-threaded and synchronous: every FS method is a
// blocking call against a caller-supplied Storage implementation, and
// callers must serialize their own access. There is no background task
// and no protection against concurrent use of the same FS from multiple
// goroutines.
package eepromfs
