// Package diskutil wraps the external block-device utilities the provisioning
// pipeline shells out to.
//
// Each utility gets one narrow adapter with typed inputs and outputs. Raw
// command output is parsed here and nowhere else, so the orchestration layer
// only ever sees device paths, mappings and typed errors.
//
// All invocations go through a Runner. ExecRunner is the production
// implementation; tests substitute a scripted runner.
//
// Utilities used:
//
//	losetup    bind and detach loop devices
//	sfdisk     write the MBR partition table from a script on stdin
//	kpartx     list, add and remove partition mappings
//	mkfs.ext2  create the filesystem
//	blkid      print the partition identity
//	mount      mount the partition
//	umount     unmount the partition
//	rsync      copy the source tree into the mounted filesystem
package diskutil
