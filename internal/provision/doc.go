// Package provision builds a partitioned, formatted and populated raw disk
// image.
//
// A run is one linear pipeline:
//
//  1. Size the image and compare it with any existing file
//  2. Ask the operator to confirm a resize
//  3. Allocate the backing file
//  4. Bind it to a loop device
//  5. Write a single-partition MBR table
//  6. Map the partition through device-mapper
//  7. Format the partition as ext2
//  8. Mount it and copy the source tree in
//  9. Tear down
//
// Every kernel resource acquired in steps 4 to 8 is recorded in a RunState as
// soon as it exists. Teardown releases exactly what the RunState holds, in
// reverse order, and runs whether the forward stages succeeded or not. Its
// failures are logged and reported but never replace the forward error.
//
// The run honors context cancellation. An interrupt kills the utility that is
// running, the stage fails, and teardown still runs on a context that cannot
// be canceled.
package provision
