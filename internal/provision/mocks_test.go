package provision

import (
	"context"
	"fmt"
	"sync"

	"github.com/jbweber/makehd/internal/diskutil"
	"github.com/jbweber/makehd/internal/image"
)

// callLog records calls across all mocks so tests can assert ordering.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf(format, args...))
}

func (l *callLog) list() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

// mockSystem implements every pipeline dependency. Each method records its
// call and defers to a configurable func.
type mockSystem struct {
	log *callLog

	// Configurable behavior
	resolveFunc   func(utilities ...string) error
	confirmFunc   func(existing, target int64) error
	allocateFunc  func(spec image.Spec) error
	attachFunc    func(path string) (string, error)
	detachFunc    func(device string) error
	writeFunc     func(device string, layout diskutil.Layout) error
	listFunc      func(device string) ([]diskutil.Mapping, error)
	addFunc       func(device string) error
	removeFunc    func(device string) error
	formatFunc    func(device string) error
	identifyFunc  func(device string) (string, error)
	mountFunc     func(device, dir string) error
	unmountFunc   func(dir string) error
	copyTreeFunc  func(src, dst string) (int, error)
	checkFunc     func(spec image.Spec) error
	sourceFunc    func(dir string) (bool, error)
	usageFunc     func(dir string) (diskutil.Usage, error)
	resolvedTools []string
	scripts       []string
	confirmCalls  int
}

// newMockSystem creates a system where every stage succeeds, no image exists
// yet and there is no source tree.
func newMockSystem() *mockSystem {
	return &mockSystem{
		log:          &callLog{},
		resolveFunc:  func(...string) error { return nil },
		confirmFunc:  func(int64, int64) error { return nil },
		allocateFunc: func(image.Spec) error { return nil },
		attachFunc:   func(string) (string, error) { return "/dev/loop0", nil },
		detachFunc:   func(string) error { return nil },
		writeFunc:    func(string, diskutil.Layout) error { return nil },
		listFunc: func(string) ([]diskutil.Mapping, error) {
			return []diskutil.Mapping{{Name: "loop0p1", Info: "0 4194303 /dev/loop0 1"}}, nil
		},
		addFunc:      func(string) error { return nil },
		removeFunc:   func(string) error { return nil },
		formatFunc:   func(string) error { return nil },
		identifyFunc: func(d string) (string, error) { return d + `: UUID="1234" TYPE="ext2"`, nil },
		mountFunc:    func(string, string) error { return nil },
		unmountFunc:  func(string) error { return nil },
		copyTreeFunc: func(string, string) (int, error) { return 0, nil },
		checkFunc:    func(image.Spec) error { return nil },
		sourceFunc:   func(string) (bool, error) { return false, nil },
		usageFunc: func(dir string) (diskutil.Usage, error) {
			return diskutil.Usage{Path: dir, Total: 2 << 30, Used: 1 << 20, Avail: 2<<30 - 1<<20}, nil
		},
	}
}

func (m *mockSystem) deps() deps {
	return deps{
		tools:         m,
		gate:          m,
		allocator:     m,
		loop:          m,
		partitioner:   m,
		mapper:        m,
		formatter:     m,
		mounter:       m,
		copier:        m,
		checkExisting: m.checkFunc,
		sourcePresent: m.sourceFunc,
		usage:         m.usageFunc,
	}
}

func (m *mockSystem) Resolve(utilities ...string) error {
	m.resolvedTools = append(m.resolvedTools, utilities...)
	return m.resolveFunc(utilities...)
}

func (m *mockSystem) Confirm(_ context.Context, _ string, existing, target int64) error {
	m.confirmCalls++
	m.log.add("confirm")
	return m.confirmFunc(existing, target)
}

func (m *mockSystem) Allocate(_ context.Context, spec image.Spec) error {
	m.log.add("allocate %d", spec.Bytes())
	return m.allocateFunc(spec)
}

func (m *mockSystem) Attach(_ context.Context, path string) (string, error) {
	m.log.add("attach %s", path)
	return m.attachFunc(path)
}

func (m *mockSystem) Detach(_ context.Context, device string) error {
	m.log.add("detach %s", device)
	return m.detachFunc(device)
}

func (m *mockSystem) Write(_ context.Context, device string, layout diskutil.Layout) error {
	m.log.add("partition %s", device)
	m.scripts = append(m.scripts, layout.Script())
	return m.writeFunc(device, layout)
}

func (m *mockSystem) List(_ context.Context, device string) ([]diskutil.Mapping, error) {
	m.log.add("list %s", device)
	return m.listFunc(device)
}

func (m *mockSystem) Add(_ context.Context, device string) error {
	m.log.add("map %s", device)
	return m.addFunc(device)
}

func (m *mockSystem) Remove(_ context.Context, device string) error {
	m.log.add("unmap %s", device)
	return m.removeFunc(device)
}

func (m *mockSystem) Format(_ context.Context, device string) error {
	m.log.add("format %s", device)
	return m.formatFunc(device)
}

func (m *mockSystem) Identify(_ context.Context, device string) (string, error) {
	m.log.add("identify %s", device)
	return m.identifyFunc(device)
}

func (m *mockSystem) Mount(_ context.Context, device, dir string) error {
	m.log.add("mount %s %s", device, dir)
	return m.mountFunc(device, dir)
}

func (m *mockSystem) Unmount(_ context.Context, dir string) error {
	m.log.add("unmount %s", dir)
	return m.unmountFunc(dir)
}

func (m *mockSystem) CopyTree(_ context.Context, src, dst string) (int, error) {
	m.log.add("copy %s %s", src, dst)
	return m.copyTreeFunc(src, dst)
}
