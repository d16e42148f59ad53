package provision

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/jbweber/makehd/internal/diskutil"
	"github.com/jbweber/makehd/internal/image"
)

func TestNewPlan(t *testing.T) {
	sys := newMockSystem()
	sys.resolveFunc = func(u ...string) error {
		if u[0] == diskutil.Kpartx {
			return &diskutil.MissingDependencyError{Utility: diskutil.Kpartx}
		}
		return nil
	}
	mismatch := func(spec image.Spec) error {
		return &image.GeometryMismatch{Path: spec.Path, Existing: 512, Target: spec.Bytes()}
	}
	present := func(string) (bool, error) { return true, nil }

	p, err := newPlanWithDeps(testConfig(t), sys, mismatch, present)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if p.SectorCount != 4194304 || p.SizeBytes != 2147483648 {
		t.Errorf("unexpected geometry %+v", p)
	}
	if !strings.Contains(p.Script, "1 4194303 L -") {
		t.Errorf("unexpected script %q", p.Script)
	}
	if p.Mismatch == nil || p.Mismatch.Existing != 512 {
		t.Errorf("expected mismatch, got %+v", p.Mismatch)
	}
	if !reflect.DeepEqual(p.Missing, []string{diskutil.Kpartx}) {
		t.Errorf("missing = %v", p.Missing)
	}

	want := []Stage{StagePreflight, StageSize, StageConfirm, StageAllocate, StageBindLoop, StagePartition,
		StageMap, StageFormat, StageIdentify, StageMount, StagePopulate, StageUsage}
	if !reflect.DeepEqual(p.Stages, want) {
		t.Errorf("stages = %v, want %v", p.Stages, want)
	}
	if calls := sys.log.list(); len(calls) != 0 {
		t.Errorf("plan must not touch the system, got %v", calls)
	}
}

func TestNewPlan_FreshImageWithoutSource(t *testing.T) {
	sys := newMockSystem()
	p, err := newPlanWithDeps(testConfig(t), sys, sys.checkFunc, sys.sourceFunc)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range p.Stages {
		if s == StageConfirm || s == StagePopulate {
			t.Errorf("unexpected stage %s", s)
		}
	}
	if p.Mismatch != nil || p.Populate || len(p.Missing) != 0 {
		t.Errorf("unexpected plan %+v", p)
	}
}

func TestNewPlan_StatError(t *testing.T) {
	sys := newMockSystem()
	broken := func(image.Spec) error { return errors.New("permission denied") }

	if _, err := newPlanWithDeps(testConfig(t), sys, broken, sys.sourceFunc); err == nil {
		t.Fatal("expected error")
	}
}
