//go:build !windows

package filesystem

import (
	"testing"

	"amphialign/pkg/contract"
)

func TestMapPathInvalidUnix(t *testing.T) {
	flat := false
	w, _ := New(&Options{OutputDir: t.TempDir(), Flat: &flat})
	for _, id := range []string{"/abs", "..", ".", "../x"} {
		if _, err := w.mapPath(contract.ArtifactID(id)); err != contract.ErrPathInvalid {
			t.Fatalf("id %s 应为非法路径", id)
		}
	}
}
