package main

import (
	"testing"

	"github.com/Faultbox/meshcodec/internal/config"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

func TestNameRewriter(t *testing.T) {
	n, err := newNameRewriter(config.ImportConfig{
		NameCharset:    "euc-kr",
		MaterialPrefix: "Legacy/",
		SkeletonDir:    "skeletons",
	})
	if err != nil {
		t.Fatalf("newNameRewriter: %v", err)
	}
	m := mesh.New("robot.mesh")

	tests := []struct {
		name string
		fn   func(*mesh.Mesh, string) string
		in   string
		want string
	}{
		{"material", n.ProcessMaterialName, "Robot/Body", "Legacy/Robot/Body"},
		{"material code page", n.ProcessMaterialName, "\xc7\xd1", "Legacy/한"},
		{"empty material", n.ProcessMaterialName, "", ""},
		{"skeleton", n.ProcessSkeletonName, "robot.skeleton", "skeletons/robot.skeleton"},
		{"skeleton code page", n.ProcessSkeletonName, "\xb1\xdb.skeleton", "skeletons/글.skeleton"},
		{"empty skeleton", n.ProcessSkeletonName, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.fn(m, tt.in); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}

	n.ProcessMeshCompleted(m)
}

func TestNameRewriter_BadCharset(t *testing.T) {
	if _, err := newNameRewriter(config.ImportConfig{NameCharset: "klingon"}); err == nil {
		t.Error("expected an error for an unknown charset")
	}
}

func TestTagFor(t *testing.T) {
	v, err := config.Default().ExportVersion()
	if err != nil {
		t.Fatalf("ExportVersion: %v", err)
	}
	if got := tagFor(v); got != "[MeshSerializer_v1.100]" {
		t.Errorf("tagFor(latest) = %q", got)
	}
}
