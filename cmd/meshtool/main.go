// meshtool inspects and upgrades .mesh files.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Faultbox/meshcodec/internal/config"
	"github.com/Faultbox/meshcodec/internal/logger"
	"github.com/Faultbox/meshcodec/pkg/formats"
	"github.com/Faultbox/meshcodec/pkg/mesh"
)

func main() {
	flag.Usage = printUsage
	config.ParseFlags()
	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	command := flag.Arg(0)
	args := flag.Args()[1:]

	switch command {
	case "info":
		err = cmdInfo(cfg, args)
	case "upgrade":
		err = cmdUpgrade(cfg, args)
	case "dump":
		err = cmdDump(cfg, args)
	case "versions":
		cmdVersions()
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintln(os.Stderr, `meshtool - .mesh file utility

Usage:
  meshtool [options] <command> [arguments]

Commands:
  info <file.mesh>                   Show format and contents
  upgrade [-o output] <file.mesh>    Rewrite in the configured version
  dump <file.mesh>                   Print a YAML summary
  versions                           List supported mesh versions

Options:
  --config <path>    Config file (default ./meshtool.yaml)
  --debug            Enable debug logging
  --version <ver>    Version written by upgrade (latest, 1.10, 1.8, 1.7, 1.4, 1.0)
  --endian <order>   Byte order written by upgrade (native, big, little)
  --validate         Check nested chunk sizes

Examples:
  meshtool info robot.mesh
  meshtool --version 1.8 --endian big upgrade -o robot_v18.mesh robot.mesh
  meshtool dump robot.mesh > robot.yaml`)
}

func newSerializer(cfg *config.Config) *formats.MeshSerializer {
	opts := formats.DefaultOptions()
	opts.Logger = logger.Codec()
	opts.ValidateChunkSizes = cfg.Import.ValidateChunkSizes
	return formats.NewMeshSerializer(opts)
}

// loadMesh reads path and imports it with the configured name rewriting.
func loadMesh(cfg *config.Config, path string) (*mesh.Mesh, formats.FileInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, formats.FileInfo{}, err
	}
	s := newSerializer(cfg)
	info, err := s.Probe(bytes.NewReader(data))
	if err != nil {
		return nil, info, fmt.Errorf("%s: %w", path, err)
	}

	listener, err := newNameRewriter(cfg.Import)
	if err != nil {
		return nil, info, err
	}
	m := mesh.New(filepath.Base(path))
	if err := s.ImportMesh(bytes.NewReader(data), m, listener); err != nil {
		return nil, info, fmt.Errorf("%s: %w", path, err)
	}
	return m, info, nil
}

func cmdInfo(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: meshtool info <file.mesh>")
	}
	m, info, err := loadMesh(cfg, args[0])
	if err != nil {
		return err
	}

	status := "current"
	if !info.Latest {
		status = "outdated, latest is " + formats.LatestVersionTag()
	}
	fmt.Printf("File:       %s\n", args[0])
	fmt.Printf("Version:    %s (%s)\n", info.Tag, status)
	fmt.Printf("Endian:     %s\n", info.Endian)
	if m.SharedVertexData != nil {
		fmt.Printf("Shared:     %d vertices\n", m.SharedVertexData.VertexCount)
	}
	if m.HasSkeleton() {
		fmt.Printf("Skeleton:   %s\n", m.SkeletonName)
	}
	fmt.Printf("Bounds:     %v - %v (radius %g)\n", m.Bounds.Min, m.Bounds.Max, m.BoundRadius)
	fmt.Println()

	fmt.Printf("Submeshes:  %d\n", len(m.SubMeshes))
	for i, sm := range m.SubMeshes {
		vertices := "shared"
		if !sm.UseSharedVertices && sm.VertexData != nil {
			vertices = fmt.Sprintf("%d vertices", sm.VertexData.VertexCount)
		}
		fmt.Printf("  %-3d %-30s %-14s %d indices, %s\n",
			i, sm.MaterialName, sm.Operation, sm.IndexData.Count, vertices)
	}

	if len(m.LodLevels) > 0 {
		fmt.Printf("LOD:        %d levels (%s)\n", len(m.LodLevels), m.LodStrategy)
	}
	if m.EdgeListsBuilt {
		fmt.Printf("Edge lists: %d\n", len(m.EdgeLists))
	}
	if len(m.Poses) > 0 {
		fmt.Printf("Poses:      %d\n", len(m.Poses))
	}
	for _, a := range m.Animations {
		fmt.Printf("Animation:  %s (%gs, %d tracks)\n", a.Name, a.Length, len(a.Tracks))
	}
	return nil
}

func cmdUpgrade(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("upgrade", flag.ExitOnError)
	output := fs.String("o", "", "Output file (default: overwrite input)")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: meshtool upgrade [-o output] <file.mesh>")
	}
	input := fs.Arg(0)
	dest := *output
	if dest == "" {
		dest = input
	}

	version, err := cfg.ExportVersion()
	if err != nil {
		return err
	}
	endian, err := cfg.ExportEndian()
	if err != nil {
		return err
	}

	m, info, err := loadMesh(cfg, input)
	if err != nil {
		return err
	}
	if m.AutoBuildEdgeLists && !m.EdgeListsBuilt {
		logger.Warn("mesh has no stored edge lists, upgraded file will not have them either",
			zap.String("mesh", m.Name))
	}

	var buf bytes.Buffer
	if err := newSerializer(cfg).ExportMesh(m, &buf, version, endian); err != nil {
		return fmt.Errorf("%s: %w", input, err)
	}
	if err := writeFileAtomic(dest, buf.Bytes()); err != nil {
		return err
	}

	logger.Info("mesh upgraded",
		zap.String("input", input),
		zap.String("output", dest),
		zap.String("from", info.Tag),
		zap.String("to", tagFor(version)),
		zap.Stringer("endian", endian),
		zap.Int("bytes", buf.Len()))
	return nil
}

// writeFileAtomic replaces path through a temporary file in the same directory.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func tagFor(v formats.Version) string {
	for _, vi := range formats.Versions() {
		if vi.Version == v {
			return vi.Tag
		}
	}
	return formats.LatestVersionTag()
}

func cmdDump(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: meshtool dump <file.mesh>")
	}
	m, _, err := loadMesh(cfg, args[0])
	if err != nil {
		return err
	}

	enc := yaml.NewEncoder(os.Stdout)
	enc.SetIndent(2)
	if err := enc.Encode(m.Summarize()); err != nil {
		return err
	}
	return enc.Close()
}

func cmdVersions() {
	for _, v := range formats.Versions() {
		var notes []string
		if v.Tag == formats.LatestVersionTag() {
			notes = append(notes, "latest")
		}
		if !v.Writable {
			notes = append(notes, "read only")
		}
		line := fmt.Sprintf("%-8s %s", v.Version, v.Tag)
		if len(notes) > 0 {
			line += "  (" + strings.Join(notes, ", ") + ")"
		}
		fmt.Println(line)
	}
}
