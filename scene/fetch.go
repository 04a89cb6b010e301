package scene

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	get "github.com/hashicorp/go-getter"
)

// IsRemote reports whether src needs fetching: a forced getter
// ("git::...", "s3::...") or a URL with a scheme.
func IsRemote(src string) bool {
	return strings.Contains(src, "::") || strings.Contains(src, "://")
}

// Fetch downloads the scene file at src into dir and returns its local path.
// src is any source go-getter understands.
func Fetch(ctx context.Context, src, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	dst := filepath.Join(dir, "scene.yaml")
	client := &get.Client{
		Ctx:  ctx,
		Src:  src,
		Dst:  dst,
		Mode: get.ClientModeFile,
	}
	if err := client.Get(); err != nil {
		return "", fmt.Errorf("fetching scene %s: %w", src, err)
	}
	return dst, nil
}

// LoadSource loads a scene from a local path, or fetches it into a temporary
// directory first when src is remote.
func LoadSource(ctx context.Context, src string) (Config, error) {
	if !IsRemote(src) {
		return Load(src)
	}

	dir, err := os.MkdirTemp("", "voxelphys-scene-")
	if err != nil {
		return DefaultConfig(), err
	}
	defer os.RemoveAll(dir)

	path, err := Fetch(ctx, src, dir)
	if err != nil {
		return DefaultConfig(), err
	}
	return Load(path)
}
