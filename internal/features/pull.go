package features

import (
	"archive/tar"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"oras.land/oras-go/v2"
	"oras.land/oras-go/v2/content"
	"oras.land/oras-go/v2/registry/remote"

	devcerrors "github.com/s-retlaw/devc/internal/errors"
)

// ArtifactMediaType and LayerMediaType are the two media types the
// devcontainer-features OCI distribution spec defines for a feature
// manifest and its single tar layer, respectively.
const (
	ArtifactMediaType = "application/vnd.oci.image.manifest.v1+json"
	LayerMediaType    = "application/vnd.devcontainers.layer.v1+tar"
)

// PullOCI resolves ref against its OCI registry, fetches the feature
// manifest, and extracts its devcontainer layer into cacheDir. Returns the
// manifest digest so callers can pin it in devcontainer-lock.json.
func PullOCI(ctx context.Context, ref, cacheDir string) (string, error) {
	repo, err := remote.NewRepository(ref)
	if err != nil {
		return "", devcerrors.Wrapf(err, devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
			"invalid feature reference %q", ref)
	}

	desc, err := repo.Resolve(ctx, repo.Reference.Reference)
	if err != nil {
		return "", devcerrors.Wrapf(err, devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
			"failed to resolve feature %q", ref)
	}
	if desc.MediaType != ArtifactMediaType {
		return "", devcerrors.Newf(devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
			"feature %q resolved to unsupported media type %q", ref, desc.MediaType)
	}

	_, manifestBytes, err := oras.FetchBytes(ctx, repo, ref, oras.DefaultFetchBytesOptions)
	if err != nil {
		return "", devcerrors.Wrapf(err, devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
			"failed to fetch manifest for %q", ref)
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestBytes, &manifest); err != nil {
		return "", devcerrors.Wrapf(err, devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
			"invalid manifest for %q", ref)
	}

	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return "", devcerrors.Internal(err)
	}
	for _, layer := range manifest.Layers {
		if layer.MediaType != LayerMediaType {
			continue
		}
		layerBytes, err := content.FetchAll(ctx, repo, layer)
		if err != nil {
			return "", devcerrors.Wrapf(err, devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
				"failed to fetch layer for %q", ref)
		}
		if err := extractTar(bytes.NewReader(layerBytes), cacheDir); err != nil {
			return "", devcerrors.Wrapf(err, devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
				"failed to extract feature %q", ref)
		}
		return string(desc.Digest), nil
	}
	return "", devcerrors.Newf(devcerrors.CategoryFeature, devcerrors.CodeFeatureFailed,
		"feature %q manifest has no devcontainer layer", ref)
}

// extractTar extracts a devcontainer feature layer — a plain tar per the
// vnd.devcontainers.layer.v1+tar media type, no gzip — into destDir. Built
// on the standard library's archive/tar rather than a third-party
// extraction package; see DESIGN.md.
func extractTar(r io.Reader, destDir string) error {
	cleanDest := filepath.Clean(destDir)
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		target := filepath.Join(cleanDest, filepath.Clean("/"+hdr.Name))
		if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(os.PathSeparator)) {
			return fmt.Errorf("tar entry %q escapes destination", hdr.Name)
		}
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, fs.FileMode(hdr.Mode&0o777))
			if err != nil {
				return err
			}
			if _, err := io.Copy(f, tr); err != nil {
				f.Close()
				return err
			}
			f.Close()
		case tar.TypeSymlink:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return err
			}
			_ = os.Remove(target)
			if err := os.Symlink(hdr.Linkname, target); err != nil {
				return err
			}
		}
	}
}
