package storage

import (
	"context"
	"mime"
	"path"
	"path/filepath"
	"strconv"
	"strings"
)

const namespaceRoot = "recipes"

// AssetStore keeps recipe images in a remote content store.
type AssetStore interface {
	// Upload copies a staged local file into namespace and returns a
	// retrievable reference whose last path segment (minus extension)
	// is the asset id.
	Upload(ctx context.Context, localPath, namespace string) (string, error)
	// BulkDelete removes the given asset ids from namespace. Missing
	// assets are not an error.
	BulkDelete(ctx context.Context, namespace string, assetIDs []string) error
}

// Namespace returns the owner scoped prefix, recipes/{ownerID}.
func Namespace(ownerID uint) string {
	return path.Join(namespaceRoot, strconv.FormatUint(uint64(ownerID), 10))
}

// ObjectKey is the remote key for an asset within a namespace.
func ObjectKey(namespace, assetID string) string {
	return path.Join(namespace, assetID)
}

// AssetIDFromRef extracts the asset id from a reference URL.
func AssetIDFromRef(ref string) string {
	ref = strings.TrimSpace(ref)
	if i := strings.IndexAny(ref, "?#"); i >= 0 {
		ref = ref[:i]
	}
	last := ref[strings.LastIndex(ref, "/")+1:]
	if i := strings.Index(last, "."); i >= 0 {
		last = last[:i]
	}
	return last
}

// AssetIDsFromRefs maps references to asset ids, skipping blanks.
func AssetIDsFromRefs(refs []string) []string {
	ids := make([]string, 0, len(refs))
	for _, ref := range refs {
		if id := AssetIDFromRef(ref); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

func contentTypeFor(localPath string) string {
	ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(localPath)))
	if ct == "" {
		return "application/octet-stream"
	}
	return ct
}

