package metadata

import (
	"encoding/base64"
	"fmt"
	"os"

	"github.com/spf13/afero"
)

// EncodePayload reads the metadata document for a publication and returns its
// raw bytes as base64 text, ready for embedding in a registration request.
//
// A missing document is not an error: the empty string is returned and the
// caller decides whether to proceed. All other read failures are reported.
func EncodePayload(fsys afero.Fs, dir string, pubID uint) (string, error) {
	path := FilePath(dir, pubID)

	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("read metadata document %s: %w", path, err)
	}

	return base64.StdEncoding.EncodeToString(data), nil
}
