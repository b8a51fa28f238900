package assets

import (
	"fmt"
	"io"
	"os"

	"github.com/zlovtnik/gletter/pkg/fp"
)

// Ref points at an image stored either as a file under the library root or
// inline as base64. Inline data wins when both are set.
type Ref struct {
	Path   string `json:"path,omitempty"`
	Base64 string `json:"base64,omitempty"`
}

// Empty reports whether the reference points nowhere.
func (r Ref) Empty() bool {
	return r.Path == "" && r.Base64 == ""
}

// Library reads stored images. Paths are resolved inside Root and cannot
// escape it.
type Library struct {
	Root string
}

// NewLibrary returns a library rooted at dir.
func NewLibrary(dir string) *Library {
	return &Library{Root: dir}
}

// Load reads and decodes the stored image at name.
func (l *Library) Load(name string) (*Image, error) {
	if l == nil || l.Root == "" {
		return nil, fmt.Errorf("no image library configured for %q", name)
	}
	f, err := os.OpenInRoot(l.Root, name)
	if err != nil {
		return nil, fmt.Errorf("failed to open image %q: %w", name, err)
	}
	defer f.Close()
	return Read(f)
}

// Read decodes an image from r, reading at most MaxBytes+1 bytes.
func Read(r io.Reader) (*Image, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	return Decode(data)
}

// LoadFile reads and decodes the image at an absolute or working-directory
// relative path. It is meant for paths produced by the server itself, such
// as spooled uploads.
func LoadFile(path string) (*Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// Resolve turns a reference into an image. Inline data is tried first, then
// the stored file.
func (l *Library) Resolve(ref Ref) fp.Result[*Image] {
	if ref.Empty() {
		return fp.Fail[*Image](ErrNoImage)
	}
	var attempts []fp.Result[*Image]
	if ref.Base64 != "" {
		attempts = append(attempts, fp.Try(func() (*Image, error) { return FromBase64(ref.Base64) }))
	}
	if ref.Path != "" {
		attempts = append(attempts, fp.Try(func() (*Image, error) { return l.Load(ref.Path) }))
	}
	return fp.FirstOk(attempts...)
}
